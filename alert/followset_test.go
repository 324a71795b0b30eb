package alert

import "testing"

func TestFollowSetSeedAndDedup(t *testing.T) {
	s := NewFollowSet()
	if s.Seeded() {
		t.Fatal("new set reports seeded")
	}
	s.Seed([]string{"a", "b"})
	if !s.Seeded() || s.Len() != 2 {
		t.Fatalf("after Seed: seeded=%v len=%d", s.Seeded(), s.Len())
	}

	tests := []struct {
		name string
		want bool
	}{
		{"a", false},
		{"c", true},
		{"c", false},
		{"A", true}, // case-sensitive
	}
	for _, tt := range tests {
		if got := s.AddIfNew(tt.name); got != tt.want {
			t.Errorf("AddIfNew(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
	if s.Len() != 4 {
		t.Errorf("Len = %d, want 4", s.Len())
	}
}

func TestFollowSetSeedEmptyStillSeeds(t *testing.T) {
	s := NewFollowSet()
	s.Seed(nil)
	if !s.Seeded() {
		t.Error("an empty follower list must still count as the cold-start snapshot")
	}
}
