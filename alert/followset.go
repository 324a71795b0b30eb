package alert

import "sync"

// FollowSet remembers the logins already credited with a follow alert during this process.
// Matching is exact and case-sensitive; the set only grows.
type FollowSet struct {
	mu     sync.Mutex
	names  map[string]struct{}
	seeded bool
}

func NewFollowSet() *FollowSet {
	return &FollowSet{names: make(map[string]struct{})}
}

// Seed records names without crediting them and marks the set as seeded.
func (s *FollowSet) Seed(names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range names {
		s.names[n] = struct{}{}
	}
	s.seeded = true
}

// Seeded reports whether a cold-start snapshot has been stored.
func (s *FollowSet) Seeded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seeded
}

// AddIfNew adds name and reports true if it was not already present.
func (s *FollowSet) AddIfNew(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[name]; ok {
		return false
	}
	s.names[name] = struct{}{}
	return true
}

func (s *FollowSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names)
}
