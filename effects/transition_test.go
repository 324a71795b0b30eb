package effects

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/onnwee/alert-overlay/backend/render"
)

type opLog struct {
	mu  sync.Mutex
	ops []render.Op
}

func (l *opLog) Publish(op render.Op) {
	l.mu.Lock()
	l.ops = append(l.ops, op)
	l.mu.Unlock()
}

func (l *opLog) reset() {
	l.mu.Lock()
	l.ops = nil
	l.mu.Unlock()
}

// count returns how many ops of type typ touched each id.
func (l *opLog) count(typ string) map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int)
	for _, op := range l.ops {
		if op.Op == typ {
			out[op.ID]++
		}
	}
	return out
}

func newStage(t *testing.T, w, h float64) (*render.Scene, render.Element, *opLog) {
	t.Helper()
	log := &opLog{}
	s := render.NewScene(log, render.DefaultMeasurer)
	el := s.New("image")
	el.SetSize(w, h)
	s.Append(nil, el)
	log.reset()
	return s, el, log
}

func TestTransitionBuildsGridOnce(t *testing.T) {
	s, el, log := newStage(t, 90, 60)
	var perms [][]int
	tr := NewTransitioner(s, 3, 0)
	tr.Perm = func(n int) []int {
		p := rand.Perm(n)
		perms = append(perms, p)
		return p
	}

	if err := tr.Transition(context.Background(), el, Color("red"), Point{X: 10, Y: 20}); err != nil {
		t.Fatalf("first Transition: %v", err)
	}
	if !el.HasClass(TransitionClass) {
		t.Error("element not marked with the transition class")
	}
	created := log.count(render.OpCreate)
	if len(created) != 9 {
		t.Fatalf("created %d cells, want 9", len(created))
	}
	for id, n := range created {
		if n != 1 {
			t.Errorf("cell %s appended %d times", id, n)
		}
	}

	cells := tr.Cells(el)
	// row 1, col 2
	c := cells[5]
	if x, y := c.Position(); x != 10+2*30 || y != 20+1*20 {
		t.Errorf("cell 5 at (%v,%v), want (70,40)", x, y)
	}
	if w, h := c.Size(); w != 30 || h != 20 {
		t.Errorf("cell size = %vx%v, want 30x20", w, h)
	}

	log.reset()
	if err := tr.Transition(context.Background(), el, Image("/img/u.png"), Point{X: 10, Y: 20}); err != nil {
		t.Fatalf("second Transition: %v", err)
	}
	if len(log.count(render.OpCreate)) != 0 {
		t.Error("second transition created new cells")
	}
	painted := log.count(render.OpSet)
	if len(painted) != 9 {
		t.Fatalf("repainted %d cells, want 9", len(painted))
	}
	for id, n := range painted {
		if n != 1 {
			t.Errorf("cell %s repainted %d times", id, n)
		}
	}
	bg := c.Background()
	if bg.Image != "/img/u.png" || bg.SizeW != 90 || bg.SizeH != 60 || bg.PosX != -60 || bg.PosY != -20 {
		t.Errorf("image crop for cell 5 = %+v", bg)
	}

	for _, p := range perms {
		sorted := append([]int(nil), p...)
		sort.Ints(sorted)
		for i, v := range sorted {
			if v != i {
				t.Fatalf("permutation %v is not a bijection onto [0,9)", p)
			}
		}
	}
}

func TestTransitionMalformedOverlay(t *testing.T) {
	s, el, log := newStage(t, 10, 10)
	tr := NewTransitioner(s, 2, 0)
	for _, ov := range []Overlay{{}, Color(""), Image("")} {
		if err := tr.Transition(context.Background(), el, ov, Point{}); !errors.Is(err, ErrMalformedOverlay) {
			t.Errorf("Transition(%v) err = %v, want ErrMalformedOverlay", ov, err)
		}
	}
	if len(log.count(render.OpCreate)) != 0 || el.HasClass(TransitionClass) {
		t.Error("malformed overlay touched the element")
	}
}

func TestTransitionHonorsCancellation(t *testing.T) {
	s, el, _ := newStage(t, 10, 10)
	tr := NewTransitioner(s, 4, 50*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := tr.Transition(ctx, el, Color("blue"), Point{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("transition kept running after cancellation")
	}
}

func TestTransitionCellIDs(t *testing.T) {
	s, el, _ := newStage(t, 10, 10)
	tr := NewTransitioner(s, 2, 0)
	_ = tr.Transition(context.Background(), el, Color("red"), Point{})
	for _, c := range tr.Cells(el) {
		if !strings.HasPrefix(c.ID(), "image-cell-") {
			t.Errorf("unexpected cell id %q", c.ID())
		}
		if _, ok := s.Lookup(c.ID()); !ok {
			t.Errorf("cell %q not attached", c.ID())
		}
	}
}
