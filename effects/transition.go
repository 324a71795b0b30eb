package effects

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/onnwee/alert-overlay/backend/render"
)

// TransitionClass marks an element whose cell grid has been built.
const TransitionClass = "transition"

// Transparent is painted behind image cells.
const Transparent = "rgba(0,0,0,0)"

// Transitioner switches elements between overlays by revealing an Amount×Amount grid of cells in
// random order, one every Delay.
type Transitioner struct {
	Surface render.Surface
	Amount  int
	Delay   time.Duration
	// Perm returns a random permutation of [0,n). Defaults to math/rand.Perm.
	Perm func(n int) []int

	mu    sync.Mutex
	grids map[string]*grid
}

type grid struct {
	cells        []render.Element // row-major
	cellW, cellH float64
	w, h         float64
}

func NewTransitioner(s render.Surface, amount int, delay time.Duration) *Transitioner {
	return &Transitioner{Surface: s, Amount: amount, Delay: delay}
}

// Transition paints ov over el. The first call for an element builds the grid at origin and
// appends its cells; later calls repaint the existing cells. Every cell is touched exactly once.
func (t *Transitioner) Transition(ctx context.Context, el render.Element, ov Overlay, origin Point) error {
	if !ov.IsColor() && !ov.IsImage() {
		return ErrMalformedOverlay
	}
	if t.Amount <= 0 {
		return fmt.Errorf("transition %s: grid amount must be positive, got %d", el.ID(), t.Amount)
	}
	n := t.Amount * t.Amount
	order := t.perm(n)

	g, built := t.grid(el.ID())
	if !built {
		g = t.build(el, ov, origin)
		for _, i := range order {
			t.Surface.Append(el, g.cells[i])
			if err := sleep(ctx, t.Delay); err != nil {
				return err
			}
		}
		return nil
	}

	for _, i := range order {
		paint(g.cells[i], ov, g, i, t.Amount)
		if err := sleep(ctx, t.Delay); err != nil {
			return err
		}
	}
	return nil
}

// Cells returns the grid cells of el in row-major order, or nil before the first transition.
func (t *Transitioner) Cells(el render.Element) []render.Element {
	g, ok := t.grid(el.ID())
	if !ok {
		return nil
	}
	return g.cells
}

func (t *Transitioner) perm(n int) []int {
	if t.Perm != nil {
		return t.Perm(n)
	}
	return rand.Perm(n)
}

func (t *Transitioner) grid(id string) (*grid, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.grids[id]
	return g, ok
}

func (t *Transitioner) build(el render.Element, ov Overlay, origin Point) *grid {
	el.AddClass(TransitionClass)

	w, h := el.Size()
	a := t.Amount
	g := &grid{w: w, h: h, cellW: w / float64(a), cellH: h / float64(a)}
	g.cells = make([]render.Element, a*a)
	for row := 0; row < a; row++ {
		for col := 0; col < a; col++ {
			i := row*a + col
			c := t.Surface.New(fmt.Sprintf("%s-cell-%d", el.ID(), i))
			c.SetSize(g.cellW, g.cellH)
			c.SetPosition(origin.X+float64(col)*g.cellW, origin.Y+float64(row)*g.cellH)
			paint(c, ov, g, i, a)
			g.cells[i] = c
		}
	}

	t.mu.Lock()
	if t.grids == nil {
		t.grids = make(map[string]*grid)
	}
	t.grids[el.ID()] = g
	t.mu.Unlock()
	return g
}

// paint shows ov on cell i. Image cells show their crop of the full-size image.
func paint(c render.Element, ov Overlay, g *grid, i, amount int) {
	if ov.IsColor() {
		c.SetBackground(render.Background{Color: ov.Value()})
		return
	}
	row, col := i/amount, i%amount
	c.SetBackground(render.Background{
		Color: Transparent,
		Image: ov.Value(),
		SizeW: g.w,
		SizeH: g.h,
		PosX:  -float64(col) * g.cellW,
		PosY:  -float64(row) * g.cellH,
	})
}
