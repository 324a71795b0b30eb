package effects

import (
	"context"
	"sync"
	"time"

	"github.com/onnwee/alert-overlay/backend/render"
)

const (
	Caret         = "|"
	CursorClass   = "cursor"
	BlinkingClass = "blinking-cursor"
)

// Nudger alternately widens and narrows an element by 1px. Some broadcast capture clients only
// repaint incrementally typed text when the surrounding box changes size.
type Nudger struct {
	mu   sync.Mutex
	el   render.Element
	sign float64
}

func NewNudger(el render.Element) *Nudger {
	return &Nudger{el: el, sign: 1}
}

// Nudge is safe on a nil Nudger.
func (n *Nudger) Nudge() {
	if n == nil || n.el == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	w, h := n.el.Size()
	n.el.SetSize(w+n.sign, h)
	n.sign = -n.sign
}

// Writer replaces label text with a typewriter effect followed by a caret.
type Writer struct {
	Surface render.Surface
	Nudger  *Nudger
}

func NewWriter(s render.Surface, n *Nudger) *Writer {
	return &Writer{Surface: s, Nudger: n}
}

// Write deletes the current text of label one rune at a time, then types text one rune at a
// time, waiting speed after every step. The caret is left blinking or removed when done.
func (w *Writer) Write(ctx context.Context, label render.Element, text string, speed time.Duration, blinking bool) error {
	caret := w.caret(label)

	old := []rune(label.Text())
	for len(old) > 0 {
		old = old[:len(old)-1]
		label.SetText(string(old))
		w.Nudger.Nudge()
		if err := sleep(ctx, speed); err != nil {
			return err
		}
	}

	runes := []rune(text)
	for i := 0; i <= len(runes); i++ {
		label.SetText(string(runes[:i]))
		w.Nudger.Nudge()
		if err := sleep(ctx, speed); err != nil {
			return err
		}
	}

	if blinking {
		caret.AddClass(BlinkingClass)
	} else {
		w.Surface.Remove(caret)
	}
	return nil
}

// caret returns the caret following label, creating it if absent. An existing caret stops
// blinking while the text changes.
func (w *Writer) caret(label render.Element) render.Element {
	if next, ok := w.Surface.NextSibling(label); ok && next.Text() == Caret {
		next.RemoveClass(BlinkingClass)
		return next
	}
	c := w.Surface.New(label.ID() + "-caret")
	c.SetText(Caret)
	c.AddClass(CursorClass)
	w.Surface.InsertAfter(label, c)
	return c
}
