package effects

import (
	"context"
	"testing"

	"github.com/onnwee/alert-overlay/backend/render"
)

func writerStage(t *testing.T) (*render.Scene, render.Element, render.Element) {
	t.Helper()
	s := render.NewScene(nil, render.DefaultMeasurer)
	box := s.New("alert")
	box.SetSize(440, 0)
	s.Append(nil, box)
	label := s.New("alert-text")
	s.Append(box, label)
	return s, box, label
}

func TestWriterReplacesText(t *testing.T) {
	s, box, label := writerStage(t)
	label.SetText("alt")
	w := NewWriter(s, NewNudger(box))

	if err := w.Write(context.Background(), label, "Grüße", 0, true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if label.Text() != "Grüße" {
		t.Errorf("label text = %q, want Grüße", label.Text())
	}
	caret, ok := s.NextSibling(label)
	if !ok || caret.Text() != Caret {
		t.Fatal("caret not placed after label")
	}
	if !caret.HasClass(CursorClass) || !caret.HasClass(BlinkingClass) {
		t.Error("caret should be a blinking cursor")
	}

	// 3 deletions + 6 typing steps = 9 nudges, odd so the box is 1px wider
	if wd, _ := box.Size(); wd != 441 {
		t.Errorf("companion width = %v, want 441", wd)
	}
}

func TestWriterReusesAndRemovesCaret(t *testing.T) {
	s, box, label := writerStage(t)
	w := NewWriter(s, NewNudger(box))
	ctx := context.Background()

	if err := w.Write(ctx, label, "ab", 0, true); err != nil {
		t.Fatal(err)
	}
	first, _ := s.NextSibling(label)

	if err := w.Write(ctx, label, "", 0, false); err != nil {
		t.Fatal(err)
	}
	if label.Text() != "" {
		t.Errorf("label text = %q, want empty", label.Text())
	}
	if _, ok := s.Lookup(first.ID()); ok {
		t.Error("caret not removed when blinking is false")
	}
	if _, ok := s.NextSibling(label); ok {
		t.Error("label still has a sibling")
	}
	// 3 + 3 steps, even, width restored
	if wd, _ := box.Size(); wd != 440 {
		t.Errorf("companion width drifted to %v", wd)
	}
}

func TestWriterStopsBlinkingWhileTyping(t *testing.T) {
	s, box, label := writerStage(t)
	w := NewWriter(s, NewNudger(box))
	_ = w.Write(context.Background(), label, "x", 0, true)

	var sawStatic bool
	caret, _ := s.NextSibling(label)
	w.Nudger = nil
	s.SetPublisher(render.PublisherFunc(func(op render.Op) {
		if op.Op == render.OpClass && op.ID == caret.ID() && op.Class == BlinkingClass && !op.On {
			sawStatic = true
		}
	}))
	if err := w.Write(context.Background(), label, "y", 0, true); err != nil {
		t.Fatal(err)
	}
	if !sawStatic {
		t.Error("existing caret kept blinking while text changed")
	}
	if !caret.HasClass(BlinkingClass) {
		t.Error("caret not blinking after write")
	}
}

func TestWriterCancelled(t *testing.T) {
	s, _, label := writerStage(t)
	w := NewWriter(s, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Write(ctx, label, "hello", 0, false); err == nil {
		t.Error("expected context error")
	}
}
