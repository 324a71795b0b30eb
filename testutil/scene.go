package testutil

import (
	"sync"

	"github.com/onnwee/alert-overlay/backend/render"
)

// OpRecorder collects published scene ops.
type OpRecorder struct {
	mu  sync.Mutex
	ops []render.Op
}

func (r *OpRecorder) Publish(op render.Op) {
	r.mu.Lock()
	r.ops = append(r.ops, op)
	r.mu.Unlock()
}

// Ops returns a copy of the recorded ops.
func (r *OpRecorder) Ops() []render.Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]render.Op(nil), r.ops...)
}

// NewScene returns an empty scene with the default measurer whose ops go to the returned recorder.
func NewScene() (*render.Scene, *OpRecorder) {
	rec := &OpRecorder{}
	return render.NewScene(rec, render.DefaultMeasurer), rec
}
