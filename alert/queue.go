package alert

import (
	"errors"
	"sync"

	"github.com/onnwee/alert-overlay/backend/telemetry"
)

// ErrInvalidKind is returned when enqueuing a record without a Host, Follow or Raid kind.
var ErrInvalidKind = errors.New("alert: record has no valid kind")

// Queue is an unbounded FIFO of pending alerts. Ingestion appends at the tail and the
// playback loop pops from the head. Enqueue never blocks on depth.
type Queue struct {
	mu    sync.Mutex
	items []Record
}

func NewQueue() *Queue { return &Queue{} }

// Enqueue appends rec to the tail.
func (q *Queue) Enqueue(rec Record) error {
	if !rec.Kind.Valid() {
		return ErrInvalidKind
	}
	q.mu.Lock()
	q.items = append(q.items, rec)
	n := len(q.items)
	q.mu.Unlock()

	telemetry.CountEnqueued(rec.Kind.String())
	telemetry.SetQueueDepth(n)
	return nil
}

// Dequeue pops the head. ok is false when the queue is empty.
func (q *Queue) Dequeue() (rec Record, ok bool) {
	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return Record{}, false
	}
	rec = q.items[0]
	q.items[0] = Record{}
	q.items = q.items[1:]
	n := len(q.items)
	if n == 0 {
		q.items = nil // release the backing array between bursts
	}
	q.mu.Unlock()

	telemetry.SetQueueDepth(n)
	return rec, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot returns a copy of the pending records in playback order.
func (q *Queue) Snapshot() []Record {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Record, len(q.items))
	copy(out, q.items)
	return out
}
