// Package dedupe tracks season IDs with a recalculation in flight so the
// same season is not queued twice.
package dedupe

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrPending is returned when the ID already has a job in flight.
	ErrPending = errors.New("recalculation already pending")
	// ErrFull is returned when the tracker holds its maximum number of IDs.
	ErrFull = errors.New("pending tracker full")
)

// Tracker records in-flight IDs.
type Tracker interface {
	// Claim marks id as pending. It fails with ErrPending if id is already
	// claimed and ErrFull if the tracker is at capacity.
	Claim(ctx context.Context, id int64) error

	// Release clears id once its job finished or could not be queued.
	Release(ctx context.Context, id int64)

	Pending(id int64) bool
	Size() int
}

type pendingSet struct {
	mu      sync.Mutex
	ids     map[int64]struct{}
	maxSize int // 0 or negative means unbounded
}

// NewTracker returns an in-memory Tracker.
func NewTracker(opts ...Option) Tracker {
	t := &pendingSet{maxSize: 50000}
	for _, opt := range opts {
		opt(t)
	}
	t.ids = make(map[int64]struct{})
	return t
}

func (t *pendingSet) Claim(_ context.Context, id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.ids[id]; ok {
		return ErrPending
	}
	if t.maxSize > 0 && len(t.ids) >= t.maxSize {
		return ErrFull
	}
	t.ids[id] = struct{}{}
	return nil
}

func (t *pendingSet) Release(_ context.Context, id int64) {
	t.mu.Lock()
	delete(t.ids, id)
	t.mu.Unlock()
}

func (t *pendingSet) Pending(id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.ids[id]
	return ok
}

func (t *pendingSet) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ids)
}
