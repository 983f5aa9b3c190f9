package isolate

import (
	"context"
	"sync"
)

// oneshot is a single-resolution cell: it is resolved at most once and
// every waiter, whether it arrives before or after resolution, observes
// the same value. It backs the worker readiness signal and the parallel
// helpers' per-item completion signals.
type oneshot[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

func newOneshot[T any]() *oneshot[T] {
	return &oneshot[T]{done: make(chan struct{})}
}

// resolve stores the outcome and wakes all waiters. Only the first call
// wins; later calls report false and change nothing.
func (o *oneshot[T]) resolve(v T, err error) bool {
	won := false
	o.once.Do(func() {
		o.val, o.err = v, err
		close(o.done)
		won = true
	})
	return won
}

// wait blocks until the cell resolves or ctx is done.
func (o *oneshot[T]) wait(ctx context.Context) (T, error) {
	select {
	case <-o.done:
		return o.val, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// tryGet returns the outcome without blocking. ok is false while the
// cell is unresolved.
func (o *oneshot[T]) tryGet() (v T, err error, ok bool) {
	select {
	case <-o.done:
		return o.val, o.err, true
	default:
		var zero T
		return zero, nil, false
	}
}

// resolved reports whether the cell has been resolved.
func (o *oneshot[T]) resolved() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}
