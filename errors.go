package isolate

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by [Worker.Send] when the worker's
	// handshake has not completed yet.
	ErrNotInitialized = errors.New("isolate: worker not initialized")

	// ErrReentrantInit is returned by [Worker.Init] when it is called
	// more than once on the same worker.
	ErrReentrantInit = errors.New("isolate: Init called twice on the same worker")

	// ErrDisposed is returned when a worker is used after [Worker.Dispose]
	// or [Worker.Kill].
	ErrDisposed = errors.New("isolate: worker disposed")

	// ErrExited marks an operation that could not complete because the
	// execution unit terminated first.
	ErrExited = errors.New("isolate: worker exited")

	// ErrPoolClosed is returned by [Pool.Submit] when the pool has been closed.
	ErrPoolClosed = errors.New("isolate: pool is closed")
)

// SpawnError reports that the underlying execution unit could not be
// created. [Worker.Init] fails with a *SpawnError and the worker is left
// disposed; no partial worker ever reaches the ready state.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("isolate: spawn failed: %v", e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// WorkerError wraps an error together with the [WorkerInfo] of the worker
// that produced it. The parallel helpers and [Pool] wrap every worker
// failure in a WorkerError so callers can attribute errors to specific
// workers.
type WorkerError struct {
	Worker WorkerInfo
	Err    error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker %s failed: %v", e.Worker, e.Err)
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}

// IsWorkerError reports whether err (or any error in its chain) is a [*WorkerError].
func IsWorkerError(err error) bool {
	if err == nil {
		return false
	}
	var we *WorkerError
	return errors.As(err, &we)
}

// WorkerOf extracts the [WorkerInfo] from the first [*WorkerError] in err's
// chain. Returns false if no WorkerError is found.
func WorkerOf(err error) (WorkerInfo, bool) {
	if err == nil {
		return WorkerInfo{}, false
	}

	var we *WorkerError
	if errors.As(err, &we) {
		return we.Worker, true
	}
	return WorkerInfo{}, false
}

// CauseOf unwraps the first [*WorkerError] in err's chain and returns its
// underlying cause. If err is not a WorkerError, it is returned as-is.
// Returns nil if err is nil.
func CauseOf(err error) error {
	if err == nil {
		return nil
	}

	var we *WorkerError
	if errors.As(err, &we) {
		return we.Err
	}

	return err
}

// AllWorkerErrors recursively collects every [*WorkerError] from err's
// chain, including errors wrapped via [errors.Join]. Returns nil if none
// are found.
func AllWorkerErrors(err error) []*WorkerError {
	if err == nil {
		return nil
	}

	var out []*WorkerError
	collectWorkerErrors(err, &out)
	return out
}

func collectWorkerErrors(err error, out *[]*WorkerError) {
	switch e := err.(type) {
	case *WorkerError:
		*out = append(*out, e)

	case interface{ Unwrap() []error }:
		for _, sub := range e.Unwrap() {
			collectWorkerErrors(sub, out)
		}

	case interface{ Unwrap() error }:
		collectWorkerErrors(e.Unwrap(), out)
	}
}
