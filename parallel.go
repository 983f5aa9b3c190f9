package isolate

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// computation is the initial message every parallel helper hands its
// worker: a closure plus the item it applies to. The unit executes it via
// compHandler and replies with a compReply.
type computation struct {
	apply func(ctx context.Context, v any) (any, error)
	item  any
}

type compReply struct {
	value any
	err   error
}

// compHandler runs inside helper-owned units. A panic in apply escapes to
// the unit loop and comes back to the owner as a fault, so the reply path
// only carries ordinary errors.
func compHandler(ctx context.Context, v any, owner Sender, _ func(error)) error {
	comp, ok := v.(computation)
	if !ok {
		return nil
	}
	value, err := comp.apply(ctx, comp.item)
	_ = owner.Send(compReply{value: value, err: err})
	return nil
}

// runOne executes a single computation in a fresh worker and waits for
// its reply. Failures coming out of the unit (returned errors and faults
// alike) are attributed with a [*WorkerError]; a ctx cancellation is
// returned bare and kills the worker.
func runOne(ctx context.Context, comp computation, opts []Option) (any, error) {
	cell := newOneshot[any]()

	// A worker that dies before replying resolves the item with its exit
	// cause. Chained after any caller-supplied exit handler rather than
	// replacing it.
	watchExit := func(c *config) {
		user := c.exitHandler
		c.exitHandler = func(ev ExitEvent) {
			if user != nil {
				user(ev)
			}
			if ev.Status == ExitNormal {
				return
			}
			err := ev.Err
			if err == nil {
				err = ErrExited
			}
			cell.resolve(nil, err)
		}
	}

	wopts := make([]Option, 0, len(opts)+2)
	wopts = append(wopts, opts...)
	wopts = append(wopts, WithInitialMessage(comp), watchExit)

	w := NewWorker(wopts...)
	err := w.Init(ctx, func(v any, _ Sender) {
		if r, ok := v.(compReply); ok {
			cell.resolve(r.value, r.err)
		}
	}, compHandler)
	if err != nil {
		return nil, err
	}
	defer w.Dispose()

	v, rerr := cell.wait(ctx)
	if rerr != nil {
		if ctx.Err() != nil && errors.Is(rerr, ctx.Err()) {
			w.Kill()
			return nil, rerr
		}
		return nil, &WorkerError{Worker: w.Info(), Err: rerr}
	}
	return v, nil
}

// Run executes fn inside a fresh single-use worker and returns its
// result. The worker is disposed when Run returns, whatever the outcome.
//
// A panic inside fn does not crash the caller: it surfaces as a
// [*WorkerError] wrapping the [*Fault]. Ordinary errors returned by fn
// come back the same way. If ctx is cancelled first, the worker is killed
// and Run returns ctx's error.
//
// Run panics if fn is nil.
func Run[T any](ctx context.Context, fn func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var zero T
	if fn == nil {
		panic("isolate: Run function must not be nil")
	}

	comp := computation{
		apply: func(ctx context.Context, _ any) (any, error) {
			return fn(ctx)
		},
	}
	v, err := runOne(ctx, comp, opts)
	if err != nil {
		return zero, err
	}
	out, _ := v.(T)
	return out, nil
}

// Map applies fn to every item in its own worker and returns the results
// in item order. All workers run concurrently unless [WithLimit] bounds
// them.
//
// Map fails fast: the first error (or fault) cancels the remaining
// workers, their units are killed, and Map returns that first error with
// partial results discarded. An empty items slice returns an empty,
// non-nil slice without spawning anything.
//
// Map panics if fn is nil.
func Map[T, R any](ctx context.Context, items []T, fn func(ctx context.Context, item T) (R, error), opts ...Option) ([]R, error) {
	if fn == nil {
		panic("isolate: Map function must not be nil")
	}

	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	base := cfg.name
	if base == "" {
		base = "map"
	}
	var sem *Semaphore
	if cfg.limit > 0 {
		sem = NewSemaphore(cfg.limit)
	}

	mapCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel(err)
		})
	}

	wg.Add(len(items))
	for i := range items {
		go func(i int) {
			defer wg.Done()

			if sem != nil {
				if err := sem.Acquire(mapCtx); err != nil {
					fail(err)
					return
				}
				defer sem.Release()
			}

			comp := computation{
				apply: func(ctx context.Context, v any) (any, error) {
					return fn(ctx, v.(T))
				},
				item: items[i],
			}
			itemOpts := append(opts[:len(opts):len(opts)],
				WithName(fmt.Sprintf("%s-%d", base, i)))

			v, err := runOne(mapCtx, comp, itemOpts)
			if err != nil {
				fail(err)
				return
			}
			r, _ := v.(R)
			results[i] = r
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// ForEach applies fn to every item in its own worker, discarding results.
// It shares Map's concurrency, ordering, and fail-fast behavior.
//
// ForEach panics if fn is nil.
func ForEach[T any](ctx context.Context, items []T, fn func(ctx context.Context, item T) error, opts ...Option) error {
	if fn == nil {
		panic("isolate: ForEach function must not be nil")
	}

	// Default the worker name base; a caller-supplied WithName still wins
	// because later options override earlier ones.
	opts = append([]Option{WithName("foreach")}, opts...)

	_, err := Map(ctx, items, func(ctx context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	}, opts...)
	return err
}
