package isolate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Pool is a reusable fixed-size pool of workers. Tasks are submitted via
// Submit and dispatched round-robin; each worker runs in queue mode, so
// tasks land on the same worker in submission order and never overlap
// there. A task panic is captured as a [*Fault] error and does not take
// the worker down.
type Pool struct {
	workers []*Worker
	ctx     context.Context
	cancel  context.CancelFunc
	next    atomic.Uint64
	closed  atomic.Bool
	exited  sync.WaitGroup

	errMu sync.Mutex
	errs  []error

	// Observability counters.
	submitted atomic.Int64
	completed atomic.Int64
	errored   atomic.Int64
	inFlight  atomic.Int64
}

// PoolStats provides a point-in-time snapshot of pool activity.
type PoolStats struct {
	Submitted int64 // total tasks submitted
	Completed int64 // tasks finished (success + error)
	Errored   int64 // tasks that returned non-nil error
	InFlight  int64 // tasks currently executing
	Queued    int64 // tasks accepted but not yet started
	Workers   int   // worker count (fixed at creation)
}

// PoolOption configures a [Pool].
type PoolOption func(*poolConfig)

type poolConfig struct {
	onMetrics       func(PoolStats)
	metricsInterval time.Duration
}

// WithPoolMetrics registers a periodic pool metrics callback that fires
// every interval. The callback receives a snapshot of current pool counters.
//
// Panics if interval <= 0 or fn is nil.
func WithPoolMetrics(interval time.Duration, fn func(PoolStats)) PoolOption {
	if interval <= 0 {
		panic("isolate: WithPoolMetrics requires interval > 0")
	}
	if fn == nil {
		panic("isolate: WithPoolMetrics requires non-nil callback")
	}
	return func(c *poolConfig) {
		c.onMetrics = fn
		c.metricsInterval = interval
	}
}

// NewPool creates a pool of n workers and waits for all of them to become
// ready. Workers process tasks until [Pool.Close] is called.
//
// Panics if n <= 0. Fails with a [*SpawnError] if any worker cannot be
// spawned; workers already started are disposed before returning.
func NewPool(ctx context.Context, n int, opts ...PoolOption) (*Pool, error) {
	if n <= 0 {
		panic("isolate: NewPool requires n > 0")
	}

	var cfg poolConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		workers: make([]*Worker, 0, n),
		ctx:     ctx,
		cancel:  cancel,
	}

	p.exited.Add(n)
	for i := range n {
		w, err := Start(ctx, nil, p.runTask,
			WithQueueMode(),
			WithName(fmt.Sprintf("pool-%d", i)),
			WithExitHandler(func(ExitEvent) {
				p.exited.Done()
			}),
		)
		if err != nil {
			for _, started := range p.workers {
				started.Kill()
			}
			cancel()
			return nil, err
		}
		p.workers = append(p.workers, w)
	}

	// Start metrics ticker if configured.
	if cfg.onMetrics != nil {
		go func() {
			ticker := time.NewTicker(cfg.metricsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if p.closed.Load() {
						return
					}
					cfg.onMetrics(p.Stats())
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	return p, nil
}

// runTask executes one submitted task inside a pool worker. Panics are
// captured as errors so a bad task never costs the pool a worker.
func (p *Pool) runTask(ctx context.Context, v any, _ Sender, _ func(error)) error {
	fn, ok := v.(func(context.Context) error)
	if !ok {
		return nil
	}

	p.inFlight.Add(1)
	defer func() {
		p.inFlight.Add(-1)
		p.completed.Add(1)
	}()

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = newFault(r)
			}
		}()
		err = fn(ctx)
	}()
	if err != nil {
		p.errored.Add(1)
		p.errMu.Lock()
		p.errs = append(p.errs, err)
		p.errMu.Unlock()
	}
	return nil
}

// Stats returns a point-in-time snapshot of pool activity.
// Safe to call concurrently.
func (p *Pool) Stats() PoolStats {
	submitted := p.submitted.Load()
	completed := p.completed.Load()
	inFlight := p.inFlight.Load()
	queued := submitted - completed - inFlight
	if queued < 0 {
		queued = 0
	}
	return PoolStats{
		Submitted: submitted,
		Completed: completed,
		Errored:   p.errored.Load(),
		InFlight:  inFlight,
		Queued:    queued,
		Workers:   len(p.workers),
	}
}

// Submit enqueues a task on the next worker in round-robin order. It
// never blocks. Returns [ErrPoolClosed] if the pool has been closed and
// ctx.Err() if the pool's context is cancelled.
//
// Panics if fn is nil.
func (p *Pool) Submit(fn func(context.Context) error) error {
	if fn == nil {
		panic("isolate: Submit requires a non-nil task")
	}
	if p.closed.Load() {
		return ErrPoolClosed
	}
	if err := p.ctx.Err(); err != nil {
		return err
	}

	i := p.next.Add(1) - 1
	w := p.workers[i%uint64(len(p.workers))]

	// A dispose can slip between the closed check and the send; the
	// worker rejects the task then and we report the pool closed.
	if err := w.Send(fn); err != nil {
		return ErrPoolClosed
	}
	p.submitted.Add(1)
	return nil
}

// Close stops accepting new tasks, lets every worker drain its queue, and
// waits for all workers to exit. Returns the joined errors from all
// failed tasks.
//
// Safe to call multiple times; subsequent calls return the same result.
func (p *Pool) Close() error {
	if p.closed.CompareAndSwap(false, true) {
		for _, w := range p.workers {
			w.Dispose()
		}
	}
	p.exited.Wait()
	p.cancel()

	p.errMu.Lock()
	defer p.errMu.Unlock()
	return errors.Join(p.errs...)
}
