package isolate

import (
	"log/slog"
	"time"
)

// DefaultDisposeGrace is how long the fault/exit listeners of a disposed
// worker stay open so notifications emitted during the shutdown race
// still reach their handlers. Override per worker with [WithDisposeGrace].
const DefaultDisposeGrace = 2 * time.Second

type config struct {
	runtime      Runtime
	queueMode    bool
	initial      any
	hasInitial   bool
	errorHandler func(error)
	exitHandler  func(ExitEvent)
	onEvent      func(WorkerEvent)
	disposeGrace time.Duration
	name         string
	logger       *slog.Logger
	limit        int
}

// Option configures a [Worker], or the workers spawned by the parallel
// helpers and [Pool].
type Option func(*config)

func defaultConfig() config {
	return config{
		runtime:      LocalRuntime{},
		disposeGrace: DefaultDisposeGrace,
		logger:       slog.Default(),
	}
}

// WithRuntime sets the [Runtime] the worker spawns its execution unit on.
// The default is [LocalRuntime]. Panics if rt is nil.
func WithRuntime(rt Runtime) Option {
	if rt == nil {
		panic("isolate: WithRuntime requires a non-nil runtime")
	}
	return func(c *config) {
		c.runtime = rt
	}
}

// WithQueueMode serializes message-handler invocations on both sides of
// the worker: invocation i+1 never starts before invocation i returns.
// Without it, handlers may run concurrently as messages arrive.
func WithQueueMode() Option {
	return func(c *config) {
		c.queueMode = true
	}
}

// WithInitialMessage registers a value to send to the unit immediately
// after the handshake completes. It is the first application message the
// unit's handler observes.
func WithInitialMessage(v any) Option {
	return func(c *config) {
		c.initial = v
		c.hasInitial = true
	}
}

// WithErrorHandler registers a callback invoked for every fault the unit
// reports: values passed to the handler's report hook, non-nil handler
// returns, and panics escaping the handler. Panics if fn is nil.
//
// The callback runs on the worker's event-listener goroutine; faults and
// the exit notification are delivered in order.
func WithErrorHandler(fn func(error)) Option {
	if fn == nil {
		panic("isolate: WithErrorHandler requires a non-nil callback")
	}
	return func(c *config) {
		c.errorHandler = fn
	}
}

// WithExitHandler registers a callback invoked exactly once when the
// execution unit terminates. Panics if fn is nil.
func WithExitHandler(fn func(ExitEvent)) Option {
	if fn == nil {
		panic("isolate: WithExitHandler requires a non-nil callback")
	}
	return func(c *config) {
		c.exitHandler = fn
	}
}

// WithOnEvent registers a unified hook receiving a [WorkerEvent] for
// every lifecycle state change (spawned, ready, fault, exited, disposed).
// The hook may be invoked from multiple goroutines and must be safe for
// concurrent use. Panics if fn is nil.
func WithOnEvent(fn func(WorkerEvent)) Option {
	if fn == nil {
		panic("isolate: WithOnEvent requires a non-nil callback")
	}
	return func(c *config) {
		c.onEvent = fn
	}
}

// WithDisposeGrace sets how long the fault/exit listeners stay open after
// the worker is disposed, so late notifications still reach their
// handlers. Zero closes them immediately. Panics if d is negative.
func WithDisposeGrace(d time.Duration) Option {
	if d < 0 {
		panic("isolate: WithDisposeGrace requires a non-negative duration")
	}
	return func(c *config) {
		c.disposeGrace = d
	}
}

// WithName attaches a human-readable name to the worker. The name appears
// in [WorkerInfo] on events and [*WorkerError] values.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithLogger sets the logger for debug-level lifecycle traces.
// The default is [slog.Default]. Panics if l is nil.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("isolate: WithLogger requires a non-nil logger")
	}
	return func(c *config) {
		c.logger = l
	}
}

// WithLimit bounds how many workers the parallel helpers ([Map],
// [ForEach]) keep live at once. Items beyond the limit wait for a slot.
// Zero (the default) means one live worker per item, all at once.
// It has no effect on a single [Worker]. Panics if n is negative.
func WithLimit(n int) Option {
	if n < 0 {
		panic("isolate: WithLimit requires a non-negative limit")
	}
	return func(c *config) {
		c.limit = n
	}
}
