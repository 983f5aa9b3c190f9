// Package isolate provides managed workers over isolated execution units.
//
// A [Worker] owns one unit for its whole lifecycle: it spawns the unit,
// completes a handshake that wires a private message channel in each
// direction, routes typed messages to handlers on both sides, surfaces
// faults and termination to observer callbacks, and tears the unit down
// on disposal. Units run as goroutines by default, but nothing in the
// worker machinery assumes that; see Runtimes below.
//
// # Workers
//
// The primary entry point is [Start], which creates a worker and blocks
// until its unit is ready:
//
//	w, err := isolate.Start(ctx,
//	    func(v any, _ isolate.Sender) {
//	        fmt.Println("from worker:", v)
//	    },
//	    func(ctx context.Context, v any, owner isolate.Sender, report func(error)) error {
//	        return owner.Send(strings.ToUpper(v.(string)))
//	    },
//	)
//	if err != nil {
//	    return err
//	}
//	defer w.Dispose()
//
//	w.Send("hello")
//
// For manual lifecycle control, [NewWorker] returns an uninitialized
// worker and [Worker.Init] spawns its unit. Init may be called at most
// once; the worker walks [StateUninitialized] → [StateInitializing] →
// [StateReady] → [StateDisposed] and never moves backwards.
//
// # Message Handling
//
// Messages sent with [Worker.Send] are delivered to the unit's [Handler]
// in send order; messages the unit sends back arrive at the
// [OwnerHandler] in send order. Neither side ever blocks the other on
// send. By default handler invocations may overlap as messages arrive;
// [WithQueueMode] serializes them on both sides so invocation i+1 never
// starts before invocation i returns. [WithInitialMessage] registers a
// value delivered to the unit before anything sent via Send.
//
// # Faults and Exits
//
// Errors inside the unit travel one of two roads. The handler's report
// hook (and a non-nil handler return) forwards an error to the callback
// registered via [WithErrorHandler] and the unit keeps running. A panic
// escaping the handler is fatal: it is captured as a [*Fault] with its
// stack trace, delivered to the error callback, and then the callback
// registered via [WithExitHandler] fires with [ExitFault]. The error
// callback always observes the terminating fault before the exit
// callback observes the termination.
//
// [ExitEvent.Status] classifies every termination: [ExitNormal] after a
// graceful dispose, [ExitKilled] after [Worker.Kill], [ExitFault] after
// a handler panic.
//
// # Disposal
//
// [Worker.Dispose] stops the unit gracefully: messages queued ahead of
// the dispose are still handled, then the unit exits. [Worker.Kill]
// stops it at the earliest safe point instead. Both are idempotent and
// the first call wins. Fault and exit listeners stay open for a grace
// window after disposal ([WithDisposeGrace], default
// [DefaultDisposeGrace]) so notifications racing the shutdown still
// reach their callbacks.
//
// # Errors
//
// [Worker.Send] reports [ErrNotInitialized], [ErrDisposed], or
// [ErrExited] depending on where the worker is in its lifecycle. A spawn
// failure surfaces as a [*SpawnError]. Failures coming out of
// helper-owned workers are wrapped in [*WorkerError] for attribution;
// use [IsWorkerError], [WorkerOf], [CauseOf], and [AllWorkerErrors] to
// inspect them.
//
// # Parallel Helpers
//
// Convenience functions that run closures in throwaway workers:
//
//   - [Run]: execute one function in a fresh worker and return its result.
//   - [Map]: transform every item of a slice concurrently, preserving order.
//   - [ForEach]: apply a function to every item concurrently.
//   - [Race]: run candidates concurrently and keep the first success.
//
// Map and ForEach fail fast: the first error kills the remaining
// workers. [WithLimit] bounds how many workers they keep live at once.
// A panic inside any helper-run closure comes back as an error rather
// than crashing the caller.
//
// # Worker Pool
//
// [Pool] keeps a fixed set of workers alive and dispatches submitted
// tasks round-robin via [Pool.Submit]. Call [Pool.Close] to drain the
// queues and collect errors, and [Pool.Stats] or [WithPoolMetrics] for
// counters.
//
// # Bounded Concurrency
//
// [Semaphore] is the context-aware counting semaphore behind
// [WithLimit], exported for standalone use.
//
// # Observability
//
// [WithOnEvent] registers a unified hook receiving a [WorkerEvent] for
// every lifecycle state change (spawned, ready, fault, exited,
// disposed). Debug-level lifecycle traces go to the logger set with
// [WithLogger].
//
// # Runtimes
//
// The [Runtime] interface is the unit primitive everything above is
// built on: it allocates message channels and spawns units.
// [LocalRuntime], the default, runs units as goroutines and channels as
// unbounded mailboxes from the
// [github.com/baxromumarov/isolate/mailbox] subpackage. Supplying a
// different implementation via [WithRuntime] changes where units
// execute without touching worker code; payloads should therefore be
// values that could be copied across a real isolation boundary.
package isolate
