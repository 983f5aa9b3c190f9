// Worker owns the full lifecycle of one isolated execution unit: spawn,
// handshake, message routing, fault/exit observation, and disposal.
//
// A Worker must be created via NewWorker (or Start) and initialized
// exactly once with Init. Init spawns the unit, waits for the handshake
// control message carrying the unit's inbox endpoint, and only then
// reports the worker ready. Application messages flow through Send and
// the two handlers; Dispose and Kill tear the unit down with graceful
// and immediate urgency respectively.
//
// Example usage:
//
//	w, err := isolate.Start(ctx,
//	    func(v any, _ isolate.Sender) { fmt.Println("reply:", v) },
//	    func(ctx context.Context, v any, owner isolate.Sender, report func(error)) error {
//	        return owner.Send(process(v))
//	    },
//	)
//	w.Send("job")
//	defer w.Dispose()
package isolate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Handler processes one application message inside the execution unit.
// It receives the unit's context (cancelled when the unit is killed), the
// message payload, the send endpoint back to the owner, and a report hook.
//
// Values passed to report, and a non-nil return, are forwarded to the
// owner's error handler without terminating the unit. A panic escaping
// the handler terminates the unit: the [*Fault] reaches the error handler
// first, then the exit handler fires with [ExitFault].
type Handler func(ctx context.Context, v any, owner Sender, report func(error)) error

// OwnerHandler processes one application message on the owner side. It
// receives the payload and the send endpoint to the worker's unit, so a
// reply can be sent without capturing the [Worker].
type OwnerHandler func(v any, remote Sender)

// WorkerState is the lifecycle state of a [Worker].
// No transition ever leaves [StateDisposed].
type WorkerState int32

const (
	// StateUninitialized is the state of a fresh worker before [Worker.Init].
	StateUninitialized WorkerState = iota

	// StateInitializing covers the window between spawn and handshake.
	StateInitializing

	// StateReady means the handshake completed and [Worker.Send] is accepted.
	StateReady

	// StateDisposed is terminal: the unit has been told to stop and the
	// owner-side channels are closed or closing.
	StateDisposed
)

func (s WorkerState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// WorkerInfo identifies a worker in events, errors, and logs.
type WorkerInfo struct {
	ID   uuid.UUID
	Name string
}

// String returns the worker's name, or a short form of its ID when unnamed.
func (i WorkerInfo) String() string {
	if i.Name != "" {
		return i.Name
	}
	return i.ID.String()[:8]
}

// Worker owns one isolated execution unit.
type Worker struct {
	cfg  config
	info WorkerInfo
	rt   Runtime

	state atomic.Int32

	// mu guards the handles below against a dispose racing Init.
	mu     sync.Mutex
	inbox  Receiver // owner-side inbound channel
	events Receiver // merged fault/exit channel; nil without observers
	unit   Unit

	// remote is the unit's inbox endpoint, captured exactly once from
	// the handshake control message and immutable after that. Written on
	// the listener goroutine; everyone else reads it through ready.
	remote Sender

	ready *oneshot[Sender]

	disposeOnce sync.Once
}

// NewWorker creates a worker in [StateUninitialized].
// Call [Worker.Init] to spawn its execution unit.
func NewWorker(opts ...Option) *Worker {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Worker{
		cfg:   cfg,
		info:  WorkerInfo{ID: uuid.New(), Name: cfg.name},
		rt:    cfg.runtime,
		ready: newOneshot[Sender](),
	}
}

// Start is a convenience wrapper combining [NewWorker] and [Worker.Init].
func Start(ctx context.Context, owner OwnerHandler, handler Handler, opts ...Option) (*Worker, error) {
	w := NewWorker(opts...)
	if err := w.Init(ctx, owner, handler); err != nil {
		return nil, err
	}
	return w, nil
}

// Init spawns the execution unit and blocks until the handshake control
// message — the unit's inbox endpoint — has been received, or ctx is done.
// The unit's lifetime is not bound to ctx: ctx only bounds the wait, and
// [Worker.Dispose] remains the way to stop a running unit.
//
// Init may be called at most once per worker. A second call reports
// [ErrReentrantInit]; a call on a disposed worker reports [ErrDisposed].
// If the runtime cannot create the unit, Init fails with a [*SpawnError]
// and the worker is left disposed.
//
// owner is invoked for every application message the unit sends back; it
// may be nil if the worker is write-only. handler runs inside the unit
// for every message sent via [Worker.Send]. With [WithQueueMode] both
// sides invoke their handler strictly one message at a time; otherwise
// invocations may overlap.
func (w *Worker) Init(ctx context.Context, owner OwnerHandler, handler Handler) error {
	if !w.state.CompareAndSwap(int32(StateUninitialized), int32(StateInitializing)) {
		if w.State() == StateDisposed {
			return ErrDisposed
		}
		return ErrReentrantInit
	}

	inSend, inRecv := w.rt.NewChannel()

	var evSend Sender
	var evRecv Receiver
	if w.cfg.errorHandler != nil || w.cfg.exitHandler != nil || w.cfg.onEvent != nil {
		evSend, evRecv = w.rt.NewChannel()
	}

	unit, err := w.rt.Spawn(workerMain, Boot{
		Owner:     inSend,
		Events:    evSend,
		Handler:   handler,
		QueueMode: w.cfg.queueMode,
	})
	if err != nil {
		spawnErr := &SpawnError{Err: err}
		w.state.Store(int32(StateDisposed))
		w.ready.resolve(nil, spawnErr)
		inRecv.Close()
		if evRecv != nil {
			evRecv.Close()
		}
		return spawnErr
	}

	w.mu.Lock()
	if w.State() == StateDisposed {
		// Disposed while spawning; tear down what we just built.
		w.mu.Unlock()
		inRecv.Close()
		if evRecv != nil {
			evRecv.Close()
		}
		unit.Kill()
		return ErrDisposed
	}
	w.inbox = inRecv
	w.events = evRecv
	w.unit = unit
	w.mu.Unlock()

	w.cfg.logger.Debug("isolate: worker spawned", "worker", w.info.String())
	w.emit(EventSpawned, nil, 0)

	if evRecv != nil {
		go w.watchEvents()
	}
	go w.listen(owner)

	if _, err := w.ready.wait(ctx); err != nil {
		if ctx.Err() != nil {
			// Caller gave up on the handshake; tear the unit down.
			w.Kill()
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Send enqueues payload for delivery to the unit's handler. It never
// blocks; delivery is FIFO relative to other Send calls on this worker
// and carries no ordering guarantee relative to other workers.
//
// Send fails with [ErrNotInitialized] before the handshake resolves,
// [ErrDisposed] after disposal, and [ErrExited] if the unit has already
// terminated.
func (w *Worker) Send(payload any) error {
	remote, rerr, ok := w.ready.tryGet()
	if !ok {
		return ErrNotInitialized
	}
	if rerr != nil {
		return ErrDisposed
	}
	if w.State() == StateDisposed {
		return ErrDisposed
	}
	if err := remote.Send(dataMsg{v: payload}); err != nil {
		return ErrExited
	}
	return nil
}

// Dispose requests graceful termination: the unit finishes the message it
// is handling and everything queued ahead of the dispose, then stops with
// [ExitNormal]. The owner-side inbound channel closes immediately; the
// fault/exit listeners stay open for the dispose grace window so late
// notifications still reach their handlers.
//
// Dispose is idempotent, and a later [Worker.Kill] after Dispose is a
// no-op (the first call of either wins). Disposing a worker whose
// handshake never completed degrades to Kill.
func (w *Worker) Dispose() {
	w.shutdown(false)
}

// Kill requests immediate termination: the unit's context is cancelled
// and the unit stops at the earliest safe point, potentially interrupting
// an in-flight handler invocation ([ExitKilled]). Otherwise identical to
// [Worker.Dispose], including idempotence.
func (w *Worker) Kill() {
	w.shutdown(true)
}

// State returns the worker's current lifecycle state.
func (w *Worker) State() WorkerState {
	return WorkerState(w.state.Load())
}

// Info returns the worker's identity.
func (w *Worker) Info() WorkerInfo {
	return w.info
}

func (w *Worker) shutdown(immediate bool) {
	w.disposeOnce.Do(func() {
		w.state.Store(int32(StateDisposed))

		w.mu.Lock()
		inbox, events, unit := w.inbox, w.events, w.unit
		w.mu.Unlock()

		// Pick up the captured endpoint, if any, before poisoning the
		// readiness signal for late waiters.
		remote, rerr, resolved := w.ready.tryGet()
		w.ready.resolve(nil, ErrDisposed)

		if inbox != nil {
			inbox.Close()
		}

		// Emit before signalling the unit so EventDisposed always
		// precedes the EventExited it causes.
		w.cfg.logger.Debug("isolate: worker disposed",
			"worker", w.info.String(), "immediate", immediate)
		w.emit(EventDisposed, nil, 0)

		if immediate || !resolved || rerr != nil || remote == nil {
			// No graceful path without a handshake.
			if unit != nil {
				unit.Kill()
			}
		} else {
			_ = remote.Send(stopMsg{})
		}

		if events != nil {
			time.AfterFunc(w.cfg.disposeGrace, events.Close)
		}
	})
}

// listen routes the owner-side inbound channel: the handshake control
// message is consumed here, every application message goes to handler.
func (w *Worker) listen(handler OwnerHandler) {
	for v := range w.inbox.Chan() {
		switch m := v.(type) {
		case helloMsg:
			w.handleHello(m.remote)
		case dataMsg:
			if handler == nil {
				continue
			}
			if w.cfg.queueMode {
				handler(m.v, w.remote)
			} else {
				go handler(m.v, w.remote)
			}
		}
	}
}

// handleHello runs on the listener goroutine for the handshake control
// message: capture the endpoint, deliver the initial message, go ready.
func (w *Worker) handleHello(remote Sender) {
	if w.ready.resolved() {
		// Duplicate control message, or a worker already torn down.
		return
	}

	w.remote = remote
	if w.cfg.hasInitial {
		_ = remote.Send(dataMsg{v: w.cfg.initial})
	}
	w.ready.resolve(remote, nil)

	if w.state.CompareAndSwap(int32(StateInitializing), int32(StateReady)) {
		w.cfg.logger.Debug("isolate: worker ready", "worker", w.info.String())
		w.emit(EventReady, nil, 0)
	}
}

// watchEvents demuxes the merged fault/exit channel. Notes are FIFO, so
// the error handler always observes a terminating fault before the exit
// handler fires.
func (w *Worker) watchEvents() {
	for v := range w.events.Chan() {
		switch n := v.(type) {
		case faultNote:
			w.cfg.logger.Debug("isolate: worker fault",
				"worker", w.info.String(), "err", n.err)
			if w.cfg.errorHandler != nil {
				w.cfg.errorHandler(n.err)
			}
			w.emit(EventFault, n.err, 0)
		case exitNote:
			w.cfg.logger.Debug("isolate: worker exited",
				"worker", w.info.String(), "status", n.event.Status.String())
			if w.cfg.exitHandler != nil {
				w.cfg.exitHandler(n.event)
			}
			w.emit(EventExited, n.event.Err, n.event.Status)
		}
	}
}

func (w *Worker) emit(kind EventKind, err error, status ExitStatus) {
	if w.cfg.onEvent == nil {
		return
	}
	w.cfg.onEvent(WorkerEvent{
		Kind:   kind,
		Worker: w.info,
		Err:    err,
		Status: status,
	})
}
