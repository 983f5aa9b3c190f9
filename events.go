package isolate

// EventKind identifies a worker lifecycle state change reported through
// the [WithOnEvent] hook.
type EventKind int

const (
	// EventSpawned fires once the execution unit has been created.
	EventSpawned EventKind = iota

	// EventReady fires once the handshake completes and the worker
	// accepts application messages.
	EventReady

	// EventFault fires for every fault reported by the unit, whether
	// through the handler's report hook or an escaped panic.
	EventFault

	// EventExited fires once when the execution unit terminates.
	EventExited

	// EventDisposed fires when [Worker.Dispose] or [Worker.Kill] takes
	// effect on the owner side.
	EventDisposed
)

func (k EventKind) String() string {
	switch k {
	case EventSpawned:
		return "spawned"
	case EventReady:
		return "ready"
	case EventFault:
		return "fault"
	case EventExited:
		return "exited"
	case EventDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// WorkerEvent describes one worker lifecycle state change.
// It is passed to the hook registered via [WithOnEvent].
type WorkerEvent struct {
	Kind   EventKind
	Worker WorkerInfo

	// Err carries the fault for EventFault and the exit error, if any,
	// for EventExited. Nil otherwise.
	Err error

	// Status is meaningful for EventExited only.
	Status ExitStatus
}

// ExitStatus classifies how an execution unit terminated.
type ExitStatus int

const (
	// ExitNormal means the unit drained its inbox after a graceful
	// dispose and stopped on its own.
	ExitNormal ExitStatus = iota

	// ExitKilled means the unit was stopped at the earliest safe point
	// by [Worker.Kill], possibly interrupting an in-flight handler.
	ExitKilled

	// ExitFault means a panic escaped the unit's handler.
	ExitFault
)

func (s ExitStatus) String() string {
	switch s {
	case ExitNormal:
		return "normal"
	case ExitKilled:
		return "killed"
	case ExitFault:
		return "fault"
	default:
		return "unknown"
	}
}

// ExitEvent describes the termination of an execution unit. It is passed
// to the hook registered via [WithExitHandler], exactly once per worker.
type ExitEvent struct {
	Status ExitStatus

	// Err is the terminating [*Fault] for [ExitFault] and nil for
	// [ExitNormal]. For [ExitKilled] it carries the cancellation cause,
	// which may be nil.
	Err error
}
