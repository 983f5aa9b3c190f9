package isolate

import "context"

// Sender is the sending half of an asynchronous, ordered, unbounded
// message channel between two execution contexts. Send never blocks.
type Sender interface {
	// Send enqueues v for delivery to the other end. It returns an error
	// if the channel has been closed.
	Send(v any) error

	// Close closes the channel. Safe to call multiple times.
	Close()
}

// Receiver is the receiving half of an asynchronous, ordered, unbounded
// message channel. Values arrive in send order.
type Receiver interface {
	// Chan returns the delivery channel. It is closed once the channel
	// endpoint is closed.
	Chan() <-chan any

	// Close closes the channel. Safe to call multiple times.
	Close()
}

// Unit is a handle to a live execution unit.
type Unit interface {
	// Kill requests termination with the highest urgency the runtime
	// supports. Messages already in flight on channels are unaffected,
	// but the unit is expected to stop at the earliest safe point,
	// potentially interrupting an in-progress handler invocation.
	Kill()
}

// Boot carries everything a freshly spawned execution unit needs to serve
// its owner: the send half of the owner's inbound channel, the send half
// of the owner's event channel (nil when the owner registered no
// observers), the message handler, and the queue-mode flag.
type Boot struct {
	Owner     Sender
	Events    Sender
	Handler   Handler
	QueueMode bool
}

// EntryFunc is the routine a [Runtime] runs inside a spawned unit.
// ctx is cancelled when the unit is killed.
type EntryFunc func(ctx context.Context, rt Runtime, boot Boot)

// Runtime is the isolated-execution-unit primitive the worker machinery
// is built on. It is injected so the worker logic stays independent of
// how units are scheduled and can be tested against a fake.
//
// Implementations must guarantee FIFO delivery per channel and reliable
// spawn-or-error semantics. [LocalRuntime], the default, runs units as
// goroutines in the same process.
type Runtime interface {
	// NewChannel allocates a fresh channel and returns its two halves.
	NewChannel() (Sender, Receiver)

	// Spawn starts a new execution unit running entry and returns its
	// handle. A failed spawn must leave no unit running.
	Spawn(entry EntryFunc, boot Boot) (Unit, error)
}
