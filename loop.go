package isolate

import (
	"context"
	"errors"
	"sync"
)

// workerMain is the program every execution unit runs: create the unit's
// inbox, hand its endpoint to the owner as the handshake control message,
// then receive application messages until a stop pill arrives or the unit
// context is cancelled.
//
// The unit never touches the owner-side channels beyond sending on them,
// and it closes only its own inbox. A send to a unit that has returned
// from workerMain fails, which is how the owner detects [ErrExited].
func workerMain(ctx context.Context, rt Runtime, boot Boot) {
	inSend, inbox := rt.NewChannel()
	defer inbox.Close()

	loopCtx, abort := context.WithCancelCause(ctx)
	defer abort(nil)

	if err := boot.Owner.Send(helloMsg{remote: inSend}); err != nil {
		// Owner vanished before the handshake; nothing to serve.
		notifyExit(boot.Events, ExitEvent{Status: ExitKilled, Err: err})
		return
	}

	var inflight sync.WaitGroup

	dispatch := func(v any) {
		if boot.Handler == nil {
			return
		}
		if boot.QueueMode {
			invoke(loopCtx, boot, v, abort)
			return
		}
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			invoke(loopCtx, boot, v, abort)
		}()
	}

	for {
		// Check for termination before considering inbox traffic, so a
		// fault or kill never loses the race against queued messages.
		select {
		case <-loopCtx.Done():
			notifyExit(boot.Events, terminalEvent(loopCtx))
			return
		default:
		}

		select {
		case <-loopCtx.Done():
			notifyExit(boot.Events, terminalEvent(loopCtx))
			return
		case v, ok := <-inbox.Chan():
			if !ok {
				notifyExit(boot.Events, terminalEvent(loopCtx))
				return
			}
			switch m := v.(type) {
			case dataMsg:
				dispatch(m.v)
			case stopMsg:
				// Graceful stop: everything queued ahead of the pill has
				// already been dispatched, so wait out in-flight handlers
				// unless a fault or kill cuts the drain short.
				drained := make(chan struct{})
				go func() {
					inflight.Wait()
					close(drained)
				}()
				select {
				case <-drained:
				case <-loopCtx.Done():
				}
				notifyExit(boot.Events, terminalEvent(loopCtx))
				return
			}
		}
	}
}

// invoke runs the boot handler for one message. An escaping panic becomes
// a [*Fault] that is forwarded to the owner and terminates the unit; an
// error returned or reported by the handler is forwarded without
// stopping the loop.
func invoke(ctx context.Context, boot Boot, v any, abort context.CancelCauseFunc) {
	defer func() {
		if r := recover(); r != nil {
			f := newFault(r)
			notifyFault(boot.Events, f)
			abort(f)
		}
	}()

	report := func(err error) {
		if err != nil {
			notifyFault(boot.Events, err)
		}
	}

	if err := boot.Handler(ctx, v, boot.Owner, report); err != nil {
		notifyFault(boot.Events, err)
	}
}

// terminalEvent derives the exit event from the loop context: a [*Fault]
// cause means a handler panic killed the unit, any other cancellation is
// a kill, and an uncancelled context is a normal stop.
func terminalEvent(ctx context.Context) ExitEvent {
	cause := context.Cause(ctx)
	if cause == nil {
		return ExitEvent{Status: ExitNormal}
	}
	var f *Fault
	if errors.As(cause, &f) {
		return ExitEvent{Status: ExitFault, Err: cause}
	}
	return ExitEvent{Status: ExitKilled, Err: cause}
}
