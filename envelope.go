package isolate

// Wire variants carried on the channels between owner and unit. Tagging
// every value removes any dependence on positional conventions: a
// receiver always knows whether it is looking at control traffic or an
// application payload.

// helloMsg is the handshake control message. It is the first value a
// unit sends on the owner's inbound channel, exactly once, and carries
// the send half of the unit's own inbox.
type helloMsg struct {
	remote Sender
}

// dataMsg wraps one application payload, in either direction.
type dataMsg struct {
	v any
}

// stopMsg is the graceful-termination pill. The unit handles everything
// queued ahead of it, then exits.
type stopMsg struct{}

// faultNote carries one reported fault to the owner's event channel.
// Manual reports and terminating faults ride the same note; only the
// latter are followed by an exitNote with [ExitFault].
type faultNote struct {
	err error
}

// exitNote is the last value a unit puts on the event channel. Because
// notes are FIFO, an owner always observes the terminating fault before
// the exit it caused.
type exitNote struct {
	event ExitEvent
}

func notifyFault(events Sender, err error) {
	if events == nil || err == nil {
		return
	}
	_ = events.Send(faultNote{err: err})
}

func notifyExit(events Sender, ev ExitEvent) {
	if events == nil {
		return
	}
	_ = events.Send(exitNote{event: ev})
}
