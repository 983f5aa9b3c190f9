package isolate

import (
	"context"

	"github.com/baxromumarov/isolate/mailbox"
)

// LocalRuntime runs execution units as goroutines in the current process
// and channels as [mailbox.Mailbox] endpoints. It is the default runtime.
//
// Goroutines share memory, so the channel boundary copies nothing; the
// payload contract (send only values that could be copied across a real
// isolation boundary) is a convention under LocalRuntime, not an enforced
// rule. Alternative runtimes that cross process boundaries enforce it by
// construction.
type LocalRuntime struct{}

// NewChannel returns the two halves of a fresh unbounded mailbox.
func (LocalRuntime) NewChannel() (Sender, Receiver) {
	mb := mailbox.New()
	return mb, mb
}

// Spawn runs entry on a new goroutine. The unit's context is cancelled by
// [Unit.Kill]. A panic escaping entry itself is routed to the boot's
// event channel as a fault followed by an [ExitFault] exit, mirroring a
// handler fault. Spawn never fails under LocalRuntime.
func (LocalRuntime) Spawn(entry EntryFunc, boot Boot) (Unit, error) {
	ctx, cancel := context.WithCancel(context.Background())
	u := &localUnit{cancel: cancel}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				f := newFault(r)
				notifyFault(boot.Events, f)
				notifyExit(boot.Events, ExitEvent{Status: ExitFault, Err: f})
			}
		}()
		entry(ctx, LocalRuntime{}, boot)
	}()

	return u, nil
}

type localUnit struct {
	cancel context.CancelFunc
}

func (u *localUnit) Kill() {
	u.cancel()
}
