package isolate

import (
	"fmt"
	"runtime"
)

// Fault wraps a panic that escaped an isolate-side [Handler], together
// with the goroutine stack trace captured at the point of the panic.
//
// A Fault terminates its execution unit: the fault is delivered to the
// owner's error handler (if registered), then the exit handler fires with
// [ExitFault]. Errors reported through the handler's report hook, by
// contrast, are forwarded the same way but leave the unit running.
type Fault struct {
	// Value is the original value passed to panic().
	Value any

	// Stack is the goroutine stack trace at the point of panic.
	Stack string
}

// Error returns a human-readable representation of the fault,
// including the panic value and the full stack trace.
func (f *Fault) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", f.Value, f.Stack)
}

// Unwrap returns nil. Fault does not wrap another error.
func (f *Fault) Unwrap() error { return nil }

func newFault(v any) *Fault {
	// 8 KiB is enough for most stack traces. runtime.Stack truncates
	// gracefully if the buffer is too small.
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &Fault{
		Value: v,
		Stack: string(buf[:n]),
	}
}
