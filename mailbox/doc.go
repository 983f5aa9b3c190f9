// Package mailbox provides an unbounded, FIFO, goroutine-safe message
// channel with idempotent close.
//
// Go channels have a fixed capacity: a send on a full channel blocks, a
// send on a closed channel panics, and a double close panics. A [Mailbox]
// removes all three sharp edges:
//
//   - [Mailbox.Send] never blocks; values queue in an unbounded buffer
//     and are delivered in send order.
//   - Send on a closed mailbox returns [ErrClosed] instead of panicking.
//   - [Mailbox.Close] is safe to call any number of times, from any
//     goroutine. Values not yet received when Close is called are dropped.
//
// Values are read from the channel returned by [Mailbox.Chan], which is
// closed once the mailbox is closed and delivery has stopped.
//
// The unbounded buffer makes Mailbox suitable as a channel endpoint
// between execution contexts that must never block each other on send.
package mailbox
