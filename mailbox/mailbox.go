package mailbox

import (
	"errors"
	"fmt"
	"sync"

	"github.com/eapache/queue"
)

// ErrClosed is returned by [Mailbox.Send] when the mailbox has been closed.
var ErrClosed = errors.New("mailbox: send on closed mailbox")

// Mailbox is an unbounded FIFO message channel. Sends enqueue without
// blocking; a pump goroutine delivers queued values, in send order, to the
// channel returned by [Mailbox.Chan]. Create one with [New].
//
// A Mailbox is safe for concurrent use by multiple senders and a single
// receiver (or multiple receivers competing for values).
type Mailbox struct {
	mu     sync.Mutex
	buf    *queue.Queue
	closed bool

	wake chan struct{} // nudges the pump after an enqueue into an empty buffer
	done chan struct{} // closed when Close is called
	out  chan any

	once sync.Once
}

// New creates a Mailbox and starts its delivery pump.
// Call [Mailbox.Close] when done to stop the pump.
func New() *Mailbox {
	m := &Mailbox{
		buf:  queue.New(),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan any),
	}
	go m.pump()
	return m
}

// Send enqueues v for delivery. It never blocks: the buffer grows as
// needed. Returns [ErrClosed] if the mailbox has been closed.
func (m *Mailbox) Send(v any) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.buf.Add(v)
	fmt.Printf("MBDBG SEND %p v=%#v len=%d\n", m, v, m.buf.Length())
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return nil
}

// Chan returns the delivery channel. Values arrive in send order. The
// channel is closed after [Mailbox.Close]; values still queued at that
// point are dropped.
func (m *Mailbox) Chan() <-chan any {
	return m.out
}

// Len returns the number of values queued and not yet delivered.
// The value may be stale in concurrent contexts.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buf.Length()
}

// Close closes the mailbox. Subsequent sends return [ErrClosed], queued
// values are dropped, and the delivery channel is closed. Safe to call
// multiple times, from any goroutine.
func (m *Mailbox) Close() {
	m.once.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()
		close(m.done)
	})
}

// pump moves values from the buffer to the out channel until Close.
func (m *Mailbox) pump() {
	defer close(m.out)
	for {
		m.mu.Lock()
		if m.buf.Length() == 0 {
			closed := m.closed
			m.mu.Unlock()
			if closed {
				return
			}
			fmt.Printf("MBDBG IDLE %p\n", m)
			select {
			case <-m.wake:
				fmt.Printf("MBDBG WAKE %p\n", m)
				continue
			case <-m.done:
				return
			}
		}
		v := m.buf.Peek()
		m.mu.Unlock()
		fmt.Printf("MBDBG PEEK %p v=%#v\n", m, v)

		// Stop before offering the next value, so a Close drops the
		// queue instead of racing deliveries against it.
		select {
		case <-m.done:
			return
		default:
		}

		select {
		case m.out <- v:
			fmt.Printf("MBDBG DELIVERED %p v=%#v\n", m, v)
			m.mu.Lock()
			m.buf.Remove()
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}
