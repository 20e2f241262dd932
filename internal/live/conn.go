package live

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/prabidush11/Web-Development/internal/logger"
)

var (
	// ErrClosed is returned when pushing to a closed connection.
	ErrClosed = errors.New("live connection closed")
	// ErrBackpressure is returned when the connection outbox is full.
	ErrBackpressure = errors.New("live connection outbox full")
)

// Transport is the transport-level side of a live connection (a Socket.IO
// socket, a WebSocket, or a fake in tests).
type Transport interface {
	// ID is unique per connection.
	ID() string
	Emit(event string, payload any) error
	Close()
}

type outbound struct {
	event   string
	payload any
}

// Conn is one live connection bound to a user. Pushes are queued on a
// bounded outbox and written by a single goroutine, so events reach the
// client in push order.
type Conn struct {
	transport Transport
	ownerID   string
	outbox    chan outbound
	// onFailure runs when the writer gives up on a broken transport.
	onFailure func(*Conn)

	mu     sync.RWMutex
	closed bool

	released atomic.Bool
}

func newConn(transport Transport, ownerID string, outboxSize int, onFailure func(*Conn)) *Conn {
	if outboxSize <= 0 {
		outboxSize = 1
	}
	c := &Conn{
		transport: transport,
		ownerID:   ownerID,
		outbox:    make(chan outbound, outboxSize),
		onFailure: onFailure,
	}
	go c.writeLoop()
	return c
}

// ID returns the transport connection id.
func (c *Conn) ID() string {
	return c.transport.ID()
}

// OwnerID returns the user the connection is bound to.
func (c *Conn) OwnerID() string {
	return c.ownerID
}

// Push queues an event without blocking.
func (c *Conn) Push(event string, payload any) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}
	select {
	case c.outbox <- outbound{event: event, payload: payload}:
		return nil
	default:
		return ErrBackpressure
	}
}

// Close stops accepting pushes and closes the transport. Events already
// queued are still written while the transport accepts them. Close is
// idempotent and may be called re-entrantly from transport callbacks.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.outbox)
	c.mu.Unlock()

	c.transport.Close()
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// release marks the connection as handed back to the manager. It returns
// false if that already happened.
func (c *Conn) release() bool {
	return c.released.CompareAndSwap(false, true)
}

func (c *Conn) writeLoop() {
	for ev := range c.outbox {
		if err := c.transport.Emit(ev.event, ev.payload); err != nil {
			logger.Warnf("[live] emit %s to %s (user %s) failed: %v", ev.event, c.ID(), c.ownerID, err)
			// A transport that already went away may never report its own
			// close, so the owner is told here.
			if c.onFailure != nil {
				c.onFailure(c)
			}
			c.Close()
			// Drain so nothing else is emitted on a broken transport.
			for range c.outbox {
			}
			return
		}
	}
}
