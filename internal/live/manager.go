package live

import (
	"sync"

	"github.com/prabidush11/Web-Development/internal/logger"
	"github.com/prabidush11/Web-Development/internal/metrics"
	"github.com/prabidush11/Web-Development/internal/presence"
	"github.com/prabidush11/Web-Development/pkg/types"
)

const defaultOutboxSize = 64

// Manager accepts and tears down live connections and keeps the presence
// registry in step with them. Every connect and every disconnect is followed
// by exactly one broadcast of the full online user list to all registered
// connections.
type Manager struct {
	registry   *presence.Registry
	outboxSize int
	mirror     func(online []string)

	// mu serializes lifecycle transitions so broadcasts go out in the order
	// the registry changed.
	mu     sync.Mutex
	conns  map[*Conn]struct{}
	closed bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithOutboxSize bounds the per-connection push queue.
func WithOutboxSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.outboxSize = n
		}
	}
}

// WithMirror installs a hook that receives every new online snapshot. It is
// called while lifecycle transitions are serialized and must not block.
func WithMirror(fn func(online []string)) Option {
	return func(m *Manager) {
		m.mirror = fn
	}
}

// NewManager creates a connection manager over registry.
func NewManager(registry *presence.Registry, opts ...Option) *Manager {
	m := &Manager{
		registry:   registry,
		outboxSize: defaultOutboxSize,
		conns:      make(map[*Conn]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry returns the presence registry the manager maintains.
func (m *Manager) Registry() *presence.Registry {
	return m.registry
}

// Connect binds transport to userID, replacing any previous connection for
// that user, and broadcasts the new online list. userID must already be
// authenticated.
func (m *Manager) Connect(transport Transport, userID string) (*Conn, error) {
	c := newConn(transport, userID, m.outboxSize, m.Disconnect)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		c.release()
		c.Close()
		return nil, ErrClosed
	}
	m.conns[c] = struct{}{}
	if prev, replaced := m.registry.Register(userID, c); replaced {
		logger.Debugf("[live] user %s rebound from %s to %s", userID, prev.ID(), c.ID())
	}
	m.broadcastLocked()
	m.mu.Unlock()

	logger.Infof("[live] user %s connected (%s)", userID, c.ID())
	return c, nil
}

// Disconnect tears c down. The registry entry is removed only if c is still
// the user's registered connection. Calling Disconnect again for the same
// connection is a no-op.
func (m *Manager) Disconnect(c *Conn) {
	if c == nil || !c.release() {
		return
	}

	m.mu.Lock()
	delete(m.conns, c)
	if !m.registry.Unregister(c.ownerID, c) {
		logger.Debugf("[live] stale connection %s closed; user %s keeps its newer connection", c.ID(), c.ownerID)
	}
	m.broadcastLocked()
	m.mu.Unlock()

	// The transport may call back into Disconnect while closing, so this runs
	// outside mu.
	c.Close()
	logger.Infof("[live] user %s disconnected (%s)", c.ownerID, c.ID())
}

// Shutdown closes every connection without further broadcasts. Later
// connects are rejected.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	conns := make([]*Conn, 0, len(m.conns))
	for c := range m.conns {
		conns = append(conns, c)
	}
	m.conns = make(map[*Conn]struct{})
	for _, c := range conns {
		c.release()
		m.registry.Unregister(c.ownerID, c)
	}
	metrics.LiveConnections.Set(0)
	metrics.OnlineUsers.Set(float64(m.registry.Len()))
	m.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

// broadcastLocked pushes the current online list to every registered
// connection. m.mu must be held.
func (m *Manager) broadcastLocked() {
	online := m.registry.Snapshot()
	for _, h := range m.registry.Handles() {
		if err := h.Push(types.EventOnlineUsers, online); err != nil {
			logger.Warnf("[live] presence broadcast to %s failed: %v", h.ID(), err)
		}
	}

	metrics.PresenceBroadcasts.Inc()
	metrics.OnlineUsers.Set(float64(len(online)))
	metrics.LiveConnections.Set(float64(len(m.conns)))

	if m.mirror != nil {
		m.mirror(online)
	}
}
