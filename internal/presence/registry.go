package presence

import (
	"sort"
	"sync"
)

// Handle is a live connection that events can be pushed to. ID must be
// unique per connection; the registry compares handles by ID.
type Handle interface {
	ID() string
	Push(event string, payload any) error
}

// Registry tracks the authoritative live connection per user in a
// concurrency-safe way. A user has at most one entry; registering again
// replaces the previous handle.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]Handle // userID -> handle
}

func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[string]Handle),
	}
}

// Register binds h to userID and returns the handle it displaced, if any.
// The displaced handle is not notified.
func (r *Registry) Register(userID string, h Handle) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.handles[userID]
	r.handles[userID] = h
	if ok && prev.ID() == h.ID() {
		return nil, false
	}
	return prev, ok
}

// Unregister removes userID only while h is still its registered handle. It
// reports whether an entry was removed; a stale handle is a no-op.
func (r *Registry) Unregister(userID string, h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.handles[userID]
	if !ok || current.ID() != h.ID() {
		return false
	}
	delete(r.handles, userID)
	return true
}

// Lookup returns the registered handle for userID.
func (r *Registry) Lookup(userID string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handles[userID]
	return h, ok
}

// Snapshot returns the online user ids in sorted order.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.handles))
	for userID := range r.handles {
		ids = append(ids, userID)
	}
	sort.Strings(ids)
	return ids
}

// Handles returns a copy of the registered handles.
func (r *Registry) Handles() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Handle, 0, len(r.handles))
	for _, h := range r.handles {
		result = append(result, h)
	}
	return result
}

// Len returns the number of online users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
