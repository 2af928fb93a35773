package presence

import (
	"sync"

	"github.com/dtroode/chatstation-server/internal/model"
)

var _ model.PresenceRegistry = (*Registry)(nil)

// Registry holds at most one live connection per user email.
// A newer connection for the same email replaces the older one.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]model.LiveConnection
}

func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[string]model.LiveConnection),
	}
}

// Set registers conn as the active connection for email.
func (r *Registry) Set(email string, conn model.LiveConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.connections[email] = conn
}

// Get returns the active connection for email.
func (r *Registry) Get(email string) (model.LiveConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.connections[email]
	return conn, ok
}

// Remove drops the entry for email only while it still points at conn,
// so a disconnect never evicts a connection that replaced it.
func (r *Registry) Remove(email string, conn model.LiveConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.connections[email]; ok && current == conn {
		delete(r.connections, email)
	}
}

// Len returns the number of users currently present.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.connections)
}
