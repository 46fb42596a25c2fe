package services

import (
	"sync"

	"chatlink/internal/core/domain"
	"chatlink/internal/core/ports"
)

// ConnectionRegistry is the authoritative identity → connection mapping.
// All operations are atomic relative to each other; a Lookup never observes
// a half-updated map.
type ConnectionRegistry struct {
	mu    sync.RWMutex
	conns map[domain.UserID]ports.ClientConn
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		conns: make(map[domain.UserID]ports.ClientConn),
	}
}

// Register maps identity to conn, overwriting any previous handle. The
// overwrite is intentional: a reconnect replaces the stale connection without
// closing it here (the old read loop cleans itself up).
func (r *ConnectionRegistry) Register(identity domain.UserID, conn ports.ClientConn) {
	if identity == "" || conn == nil {
		return
	}
	r.mu.Lock()
	r.conns[identity] = conn
	r.mu.Unlock()
}

// Unregister removes the mapping only when conn is still the registered
// handle for identity. A disconnect event for a superseded connection is a
// no-op, so it can never erase a newer registration.
func (r *ConnectionRegistry) Unregister(identity domain.UserID, conn ports.ClientConn) {
	if identity == "" || conn == nil {
		return
	}
	r.mu.Lock()
	if current, ok := r.conns[identity]; ok && current.ID() == conn.ID() {
		delete(r.conns, identity)
	}
	r.mu.Unlock()
}

func (r *ConnectionRegistry) Lookup(identity domain.UserID) (ports.ClientConn, bool) {
	r.mu.RLock()
	conn, ok := r.conns[identity]
	r.mu.RUnlock()
	return conn, ok
}

func (r *ConnectionRegistry) Snapshot() []domain.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identities := make([]domain.UserID, 0, len(r.conns))
	for identity := range r.conns {
		identities = append(identities, identity)
	}
	return identities
}
