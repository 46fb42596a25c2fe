package ports

import "chatlink/internal/core/domain"

// ConnectionRegistry maps a user identity to its currently-live connection.
// At most one connection per identity: a reconnect overwrites the previous
// handle (last-writer-wins).
type ConnectionRegistry interface {
	// Register unconditionally overwrites any existing mapping for identity.
	Register(identity domain.UserID, conn ClientConn)
	// Unregister removes the mapping only if conn is still the registered
	// handle, so a stale disconnect cannot erase a newer connection.
	Unregister(identity domain.UserID, conn ClientConn)
	// Lookup returns the live handle for identity, if any. Pure read.
	Lookup(identity domain.UserID) (ClientConn, bool)
	// Snapshot returns all registered identities in no particular order.
	Snapshot() []domain.UserID
}
