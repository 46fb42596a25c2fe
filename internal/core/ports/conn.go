package ports

import "chatlink/internal/core/domain"

// ClientConn is one live bidirectional channel to a client. Implementations
// must serialize concurrent Send calls so per-pair signal ordering holds.
type ClientConn interface {
	ID() domain.ConnectionID
	// Send writes one server event to the client. Fire-and-forget from the
	// caller's point of view; an error only means this connection is dying.
	Send(event string, payload interface{}) error
	Close() error
}
