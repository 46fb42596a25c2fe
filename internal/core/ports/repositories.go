package ports

import (
	"context"

	"chatlink/internal/core/domain"
)

// PresenceStore mirrors the set of online identities outside the coordinator
// process so the HTTP API (and other instances) can read presence without a
// socket. The in-process registry stays authoritative for routing.
type PresenceStore interface {
	Add(ctx context.Context, identity domain.UserID) error
	Remove(ctx context.Context, identity domain.UserID) error
	List(ctx context.Context) ([]domain.UserID, error)
}
