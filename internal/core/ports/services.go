package ports

import (
	"context"

	"chatlink/internal/core/domain"
)

// PresenceBroadcaster fans the full online set out to every live connection,
// registered or anonymous. Fired after every registry change; no batching.
type PresenceBroadcaster interface {
	BroadcastPresence(online []domain.UserID)
}

// BroadcasterFunc adapts a function to the PresenceBroadcaster interface.
type BroadcasterFunc func(online []domain.UserID)

func (f BroadcasterFunc) BroadcastPresence(online []domain.UserID) { f(online) }

// SignalRouter delivers call-control signals to whichever connection is
// registered for the target identity at the instant of forwarding. A signal
// addressed to an unregistered identity is dropped silently.
type SignalRouter interface {
	Route(ctx context.Context, sig domain.Signal)
}

// RoutePolicy decides whether from may signal to. The default policy allows
// everything, matching the original behavior; deployments can inject a
// contact-list or block-list check here.
type RoutePolicy func(from, to domain.UserID) bool

// PresenceService owns the register/unregister flow: registry update,
// mirror write, broadcast.
type PresenceService interface {
	Connected(ctx context.Context, identity domain.UserID, conn ClientConn)
	Disconnected(ctx context.Context, identity domain.UserID, conn ClientConn)
	Online(ctx context.Context) []domain.UserID
}
