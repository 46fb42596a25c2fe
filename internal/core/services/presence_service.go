package services

import (
	"context"

	"chatlink/internal/core/domain"
	"chatlink/internal/core/ports"

	"go.uber.org/zap"
)

// PresenceEventPublisher announces registry changes to other coordinator
// instances. Optional; nil disables publishing.
type PresenceEventPublisher interface {
	PublishOnline(ctx context.Context, identity domain.UserID)
	PublishOffline(ctx context.Context, identity domain.UserID)
}

// presenceService drives the connect/disconnect flow: registry update first,
// then mirror write, then the full presence fan-out. Mirror failures are
// logged and swallowed; the in-process registry stays authoritative.
type presenceService struct {
	registry    ports.ConnectionRegistry
	store       ports.PresenceStore
	broadcaster ports.PresenceBroadcaster
	events      PresenceEventPublisher
	logger      *zap.SugaredLogger
}

func NewPresenceService(
	registry ports.ConnectionRegistry,
	store ports.PresenceStore,
	broadcaster ports.PresenceBroadcaster,
	events PresenceEventPublisher, // may be nil
	logger *zap.SugaredLogger,
) ports.PresenceService {
	return &presenceService{
		registry:    registry,
		store:       store,
		broadcaster: broadcaster,
		events:      events,
		logger:      logger,
	}
}

func (s *presenceService) Connected(ctx context.Context, identity domain.UserID, conn ports.ClientConn) {
	s.registry.Register(identity, conn)

	if err := s.store.Add(ctx, identity); err != nil {
		s.logger.Warnw("failed to mirror presence add", "user_id", identity, "error", err)
	}
	if s.events != nil {
		s.events.PublishOnline(ctx, identity)
	}

	s.broadcaster.BroadcastPresence(s.registry.Snapshot())
}

func (s *presenceService) Disconnected(ctx context.Context, identity domain.UserID, conn ports.ClientConn) {
	s.registry.Unregister(identity, conn)

	// The identity may have re-registered on a newer connection in the
	// meantime; only clear the mirror when it is really gone.
	if _, stillOnline := s.registry.Lookup(identity); !stillOnline {
		if err := s.store.Remove(ctx, identity); err != nil {
			s.logger.Warnw("failed to mirror presence remove", "user_id", identity, "error", err)
		}
		if s.events != nil {
			s.events.PublishOffline(ctx, identity)
		}
	}

	s.broadcaster.BroadcastPresence(s.registry.Snapshot())
}

func (s *presenceService) Online(ctx context.Context) []domain.UserID {
	return s.registry.Snapshot()
}
