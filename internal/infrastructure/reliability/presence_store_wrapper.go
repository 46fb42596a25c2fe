package reliability

import (
	"context"

	"chatlink/internal/core/domain"
	"chatlink/internal/core/ports"
	"chatlink/pkg/circuitbreaker"

	"go.uber.org/zap"
)

// PresenceStoreWrapper guards the presence mirror with a circuit breaker.
// The mirror is advisory: when Redis misbehaves, skipping writes is better
// than stalling every connect/disconnect on a sick backend.
type PresenceStoreWrapper struct {
	store   ports.PresenceStore
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.SugaredLogger
}

func NewPresenceStoreWrapper(store ports.PresenceStore, logger *zap.SugaredLogger) *PresenceStoreWrapper {
	w := &PresenceStoreWrapper{
		store:   store,
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig()),
		logger:  logger,
	}

	w.breaker.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Infow("presence mirror circuit breaker state changed",
			"from", from.String(),
			"to", to.String(),
		)
	})

	return w
}

func (w *PresenceStoreWrapper) Add(ctx context.Context, identity domain.UserID) error {
	return w.breaker.Execute(ctx, func() error {
		return w.store.Add(ctx, identity)
	})
}

func (w *PresenceStoreWrapper) Remove(ctx context.Context, identity domain.UserID) error {
	return w.breaker.Execute(ctx, func() error {
		return w.store.Remove(ctx, identity)
	})
}

func (w *PresenceStoreWrapper) List(ctx context.Context) ([]domain.UserID, error) {
	var identities []domain.UserID
	err := w.breaker.Execute(ctx, func() error {
		var innerErr error
		identities, innerErr = w.store.List(ctx)
		return innerErr
	})
	return identities, err
}
