package repositories

import (
	"context"

	"chatlink/internal/core/ports"
	"chatlink/internal/infrastructure/reliability"
	"chatlink/internal/infrastructure/repositories/memory"
	redisrepo "chatlink/internal/infrastructure/repositories/redis"
	"chatlink/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory creates the presence store with fallback support.
type RepositoryFactory struct {
	useRedis    bool
	redisClient *redis.Client
	logger      *zap.SugaredLogger
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useRedis: cfg.Presence.Redis.Enabled,
		logger:   logger,
	}

	// Try to connect to Redis if enabled
	if cfg.Presence.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(
			cfg.Presence.Redis.Address,
			cfg.Presence.Redis.Password,
			cfg.Presence.Redis.DB,
			cfg.Presence.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory presence store",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis presence store")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory presence store")
	}

	return factory, nil
}

// CreatePresenceStore creates the presence mirror (Redis or memory with
// fallback). The Redis store is wrapped with a circuit breaker so a Redis
// outage degrades to skipped mirror writes instead of slowing every
// connect/disconnect.
func (f *RepositoryFactory) CreatePresenceStore() ports.PresenceStore {
	if f.useRedis && f.redisClient != nil {
		store := redisrepo.NewRedisPresenceStore(f.redisClient)
		return reliability.NewPresenceStoreWrapper(store, f.logger)
	}
	return memory.NewMemoryPresenceStore()
}

// RedisClient exposes the shared client for components that need raw access
// (presence event bus, startup cleanup). Nil when Redis is unavailable.
func (f *RepositoryFactory) RedisClient() *redis.Client {
	if f.useRedis {
		return f.redisClient
	}
	return nil
}

// Close closes the Redis connection if used.
func (f *RepositoryFactory) Close() error {
	if f.redisClient != nil {
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	return nil
}

// HealthCheck checks Redis connection health.
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.useRedis && f.redisClient != nil {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}
