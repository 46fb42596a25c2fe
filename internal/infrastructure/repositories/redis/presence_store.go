package redis

import (
	"context"
	"fmt"

	"chatlink/internal/core/domain"
	"chatlink/pkg/retry"

	"github.com/redis/go-redis/v9"
)

const onlineSetKey = "chatlink:presence:online"

// RedisPresenceStore mirrors the online-identity set into Redis so the HTTP
// API and other instances can read presence without holding a socket.
// Writes go through a short retry because a transient Redis hiccup must not
// desynchronize the mirror for the rest of the process lifetime.
type RedisPresenceStore struct {
	client   *redis.Client
	retryCfg retry.Config
}

func NewRedisPresenceStore(client *redis.Client) *RedisPresenceStore {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = 2
	return &RedisPresenceStore{
		client:   client,
		retryCfg: cfg,
	}
}

func (s *RedisPresenceStore) Add(ctx context.Context, identity domain.UserID) error {
	return retry.Retry(ctx, s.retryCfg, func() error {
		if err := s.client.SAdd(ctx, onlineSetKey, string(identity)).Err(); err != nil {
			return fmt.Errorf("failed to add identity to online set: %w", err)
		}
		return nil
	})
}

func (s *RedisPresenceStore) Remove(ctx context.Context, identity domain.UserID) error {
	return retry.Retry(ctx, s.retryCfg, func() error {
		if err := s.client.SRem(ctx, onlineSetKey, string(identity)).Err(); err != nil {
			return fmt.Errorf("failed to remove identity from online set: %w", err)
		}
		return nil
	})
}

func (s *RedisPresenceStore) List(ctx context.Context) ([]domain.UserID, error) {
	members, err := s.client.SMembers(ctx, onlineSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read online set: %w", err)
	}

	identities := make([]domain.UserID, 0, len(members))
	for _, m := range members {
		identities = append(identities, domain.UserID(m))
	}
	return identities, nil
}

// Clear wipes the online set. Called at coordinator startup so identities
// left behind by an unclean shutdown do not appear online forever.
func (s *RedisPresenceStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, onlineSetKey).Err(); err != nil {
		return fmt.Errorf("failed to clear online set: %w", err)
	}
	return nil
}
