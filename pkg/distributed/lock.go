package distributed

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// unlockScript deletes the key only while this holder's token is still in
// place, so an expired-and-reacquired lock is never released by the old
// holder.
const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// LockCommands is the slice of the Redis API the lock needs. *redis.Client
// satisfies it.
type LockCommands interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// DistributedLock is a single-attempt Redis lock. chatlink takes it around
// the startup presence-mirror sweep, where losing the race simply means
// another instance is already sweeping; there is no blocking acquire and no
// renewal, the TTL is the failsafe against a holder that dies mid-sweep.
type DistributedLock struct {
	client LockCommands
	key    string
	token  string
	ttl    time.Duration
}

func NewDistributedLock(client LockCommands, key string, ttl time.Duration) *DistributedLock {
	b := make([]byte, 16)
	rand.Read(b)

	return &DistributedLock{
		client: client,
		key:    key,
		token:  hex.EncodeToString(b),
		ttl:    ttl,
	}
}

// TryLock attempts to take the lock once. false with a nil error means
// another holder has it.
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	acquired, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to try lock: %w", err)
	}
	return acquired, nil
}

// Unlock releases the lock if this instance still holds it.
func (l *DistributedLock) Unlock(ctx context.Context) error {
	result, err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.token).Result()
	if err != nil {
		return fmt.Errorf("failed to unlock: %w", err)
	}
	if n, ok := result.(int64); !ok || n == 0 {
		return fmt.Errorf("lock %s is no longer held by this instance", l.key)
	}
	return nil
}
