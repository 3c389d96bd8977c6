package security

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Blacklist tracks revoked token IDs (jti), independent of the active-token
// index so a revocation check never blocks on the lock guarding issuance.
type Blacklist interface {
	Add(ctx context.Context, jti string, ttl time.Duration) error
	Contains(ctx context.Context, jti string) (bool, error)
}

// memoryBlacklist is the default backend: no external dependency, revoked
// jtis simply accumulate for the process lifetime.
type memoryBlacklist struct {
	mu  sync.RWMutex
	set map[string]struct{}
}

func newMemoryBlacklist() *memoryBlacklist {
	return &memoryBlacklist{set: make(map[string]struct{})}
}

func (b *memoryBlacklist) Add(_ context.Context, jti string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.set[jti] = struct{}{}
	return nil
}

func (b *memoryBlacklist) Contains(_ context.Context, jti string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.set[jti]
	return ok, nil
}

// redisBlacklist stores revoked jtis as keys with a TTL matching the
// revoked token's remaining lifetime, so the set self-prunes instead of
// growing without bound across process restarts.
type redisBlacklist struct {
	client *redis.Client
	prefix string
}

// NewRedisBlacklist builds a blacklist backed by a Redis instance, for
// deployments running more than one API process sharing revocation state.
func NewRedisBlacklist(client *redis.Client) Blacklist {
	return &redisBlacklist{client: client, prefix: "nexus:security:revoked:"}
}

func (b *redisBlacklist) Add(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return b.client.Set(ctx, b.prefix+jti, "1", ttl).Err()
}

func (b *redisBlacklist) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, b.prefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
