// Package gate provides at-most-one-in-flight markers keyed by operation and entity.
// A marker expires after its TTL so a crashed holder cannot block the key forever.
package gate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Gate grants a key to one holder at a time
type Gate interface {
	// Acquire marks key as in flight. It returns false when the key is already held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release clears the marker. Releasing a free key is not an error.
	Release(ctx context.Context, key string) error
}

// Key prefixes for the guarded operations
const (
	RescheduleKey  = "reschedule"
	completePrefix = "complete:"
)

// CompleteKey is the marker for completing a single task
func CompleteKey(taskID string) string {
	return completePrefix + taskID
}

// RedisGate shares markers across server and worker processes
type RedisGate struct {
	client *redis.Client
	prefix string
}

// NewRedisGate creates a gate whose keys are namespaced under prefix
func NewRedisGate(client *redis.Client, prefix string) *RedisGate {
	return &RedisGate{client: client, prefix: prefix}
}

func (g *RedisGate) key(k string) string {
	return g.prefix + k
}

func (g *RedisGate) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(key), time.Now().UTC().Format(time.RFC3339Nano), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire gate %s: %w", key, err)
	}
	return ok, nil
}

func (g *RedisGate) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, g.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to release gate %s: %w", key, err)
	}
	return nil
}

// LocalGate keeps markers in process memory
type LocalGate struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

func NewLocalGate() *LocalGate {
	return &LocalGate{
		held: make(map[string]time.Time),
		now:  time.Now,
	}
}

func (g *LocalGate) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if expires, ok := g.held[key]; ok && now.Before(expires) {
		return false, nil
	}
	g.held[key] = now.Add(ttl)
	return true, nil
}

func (g *LocalGate) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.held, key)
	return nil
}

var (
	_ Gate = (*RedisGate)(nil)
	_ Gate = (*LocalGate)(nil)
)
