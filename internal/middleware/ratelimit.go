package middleware

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// DefaultRatelimitRate applies until an operator sets one with `configure ratelimit set`
const DefaultRatelimitRate = "10-S"

const ratelimitKeyPrefix = "napoleon:ratelimit"

// NewLimiterStore returns a Redis-backed counter store shared by all replicas,
// or a process-local one when redisClient is nil.
func NewLimiterStore(redisClient *redis.Client) (limiter.Store, error) {
	if redisClient == nil {
		return memorystore.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          ratelimitKeyPrefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		}), nil
	}
	store, err := redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: ratelimitKeyPrefix})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
	}
	return store, nil
}
