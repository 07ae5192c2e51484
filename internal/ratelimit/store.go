package ratelimit

import (
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// NewRedisLimiter builds a fixed-window limiter shared by every API replica.
func NewRedisLimiter(client *redis.Client, prefix string, max int, window time.Duration) (*limiter.Limiter, error) {
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, err
	}
	return limiter.New(store, rate(max, window)), nil
}

// NewMemoryLimiter builds a process-local limiter, used in tests and single-node runs.
func NewMemoryLimiter(max int, window time.Duration) *limiter.Limiter {
	return limiter.New(memory.NewStore(), rate(max, window))
}

func rate(max int, window time.Duration) limiter.Rate {
	if window <= 0 {
		window = time.Minute
	}
	return limiter.Rate{Period: window, Limit: int64(max)}
}
