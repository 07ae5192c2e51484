package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/toko-promo/internal/resilience"
)

// ActiveCacheKey holds the JSON-encoded set of switched-on, non-deleted promotions.
const ActiveCacheKey = "promotions:active:v1"

// Cache wraps Redis helpers for JSON payloads.
type Cache struct {
	client  redis.Cmdable
	ttl     time.Duration
	breaker *resilience.Breaker
}

// NewCache constructs a cache helper. A nil client disables caching.
func NewCache(client redis.Cmdable, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// WithBreaker makes reads and writes fail fast with resilience.ErrOpenCircuit while
// Redis keeps failing. Deletes always reach Redis.
func (c *Cache) WithBreaker(b *resilience.Breaker) *Cache {
	if c != nil {
		c.breaker = b
	}
	return c
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	var data []byte
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.client.Get(ctx, key).Bytes()
		return err
	}, isRedisFailure)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.breaker.Do(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, key, data, c.ttl).Err()
	}, isRedisFailure)
}

// Delete drops keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	err := c.client.Del(ctx, keys...).Err()
	c.breaker.Report(ctx, err == nil)
	return err
}

func isRedisFailure(err error) bool {
	return !errors.Is(err, redis.Nil)
}
