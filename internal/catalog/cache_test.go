package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-promo/internal/catalog"
	"github.com/noah-isme/toko-promo/internal/resilience"
)

func TestCacheRoundTripAndMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := catalog.NewCache(client, time.Minute)
	ctx := context.Background()

	var got []string
	hit, err := cache.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	require.False(t, hit)

	require.NoError(t, cache.SetJSON(ctx, "k", []string{"a", "b"}))
	require.Equal(t, time.Minute, mr.TTL("k"))
	hit, err = cache.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, []string{"a", "b"}, got)

	require.NoError(t, cache.Delete(ctx, "k"))
	require.False(t, mr.Exists("k"))
}

func TestCacheBreakerSkipsRedisWhileOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	breaker := resilience.NewBreaker("promotion-cache", 1, 0.5, time.Hour)
	cache := catalog.NewCache(client, time.Minute).WithBreaker(breaker)
	ctx := context.Background()

	var got []string
	_, err := cache.GetJSON(ctx, "missing", &got)
	require.NoError(t, err, "a miss is not a failure")
	require.Equal(t, resilience.Closed, breaker.State())

	mr.SetError("ERR simulated outage")
	_, err = cache.GetJSON(ctx, "k", &got)
	require.Error(t, err)
	require.Equal(t, resilience.Open, breaker.State())

	mr.SetError("")
	_, err = cache.GetJSON(ctx, "k", &got)
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.ErrorIs(t, cache.SetJSON(ctx, "k", got), resilience.ErrOpenCircuit)
}

func TestNilCacheIsNoop(t *testing.T) {
	var cache *catalog.Cache
	hit, err := cache.GetJSON(context.Background(), "k", &struct{}{})
	require.NoError(t, err)
	require.False(t, hit)
	require.NoError(t, cache.SetJSON(context.Background(), "k", 1))
	require.NoError(t, cache.Delete(context.Background(), "k"))
	require.Nil(t, cache.WithBreaker(nil))
}
