package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-promo/internal/resilience"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestBreakerTransitions(t *testing.T) {
	resilience.MustRegisterMetrics("promo_test", prometheus.NewRegistry())
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := resilience.NewBreaker("redis-cache", 2, 0.5, time.Minute).WithClock(c.now)
	ctx := context.Background()

	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.Equal(t, resilience.Open, b.State())
	require.False(t, b.Allow(ctx), "breaker should open after threshold exceeded")
	require.Equal(t, 1.0, testutil.ToFloat64(resilience.BreakerState.WithLabelValues("redis-cache")))

	c.t = c.t.Add(time.Minute)
	require.True(t, b.Allow(ctx), "cool-off admits one probe")
	require.False(t, b.Allow(ctx), "only one probe while half-open")
	require.Equal(t, 2.0, testutil.ToFloat64(resilience.BreakerState.WithLabelValues("redis-cache")))

	b.Report(ctx, true)
	require.Equal(t, resilience.Closed, b.State())
	require.True(t, b.Allow(ctx))
	require.Equal(t, 1.0, testutil.ToFloat64(resilience.BreakerTransitions.WithLabelValues("redis-cache", "half_open", "closed")))
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	c := &clock{t: time.Unix(0, 0)}
	b := resilience.NewBreaker("x", 1, 0.5, time.Second).WithClock(c.now)
	ctx := context.Background()

	b.Report(ctx, false)
	require.Equal(t, resilience.Open, b.State())
	c.t = c.t.Add(time.Second)
	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.Equal(t, resilience.Open, b.State())
	require.False(t, b.Allow(ctx))
}

func TestBreakerDo(t *testing.T) {
	b := resilience.NewBreaker("x", 1, 0.5, time.Hour)
	ctx := context.Background()
	ignored := errors.New("not found")

	err := b.Do(ctx, func(context.Context) error { return ignored }, func(err error) bool { return !errors.Is(err, ignored) })
	require.ErrorIs(t, err, ignored)
	require.Equal(t, resilience.Closed, b.State())

	boom := errors.New("boom")
	require.ErrorIs(t, b.Do(ctx, func(context.Context) error { return boom }, nil), boom)
	require.Equal(t, resilience.Open, b.State())

	called := false
	err = b.Do(ctx, func(context.Context) error { called = true; return nil }, nil)
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.False(t, called)
}

func TestNilBreakerAllows(t *testing.T) {
	var b *resilience.Breaker
	require.True(t, b.Allow(context.Background()))
	require.NoError(t, b.Do(context.Background(), func(context.Context) error { return nil }, nil))
	require.Equal(t, resilience.Closed, b.State())
}
