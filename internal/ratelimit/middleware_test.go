package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-promo/internal/common"
	"github.com/noah-isme/toko-promo/internal/ratelimit"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestHandlerEnforcesLimit(t *testing.T) {
	handler := ratelimit.Handler{
		Limiter: ratelimit.NewMemoryLimiter(1, time.Minute),
		Key:     func(*http.Request) string { return "static" },
	}.Middleware(okHandler())

	rr1 := httptest.NewRecorder()
	handler.ServeHTTP(rr1, httptest.NewRequest(http.MethodPost, "/api/v1/checkout/preview", nil))
	require.Equal(t, http.StatusOK, rr1.Code)
	require.Equal(t, "1", rr1.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "0", rr1.Header().Get("X-RateLimit-Remaining"))

	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, httptest.NewRequest(http.MethodPost, "/api/v1/checkout/preview", nil))
	require.Equal(t, http.StatusTooManyRequests, rr2.Code)
	require.NotEmpty(t, rr2.Header().Get("Retry-After"))
	require.Contains(t, rr2.Body.String(), `"RATE_LIMITED"`)
}

func TestHandlerSharesRedisBuckets(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	lim, err := ratelimit.NewRedisLimiter(client, "ratelimit", 2, time.Minute)
	require.NoError(t, err)
	handler := ratelimit.Handler{Limiter: lim, Key: ratelimit.ByActorOrIP("preview")}.Middleware(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestHandlerFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	lim, err := ratelimit.NewRedisLimiter(client, "ratelimit", 1, time.Minute)
	require.NoError(t, err)
	mr.Close()

	called := false
	handler := ratelimit.Handler{
		Limiter: lim,
		Key:     func(*http.Request) string { return "err" },
		OnError: func(error) { called = true },
	}.Middleware(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, called)
}

func TestByActorOrIP(t *testing.T) {
	key := ratelimit.ByActorOrIP("preview")

	anon := httptest.NewRequest(http.MethodGet, "/", nil)
	anon.RemoteAddr = "192.0.2.7:1234"
	require.Equal(t, "preview:ip:192.0.2.7", key(anon))

	authed := anon.WithContext(common.WithActor(anon.Context(), common.Actor{ID: "u1"}))
	require.Equal(t, "preview:actor:u1", key(authed))
}
