package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ulule/limiter/v3"

	"github.com/noah-isme/toko-promo/internal/common"
)

// KeyFunc derives the bucket a request is counted against.
type KeyFunc func(*http.Request) string

// Handler enforces rate limits before delegating to the next handler.
// A nil Limiter or Key disables limiting. Store failures let the request through.
type Handler struct {
	Limiter *limiter.Limiter
	Key     KeyFunc
	Now     func() time.Time
	OnError func(error)
}

// ByActorOrIP keys authenticated callers by actor id and everyone else by client IP.
func ByActorOrIP(scope string) KeyFunc {
	return func(r *http.Request) string {
		if actor, ok := common.ActorFrom(r.Context()); ok && actor.ID != "" {
			return scope + ":actor:" + actor.ID
		}
		return scope + ":ip:" + common.ClientIP(r)
	}
}

// Middleware implements chi middleware.
func (h Handler) Middleware(next http.Handler) http.Handler {
	if h.Limiter == nil || h.Key == nil {
		return next
	}
	now := h.Now
	if now == nil {
		now = time.Now
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := h.Limiter.Get(r.Context(), h.Key(r))
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
		headers.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset, 10))

		if res.Reached {
			retryAfter := res.Reset - now().Unix()
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
