package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/noah-isme/toko-promo/internal/common"
)

const (
	defaultDBTimeout    = 500 * time.Millisecond
	defaultRedisTimeout = 300 * time.Millisecond
)

// Checker probes the stores the promotion API cannot serve without.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

var draining atomic.Bool

// SetReady flips the process readiness flag. The API clears it when draining on shutdown.
func SetReady(v bool) { draining.Store(!v) }

// Report is the body of /health/ready.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves the liveness and readiness probes.
type Handler struct {
	Checker      Checker
	DBTimeout    time.Duration
	RedisTimeout time.Duration
	// CacheState reports the promotion cache breaker. It is informational:
	// an open breaker degrades to Postgres reads and keeps the pod ready.
	CacheState func() string
}

// Live always answers 200 "ok".
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready probes Postgres and Redis concurrently and answers 503 when either
// fails, no checker is wired, or the process is draining.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	switch {
	case draining.Load():
		common.JSON(w, http.StatusServiceUnavailable, Report{Status: "draining"})
		return
	case h.Checker == nil:
		common.JSON(w, http.StatusServiceUnavailable, Report{Status: "unavailable"})
		return
	}

	probes := map[string]func(context.Context) error{
		"db": func(ctx context.Context) error {
			return h.Checker.PingDB(ctx, orDefault(h.DBTimeout, defaultDBTimeout))
		},
		"redis": func(ctx context.Context) error {
			return h.Checker.PingRedis(ctx, orDefault(h.RedisTimeout, defaultRedisTimeout))
		},
	}

	report := Report{Status: "ok", Checks: make(map[string]string, len(probes)+1)}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, probe := range probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := "ok"
			if err := probe(r.Context()); err != nil {
				result = err.Error()
			}
			mu.Lock()
			report.Checks[name] = result
			if result != "ok" {
				report.Status = "unavailable"
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if h.CacheState != nil {
		report.Checks["promotionCache"] = h.CacheState()
	}
	code := http.StatusOK
	if report.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, report)
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
