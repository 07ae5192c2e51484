package obs

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PromotionCalculationsTotal counts engine runs by outcome (ok, invalid, error).
	PromotionCalculationsTotal *prometheus.CounterVec
	// PromotionAppliedTotal counts promotions applied to quotes by discount kind.
	PromotionAppliedTotal *prometheus.CounterVec
	// PromotionCalculationDuration records engine latency in milliseconds.
	PromotionCalculationDuration prometheus.Histogram
	// PromotionCacheRequestsTotal counts active-set cache lookups (hit, miss, error).
	PromotionCacheRequestsTotal *prometheus.CounterVec
	// PromotionWritesTotal counts catalog writes by operation and outcome.
	PromotionWritesTotal *prometheus.CounterVec
	// PromotionEventsTotal counts promotion events handed to the task queue.
	PromotionEventsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PromotionCalculationsTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_calculations_total",
			Help:      "Count of promotion engine calculations by outcome.",
		}, []string{"result"}))
		PromotionAppliedTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_applied_total",
			Help:      "Count of promotions applied to cart quotes by kind.",
		}, []string{"kind"}))
		PromotionCalculationDuration = registerOrReuse(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "promotion_calculation_duration_ms",
			Help:      "Latency of promotion calculations in milliseconds.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		}))
		PromotionCacheRequestsTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_cache_requests_total",
			Help:      "Count of active promotion cache lookups by result.",
		}, []string{"result"}))
		PromotionWritesTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_writes_total",
			Help:      "Count of promotion catalog writes by operation and result.",
		}, []string{"op", "result"}))
		PromotionEventsTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_events_total",
			Help:      "Count of promotion events enqueued by topic and result.",
		}, []string{"topic", "result"}))
	})
}

// ObserveCalculation records one engine run. Safe to call before registration.
func ObserveCalculation(result string, took time.Duration) {
	if PromotionCalculationsTotal != nil {
		PromotionCalculationsTotal.WithLabelValues(result).Inc()
	}
	if PromotionCalculationDuration != nil {
		PromotionCalculationDuration.Observe(DurationMillis(took))
	}
}

// CountApplied adds n applied promotions of kind.
func CountApplied(kind string, n int) {
	if PromotionAppliedTotal != nil && n > 0 {
		PromotionAppliedTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// CountCacheRequest records an active-set cache lookup.
func CountCacheRequest(result string) {
	if PromotionCacheRequestsTotal != nil {
		PromotionCacheRequestsTotal.WithLabelValues(result).Inc()
	}
}

// CountWrite records a catalog write outcome.
func CountWrite(op string, err error) {
	if PromotionWritesTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	PromotionWritesTotal.WithLabelValues(op, result).Inc()
}

// CountEvent records an event enqueue outcome.
func CountEvent(topic string, err error) {
	if PromotionEventsTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	PromotionEventsTotal.WithLabelValues(topic, result).Inc()
}
