package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	JWTSecret    string
	JWTIssuer    string
	JWTAudience  string
	JWTClockSkew time.Duration

	PromotionCacheTTL        time.Duration
	PromotionDefaultPageSize int
	PromotionMaxPageSize     int

	PreviewRateLimit    int
	PreviewRateWindow   time.Duration
	IdempotencyTTL      time.Duration
	LockTTL             time.Duration
	LockRetryBackoff    time.Duration
	RequestBodyMaxBytes int64
	WorkerConcurrency   int

	ShutdownTimeout time.Duration

	CacheBreakerMinRequests  int
	CacheBreakerFailureRatio float64
	CacheBreakerOpenFor      time.Duration

	Obs    ObsConfig
	Health HealthConfig
}

// ObsConfig groups logging, metrics and tracing settings.
type ObsConfig struct {
	LogFormat            string
	LogLevel             string
	MetricsNamespace     string
	EnablePrometheus     bool
	EnableTracing        bool
	TracingExporter      string
	OTLPEndpoint         string
	TracingSamplingRatio float64
	MetricsBucketsMS     string
	EnablePprof          bool
	PprofUser            string
	PprofPass            string
}

// HealthConfig controls readiness probe timeouts.
type HealthConfig struct {
	DBTimeout    time.Duration
	RedisTimeout time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		JWTSecret:    k.String("JWT_SECRET"),
		JWTIssuer:    strings.TrimSpace(k.String("JWT_ISSUER")),
		JWTAudience:  strings.TrimSpace(k.String("JWT_AUDIENCE")),
		JWTClockSkew: parseDuration(k.String("JWT_CLOCK_SKEW"), "30s"),

		PromotionCacheTTL:        parseDuration(k.String("PROMOTION_CACHE_TTL"), "5m"),
		PromotionDefaultPageSize: parseInt(k.String("PROMOTION_DEFAULT_PAGE_SIZE"), 10),
		PromotionMaxPageSize:     parseInt(k.String("PROMOTION_MAX_PAGE_SIZE"), 100),

		PreviewRateLimit:    parseInt(k.String("PREVIEW_RATE_LIMIT"), 60),
		PreviewRateWindow:   parseDuration(k.String("PREVIEW_RATE_WINDOW"), "1m"),
		IdempotencyTTL:      parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		LockTTL:             parseDuration(k.String("LOCK_TTL"), "10s"),
		LockRetryBackoff:    parseDuration(k.String("LOCK_RETRY_BACKOFF"), "50ms"),
		RequestBodyMaxBytes: int64(parseInt(k.String("REQUEST_BODY_MAX_BYTES"), 1<<20)),
		WorkerConcurrency:   parseInt(k.String("WORKER_CONCURRENCY"), 5),
		ShutdownTimeout:     parseDuration(k.String("SHUTDOWN_TIMEOUT"), "15s"),

		CacheBreakerMinRequests:  parseInt(k.String("CACHE_BREAKER_MIN_REQUESTS"), 10),
		CacheBreakerFailureRatio: parseFloat(k.String("CACHE_BREAKER_FAILURE_RATIO"), 0.5),
		CacheBreakerOpenFor:      parseDuration(k.String("CACHE_BREAKER_OPEN_FOR"), "30s"),

		Obs: ObsConfig{
			LogFormat:            valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:             valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsNamespace:     valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "toko_promo"),
			EnablePrometheus:     parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
			EnableTracing:        parseBoolDefault(k.String("OBS_ENABLE_TRACING"), false),
			TracingExporter:      valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
			OTLPEndpoint:         strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			TracingSamplingRatio: parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
			MetricsBucketsMS:     strings.TrimSpace(k.String("OBS_METRICS_BUCKETS_MS")),
			EnablePprof:          parseBoolDefault(k.String("OBS_ENABLE_PPROF"), false),
			PprofUser:            strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_USER")),
			PprofPass:            strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_PASS")),
		},
		Health: HealthConfig{
			DBTimeout:    parseDuration(k.String("HEALTH_READY_DB_TIMEOUT"), "500ms"),
			RedisTimeout: parseDuration(k.String("HEALTH_READY_REDIS_TIMEOUT"), "300ms"),
		},
	}

	if cfg.PromotionMaxPageSize < 1 {
		cfg.PromotionMaxPageSize = 100
	}
	if cfg.PromotionDefaultPageSize < 1 || cfg.PromotionDefaultPageSize > cfg.PromotionMaxPageSize {
		cfg.PromotionDefaultPageSize = min(10, cfg.PromotionMaxPageSize)
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "production")
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
