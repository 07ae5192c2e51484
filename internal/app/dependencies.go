// Package app wires the shared infrastructure used by the API and worker binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-promo/internal/catalog"
	"github.com/noah-isme/toko-promo/internal/config"
	"github.com/noah-isme/toko-promo/internal/events"
	"github.com/noah-isme/toko-promo/internal/lock"
	"github.com/noah-isme/toko-promo/internal/obs"
	"github.com/noah-isme/toko-promo/internal/resilience"
)

// Dependencies enumerates the connections and services shared across binaries.
type Dependencies struct {
	Config  *config.Config
	Logger  *zerolog.Logger
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Tasks   *asynq.Client
	Catalog *catalog.Service
	// CacheBreaker guards the promotion cache's Redis calls.
	CacheBreaker *resilience.Breaker
}

// New connects to Postgres and Redis and builds the promotion catalog service.
// appName ends up in pg_stat_activity.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, appName string) (*Dependencies, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	deps := &Dependencies{Config: cfg, Logger: obs.OrNop(logger)}

	pool, err := OpenDatabase(ctx, cfg.DatabaseURL, appName)
	if err != nil {
		return nil, err
	}
	deps.DB = pool

	rdb, err := OpenRedis(ctx, cfg.RedisURL, cfg.Obs.EnablePrometheus, deps.Logger)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Redis = rdb

	taskOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("parse task queue redis url: %w", err)
	}
	deps.Tasks = asynq.NewClient(taskOpt)

	deps.CacheBreaker = resilience.NewBreaker("promotion-cache", cfg.CacheBreakerMinRequests, cfg.CacheBreakerFailureRatio, cfg.CacheBreakerOpenFor).
		WithLogger(deps.Logger)
	svc, err := catalog.NewService(catalog.ServiceConfig{
		Store:   catalog.NewPgStore(pool),
		Cache:   catalog.NewCache(rdb, cfg.PromotionCacheTTL).WithBreaker(deps.CacheBreaker),
		Locker:  lock.Locker{R: rdb, RetryBackoff: cfg.LockRetryBackoff},
		LockTTL: cfg.LockTTL,
		Events: &events.Publisher{
			Client: deps.Tasks,
			Queue:  events.QueuePromotions,
			Logger: deps.Logger,
		},
		Logger:          deps.Logger,
		DefaultPageSize: cfg.PromotionDefaultPageSize,
		MaxPageSize:     cfg.PromotionMaxPageSize,
	})
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("initialise catalog service: %w", err)
	}
	deps.Catalog = svc
	return deps, nil
}

// Close releases every connection that was opened.
func (d *Dependencies) Close() {
	if d == nil {
		return
	}
	if d.Tasks != nil {
		if err := d.Tasks.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close task client")
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close redis")
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}

// Readiness returns the probe used by /health/ready.
func (d *Dependencies) Readiness() ReadinessChecker {
	return ReadinessChecker{DB: d.DB, Redis: d.Redis}
}

// OpenDatabase builds a traced pgx pool and pings it.
func OpenDatabase(ctx context.Context, databaseURL, appName string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	if appName != "" {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = appName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// OpenRedis connects a go-redis client with OpenTelemetry instrumentation.
func OpenRedis(ctx context.Context, redisURL string, withMetrics bool, logger *zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	log := obs.OrNop(logger)
	if err := redisotel.InstrumentTracing(client); err != nil {
		log.Error().Err(err).Msg("instrument redis tracing")
	}
	if withMetrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			log.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// ReadinessChecker pings Postgres and Redis with per-probe timeouts.
type ReadinessChecker struct {
	DB    *pgxpool.Pool
	Redis redis.UniversalClient
}

func (c ReadinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.DB == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.DB.Ping(ctx)
}

func (c ReadinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.Redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Redis.Ping(ctx).Err()
}
