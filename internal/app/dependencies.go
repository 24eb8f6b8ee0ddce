// Package app opens the infrastructure shared by the API and worker binaries.
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
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/rakhimart/internal/config"
	"github.com/noah-isme/rakhimart/internal/db"
	"github.com/noah-isme/rakhimart/internal/obs"
)

// Dependencies holds connections shared across modules.
type Dependencies struct {
	DB           *pgxpool.Pool
	Queries      *db.Queries
	Redis        *redis.Client
	LimiterStore limiter.Store
	TaskClient   *asynq.Client
	TaskRedis    asynq.RedisConnOpt

	logger zerolog.Logger
}

// Open connects to Postgres and Redis and prepares the task client. Both
// stores are pinged before Open returns.
func Open(ctx context.Context, cfg *config.Config, component string, logger zerolog.Logger) (*Dependencies, error) {
	d := &Dependencies{logger: logger}
	if err := d.openDB(ctx, cfg, component); err != nil {
		return nil, err
	}
	if err := d.openRedis(ctx, cfg); err != nil {
		d.Close()
		return nil, err
	}
	store, err := limiterredis.NewStoreWithOptions(d.Redis, limiter.StoreOptions{Prefix: "rakhimart:limiter"})
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("limiter store: %w", err)
	}
	d.LimiterStore = store

	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("parse task redis uri: %w", err)
	}
	d.TaskRedis = opt
	d.TaskClient = asynq.NewClient(opt)
	return d, nil
}

func (d *Dependencies) openDB(ctx context.Context, cfg *config.Config, component string) error {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "rakhimart-" + component

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping database: %w", err)
	}
	d.DB = pool
	d.Queries = db.New(pool)
	return nil
}

func (d *Dependencies) openRedis(ctx context.Context, cfg *config.Config) error {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		d.logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(client); err != nil {
		d.logger.Error().Err(err).Msg("instrument redis metrics")
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("ping redis: %w", err)
	}
	d.Redis = client
	return nil
}

// PingDB implements health.Checker.
func (d *Dependencies) PingDB(ctx context.Context, timeout time.Duration) error {
	if d == nil || d.DB == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.DB.Ping(ctx)
}

// PingRedis implements health.Checker.
func (d *Dependencies) PingRedis(ctx context.Context, timeout time.Duration) error {
	if d == nil || d.Redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.Redis.Ping(ctx).Err()
}

// Close releases every opened connection.
func (d *Dependencies) Close() {
	if d.TaskClient != nil {
		if err := d.TaskClient.Close(); err != nil {
			d.logger.Error().Err(err).Msg("close task client")
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.logger.Error().Err(err).Msg("close redis")
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
