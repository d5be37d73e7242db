package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/xGLETONAx/billares-chapinlandia/internal/config"
	"github.com/xGLETONAx/billares-chapinlandia/internal/lock"
	"github.com/xGLETONAx/billares-chapinlandia/internal/obs"
	"github.com/xGLETONAx/billares-chapinlandia/internal/report"
)

const snapshotLockKey = "worker:report:snapshot"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	reports := &report.Service{
		Source:           &report.PGSource{Pool: pool},
		R:                redisClient,
		TTL:              cfg.ReportCacheTTL,
		DefaultRangeDays: cfg.ReportDefaultRangeDays,
	}
	locker := lock.Locker{R: redisClient}

	interval := cfg.SnapshotInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	logger.Info().Dur("interval", interval).Msg("snapshot worker starting")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("worker shutdown complete")
			return
		case <-ticker.C:
			if err := refreshToday(ctx, reports, locker, interval); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("refresh daily summary")
			}
		}
	}
}

// refreshToday recomputes today's revenue snapshot. The lock keeps
// concurrent worker replicas from hammering the database together.
func refreshToday(ctx context.Context, reports *report.Service, locker lock.Locker, ttl time.Duration) error {
	return locker.WithLock(ctx, snapshotLockKey, ttl, func(ctx context.Context) error {
		today := time.Now().Truncate(24 * time.Hour)
		_, err := reports.RefreshRange(ctx, today, today.AddDate(0, 0, 1))
		return err
	})
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}
