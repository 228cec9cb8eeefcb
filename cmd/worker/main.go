package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/coursio/backend-pricing/internal/config"
	"github.com/coursio/backend-pricing/internal/obs"
	"github.com/coursio/backend-pricing/internal/tariff"
)

// The worker keeps the pricing caches warm: it periodically reloads every
// city_pricing row into Redis and the in-process map, and refreshes the
// tariff configuration snapshot so API instances rarely load on the hot
// path.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "worker").Logger()
	obs.MustRegisterDomainMetrics("pricing", nil)

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

	store := tariff.NewStore(pool, tariff.NewCache(redisClient, cfg.CityCacheTTL))
	loader := &tariff.Loader{Source: store, TTL: cfg.TariffConfigTTL}

	interval := cfg.WarmInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	warm := func() {
		store.Reset()
		warmed, err := store.Preload(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("warm city cache")
		} else {
			logger.Info().Int("rows", warmed).Msg("city cache warmed")
			obs.CityCacheWarmed.Set(float64(warmed))
		}
		loader.Invalidate()
		if _, err := loader.Load(ctx); err != nil {
			obs.TariffReloadTotal.WithLabelValues("error").Inc()
			logger.Error().Err(err).Msg("reload tariff configuration")
		} else {
			obs.TariffReloadTotal.WithLabelValues("ok").Inc()
		}
	}

	logger.Info().Dur("interval", interval).Msg("worker starting")
	warm()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("worker shutdown complete")
			return
		case <-ticker.C:
			warm()
		}
	}
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{Logger: logger}
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
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}
