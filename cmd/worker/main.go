package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/SnigdhoNext27/bliss-store-api/internal/common"
	"github.com/SnigdhoNext27/bliss-store-api/internal/config"
	"github.com/SnigdhoNext27/bliss-store-api/internal/notify"
	"github.com/SnigdhoNext27/bliss-store-api/internal/obs"
	"github.com/SnigdhoNext27/bliss-store-api/internal/queue"
	"github.com/SnigdhoNext27/bliss-store-api/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	obs.MustRegisterDomainMetrics(envOrDefault("OBS_METRICS_NAMESPACE", "bliss"), nil)

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

	var mailer common.EmailSender = common.NopEmailSender{}
	if gatewayURL := envOrDefault("MAIL_GATEWAY_URL", ""); gatewayURL != "" {
		mailer = notify.HTTPEmailSender{
			URL:    gatewayURL,
			APIKey: envOrDefault("MAIL_GATEWAY_API_KEY", ""),
			From:   envOrDefault("MAIL_FROM", "orders@bliss.example"),
			Client: resilience.HTTPClient{
				Client:      &http.Client{Timeout: 15 * time.Second},
				Breaker:     resilience.NewBreaker(5, 0.5, 30*time.Second).WithTarget("mail-gateway").WithLogger(logger),
				BaseBackoff: 200 * time.Millisecond,
				MaxAttempts: 3,
				Jitter:      0.2,
			},
		}
	}

	sender := notify.ConfirmationSender{Mail: mailer}
	confirmationWorker := queue.Worker{
		R:                 redisClient,
		Prefix:            cfg.QueueRedisPrefix,
		Kind:              notify.OrderConfirmationTask(),
		Concurrency:       2,
		VisibilityTimeout: 60 * time.Second,
		SoftDeadline:      30 * time.Second,
		RetryBase:         500 * time.Millisecond,
		RetryJitter:       0.2,
		Store:             queue.NewStore(pool),
		Logger:            &logger,
		Handler:           sender.Handle,
	}

	logger.Info().Msg("worker starting")
	if err := confirmationWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("worker stopped with error")
	} else {
		logger.Info().Msg("worker shutdown complete")
	}
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

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
