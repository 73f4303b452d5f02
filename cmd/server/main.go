package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/mutledger/internal/adapter/http"
	"github.com/iho/mutledger/internal/adapter/http/handler"
	"github.com/iho/mutledger/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/mutledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/mutledger/internal/adapter/repository/redis"
	"github.com/iho/mutledger/internal/infrastructure/auth"
	"github.com/iho/mutledger/internal/infrastructure/config"
	"github.com/iho/mutledger/internal/infrastructure/logger"
	"github.com/iho/mutledger/internal/infrastructure/metrics"
	"github.com/iho/mutledger/internal/infrastructure/postgres"
	"github.com/iho/mutledger/internal/infrastructure/redis"
	"github.com/iho/mutledger/internal/usecase"
)

const (
	limiterCleanupInterval = time.Minute
	limiterIdleTimeout     = 10 * time.Minute
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	l := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "mutledger",
	})
	logger.SetGlobal(l)

	if err := cfg.Validate(); err != nil {
		l.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, l); err != nil {
		l.Fatal().Err(err).Msg("server failed")
	}

	l.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, l zerolog.Logger) error {
	if cfg.RunMigrations {
		if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, l).Up(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	l.Info().Msg("connected to postgres")

	// Connect to Redis
	var redisClient *goredis.Client
	if !cfg.RedisDisabled {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
	}
	if redisClient != nil {
		defer redisClient.Close()
		l.Info().Msg("connected to redis")
	} else {
		l.Warn().Msg("redis disabled: unread counts are not cached and idempotency keys are ignored")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Initialize repositories
	idGen := postgresRepo.NewULIDGenerator()
	txManager := postgresRepo.NewTxManager(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	notificationRepo := postgresRepo.NewNotificationRepository(pool)
	retrier := postgresRepo.NewRetrier(
		postgresRepo.WithRetryLogger(l),
		postgresRepo.WithRetryCounter(m.DBRetries),
	)
	cache, idempotencyStore := redisAdapters(redisClient)

	// Initialize use cases
	notificationUC := usecase.NewNotificationUseCase(notificationRepo, cache, idGen, cfg.UnreadCacheTTL, m)
	entryUC := usecase.NewEntryUseCase(txManager, entryRepo, idGen, retrier, m)
	approvalUC := usecase.NewApprovalUseCase(txManager, entryRepo, notificationUC, retrier, m)
	dashboardUC := usecase.NewDashboardUseCase(entryRepo)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m.RateLimitHits)
	go cleanupLimiters(ctx, rateLimiter)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		EntryHandler:        handler.NewEntryHandler(entryUC, approvalUC),
		NotificationHandler: handler.NewNotificationHandler(notificationUC),
		DashboardHandler:    handler.NewDashboardHandler(dashboardUC),
		HealthHandler:       handler.NewHealthHandler(healthChecks(pool, redisClient)),
		TokenVerifier:       auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration),
		IdempotencyStore:    idempotencyStore,
		IdempotencyTTL:      cfg.IdempotencyTTL,
		RateLimiter:         rateLimiter,
		Logger:              l,
		Metrics:             m,
		MetricsHandler:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	l.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// redisAdapters returns untyped nils when client is nil so the use cases see
// a missing cache rather than a nil pointer behind an interface.
func redisAdapters(client *goredis.Client) (usecase.Cache, usecase.IdempotencyStore) {
	if client == nil {
		return nil, nil
	}
	return redisRepo.NewCache(client), redisRepo.NewIdempotencyStore(client)
}

func healthChecks(pool *pgxpool.Pool, client *goredis.Client) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{}
	if pool != nil {
		checks["postgres"] = pool
	}
	if client != nil {
		checks["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}
	return checks
}

func cleanupLimiters(ctx context.Context, rl *middleware.RateLimiter) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.CleanupLimiters(limiterIdleTimeout); n > 0 {
				log.Debug().Int("removed", n).Msg("cleaned up idle rate limiters")
			}
		}
	}
}
