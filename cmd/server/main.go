package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	httpAdapter "github.com/iho/fxoffice/internal/adapter/http"
	"github.com/iho/fxoffice/internal/adapter/http/handler"
	"github.com/iho/fxoffice/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/fxoffice/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/fxoffice/internal/adapter/repository/redis"
	"github.com/iho/fxoffice/internal/domain"
	"github.com/iho/fxoffice/internal/infrastructure/config"
	"github.com/iho/fxoffice/internal/infrastructure/keylock"
	"github.com/iho/fxoffice/internal/infrastructure/logger"
	"github.com/iho/fxoffice/internal/infrastructure/metrics"
	"github.com/iho/fxoffice/internal/infrastructure/postgres"
	"github.com/iho/fxoffice/internal/infrastructure/ratefeed"
	"github.com/iho/fxoffice/internal/infrastructure/redis"
	"github.com/iho/fxoffice/internal/infrastructure/sweeper"
	"github.com/iho/fxoffice/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()

	// Connect to PostgreSQL
	connectCtx, connectCancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	pool, err := postgres.NewPool(connectCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	connectCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	currencyRepo := postgresRepo.NewCurrencyRepository(pool)
	rateRepo := postgresRepo.NewRateRepository(pool)
	balanceRepo := postgresRepo.NewBalanceRepository(pool)
	alertRepo := postgresRepo.NewAlertRepository(pool)
	requestRepo := postgresRepo.NewRateRequestRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	clock := usecase.SystemClock{}

	// Per-key locker: Redis-backed across instances, in-process otherwise
	var locker usecase.KeyLocker
	if cfg.DistributedLock {
		locker = redisRepo.NewKeyLocker(redisClient, cfg.LockTTL, cfg.LockTimeout)
	} else {
		locker = keylock.New(cfg.LockTimeout)
	}

	// External rate feed with Redis response caching
	feedCache := redisRepo.NewCache(redisClient)
	feed := ratefeed.NewClient(cfg.RateFeedURL, cfg.RateFeedTimeout, feedCache, cfg.RateFeedCacheTTL, log.Logger, m)

	spread, err := decimal.NewFromString(cfg.SpreadPercent)
	if err != nil {
		log.Fatal().Err(err).Str("value", cfg.SpreadPercent).Msg("invalid spread percent")
	}

	// Initialize use cases
	rateUC := usecase.NewRateTimelineUseCase(txManager, currencyRepo, rateRepo, locker, idGen, clock, m)
	alertUC := usecase.NewAlertMonitorUseCase(alertRepo, domain.DefaultThresholdPolicy(), idGen, clock, m)
	ledgerUC := usecase.NewLedgerUseCase(txManager, balanceRepo, locker, idGen, clock, alertUC, m)
	syncUC := usecase.NewRateSyncUseCase(requestRepo, feed, rateUC, locker, idGen, clock, m, cfg.RequestTTL, spread)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		RateHandler:      handler.NewRateHandler(rateUC),
		BalanceHandler:   handler.NewBalanceHandler(ledgerUC),
		RateSyncHandler:  handler.NewRateSyncHandler(syncUC),
		AlertHandler:     handler.NewAlertHandler(alertUC),
		HealthHandler:    handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      middleware.NewRateLimiter(50, 100),
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start the expiry sweeper
	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	expiry := sweeper.New(sweeper.Config{
		Sync:     syncUC,
		Retrier:  postgresRepo.NewRetrier(),
		Logger:   slog.Default(),
		Interval: cfg.SweepInterval,
	})
	go func() {
		if err := expiry.Start(sweepCtx); err != nil && sweepCtx.Err() == nil {
			log.Error().Err(err).Msg("sweeper stopped")
		}
	}()

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopSweeper()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
