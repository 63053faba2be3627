package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/cardledger/cardledger/internal/adapter/http"
	"github.com/cardledger/cardledger/internal/adapter/http/handler"
	"github.com/cardledger/cardledger/internal/adapter/http/middleware"
	"github.com/cardledger/cardledger/internal/adapter/queue/amqp"
	postgresRepo "github.com/cardledger/cardledger/internal/adapter/repository/postgres"
	redisRepo "github.com/cardledger/cardledger/internal/adapter/repository/redis"
	"github.com/cardledger/cardledger/internal/infrastructure/config"
	"github.com/cardledger/cardledger/internal/infrastructure/logger"
	"github.com/cardledger/cardledger/internal/infrastructure/metrics"
	"github.com/cardledger/cardledger/internal/infrastructure/postgres"
	"github.com/cardledger/cardledger/internal/infrastructure/redis"
	"github.com/cardledger/cardledger/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	ctx := context.Background()

	if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	pool, err := postgres.NewPool(ctx, postgres.PoolOptions{
		URL:            cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	queueClient, err := amqp.NewClient(cfg.AMQPURL, cfg.RefreshExchange, cfg.RefreshQueue, appLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
	}
	defer queueClient.Close()
	log.Info().Msg("connected to rabbitmq")

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	instrumentRepo := postgresRepo.NewInstrumentRepository(pool)
	invoiceRepo := postgresRepo.NewInvoiceRepository(pool)
	obligationRepo := postgresRepo.NewObligationRepository(pool)
	summaryRepo := postgresRepo.NewSummaryRepository(pool)
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Use cases
	instrumentUC := usecase.NewInstrumentUseCase(instrumentRepo, idGen)
	invoiceUC := usecase.NewInvoiceUseCase(txManager, instrumentRepo, invoiceRepo, idGen, m)
	retrier := postgresRepo.NewRetrier(appLogger)
	obligationUC := usecase.NewObligationUseCase(txManager, instrumentRepo, invoiceRepo, obligationRepo, idGen, queueClient, retrier, m, appLogger)
	summaryUC := usecase.NewSummaryUseCase(summaryRepo, cache, appLogger)
	ledgerUC := usecase.NewLedgerUseCase(postgresRepo.NewLedgerRepository(pool))

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	// Handlers
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		InstrumentHandler:  handler.NewInstrumentHandler(instrumentUC),
		TransactionHandler: handler.NewTransactionHandler(obligationUC),
		InvoiceHandler:     handler.NewInvoiceHandler(invoiceUC),
		SummaryHandler:     handler.NewSummaryHandler(summaryUC),
		LedgerHandler:      handler.NewLedgerHandler(ledgerUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:   idempotencyStore,
		RateLimiter:        rateLimiter,
		Logger:             appLogger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
