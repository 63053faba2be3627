package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/cardledger/cardledger/internal/adapter/queue/amqp"
	postgresRepo "github.com/cardledger/cardledger/internal/adapter/repository/postgres"
	redisRepo "github.com/cardledger/cardledger/internal/adapter/repository/redis"
	"github.com/cardledger/cardledger/internal/infrastructure/config"
	"github.com/cardledger/cardledger/internal/infrastructure/logger"
	"github.com/cardledger/cardledger/internal/infrastructure/postgres"
	"github.com/cardledger/cardledger/internal/infrastructure/redis"
	"github.com/cardledger/cardledger/internal/usecase"
	"github.com/cardledger/cardledger/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	summaryRepo := postgresRepo.NewSummaryRepository(pool)
	cache := redisRepo.NewCache(redisClient)
	summaryUC := usecase.NewSummaryUseCase(summaryRepo, cache, appLogger)

	refreshWorker := worker.NewRefreshWorker(summaryUC, queueClient, cfg.SweepInterval, appLogger)

	log.Info().
		Str("queue", cfg.RefreshQueue).
		Dur("sweep_interval", cfg.SweepInterval).
		Msg("starting refresh worker")

	if err := refreshWorker.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("worker failed")
	}

	log.Info().Msg("worker stopped")
}
