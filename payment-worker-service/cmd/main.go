package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"botbazaar/payment-worker-service/internal/app/payment-worker/config"
	"botbazaar/payment-worker-service/internal/app/payment-worker/handler"
	"botbazaar/payment-worker-service/internal/app/payment-worker/processor"
	"botbazaar/payment-worker-service/internal/app/payment-worker/repository"
	"botbazaar/payment-worker-service/internal/app/payment-worker/service"
	"botbazaar/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.Init("payment-worker-service", logLevel)

	logstashAddr := os.Getenv("LOGSTASH_ADDR")
	if logstashAddr != "" {
		if err := logger.InitLogstash(logstashAddr, "payment-worker-service", logLevel); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", logstashAddr).Msg("Connected to Logstash")
		}
	}

	ctx := context.Background()

	redisClient, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Str("addr", cfg.Redis.Address()).Msg("Connected to Redis")

	mongoClient, err := connectMongo(ctx, cfg.Mongo)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(ctx)
	logger.Info().Str("database", cfg.Mongo.Database).Msg("Connected to MongoDB")

	exchangeRateRepo := repository.NewExchangeRateRepository(redisClient, cfg.Redis.TTL)
	observationRepo := repository.NewObservationRepository(mongoClient, cfg.Mongo.Database, cfg.Mongo.Collection)

	exchangeAPIClient := service.NewExchangeRateAPIClient(
		cfg.ExchangeAPI.URL,
		cfg.ExchangeAPI.Timeout,
	)
	ordersClient := service.NewOrdersAPIClient(
		cfg.OrdersAPI.URL,
		cfg.OrdersAPI.JWTSecret,
		cfg.OrdersAPI.Timeout,
	)

	exchangeRateSvc := service.NewExchangeRateService(exchangeRateRepo, exchangeAPIClient)
	feedSvc := service.NewSettlementFeedService(exchangeRateSvc, ordersClient, observationRepo)

	kafkaConsumer := processor.NewKafkaConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.Topic,
		cfg.Kafka.GroupID,
		cfg.Kafka.MinBytes,
		cfg.Kafka.MaxBytes,
		feedSvc,
		exchangeRateSvc,
	)
	kafkaConsumer.Start(ctx)
	defer kafkaConsumer.Stop()
	logger.Info().
		Str("topic", cfg.Kafka.Topic).
		Str("group", cfg.Kafka.GroupID).
		Msg("Kafka consumer started")

	cronScheduler := processor.NewCronScheduler(exchangeRateSvc)
	if err := cronScheduler.Start(ctx, cfg.CronSchedule.UpdateRates); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start cron scheduler")
	}
	defer cronScheduler.Stop()
	logger.Info().Str("schedule", cfg.CronSchedule.UpdateRates).Msg("Cron scheduler started")

	healthHandler := handler.NewHealthCheckHandler(redisClient, mongoClient, exchangeRateSvc)

	mux := http.NewServeMux()
	healthHandler.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: mux,
	}

	go func() {
		logger.Info().Str("address", cfg.Server.Address()).Msg("Starting Payment Worker Service")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Payment Worker Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server forced to shutdown")
	}

	logger.Info().Msg("Payment Worker Service stopped gracefully")
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

func connectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return client, nil
}
