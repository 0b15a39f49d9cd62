package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wasender/internal/api"
	"wasender/internal/config"
	"wasender/internal/metrics"
	"wasender/internal/model"
	"wasender/internal/repository"
	"wasender/internal/service"
	"wasender/internal/whatsapp"
	"wasender/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// Initialize logger
	logger.InitLogger(cfg.Server.Environment)
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("application startup failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	// 2. Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service.SignedKey = []byte(cfg.Auth.SigningKey)

	// 3. Initialize Infrastructure
	rdb, err := initRedis(cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	db, err := initDB(cfg.MySQL)
	if err != nil {
		return err
	}

	// 4. Initialize Repositories
	queueRepo := repository.NewQueueRepository(db)
	jobRepo := repository.NewJobRepository(db)
	sentRepo := repository.NewSentRepository(db)
	limitRepo := repository.NewRateLimitRepository(db, model.RateLimitConfig{
		MessagesPerSecond:      cfg.Queue.MessagesPerSecond,
		BatchSize:              cfg.Queue.BatchSize,
		BatchDelayMs:           cfg.Queue.BatchDelayMs,
		RetryDelayBaseMs:       cfg.Queue.RetryDelayBaseMs,
		RetryDelayMaxMs:        cfg.Queue.RetryDelayMaxMs,
		ErrorThreshold:         cfg.Queue.ErrorThreshold,
		CircuitBreakDurationMs: int(cfg.Queue.CircuitBreakDuration / time.Millisecond),
	})
	apiKeyRepo := repository.NewAPIKeyRepository(db)

	// 5. Initialize Services
	observer := metrics.NewPrometheusObserver()

	waClient := whatsapp.NewClient(whatsapp.Options{
		Token:         cfg.WhatsApp.Token,
		PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
		TemplateName:  cfg.WhatsApp.TemplateName,
		TemplateLang:  cfg.WhatsApp.TemplateLang,
		GraphVersion:  cfg.WhatsApp.GraphVersion,
		Timeout:       cfg.WhatsApp.Timeout,
	})
	if !waClient.Configured() {
		logger.Warn("whatsapp credentials missing, delivery is disabled until configured")
	}

	aggregator := service.NewJobAggregator(queueRepo, jobRepo)
	processor := service.NewQueueProcessor(queueRepo, sentRepo, limitRepo, aggregator, waClient, observer)
	queueSvc := service.NewQueueService(queueRepo, jobRepo, processor, observer, cfg.WhatsApp.SenderName, cfg.Queue.MaxRetries)
	authSvc := service.NewAuthService(rdb, cfg.Auth)

	// 6. Initialize & Start Workers (Background Tasks)
	worker := service.NewQueueWorker(processor, queueRepo, cfg.Workers.ProcessInterval, cfg.Workers.StaleTimeout)
	go func() {
		logger.Info("starting queue worker")
		worker.Run(ctx)
	}()

	// 7. Setup HTTP Server
	r := api.RegisterRoutes(
		api.NewQueueHandler(queueSvc),
		api.NewAuthHandler(authSvc),
		apiKeyRepo,
		rdb,
		cfg.RateLimit.RequestsPerSecond,
		cfg.Server.Environment,
	)

	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: r,
	}

	// 8. Start Server
	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Server.Port),
			zap.String("env", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen failed", zap.Error(err))
		}
	}()

	// 9. Graceful Shutdown Signal Wait
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	// Create a deadline to wait for current requests to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Signal all workers to stop
	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited properly")
	return nil
}

// -- Infrastructure Initializers --

func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

func initDB(cfg config.MySQLConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}

	// Simple auto-migrate for dev convenience
	// In production, you might want to use a proper migration tool like golang-migrate
	err = db.AutoMigrate(
		&model.Job{},
		&model.QueueMessage{},
		&model.SentMessage{},
		&model.RateLimitConfig{},
		&model.APIClient{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}
