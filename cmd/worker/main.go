package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/aldenhq/alden-api/internal/config"
	"github.com/aldenhq/alden-api/internal/database"
	"github.com/aldenhq/alden-api/internal/logger"
	"github.com/aldenhq/alden-api/internal/queue"
	"github.com/aldenhq/alden-api/internal/services/ai"
	"github.com/aldenhq/alden-api/internal/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.WorkerDebugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Error("failed to close database", zap.Error(err))
		}
	}()

	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Error("failed to close job queue", zap.Error(err))
		}
	}()

	aiTimeout := time.Duration(cfg.AITimeoutSeconds) * time.Second

	var aiProvider ai.Provider
	if cfg.OpenAIKey != "" {
		aiProvider = ai.NewOpenAIProviderWithLogger(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, aiTimeout, zapLogger, cfg.WorkerDebugMode)
		zapLogger.Info("ai_provider_configured", zap.String("provider", "openai"), zap.String("model", cfg.AIModel))
	} else {
		aiProvider = ai.NewFallbackProvider()
		zapLogger.Warn("ai_provider_fallback", zap.String("reason", "OPENAI_API_KEY not set"))
	}

	conversationRepo := database.NewConversationRepository(db)
	responder := workers.NewResponder(aiProvider, conversationRepo, jobQueue, zapLogger, aiTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, errs, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed to start consuming", zap.Error(err))
	}

	zapLogger.Info("worker_started", zap.Int("prefetch", cfg.RabbitMQPrefetch))

	go func() {
		for msg := range messages {
			if err := responder.ProcessJob(ctx, msg); err != nil {
				zapLogger.Error("job_processing_failed", zap.Error(err))
			}
		}
	}()

	go func() {
		for err := range errs {
			zapLogger.Error("consume_error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zapLogger.Info("worker_shutting_down")
	cancel()
	zapLogger.Info("worker_stopped")
}
