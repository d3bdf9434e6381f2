package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/classifier"
	"fintrack/internal/config"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)
	appLogger := logger.WithComponent(applog.ComponentApp)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		appLogger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		appLogger.Error("AMQP_URL is required for the backfill worker")
		os.Exit(1)
	}
	if !cfg.ClassifierEnabled() {
		appLogger.Error("GEMINI_API_KEY is required for the backfill worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite repository",
			applog.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	gemini, err := classifier.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.ClassifierModel)
	if err != nil {
		appLogger.Error("Failed to initialize Gemini client", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer gemini.Close()
	cls := classifier.New(gemini, cfg.ClassifierTimeout, cfg.BatchConcurrency,
		logger.WithComponent(applog.ComponentClassifier))

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
		logger.WithComponent(applog.ComponentAMQP))
	if err != nil {
		appLogger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	// The worker consumes its own messages and never publishes, so the
	// engine runs without a publisher.
	engine := ledger.New(repo, cls, nil, logger.WithComponent(applog.ComponentLedger))

	bw := worker.NewBackfillWorker(repo, engine, cls, cfg.BackfillBatchSize, cfg.BackfillInterval,
		logger.WithComponent(applog.ComponentWorker))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		appLogger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	appLogger.Info("Starting fintrack backfill worker",
		"queue", cfg.AMQPQueue,
		"batch_size", cfg.BackfillBatchSize,
		"interval", cfg.BackfillInterval.String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeCategorize(gctx, func(msg *amqp.CategorizeMessage) error {
			return bw.HandleCategorizeMessage(gctx, msg)
		})
	})
	g.Go(func() error {
		return bw.Run(gctx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		appLogger.Error("Worker stopped with error", applog.FieldError, err.Error())
		os.Exit(1)
	}
	appLogger.Info("Worker stopped gracefully")
}
