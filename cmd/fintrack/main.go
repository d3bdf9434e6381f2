package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/classifier"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/insights"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
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

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite repository",
			applog.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Classifier: model-backed when a Gemini key is configured, keyword
	// fallback only otherwise.
	var modelClient classifier.ModelClient
	if cfg.ClassifierEnabled() {
		gemini, err := classifier.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.ClassifierModel)
		if err != nil {
			appLogger.Error("Failed to initialize Gemini client", applog.FieldError, err.Error())
			os.Exit(1)
		}
		defer gemini.Close()
		modelClient = gemini
		appLogger.Info("Gemini classifier initialized", "model", cfg.ClassifierModel)
	} else {
		appLogger.Info("No Gemini API key configured, using keyword fallback only")
	}
	cls := classifier.New(modelClient, cfg.ClassifierTimeout, cfg.BatchConcurrency,
		logger.WithComponent(applog.ComponentClassifier))

	// Backfill publisher: optional, the ledger works without a broker.
	var publisher ledger.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			logger.WithComponent(applog.ComponentAMQP))
		if err != nil {
			appLogger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
	} else {
		appLogger.Info("No AMQP URL configured, category backfill disabled")
	}

	engine := ledger.New(repo, cls, publisher, logger.WithComponent(applog.ComponentLedger))

	// Insights share the classifier's Gemini credentials but need a model
	// handle sized for prose, not a single enum word.
	var advisor insights.ModelClient
	if cfg.ClassifierEnabled() {
		gemAdvisor, err := insights.NewGeminiAdvisor(context.Background(), cfg.GeminiAPIKey, cfg.ClassifierModel)
		if err != nil {
			appLogger.Error("Failed to initialize Gemini advisor", applog.FieldError, err.Error())
			os.Exit(1)
		}
		defer gemAdvisor.Close()
		advisor = gemAdvisor
	}
	analyzer := insights.New(repo, advisor, cfg.InsightsTimeout,
		logger.WithComponent(applog.ComponentInsights))

	srv := apphttp.NewServer(":"+cfg.Port, engine, repo, analyzer, cls,
		logger.WithComponent(applog.ComponentHTTP))

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		appLogger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
		cancel()
	}()

	appLogger.Info("Starting fintrack server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		appLogger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	appLogger.Info("Server stopped gracefully")
}
