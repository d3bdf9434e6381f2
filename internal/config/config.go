package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Classifier
	GeminiAPIKey      string
	ClassifierModel   string
	ClassifierTimeout time.Duration
	BatchConcurrency  int

	// Insights
	InsightsTimeout time.Duration

	// Backfill worker
	BackfillBatchSize int
	BackfillInterval  time.Duration
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8082"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "categorize_transactions"),

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		ClassifierModel:   getEnv("CLASSIFIER_MODEL", "gemini-2.5-flash"),
		ClassifierTimeout: getEnvDuration("CLASSIFIER_TIMEOUT", 5*time.Second),
		BatchConcurrency:  getEnvInt("CLASSIFIER_BATCH_CONCURRENCY", 4),

		InsightsTimeout: getEnvDuration("INSIGHTS_TIMEOUT", 15*time.Second),

		BackfillBatchSize: getEnvInt("BACKFILL_BATCH_SIZE", 25),
		BackfillInterval:  getEnvDuration("BACKFILL_INTERVAL", 5*time.Minute),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ClassifierModel == "" {
		errs = append(errs, "classifier model cannot be empty")
	}
	if c.ClassifierTimeout < 100*time.Millisecond {
		errs = append(errs, fmt.Sprintf("invalid classifier timeout %v: must be at least 100ms", c.ClassifierTimeout))
	} else if c.ClassifierTimeout > time.Minute {
		errs = append(errs, fmt.Sprintf("invalid classifier timeout %v: must be at most 1 minute", c.ClassifierTimeout))
	}
	if c.BatchConcurrency < 1 {
		errs = append(errs, fmt.Sprintf("invalid batch concurrency %d: must be at least 1", c.BatchConcurrency))
	} else if c.BatchConcurrency > 64 {
		errs = append(errs, fmt.Sprintf("invalid batch concurrency %d: must be at most 64", c.BatchConcurrency))
	}

	if c.InsightsTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid insights timeout %v: must be at least 1 second", c.InsightsTimeout))
	} else if c.InsightsTimeout > 2*time.Minute {
		errs = append(errs, fmt.Sprintf("invalid insights timeout %v: must be at most 2 minutes", c.InsightsTimeout))
	}

	if c.BackfillBatchSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid backfill batch size %d: must be at least 1", c.BackfillBatchSize))
	} else if c.BackfillBatchSize > 1000 {
		errs = append(errs, fmt.Sprintf("invalid backfill batch size %d: must be at most 1000", c.BackfillBatchSize))
	}
	if c.BackfillInterval < time.Second {
		errs = append(errs, fmt.Sprintf("invalid backfill interval %v: must be at least 1 second", c.BackfillInterval))
	} else if c.BackfillInterval > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid backfill interval %v: must be at most 24 hours", c.BackfillInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// ClassifierEnabled reports whether the AI classification path is configured.
func (c *Config) ClassifierEnabled() bool {
	return c.GeminiAPIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
