// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage back ends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config represents the full application configuration surface.
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Numbering   NumberingConfig
	Stock       StockConfig
	Idempotency IdempotencyConfig
	Metrics     MetricsConfig
	Worker      WorkerConfig
}

// AppConfig holds HTTP server and logging options.
type AppConfig struct {
	Port     string
	Env      string
	LogLevel string
}

// Development reports whether the console log encoder should be used.
func (a AppConfig) Development() bool { return a.Env == "development" }

// DatabaseConfig selects and tunes the record store.
type DatabaseConfig struct {
	Storage          string
	URL              string
	MaxConns         int32
	StatementTimeout time.Duration
	Isolation        string
}

// NumberingConfig shapes sale document numbers.
type NumberingConfig struct {
	Width    int
	Prefix   string
	Overflow string
}

// StockConfig holds the negative stock policy switch.
type StockConfig struct {
	AllowNegative bool
}

// IdempotencyConfig controls X-Idempotency-Key handling on sale registration.
type IdempotencyConfig struct {
	Enabled bool
	TTL     time.Duration
}

// MetricsConfig switches the Prometheus endpoint on.
type MetricsConfig struct {
	Enabled bool
}

// WorkerConfig holds background job settings.
type WorkerConfig struct {
	WebhookURL      string
	OutboxSchedule  string
	OutboxBatchSize int
	CleanupSchedule string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env is fine when configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		App: AppConfig{
			Port:     getenvWithDefault("APP_PORT", "8080"),
			Env:      getenvWithDefault("APP_ENV", "development"),
			LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Storage:          getenvWithDefault("STORAGE", StoragePostgres),
			URL:              os.Getenv("DATABASE_URL"),
			MaxConns:         int32(getenvInt("DB_MAX_CONNS", 25)),
			StatementTimeout: getenvDuration("TX_STATEMENT_TIMEOUT", 30*time.Second),
			Isolation:        getenvWithDefault("TX_ISOLATION", "read_committed"),
		},
		Numbering: NumberingConfig{
			Width:    getenvInt("DOC_NUMBER_WIDTH", 4),
			Prefix:   os.Getenv("DOC_NUMBER_PREFIX"),
			Overflow: getenvWithDefault("DOC_NUMBER_OVERFLOW", "widen"),
		},
		Stock: StockConfig{
			AllowNegative: getenvBool("STOCK_ALLOW_NEGATIVE", false),
		},
		Idempotency: IdempotencyConfig{
			Enabled: getenvBool("IDEMPOTENCY_ENABLED", false),
			TTL:     getenvDuration("IDEMPOTENCY_TTL", 10*time.Minute),
		},
		Metrics: MetricsConfig{
			Enabled: getenvBool("PROMETHEUS_ENABLED", false),
		},
		Worker: WorkerConfig{
			WebhookURL:      os.Getenv("WEBHOOK_URL"),
			OutboxSchedule:  getenvWithDefault("OUTBOX_SCHEDULE", "@every 10s"),
			OutboxBatchSize: getenvInt("OUTBOX_BATCH_SIZE", 50),
			CleanupSchedule: getenvWithDefault("CLEANUP_SCHEDULE", "@hourly"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that configuration values are usable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.App.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Database.Storage {
	case StoragePostgres:
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL must be provided when STORAGE=postgres")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Database.Storage)
	}

	switch c.Database.Isolation {
	case "read_committed", "repeatable_read", "serializable":
	default:
		return fmt.Errorf("unknown TX_ISOLATION %q", c.Database.Isolation)
	}

	if c.Numbering.Width < 1 {
		return errors.New("DOC_NUMBER_WIDTH must be at least 1")
	}

	switch c.Numbering.Overflow {
	case "widen", "fail":
	default:
		return fmt.Errorf("DOC_NUMBER_OVERFLOW must be widen or fail, got %q", c.Numbering.Overflow)
	}

	if c.Worker.OutboxBatchSize < 1 {
		return errors.New("OUTBOX_BATCH_SIZE must be positive")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
