package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration for the ingestion service. Values
// come from the environment, optionally seeded from a .env file.
type Config struct {
	// HTTPAddr is the listen address for the API server.
	HTTPAddr string

	// PostgresDSN is the connection string for the transaction store.
	PostgresDSN string

	// RedisAddr is the address of the Redis instance backing the raw
	// notification archive. Empty disables the Redis archive.
	RedisAddr string

	// UserID is the signed-in user on whose behalf background captures are
	// committed. Empty means no user is signed in.
	UserID string

	// ExecutionBudget is the hard per-invocation budget imposed on the
	// dispatcher. The host kills anything that runs longer.
	ExecutionBudget time.Duration

	// CommitTimeout bounds the store write inside one invocation. It must
	// stay strictly below ExecutionBudget so the archive write still fits.
	CommitTimeout time.Duration
}

// Load reads configuration from the environment. A missing .env file is not
// an error; explicit environment variables always win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		UserID:          os.Getenv("ZENIN_USER_ID"),
		ExecutionBudget: 5 * time.Second,
		CommitTimeout:   3 * time.Second,
	}

	if v := os.Getenv("EXECUTION_BUDGET"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("Load: parsing EXECUTION_BUDGET: %w", err)
		}
		cfg.ExecutionBudget = d
	}
	if v := os.Getenv("COMMIT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("Load: parsing COMMIT_TIMEOUT: %w", err)
		}
		cfg.CommitTimeout = d
	}
	if cfg.CommitTimeout >= cfg.ExecutionBudget {
		return nil, fmt.Errorf("Load: COMMIT_TIMEOUT (%s) must be below EXECUTION_BUDGET (%s)", cfg.CommitTimeout, cfg.ExecutionBudget)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
