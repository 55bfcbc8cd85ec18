// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, worker) via constructors.
  - Shared: The API server and the ingestion worker read the same schema.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Libris API server and worker.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Redis backs both the task queue (streams) and the search index (RediSearch)
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// SearchIndex is the RediSearch index name holding book documents.
	SearchIndex string `env:"SEARCH_INDEX" envDefault:"idx:books"`

	// Task queue retry policy
	QueueMaxRetries        int           `env:"QUEUE_MAX_RETRIES"        envDefault:"3"`
	QueueMinBackoff        time.Duration `env:"QUEUE_MIN_BACKOFF"        envDefault:"15s"`
	QueueMaxBackoff        time.Duration `env:"QUEUE_MAX_BACKOFF"        envDefault:"1h"`
	QueueTimeLimit         time.Duration `env:"QUEUE_TIME_LIMIT"         envDefault:"10m"`
	QueueMaxAge            time.Duration `env:"QUEUE_MAX_AGE"            envDefault:"24h"`

	// QueueVisibilityTimeout must exceed QueueTimeLimit so a running task is
	// never reclaimed by another consumer.
	QueueVisibilityTimeout time.Duration `env:"QUEUE_VISIBILITY_TIMEOUT" envDefault:"15m"`

	// Worker process
	WorkerConcurrency int    `env:"WORKER_CONCURRENCY" envDefault:"8"`
	MetricsPort       string `env:"METRICS_PORT"       envDefault:"9100"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing or empty.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.QueueMaxRetries < 0 {
		return nil, fmt.Errorf("config: QUEUE_MAX_RETRIES must not be negative, got %d", cfg.QueueMaxRetries)
	}

	if cfg.WorkerConcurrency < 1 {
		return nil, fmt.Errorf("config: WORKER_CONCURRENCY must be at least 1, got %d", cfg.WorkerConcurrency)
	}

	if cfg.QueueVisibilityTimeout <= cfg.QueueTimeLimit {
		return nil, fmt.Errorf("config: QUEUE_VISIBILITY_TIMEOUT (%s) must be greater than QUEUE_TIME_LIMIT (%s)",
			cfg.QueueVisibilityTimeout, cfg.QueueTimeLimit)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the comma-separated EXTRA_ORIGINS as a trimmed list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
