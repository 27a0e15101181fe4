// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package config

import (
	"time"

	"github.com/tomtom215/shelfrank/internal/recommend"
)

// Config holds the complete application configuration.
type Config struct {
	Server    ServerConfig     `koanf:"server"`
	Database  DatabaseConfig   `koanf:"database"`
	Recommend recommend.Config `koanf:"recommend"`
	Catalog   CatalogConfig    `koanf:"catalog"`
	Events    EventsConfig     `koanf:"events"`
	API       APIConfig        `koanf:"api"`
	Logging   LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// DatabaseConfig holds DuckDB settings
type DatabaseConfig struct {
	Path      string `koanf:"path"` // ":memory:" or empty for an in-memory catalog
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = NumCPU

	// SeedFile is a JSON fixture loaded at startup when set.
	SeedFile string `koanf:"seed_file"`
}

// CatalogConfig tunes the decorators wrapped around the catalog store.
type CatalogConfig struct {
	Retry   RetryConfig   `koanf:"retry"`
	Breaker BreakerConfig `koanf:"breaker"`
	Cache   CacheConfig   `koanf:"cache"`
}

// RetryConfig bounds the exponential backoff applied to failed catalog reads.
type RetryConfig struct {
	MaxAttempts  int           `koanf:"max_attempts"`
	InitialDelay time.Duration `koanf:"initial_delay"`
	MaxDelay     time.Duration `koanf:"max_delay"`
}

// BreakerConfig configures the catalog circuit breaker.
//
// The breaker opens when, within Interval, at least MinRequests calls were
// made and the failure ratio reached FailureRatio. After Timeout it lets
// MaxRequests probes through.
type BreakerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
}

// CacheConfig configures the read-through catalog cache.
type CacheConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Capacity      int           `koanf:"capacity"`
	TTL           time.Duration `koanf:"ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// EventsConfig selects the catalog event transport.
//
// "memory" uses an in-process Pub/Sub. "nats" requires a binary built with
// the nats tag and a reachable JetStream server at NATSURL.
type EventsConfig struct {
	Transport  string `koanf:"transport"`
	BufferSize int64  `koanf:"buffer_size"`
	NATSURL    string `koanf:"nats_url"`

	// Instances sharing a QueueGroup split events between them. Give each
	// instance its own group so every local cache sees every invalidation.
	QueueGroup string `koanf:"queue_group"`
}

// APIConfig holds HTTP API settings
type APIConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// IsInMemory reports whether the catalog lives only in memory.
func (d DatabaseConfig) IsInMemory() bool {
	return d.Path == "" || d.Path == ":memory:"
}
