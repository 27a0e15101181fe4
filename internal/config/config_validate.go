// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package config

import (
	"fmt"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

var validTransports = map[string]bool{
	"memory": true,
	"nats":   true,
}

var validEnvironments = map[string]bool{
	"development": true,
	"staging":     true,
	"production":  true,
}

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}

	if err := c.validateCatalog(); err != nil {
		return err
	}

	if err := c.validateEvents(); err != nil {
		return err
	}

	if err := c.validateAPI(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Environment != "" && !validEnvironments[c.Server.Environment] {
		return fmt.Errorf("ENVIRONMENT must be one of: development, staging, production")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be >= 0, got %d", c.Database.Threads)
	}
	return nil
}

// validateCatalog validates retry, breaker and cache settings
func (c *Config) validateCatalog() error {
	r := c.Catalog.Retry
	if r.MaxAttempts < 1 {
		return fmt.Errorf("catalog.retry.max_attempts must be at least 1, got %d", r.MaxAttempts)
	}
	if r.InitialDelay <= 0 {
		return fmt.Errorf("catalog.retry.initial_delay must be positive")
	}
	if r.MaxDelay < r.InitialDelay {
		return fmt.Errorf("catalog.retry.max_delay must be >= initial_delay, got %v < %v", r.MaxDelay, r.InitialDelay)
	}

	if b := c.Catalog.Breaker; b.Enabled {
		if b.FailureRatio <= 0 || b.FailureRatio > 1 {
			return fmt.Errorf("catalog.breaker.failure_ratio must be in (0, 1], got %v", b.FailureRatio)
		}
		if b.Timeout <= 0 {
			return fmt.Errorf("catalog.breaker.timeout must be positive")
		}
		if b.MaxRequests == 0 {
			return fmt.Errorf("catalog.breaker.max_requests must be positive")
		}
	}

	if cc := c.Catalog.Cache; cc.Enabled {
		if cc.Capacity < 1 {
			return fmt.Errorf("catalog.cache.capacity must be positive, got %d", cc.Capacity)
		}
		if cc.TTL <= 0 {
			return fmt.Errorf("catalog.cache.ttl must be positive")
		}
		if cc.SweepInterval <= 0 {
			return fmt.Errorf("catalog.cache.sweep_interval must be positive")
		}
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !validTransports[c.Events.Transport] {
		return fmt.Errorf("EVENTS_TRANSPORT must be one of: memory, nats")
	}
	if c.Events.BufferSize < 0 {
		return fmt.Errorf("events.buffer_size must be >= 0, got %d", c.Events.BufferSize)
	}
	if c.Events.Transport == "nats" && c.Events.NATSURL == "" {
		return fmt.Errorf("NATS_URL is required when EVENTS_TRANSPORT=nats")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.RateLimitDisabled {
		return nil
	}
	if c.API.RateLimitRequests < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.API.RateLimitRequests)
	}
	if c.API.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
