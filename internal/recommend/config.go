// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package recommend

import (
	"fmt"
	"runtime"
	"time"
)

// Config contains all configuration for the recommendation engine.
// Scoring weights are constants in weights.go and are not configurable.
type Config struct {
	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits" koanf:"limits"`

	// Workers is the size of the candidate scoring pool.
	// If <= 0, GOMAXPROCS is used.
	Workers int `json:"workers" koanf:"workers"`

	// TrendingWindow is how far back downloads count as recent.
	TrendingWindow time.Duration `json:"trending_window" koanf:"trending_window"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultK is the list length used when a request asks for 0 or fewer.
	DefaultK int `json:"default_k" koanf:"default_k"`

	// MaxK caps the requested list length.
	MaxK int `json:"max_k" koanf:"max_k"`

	// MaxCandidates bounds the most-downloaded scan used for trending when
	// the source cannot list recent activity directly.
	MaxCandidates int `json:"max_candidates" koanf:"max_candidates"`

	// RequestTimeout bounds a single ranking. On expiry the fallback is served.
	RequestTimeout time.Duration `json:"request_timeout" koanf:"request_timeout"`

	// FallbackTimeout bounds the fallback query, which runs detached from the
	// caller's deadline.
	FallbackTimeout time.Duration `json:"fallback_timeout" koanf:"fallback_timeout"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Limits: LimitsConfig{
			DefaultK:        10,
			MaxK:            100,
			MaxCandidates:   1000,
			RequestTimeout:  2 * time.Second,
			FallbackTimeout: 500 * time.Millisecond,
		},
		Workers:        runtime.GOMAXPROCS(0),
		TrendingWindow: TrendingWindow,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Limits.DefaultK < 1 {
		return fmt.Errorf("limits.default_k must be positive, got %d", c.Limits.DefaultK)
	}
	if c.Limits.MaxK < c.Limits.DefaultK {
		return fmt.Errorf("limits.max_k must be >= limits.default_k, got %d < %d", c.Limits.MaxK, c.Limits.DefaultK)
	}
	if c.Limits.MaxCandidates < c.Limits.MaxK {
		return fmt.Errorf("limits.max_candidates must be >= limits.max_k, got %d < %d", c.Limits.MaxCandidates, c.Limits.MaxK)
	}
	if c.Limits.RequestTimeout <= 0 {
		return fmt.Errorf("limits.request_timeout must be positive, got %v", c.Limits.RequestTimeout)
	}
	if c.Limits.FallbackTimeout <= 0 {
		return fmt.Errorf("limits.fallback_timeout must be positive, got %v", c.Limits.FallbackTimeout)
	}
	if c.TrendingWindow <= 0 {
		return fmt.Errorf("trending_window must be positive, got %v", c.TrendingWindow)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

func (c *Config) workers() int {
	if c.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}
