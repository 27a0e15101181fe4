// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfrank/internal/metrics"
)

// DefaultSweepInterval is used when no interval is configured.
const DefaultSweepInterval = time.Minute

// Sweeper is satisfied by *catalog.CachedSource.
type Sweeper interface {
	Sweep() int
}

// CacheSweeper removes expired cache entries on a fixed interval. Expired
// entries are never served, but they hold memory until swept or evicted.
type CacheSweeper struct {
	cache    Sweeper
	interval time.Duration
	logger   zerolog.Logger
}

// NewCacheSweeper creates a sweeper.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCacheSweeper(cache Sweeper, interval time.Duration, logger zerolog.Logger) *CacheSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &CacheSweeper{
		cache:    cache,
		interval: interval,
		logger:   logger.With().Str("service", "cache-sweeper").Logger(),
	}
}

// Serve implements suture.Service.
func (s *CacheSweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.cache.Sweep(); n > 0 {
				metrics.CacheInvalidations.WithLabelValues("expired").Add(float64(n))
				s.logger.Debug().Int("removed", n).Msg("expired cache entries swept")
			}
		}
	}
}

// String implements fmt.Stringer.
func (s *CacheSweeper) String() string {
	return "cache-sweeper"
}
