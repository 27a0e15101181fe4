// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package api

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfrank/internal/cache"
	"github.com/tomtom215/shelfrank/internal/catalog"
	"github.com/tomtom215/shelfrank/internal/middleware"
	"github.com/tomtom215/shelfrank/internal/recommend"
)

// Version is reported by the readiness probe. Overridden at build time.
var Version = "dev"

// Recommender is the subset of recommend.Engine the handlers use.
type Recommender interface {
	Personalized(ctx context.Context, userID int64, limit int) []recommend.Result
	Category(ctx context.Context, userID, categoryID int64, limit int) []recommend.Result
	Similar(ctx context.Context, anchorID, userID int64, limit int) []recommend.Result
	Trending(ctx context.Context, limit int) []recommend.Result
	Stats() recommend.Stats
}

// Catalog is the write and health surface of the catalog store.
type Catalog interface {
	RecordDownload(ctx context.Context, userID, bookID int64) (recommend.DownloadEvent, error)
	AddFavorite(ctx context.Context, userID, bookID int64) (bool, error)
	RemoveFavorite(ctx context.Context, userID, bookID int64) (bool, error)
	Stats(ctx context.Context) (catalog.Stats, error)
	Ping(ctx context.Context) error
}

// CacheStats reports per-cache counters.
type CacheStats interface {
	Stats() map[string]cache.Stats
}

// BreakerState reports the circuit breaker state.
type BreakerState interface {
	State() string
}

// Dependencies wires the handler to the rest of the service. Engine and
// Catalog are required; the rest are reported by the stats and readiness
// endpoints when set.
type Dependencies struct {
	Engine      Recommender
	Catalog     Catalog
	Cache       CacheStats
	Breaker     BreakerState
	Performance *middleware.PerformanceMonitor
}

// Handler serves the API endpoints.
type Handler struct {
	engine    Recommender
	catalog   Catalog
	cache     CacheStats
	breaker   BreakerState
	perf      *middleware.PerformanceMonitor
	logger    zerolog.Logger
	startTime time.Time

	readyTimeout time.Duration
	statsTimeout time.Duration
}

// NewHandler creates a handler from its dependencies.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(deps Dependencies, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:       deps.Engine,
		catalog:      deps.Catalog,
		cache:        deps.Cache,
		breaker:      deps.Breaker,
		perf:         deps.Performance,
		logger:       logger.With().Str("component", "api").Logger(),
		startTime:    time.Now(),
		readyTimeout: 2 * time.Second,
		statsTimeout: 5 * time.Second,
	}
}
