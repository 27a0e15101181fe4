// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

// Package app assembles the catalog and recommendation stack shared by the
// server and the shelfctl tool.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfrank/internal/catalog"
	"github.com/tomtom215/shelfrank/internal/config"
	"github.com/tomtom215/shelfrank/internal/metrics"
	"github.com/tomtom215/shelfrank/internal/recommend"
	"github.com/tomtom215/shelfrank/internal/recommend/algorithms"
)

// Stack holds the wired components. Cache is nil when the catalog cache is
// disabled.
type Stack struct {
	Config    *config.Config
	Store     *catalog.Store
	Bus       *catalog.EventBus
	Resilient *catalog.ResilientSource
	Cache     *catalog.CachedSource
	Engine    *recommend.Engine
}

// Build opens the catalog, loads the configured seed file, and wires the
// engine on top of the resilient (and optionally cached) catalog:
//
//	engine -> cache -> retry/breaker -> DuckDB store
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Stack, error) {
	store, err := catalog.Open(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	if cfg.Database.SeedFile != "" {
		res, err := store.LoadSeedFile(ctx, cfg.Database.SeedFile)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		logger.Info().Str("file", cfg.Database.SeedFile).
			Int("books", res.Books).Int("users", res.Users).
			Msg("catalog seeded")
	}

	bus, err := catalog.NewEventBus(&cfg.Events, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create event bus: %w", err)
	}
	store.SetPublisher(bus)

	s := &Stack{Config: cfg, Store: store, Bus: bus}
	s.Resilient = catalog.NewResilientSource(store, &cfg.Catalog, logger)

	var source catalog.Source = s.Resilient
	if cfg.Catalog.Cache.Enabled {
		s.Cache = catalog.NewCachedSource(s.Resilient, &cfg.Catalog.Cache, logger)
		source = s.Cache
	}

	engine, err := recommend.NewEngine(&cfg.Recommend, source, algorithms.DefaultSignals(logger), logger)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("create engine: %w", err)
	}
	engine.SetRecorder(metrics.RecommendRecorder{})
	s.Engine = engine

	logger.Info().
		Str("database", cfg.Database.Path).
		Str("events", cfg.Events.Transport).
		Bool("cache", cfg.Catalog.Cache.Enabled).
		Bool("breaker", cfg.Catalog.Breaker.Enabled).
		Msg("recommendation stack ready")
	return s, nil
}

// Close releases the event bus and the catalog.
func (s *Stack) Close() error {
	var errs []error
	if s.Bus != nil {
		if err := s.Bus.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
