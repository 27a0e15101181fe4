// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/tomtom215/shelfrank/internal/api"
	"github.com/tomtom215/shelfrank/internal/app"
	"github.com/tomtom215/shelfrank/internal/catalog"
	"github.com/tomtom215/shelfrank/internal/config"
	"github.com/tomtom215/shelfrank/internal/logging"
	"github.com/tomtom215/shelfrank/internal/middleware"
	"github.com/tomtom215/shelfrank/internal/supervisor"
	"github.com/tomtom215/shelfrank/internal/supervisor/services"
)

// performanceWindow is the number of recent requests kept for /stats.
const performanceWindow = 2048

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

// run wires the stack and blocks until ctx is canceled.
func run(ctx context.Context, cfg *config.Config) error {
	logger := logging.Logger()
	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("version", api.Version).
		Msg("Starting shelfrank")

	stack, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing catalog")
		}
	}()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	server := newHTTPServer(cfg, newRouter(cfg, stack))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, logger))

	if stack.Cache != nil {
		for _, topic := range catalog.Topics() {
			tree.AddMessagingService(services.NewCatalogEventConsumer(stack.Bus, stack.Cache, topic, logger))
		}
		tree.AddDataService(services.NewCacheSweeper(stack.Cache, cfg.Catalog.Cache.SweepInterval, logger))
	}

	treeCfg := tree.Config()
	logger.Info().Str("addr", server.Addr).
		Float64("failure_threshold", treeCfg.FailureThreshold).
		Dur("shutdown_timeout", treeCfg.ShutdownTimeout).
		Msg("Starting supervisor tree")
	err = tree.Serve(ctx)

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logger.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	return nil
}

// newRouter builds the API handler over the stack.
func newRouter(cfg *config.Config, stack *app.Stack) http.Handler {
	deps := api.Dependencies{
		Engine:      stack.Engine,
		Catalog:     stack.Store,
		Breaker:     stack.Resilient,
		Performance: middleware.NewPerformanceMonitor(performanceWindow, middleware.DefaultSlowRequestThreshold, logging.Logger()),
	}
	// A nil *CachedSource must not become a non-nil interface.
	if stack.Cache != nil {
		deps.Cache = stack.Cache
	}

	handler := api.NewHandler(deps, logging.Logger())
	return api.NewRouter(handler, api.ChiMiddlewareConfigFrom(&cfg.API)).SetupChi()
}

func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}
