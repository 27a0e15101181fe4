// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

/*
Package main is the shelfrank HTTP server.

Startup order:

 1. Configuration: koanf defaults, optional YAML file, environment
 2. Logging: zerolog, JSON or console
 3. Catalog: DuckDB store, optional seed fixture, event bus
 4. Engine: retry/breaker and cache decorators around the catalog
 5. Supervisor tree: HTTP server, catalog event consumers, cache sweeper

# Configuration

Common environment variables:

	HTTP_PORT=8080
	DUCKDB_PATH=/data/shelfrank.duckdb   # ":memory:" for an ephemeral catalog
	SEED_FILE=/data/seed.json            # loaded on every start when set
	EVENTS_TRANSPORT=memory              # or nats (binary built with -tags nats)
	NATS_URL=nats://127.0.0.1:4222
	CATALOG_CACHE_ENABLED=true
	RATE_LIMIT_REQUESTS=120
	LOG_LEVEL=info
	LOG_FORMAT=json

A YAML file is read from CONFIG_PATH or the default search paths.

# Signals

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
in-flight requests for at most HTTP_SHUTDOWN_TIMEOUT.
*/
package main
