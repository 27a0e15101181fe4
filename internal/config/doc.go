// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

/*
Package config provides centralized configuration management for Shelfrank.

Configuration is loaded in three layers, each overriding the previous one:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file, located through CONFIG_PATH or DefaultConfigPaths
 3. Environment variables listed in envMappings

# Sections

  - server: HTTP bind address, timeouts, environment
  - database: DuckDB path and tuning, optional seed fixture
  - recommend: engine limits, worker pool size, trending window
  - catalog: retry, circuit breaker and cache settings for the catalog source
  - events: catalog event transport (memory or nats)
  - api: CORS origins and rate limits
  - logging: level, format, caller

# Environment Variables

A few common ones:

  - HTTP_PORT: listen port (default: 8080)
  - DUCKDB_PATH: database file (default: /data/shelfrank.duckdb)
  - RECOMMEND_REQUEST_TIMEOUT: ranking deadline (default: 2s)
  - EVENTS_TRANSPORT: memory or nats (default: memory)
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)

Unknown environment variables are ignored.

# Thread Safety

A loaded Config is not mutated afterwards and may be read from any goroutine.
*/
package config
