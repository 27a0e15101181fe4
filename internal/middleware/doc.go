// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

/*
Package middleware provides HTTP middleware shared by the API router.

Components:

  - RequestID: propagates or generates X-Request-ID and seeds the logging
    context with request and correlation IDs
  - PrometheusMetrics: request counters, latency histograms and the active
    request gauge, labelled by chi route pattern
  - PerformanceMonitor: a bounded window of recent request latencies with
    per-route percentiles, reported by the stats endpoint
  - SecurityHeaders: nosniff, frame denial, referrer policy and HSTS behind TLS

All middleware use the func(http.Handler) http.Handler shape so they can be
passed directly to chi's Use.

Metric labels use the matched route pattern (for example
/api/v1/recommendations/similar/{bookID}) rather than the raw path, which
keeps label cardinality bounded.
*/
package middleware
