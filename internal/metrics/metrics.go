// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

// Package metrics declares the Prometheus collectors exported by Shelfrank.
//
// Collectors are registered on the default registry through promauto and
// exposed by the API router at /metrics. Record* helpers keep label handling
// in one place so call sites stay one line long.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfrank_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfrank_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shelfrank_api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// Recommendation Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfrank_recommend_requests_total",
			Help: "Total recommendation requests by mode",
		},
		[]string{"mode"}, // personalized, category, similar, trending, popular-fallback
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfrank_recommend_duration_seconds",
			Help:    "Time spent producing a recommendation list",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode"},
	)

	RecommendFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfrank_recommend_fallbacks_total",
			Help: "Requests answered with the popularity fallback, by cause",
		},
		[]string{"cause"}, // unknown_user, no_candidates, collaborator, deadline
	)

	RecommendCandidatesScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shelfrank_recommend_candidates_scored_total",
			Help: "Total number of candidate items scored",
		},
	)

	RecommendMissingCategory = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shelfrank_recommend_missing_category_total",
			Help: "Similarity comparisons involving an item without a category",
		},
	)

	// Catalog Metrics
	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfrank_catalog_query_duration_seconds",
			Help:    "Duration of DuckDB catalog queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CatalogQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfrank_catalog_query_errors_total",
			Help: "Total number of failed catalog queries",
		},
		[]string{"operation"},
	)

	CatalogRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfrank_catalog_retries_total",
			Help: "Catalog calls retried after a transient failure",
		},
		[]string{"operation"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfrank_cache_hits_total",
			Help: "Catalog cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfrank_cache_misses_total",
			Help: "Catalog cache misses",
		},
		[]string{"cache"},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfrank_cache_invalidations_total",
			Help: "Cache entries dropped because of catalog events or expiry",
		},
		[]string{"reason"}, // event, expired
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfrank_catalog_events_published_total",
			Help: "Catalog events published",
		},
		[]string{"topic"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfrank_catalog_events_consumed_total",
			Help: "Catalog events consumed, by outcome",
		},
		[]string{"topic", "result"}, // ok, malformed
	)
)

// RecordAPIRequest records one served API request.
func RecordAPIRequest(method, route, status string, d time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}

// RecordRecommendation records one completed recommendation request.
func RecordRecommendation(mode string, d time.Duration, scored int) {
	RecommendRequests.WithLabelValues(mode).Inc()
	RecommendDuration.WithLabelValues(mode).Observe(d.Seconds())
	if scored > 0 {
		RecommendCandidatesScored.Add(float64(scored))
	}
}

// RecordFallback records a fallback served for cause.
func RecordFallback(cause string) {
	RecommendFallbacks.WithLabelValues(cause).Inc()
}

// RecordCatalogQuery records a catalog query and its outcome.
func RecordCatalogQuery(operation string, d time.Duration, err error) {
	CatalogQueryDuration.WithLabelValues(operation).Observe(d.Seconds())
	if err != nil {
		CatalogQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordCacheLookup records a hit or miss on the named cache.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
		return
	}
	CacheMisses.WithLabelValues(cache).Inc()
}

// RecommendRecorder forwards engine measurements to the collectors above.
type RecommendRecorder struct{}

// RecordRecommendation implements recommend.Recorder.
func (RecommendRecorder) RecordRecommendation(mode string, d time.Duration, scored int) {
	RecordRecommendation(mode, d, scored)
}

// RecordFallback implements recommend.Recorder.
func (RecommendRecorder) RecordFallback(cause string) {
	RecordFallback(cause)
}
