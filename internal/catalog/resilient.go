// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/shelfrank/internal/config"
	"github.com/tomtom215/shelfrank/internal/metrics"
	"github.com/tomtom215/shelfrank/internal/recommend"
)

const breakerName = "catalog"

// ResilientSource wraps a Source with retry and a circuit breaker.
//
// Not-found errors are answers, not failures: they are returned at once and
// count as successes for the breaker. Other errors are retried with
// exponential backoff until MaxAttempts, the breaker rejects the call, or
// ctx ends. A call that exhausts its attempts returns an error wrapping
// recommend.ErrCollaborator.
//
// The breaker uses real time for its interval and timeout; tests drive it
// through failure counts, not the clock.
type ResilientSource struct {
	inner  Source
	retry  config.RetryConfig
	cb     *gobreaker.CircuitBreaker[any]
	logger zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

var _ Source = (*ResilientSource)(nil)

// NewResilientSource wraps inner. With cfg.Breaker.Enabled false only the
// retry applies.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewResilientSource(inner Source, cfg *config.CatalogConfig, logger zerolog.Logger) *ResilientSource {
	r := &ResilientSource{
		inner:  inner,
		retry:  cfg.Retry,
		logger: logger.With().Str("component", "catalog_resilience").Logger(),
		sleep:  sleepCtx,
	}
	if r.retry.MaxAttempts < 1 {
		r.retry.MaxAttempts = 1
	}

	if cfg.Breaker.Enabled {
		r.cb = newBreaker(cfg.Breaker, r.logger)
	}
	return r
}

func newBreaker(cfg config.BreakerConfig, logger zerolog.Logger) *gobreaker.CircuitBreaker[any] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= cfg.FailureRatio
			if shouldTrip {
				logger.Warn().Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("opening catalog circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logger.Info().Str("from", fromStr).Str("to", toStr).Msg("catalog circuit state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},

		IsSuccessful: func(err error) bool {
			return err == nil || recommend.IsNotFound(err) || errors.Is(err, context.Canceled)
		},
	})
}

// State reports the breaker state, or "disabled".
func (r *ResilientSource) State() string {
	if r.cb == nil {
		return "disabled"
	}
	return stateToString(r.cb.State())
}

// execute runs fn once under the breaker.
func (r *ResilientSource) execute(fn func() (any, error)) (any, error) {
	if r.cb == nil {
		return fn()
	}

	result, err := r.cb.Execute(fn)
	switch {
	case err == nil, recommend.IsNotFound(err):
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(breakerName).Set(0)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		counts := r.cb.Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(breakerName).Set(float64(counts.ConsecutiveFailures))
	}
	return result, err
}

// call runs fn with retry. Go methods cannot be generic, hence the function.
func call[T any](ctx context.Context, r *ResilientSource, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	delay := r.retry.InitialDelay

	for attempt := 1; attempt <= r.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			metrics.CatalogRetries.WithLabelValues(op).Inc()
			if err := r.sleep(ctx, delay); err != nil {
				return zero, fmt.Errorf("%s: %w", op, err)
			}
			delay = min(delay*2, r.retry.MaxDelay)
		}

		result, err := r.execute(func() (any, error) { return fn(ctx) })
		if err == nil {
			typed, ok := result.(T)
			if !ok {
				return zero, fmt.Errorf("%s: unexpected result type %T", op, result)
			}
			return typed, nil
		}

		if recommend.IsNotFound(err) {
			return zero, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, fmt.Errorf("%s: %w", op, ctxErr)
		}
		lastErr = err
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}

		r.logger.Debug().Err(err).Str("operation", op).Int("attempt", attempt).Msg("catalog call failed")
	}

	r.logger.Warn().Err(lastErr).Str("operation", op).Msg("catalog call gave up")
	return zero, fmt.Errorf("%w: %s: %w", recommend.ErrCollaborator, op, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// UserProfile implements recommend.CandidateSource.
func (r *ResilientSource) UserProfile(ctx context.Context, userID int64) (*recommend.UserProfile, error) {
	return call(ctx, r, "user_profile", func(ctx context.Context) (*recommend.UserProfile, error) {
		return r.inner.UserProfile(ctx, userID)
	})
}

// AvailableItems implements recommend.CandidateSource.
func (r *ResilientSource) AvailableItems(ctx context.Context, categoryID int64) ([]recommend.Item, error) {
	return call(ctx, r, "available_items", func(ctx context.Context) ([]recommend.Item, error) {
		return r.inner.AvailableItems(ctx, categoryID)
	})
}

// ItemByID implements recommend.CandidateSource.
func (r *ResilientSource) ItemByID(ctx context.Context, itemID int64) (*recommend.Item, error) {
	return call(ctx, r, "item_by_id", func(ctx context.Context) (*recommend.Item, error) {
		return r.inner.ItemByID(ctx, itemID)
	})
}

// RecentDownloadCount implements recommend.CandidateSource.
func (r *ResilientSource) RecentDownloadCount(ctx context.Context, itemID int64, since time.Time) (int64, error) {
	return call(ctx, r, "recent_download_count", func(ctx context.Context) (int64, error) {
		return r.inner.RecentDownloadCount(ctx, itemID, since)
	})
}

// MostDownloaded implements recommend.CandidateSource.
func (r *ResilientSource) MostDownloaded(ctx context.Context, limit int) ([]recommend.Item, error) {
	return call(ctx, r, "most_downloaded", func(ctx context.Context) ([]recommend.Item, error) {
		return r.inner.MostDownloaded(ctx, limit)
	})
}

// RecentlyDownloaded implements recommend.RecentActivitySource.
func (r *ResilientSource) RecentlyDownloaded(ctx context.Context, since time.Time, limit int) ([]recommend.Item, error) {
	return call(ctx, r, "recently_downloaded", func(ctx context.Context) ([]recommend.Item, error) {
		return r.inner.RecentlyDownloaded(ctx, since, limit)
	})
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
