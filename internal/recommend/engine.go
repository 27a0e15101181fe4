// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Note: This package has no dependencies on other internal packages.
// Storage arrives through CandidateSource, scorers through Signals and
// metrics through Recorder.

// Engine ranks books for readers. It is safe for concurrent use once
// constructed; SetRecorder and SetClock must be called before serving.
type Engine struct {
	config   *Config
	logger   zerolog.Logger
	source   CandidateSource
	signals  Signals
	recorder Recorder
	now      func() time.Time
	stats    *counters
}

// rankFunc produces a ranked list of at most k results and reports how many
// candidates it scored.
type rankFunc func(ctx context.Context, k int) ([]Result, int, error)

// NewEngine creates a new recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, source CandidateSource, signals Signals, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if source == nil {
		return nil, fmt.Errorf("candidate source is required")
	}
	if !signals.complete() {
		return nil, fmt.Errorf("all four scoring signals are required")
	}

	return &Engine{
		config:   cfg,
		logger:   logger.With().Str("component", "recommend").Logger(),
		source:   source,
		signals:  signals,
		recorder: nopRecorder{},
		now:      time.Now,
		stats:    newCounters(),
	}, nil
}

// SetRecorder installs the measurement sink.
func (e *Engine) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	e.recorder = r
}

// SetClock overrides the clock used for popularity and trending windows.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// GetConfig returns a copy of the current configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}

// Personalized ranks available books for a reader, excluding their favorites.
func (e *Engine) Personalized(ctx context.Context, userID int64, limit int) []Result {
	logger := e.logger.With().Str("mode", ModePersonalized.String()).Int64("user_id", userID).Logger()
	return e.serve(ctx, ModePersonalized, limit, logger, func(ctx context.Context, k int) ([]Result, int, error) {
		return e.rankForUser(ctx, userID, 0, ModePersonalized, k)
	})
}

// Category ranks available books of one category for a reader.
func (e *Engine) Category(ctx context.Context, userID, categoryID int64, limit int) []Result {
	logger := e.logger.With().
		Str("mode", ModeCategory.String()).
		Int64("user_id", userID).
		Int64("category_id", categoryID).
		Logger()
	return e.serve(ctx, ModeCategory, limit, logger, func(ctx context.Context, k int) ([]Result, int, error) {
		return e.rankForUser(ctx, userID, categoryID, ModeCategory, k)
	})
}

// Similar ranks books by content similarity to anchorID. userID may be 0 for
// an anonymous request; an unknown reader simply has no favorites to exclude.
// An unknown anchor yields an empty list.
func (e *Engine) Similar(ctx context.Context, anchorID, userID int64, limit int) []Result {
	logger := e.logger.With().
		Str("mode", ModeSimilar.String()).
		Int64("book_id", anchorID).
		Int64("user_id", userID).
		Logger()
	return e.serve(ctx, ModeSimilar, limit, logger, func(ctx context.Context, k int) ([]Result, int, error) {
		return e.rankSimilar(ctx, anchorID, userID, k, logger)
	})
}

// Trending ranks books downloaded within the trending window. Favorites are
// not excluded.
func (e *Engine) Trending(ctx context.Context, limit int) []Result {
	logger := e.logger.With().Str("mode", ModeTrending.String()).Logger()
	return e.serve(ctx, ModeTrending, limit, logger, e.rankTrending)
}

// Fallback returns the most downloaded books with a flat score. It never
// fails; a source error yields an empty list.
func (e *Engine) Fallback(ctx context.Context, limit int) []Result {
	start := time.Now()
	k := e.normalizeLimit(limit)
	results := e.popular(ctx, k)
	e.observe(ModeFallback, start, 0)
	return results
}

// serve runs rank under the request deadline and substitutes the fallback
// for any failure.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) serve(ctx context.Context, mode Mode, limit int, logger zerolog.Logger, rank rankFunc) []Result {
	start := time.Now()
	k := e.normalizeLimit(limit)

	rctx, cancel := context.WithTimeout(ctx, e.config.Limits.RequestTimeout)
	defer cancel()

	results, scored, err := rank(rctx, k)
	if err != nil {
		cause := fallbackCause(err)
		if rctx.Err() != nil {
			cause = CauseDeadline
		}
		e.logFallback(logger, cause, err)
		results = e.fallback(ctx, k, cause)
	}

	e.observe(mode, start, scored)
	logger.Debug().
		Int("limit", k).
		Int("returned", len(results)).
		Int("scored", scored).
		Dur("latency", time.Since(start)).
		Msg("recommendation complete")
	return results
}

// rankForUser implements the personalized and category blends.
func (e *Engine) rankForUser(ctx context.Context, userID, categoryID int64, mode Mode, k int) ([]Result, int, error) {
	profile, err := e.source.UserProfile(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("load profile %d: %w", userID, err)
	}

	items, err := e.source.AvailableItems(ctx, categoryID)
	if err != nil {
		return nil, 0, fmt.Errorf("load candidates: %w", err)
	}
	index := indexItems(items)

	favorites, err := e.resolveItems(ctx, index, profile.Favorites)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve favorites: %w", err)
	}
	downloads, err := e.resolveItems(ctx, index, profile.DownloadedIDs())
	if err != nil {
		return nil, 0, fmt.Errorf("resolve downloads: %w", err)
	}

	candidates := filterCandidates(items, profile.FavoriteSet(), categoryID)
	if len(candidates) == 0 {
		return nil, 0, ErrNoCandidates
	}

	prefs := e.signals.Behavior.Profile(favorites, downloads)
	now := e.now()

	results, err := e.scoreCandidates(ctx, candidates, func(_ context.Context, item *Item) (Result, bool, error) {
		content := NoFavoritesContentScore
		if len(favorites) > 0 {
			content = e.maxSimilarity(item, favorites)
		}
		behavior := prefs.Score(item)
		popularity := e.signals.Popularity.Popularity(item, now)

		score := BlendContentWeight*content + BlendBehaviorWeight*behavior + BlendPopularityWeight*popularity
		return Result{
			Item:   *item,
			Score:  clamp01(score),
			Reason: blendReason(content, behavior, popularity),
			Type:   mode,
		}, true, nil
	})
	if err != nil {
		return nil, len(candidates), err
	}

	return rankResults(results, k), len(candidates), nil
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) rankSimilar(ctx context.Context, anchorID, userID int64, k int, logger zerolog.Logger) ([]Result, int, error) {
	anchor, err := e.source.ItemByID(ctx, anchorID)
	if errors.Is(err, ErrUnknownItem) {
		logger.Debug().Msg("unknown anchor book, returning empty list")
		return []Result{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load anchor %d: %w", anchorID, err)
	}

	excluded := map[int64]struct{}{anchor.ID: {}}
	if userID != 0 {
		profile, err := e.source.UserProfile(ctx, userID)
		switch {
		case err == nil:
			for _, id := range profile.Favorites {
				excluded[id] = struct{}{}
			}
		case errors.Is(err, ErrUnknownUser):
			logger.Debug().Msg("unknown user, no favorites to exclude")
		default:
			return nil, 0, fmt.Errorf("load profile %d: %w", userID, err)
		}
	}

	items, err := e.source.AvailableItems(ctx, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("load candidates: %w", err)
	}
	candidates := filterCandidates(items, excluded, 0)
	if len(candidates) == 0 {
		return nil, 0, ErrNoCandidates
	}

	results, err := e.scoreCandidates(ctx, candidates, func(_ context.Context, item *Item) (Result, bool, error) {
		return Result{
			Item:   *item,
			Score:  clamp01(e.signals.Content.Similarity(anchor, item)),
			Reason: ReasonSimilar,
			Type:   ModeSimilar,
		}, true, nil
	})
	if err != nil {
		return nil, len(candidates), err
	}

	return rankResults(results, k), len(candidates), nil
}

func (e *Engine) rankTrending(ctx context.Context, k int) ([]Result, int, error) {
	now := e.now()
	since := now.Add(-e.config.TrendingWindow)

	pool, err := e.trendingPool(ctx, since, k)
	if err != nil {
		return nil, 0, fmt.Errorf("load trending pool: %w", err)
	}
	candidates := filterCandidates(pool, nil, 0)
	if len(candidates) == 0 {
		return nil, 0, ErrNoCandidates
	}

	results, err := e.scoreCandidates(ctx, candidates, func(ctx context.Context, item *Item) (Result, bool, error) {
		recent, err := e.source.RecentDownloadCount(ctx, item.ID, since)
		if err != nil {
			return Result{}, false, fmt.Errorf("recent downloads of %d: %w", item.ID, err)
		}
		if recent <= 0 {
			return Result{}, false, nil
		}
		return Result{
			Item:   *item,
			Score:  clamp01(e.signals.Trend.Trend(item, recent, now)),
			Reason: ReasonTrending,
			Type:   ModeTrending,
		}, true, nil
	})
	if err != nil {
		return nil, len(candidates), err
	}
	if len(results) == 0 {
		return nil, len(candidates), ErrNoCandidates
	}

	return rankResults(results, k), len(candidates), nil
}

// trendingPool lists recently active books directly when the source
// supports it, and otherwise scans the most downloaded books.
func (e *Engine) trendingPool(ctx context.Context, since time.Time, k int) ([]Item, error) {
	if recent, ok := e.source.(RecentActivitySource); ok {
		return recent.RecentlyDownloaded(ctx, since, k*2)
	}
	return e.source.MostDownloaded(ctx, e.config.Limits.MaxCandidates)
}

// fallback serves the popular list on behalf of a failed ranking.
func (e *Engine) fallback(ctx context.Context, k int, cause string) []Result {
	e.stats.fallback(cause)
	e.recorder.RecordFallback(cause)
	return e.popular(ctx, k)
}

// popular runs detached from the caller's cancellation so an expired request
// deadline still gets an answer.
func (e *Engine) popular(ctx context.Context, k int) []Result {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.config.Limits.FallbackTimeout)
	defer cancel()

	items, err := e.source.MostDownloaded(pctx, k)
	if err != nil {
		e.logger.Error().Err(err).Msg("popular fallback query failed")
		return []Result{}
	}

	results := make([]Result, 0, min(len(items), k))
	for i := range items {
		if !items[i].Available {
			continue
		}
		results = append(results, Result{
			Item:   items[i],
			Score:  FallbackScore,
			Reason: ReasonFallback,
			Type:   ModeFallback,
		})
		if len(results) == k {
			break
		}
	}
	return results
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) logFallback(logger zerolog.Logger, cause string, err error) {
	switch cause {
	case CauseUnknownUser:
		logger.Info().Str("cause", cause).Msg("unknown user, serving popular fallback")
	case CauseNoCandidates:
		logger.Info().Str("cause", cause).Msg("no candidates left, serving popular fallback")
	case CauseDeadline:
		logger.Warn().Str("cause", cause).Err(err).Msg("deadline reached while scoring, serving popular fallback")
	default:
		logger.Error().Str("cause", cause).Err(err).Msg("catalog unavailable, serving popular fallback")
	}
}

// resolveItems looks ids up in index first and asks the source for misses.
// Books that no longer exist are skipped.
func (e *Engine) resolveItems(ctx context.Context, index map[int64]*Item, ids []int64) ([]Item, error) {
	resolved := make([]Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := index[id]; ok {
			resolved = append(resolved, *item)
			continue
		}
		item, err := e.source.ItemByID(ctx, id)
		if errors.Is(err, ErrUnknownItem) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", id, err)
		}
		resolved = append(resolved, *item)
	}
	return resolved, nil
}

func (e *Engine) maxSimilarity(item *Item, favorites []Item) float64 {
	best := 0.0
	for i := range favorites {
		if s := e.signals.Content.Similarity(item, &favorites[i]); s > best {
			best = s
		}
	}
	return best
}

func (e *Engine) normalizeLimit(limit int) int {
	if limit <= 0 {
		return e.config.Limits.DefaultK
	}
	if limit > e.config.Limits.MaxK {
		return e.config.Limits.MaxK
	}
	return limit
}

func (e *Engine) observe(mode Mode, start time.Time, scored int) {
	d := time.Since(start)
	e.stats.request(mode, d, scored)
	e.recorder.RecordRecommendation(mode.String(), d, scored)
}

// indexItems maps IDs to entries of items without copying them.
func indexItems(items []Item) map[int64]*Item {
	index := make(map[int64]*Item, len(items))
	for i := range items {
		index[items[i].ID] = &items[i]
	}
	return index
}

// filterCandidates keeps available items that are not excluded and, when
// categoryID is non-zero, belong to that category.
func filterCandidates(items []Item, excluded map[int64]struct{}, categoryID int64) []Item {
	out := make([]Item, 0, len(items))
	for i := range items {
		if !items[i].Available {
			continue
		}
		if _, skip := excluded[items[i].ID]; skip {
			continue
		}
		if categoryID != 0 && items[i].CategoryID() != categoryID {
			continue
		}
		out = append(out, items[i])
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
