// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package recommend

import (
	"context"
	"time"
)

// CandidateSource supplies read-only catalog snapshots to the Engine.
// It is typically implemented by the catalog package.
type CandidateSource interface {
	// UserProfile returns ErrUnknownUser when the reader does not exist.
	UserProfile(ctx context.Context, userID int64) (*UserProfile, error)

	// AvailableItems returns available books; categoryID 0 means all categories.
	AvailableItems(ctx context.Context, categoryID int64) ([]Item, error)

	// ItemByID returns ErrUnknownItem when the book does not exist.
	ItemByID(ctx context.Context, itemID int64) (*Item, error)

	// RecentDownloadCount counts downloads of itemID at or after since.
	RecentDownloadCount(ctx context.Context, itemID int64, since time.Time) (int64, error)

	// MostDownloaded returns available books by descending download count.
	MostDownloaded(ctx context.Context, limit int) ([]Item, error)
}

// RecentActivitySource is an optional upgrade for CandidateSource. When the
// source implements it, trending candidates come straight from it instead of
// a scan over MostDownloaded.
type RecentActivitySource interface {
	// RecentlyDownloaded returns available books downloaded at or after since,
	// most recently active first.
	RecentlyDownloaded(ctx context.Context, since time.Time, limit int) ([]Item, error)
}

// ContentScorer measures pairwise similarity in [0,1].
type ContentScorer interface {
	Similarity(a, b *Item) float64
}

// Preferences scores a candidate against a reader's accumulated tastes.
type Preferences interface {
	Score(item *Item) float64
}

// BehaviorScorer builds Preferences from a reader's history.
type BehaviorScorer interface {
	Profile(favorites, downloads []Item) Preferences
}

// PopularityScorer scores an item from its counters and age.
type PopularityScorer interface {
	Popularity(item *Item, now time.Time) float64
}

// TrendScorer scores an item from its recent download count and popularity.
type TrendScorer interface {
	Trend(item *Item, recentDownloads int64, now time.Time) float64
}

// Signals bundles the scorers the Engine blends.
type Signals struct {
	Content    ContentScorer
	Behavior   BehaviorScorer
	Popularity PopularityScorer
	Trend      TrendScorer
}

func (s Signals) complete() bool {
	return s.Content != nil && s.Behavior != nil && s.Popularity != nil && s.Trend != nil
}

// Recorder receives per-request measurements. The metrics package provides
// the Prometheus implementation.
type Recorder interface {
	RecordRecommendation(mode string, d time.Duration, scored int)
	RecordFallback(cause string)
}

type nopRecorder struct{}

func (nopRecorder) RecordRecommendation(string, time.Duration, int) {}
func (nopRecorder) RecordFallback(string)                           {}
