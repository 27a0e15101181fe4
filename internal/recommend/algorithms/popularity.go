// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package algorithms

import (
	"math"
	"time"

	"github.com/tomtom215/shelfrank/internal/recommend"
)

// Popularity scores a book from its lifetime counters plus a small bonus for
// books added in the last 30 days:
//
//	score = 0.4 * min(1, downloads/1000) + 0.4 * min(1, favorites/100) + 0.2 * freshness
//
// The freshness term is itself scaled by 0.2, so a brand new book gains at
// most 0.04.
type Popularity struct{}

// NewPopularity creates a popularity scorer.
func NewPopularity() *Popularity {
	return &Popularity{}
}

// Popularity implements recommend.PopularityScorer.
func (p *Popularity) Popularity(item *recommend.Item, now time.Time) float64 {
	score := recommend.PopularityDownloadWeight*saturate(float64(item.DownloadCount), recommend.PopularityDownloadSaturation) +
		recommend.PopularityFavoriteWeight*saturate(float64(item.FavoriteCount), recommend.PopularityFavoriteSaturation) +
		recommend.PopularityFreshnessWeight*freshness(item.CreatedAt, now)
	return clamp01(score)
}

// freshness decays linearly from FreshnessScale at age 0 to zero at the end
// of the window. Age is counted in whole days.
func freshness(createdAt, now time.Time) float64 {
	if createdAt.IsZero() {
		return 0
	}
	ageDays := math.Floor(now.Sub(createdAt).Hours() / 24)
	if ageDays < 0 {
		ageDays = 0
	}
	if ageDays >= recommend.FreshnessWindowDays {
		return 0
	}
	return recommend.FreshnessScale * (recommend.FreshnessWindowDays - ageDays) / recommend.FreshnessWindowDays
}

// Trend blends recent download activity with popularity.
type Trend struct {
	popularity recommend.PopularityScorer
}

// NewTrend creates a trend scorer on top of popularity.
func NewTrend(popularity recommend.PopularityScorer) *Trend {
	return &Trend{popularity: popularity}
}

// Trend implements recommend.TrendScorer.
func (t *Trend) Trend(item *recommend.Item, recentDownloads int64, now time.Time) float64 {
	score := recommend.TrendRecentWeight*saturate(float64(recentDownloads), recommend.TrendRecentSaturation) +
		recommend.TrendPopularityWeight*t.popularity.Popularity(item, now)
	return clamp01(score)
}
