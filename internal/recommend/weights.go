// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package recommend

import "time"

// Content similarity weights. They sum to 1.
const (
	ContentCategoryWeight = 0.5
	ContentTagWeight      = 0.3
	ContentAuthorWeight   = 0.2
)

// Behavior preference accumulation and scoring.
const (
	FavoritePreferenceWeight = 2.0
	DownloadPreferenceWeight = 1.0

	// NeutralBehaviorScore is returned for readers with no history at all.
	NeutralBehaviorScore = 0.2

	BehaviorCategoryWeight     = 0.4
	BehaviorCategorySaturation = 10.0
	BehaviorAuthorWeight       = 0.3
	BehaviorAuthorSaturation   = 5.0
	BehaviorTagWeight          = 0.3
	BehaviorTagSaturation      = 5.0
)

// Popularity.
const (
	PopularityDownloadWeight     = 0.4
	PopularityDownloadSaturation = 1000.0
	PopularityFavoriteWeight     = 0.4
	PopularityFavoriteSaturation = 100.0

	// PopularityFreshnessWeight scales the freshness term, which itself peaks
	// at FreshnessScale for a brand new item.
	PopularityFreshnessWeight = 0.2
	FreshnessScale            = 0.2
	FreshnessWindowDays       = 30.0
)

// Trend.
const (
	TrendRecentWeight     = 0.7
	TrendRecentSaturation = 50.0
	TrendPopularityWeight = 0.3

	TrendingWindow = 7 * 24 * time.Hour
)

// Personalized blend.
const (
	BlendContentWeight    = 0.4
	BlendBehaviorWeight   = 0.35
	BlendPopularityWeight = 0.25

	// NoFavoritesContentScore stands in for the content term when a reader
	// has no favorites to compare against.
	NoFavoritesContentScore = 0.3
)

// Reason thresholds and the flat fallback score.
const (
	ReasonContentThreshold    = 0.6
	ReasonBehaviorThreshold   = 0.6
	ReasonPopularityThreshold = 0.7

	FallbackScore = 0.5
)
