// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package algorithms

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfrank/internal/metrics"
	"github.com/tomtom215/shelfrank/internal/recommend"
)

// Content scores pairwise book similarity from metadata:
//
//	sim(a, b) = w_category * category(a, b) +
//	            w_tag      * jaccard(tags_a, tags_b) +
//	            w_author   * author(a, b)
//
// A book without a category never matches on category. Such comparisons are
// counted in shelfrank_recommend_missing_category_total and logged at a
// sampled rate.
type Content struct {
	logger zerolog.Logger
}

// NewContent creates a content similarity scorer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewContent(logger zerolog.Logger) *Content {
	sampled := logger.With().Str("component", "content_similarity").Logger().
		Sample(&zerolog.BurstSampler{Burst: 5, Period: time.Minute})
	return &Content{logger: sampled}
}

// Similarity returns the similarity of a and b in [0, 1]. It is symmetric.
func (c *Content) Similarity(a, b *recommend.Item) float64 {
	if a == nil || b == nil {
		return 0
	}

	score := recommend.ContentCategoryWeight*c.categoryScore(a, b) +
		recommend.ContentTagWeight*jaccardSimilarity(tagNames(a.Tags), tagNames(b.Tags)) +
		recommend.ContentAuthorWeight*authorScore(a.Author, b.Author)

	return clamp01(score)
}

func (c *Content) categoryScore(a, b *recommend.Item) float64 {
	if a.Category == nil || b.Category == nil {
		c.reportMissingCategory(a, b)
		return 0
	}
	if a.Category.ID == b.Category.ID {
		return 1
	}
	return 0
}

func (c *Content) reportMissingCategory(a, b *recommend.Item) {
	metrics.RecommendMissingCategory.Inc()

	missing := a.ID
	if a.Category != nil {
		missing = b.ID
	}
	c.logger.Warn().Int64("book_id", missing).Msg("book has no category, treating as no match")
}

// authorScore is 1 when the trimmed authors are equal ignoring case. Two
// authorless books match.
func authorScore(a, b string) float64 {
	if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
		return 1
	}
	return 0
}
