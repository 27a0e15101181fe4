// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package algorithms

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfrank/internal/recommend"
)

// DefaultSignals wires the standard scorers for recommend.NewEngine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func DefaultSignals(logger zerolog.Logger) recommend.Signals {
	popularity := NewPopularity()
	return recommend.Signals{
		Content:    NewContent(logger),
		Behavior:   NewBehavior(),
		Popularity: popularity,
		Trend:      NewTrend(popularity),
	}
}

// Ensure all scorers implement their interfaces.
var (
	_ recommend.ContentScorer    = (*Content)(nil)
	_ recommend.BehaviorScorer   = (*Behavior)(nil)
	_ recommend.Preferences      = (*preferences)(nil)
	_ recommend.Preferences      = neutralPreferences{}
	_ recommend.PopularityScorer = (*Popularity)(nil)
	_ recommend.TrendScorer      = (*Trend)(nil)
)

// jaccardSimilarity computes Jaccard similarity between two sets.
func jaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[s] = struct{}{}
	}

	setB := make(map[string]struct{}, len(b))
	for _, s := range b {
		setB[s] = struct{}{}
	}

	intersection := 0
	for s := range setA {
		if _, ok := setB[s]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

// tagNames returns the non-empty tag names of item.
func tagNames(tags []recommend.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		if name := strings.TrimSpace(t.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// authorKey is the comparison key for an author. Authorless books share the
// empty key.
func authorKey(author string) string {
	return strings.ToLower(strings.TrimSpace(author))
}

// saturate returns min(1, v/limit), floored at 0.
func saturate(v, limit float64) float64 {
	if v <= 0 || limit <= 0 {
		return 0
	}
	return min(1, v/limit)
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
