// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package algorithms

import (
	"github.com/tomtom215/shelfrank/internal/recommend"
)

// Behavior builds per-request preference tables from a reader's favorites
// and downloads. Favorites weigh more than downloads; repeated downloads of
// the same book count once.
type Behavior struct{}

// NewBehavior creates a behavior scorer.
func NewBehavior() *Behavior {
	return &Behavior{}
}

// Profile accumulates preference weights. The result is read-only and may
// be shared across goroutines.
func (b *Behavior) Profile(favorites, downloads []recommend.Item) recommend.Preferences {
	if len(favorites) == 0 && len(downloads) == 0 {
		return neutralPreferences{}
	}

	p := &preferences{
		categories: make(map[int64]float64),
		authors:    make(map[string]float64),
		tags:       make(map[string]float64),
	}
	for i := range favorites {
		p.add(&favorites[i], recommend.FavoritePreferenceWeight)
	}

	seen := make(map[int64]struct{}, len(downloads))
	for i := range downloads {
		if _, dup := seen[downloads[i].ID]; dup {
			continue
		}
		seen[downloads[i].ID] = struct{}{}
		p.add(&downloads[i], recommend.DownloadPreferenceWeight)
	}

	return p
}

// preferences holds accumulated weights keyed by category ID, lower-cased
// author and tag name.
type preferences struct {
	categories map[int64]float64
	authors    map[string]float64
	tags       map[string]float64
}

func (p *preferences) add(item *recommend.Item, weight float64) {
	if item.Category != nil {
		p.categories[item.Category.ID] += weight
	}
	p.authors[authorKey(item.Author)] += weight
	for _, name := range tagNames(item.Tags) {
		p.tags[name] += weight
	}
}

// Score implements recommend.Preferences.
func (p *preferences) Score(item *recommend.Item) float64 {
	var score float64

	if item.Category != nil {
		w := p.categories[item.Category.ID]
		score += saturate(w, recommend.BehaviorCategorySaturation) * recommend.BehaviorCategoryWeight
	}

	w := p.authors[authorKey(item.Author)]
	score += saturate(w, recommend.BehaviorAuthorSaturation) * recommend.BehaviorAuthorWeight

	// Only tags the reader has shown interest in contribute to the average.
	var tagSum float64
	matched := 0
	for _, name := range tagNames(item.Tags) {
		if w, ok := p.tags[name]; ok {
			tagSum += saturate(w, recommend.BehaviorTagSaturation)
			matched++
		}
	}
	if matched > 0 {
		score += (tagSum / float64(matched)) * recommend.BehaviorTagWeight
	}

	return clamp01(score)
}

// neutralPreferences scores every book the same for readers without history.
type neutralPreferences struct{}

func (neutralPreferences) Score(*recommend.Item) float64 {
	return recommend.NeutralBehaviorScore
}
