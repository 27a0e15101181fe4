// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package recommend

import (
	"time"
)

// Mode identifies which ranking produced a result list.
type Mode string

const (
	// ModePersonalized blends content, behavior and popularity for one reader.
	ModePersonalized Mode = "personalized"
	// ModeCategory is the personalized blend restricted to one category.
	ModeCategory Mode = "category"
	// ModeSimilar ranks by content similarity against an anchor book.
	ModeSimilar Mode = "similar"
	// ModeTrending ranks by recent download activity.
	ModeTrending Mode = "trending"
	// ModeFallback is the popularity-only list served when personalization fails.
	ModeFallback Mode = "popular-fallback"
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	return string(m)
}

// Modes lists every mode in a stable order.
func Modes() []Mode {
	return []Mode{ModePersonalized, ModeCategory, ModeSimilar, ModeTrending, ModeFallback}
}

// Category groups books. Two categories are equal when their IDs are.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Tag is a free-form label. Set operations compare tags by Name.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Item is a catalog book as seen by the scorers. Category is nil when the
// book has none, which every scorer treats as "no match".
type Item struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn,omitempty"`
	Description     string    `json:"description,omitempty"`
	PublicationYear int       `json:"publication_year,omitempty"`
	PageCount       int       `json:"page_count,omitempty"`
	Language        string    `json:"language,omitempty"`
	Category        *Category `json:"category"`
	Tags            []Tag     `json:"tags"`
	DownloadCount   int64     `json:"download_count"`
	FavoriteCount   int64     `json:"favorite_count"`
	CreatedAt       time.Time `json:"created_at"`
	Available       bool      `json:"available"`
}

// CategoryID returns the category ID, or 0 when the item has no category.
func (it *Item) CategoryID() int64 {
	if it.Category == nil {
		return 0
	}
	return it.Category.ID
}

// DownloadEvent records one download. Events are immutable.
type DownloadEvent struct {
	UserID       int64     `json:"user_id"`
	ItemID       int64     `json:"book_id"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// UserProfile is a reader's history. Books are referenced by ID only;
// Downloads is ordered by time, oldest first.
type UserProfile struct {
	ID        int64           `json:"id"`
	Username  string          `json:"username"`
	Favorites []int64         `json:"favorites"`
	Downloads []DownloadEvent `json:"downloads"`
}

// FavoriteSet returns the favorite IDs as a set.
func (p *UserProfile) FavoriteSet() map[int64]struct{} {
	set := make(map[int64]struct{}, len(p.Favorites))
	for _, id := range p.Favorites {
		set[id] = struct{}{}
	}
	return set
}

// DownloadedIDs returns each downloaded item ID once, in first-download order.
func (p *UserProfile) DownloadedIDs() []int64 {
	seen := make(map[int64]struct{}, len(p.Downloads))
	ids := make([]int64, 0, len(p.Downloads))
	for _, d := range p.Downloads {
		if _, ok := seen[d.ItemID]; ok {
			continue
		}
		seen[d.ItemID] = struct{}{}
		ids = append(ids, d.ItemID)
	}
	return ids
}

// Result is one ranked recommendation.
type Result struct {
	Item   Item    `json:"book"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
	Type   Mode    `json:"recommendation_type"`
}
