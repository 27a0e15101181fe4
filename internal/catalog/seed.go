// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/shelfrank/internal/recommend"
)

// Seed is a JSON catalog fixture.
//
// Counters on books are loaded as given. Favorites and downloads are
// inserted as history rows only, so they neither bump counters nor publish
// events.
type Seed struct {
	Categories []recommend.Category `json:"categories"`
	Books      []SeedBook           `json:"books"`
	Users      []User               `json:"users"`
	Favorites  []SeedFavorite       `json:"favorites"`
	Downloads  []SeedDownload       `json:"downloads"`
}

// SeedBook is a book row in a fixture. CategoryID 0 means no category.
type SeedBook struct {
	ID              int64           `json:"id"`
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	ISBN            string          `json:"isbn"`
	Description     string          `json:"description"`
	PublicationYear int             `json:"publication_year"`
	PageCount       int             `json:"page_count"`
	Language        string          `json:"language"`
	CategoryID      int64           `json:"category_id"`
	Tags            []recommend.Tag `json:"tags"`
	DownloadCount   int64           `json:"download_count"`
	FavoriteCount   int64           `json:"favorite_count"`
	Available       *bool           `json:"available"` // nil means available
	CreatedAt       time.Time       `json:"created_at"`
}

// SeedFavorite links a reader to a favorite book.
type SeedFavorite struct {
	UserID    int64     `json:"user_id"`
	BookID    int64     `json:"book_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SeedDownload is one historical download.
type SeedDownload struct {
	UserID       int64     `json:"user_id"`
	BookID       int64     `json:"book_id"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// SeedResult counts what LoadSeed wrote.
type SeedResult struct {
	Categories int `json:"categories"`
	Books      int `json:"books"`
	Users      int `json:"users"`
	Favorites  int `json:"favorites"`
	Downloads  int `json:"downloads"`
}

func (b *SeedBook) item() *recommend.Item {
	item := &recommend.Item{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		Description:     b.Description,
		PublicationYear: b.PublicationYear,
		PageCount:       b.PageCount,
		Language:        b.Language,
		Tags:            b.Tags,
		DownloadCount:   b.DownloadCount,
		FavoriteCount:   b.FavoriteCount,
		Available:       b.Available == nil || *b.Available,
		CreatedAt:       b.CreatedAt,
	}
	if b.CategoryID != 0 {
		item.Category = &recommend.Category{ID: b.CategoryID}
	}
	return item
}

// DecodeSeed parses a fixture, rejecting unknown fields.
func DecodeSeed(r io.Reader) (*Seed, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var seed Seed
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &seed, nil
}

// LoadSeedFile opens path and loads it with LoadSeed.
func (s *Store) LoadSeedFile(ctx context.Context, path string) (SeedResult, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return SeedResult{}, fmt.Errorf("open seed file: %w", err)
	}
	defer closeQuietly(f)
	return s.LoadSeed(ctx, f)
}

// LoadSeed upserts every record in the fixture read from r. Loading the
// same fixture twice leaves the catalog unchanged, except that download
// history is appended again.
func (s *Store) LoadSeed(ctx context.Context, r io.Reader) (SeedResult, error) {
	seed, err := DecodeSeed(r)
	if err != nil {
		return SeedResult{}, err
	}

	var res SeedResult
	for _, c := range seed.Categories {
		if err := s.UpsertCategory(ctx, c); err != nil {
			return res, err
		}
		res.Categories++
	}
	for i := range seed.Books {
		if err := s.UpsertBook(ctx, seed.Books[i].item()); err != nil {
			return res, err
		}
		res.Books++
	}
	for _, u := range seed.Users {
		if err := s.UpsertUser(ctx, u); err != nil {
			return res, err
		}
		res.Users++
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	for _, f := range seed.Favorites {
		at := f.CreatedAt
		if at.IsZero() {
			at = s.now()
		}
		if _, err := s.conn.ExecContext(ctx, `
			INSERT INTO favorites (user_id, book_id, created_at) VALUES (?, ?, ?)
			ON CONFLICT DO NOTHING`, f.UserID, f.BookID, at.UTC()); err != nil {
			return res, fmt.Errorf("failed to seed favorite %d/%d: %w", f.UserID, f.BookID, err)
		}
		res.Favorites++
	}
	for _, d := range seed.Downloads {
		at := d.DownloadedAt
		if at.IsZero() {
			at = s.now()
		}
		if _, err := s.conn.ExecContext(ctx,
			`INSERT INTO downloads (user_id, book_id, downloaded_at) VALUES (?, ?, ?)`,
			d.UserID, d.BookID, at.UTC()); err != nil {
			return res, fmt.Errorf("failed to seed download %d/%d: %w", d.UserID, d.BookID, err)
		}
		res.Downloads++
	}

	s.logger.Info().
		Int("categories", res.Categories).
		Int("books", res.Books).
		Int("users", res.Users).
		Int("favorites", res.Favorites).
		Int("downloads", res.Downloads).
		Msg("catalog seeded")
	return res, nil
}
