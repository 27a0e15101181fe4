// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package api

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/shelfrank/internal/cache"
	"github.com/tomtom215/shelfrank/internal/catalog"
	"github.com/tomtom215/shelfrank/internal/recommend"
)

// engineCall captures the arguments of the last ranking request.
type engineCall struct {
	mode       recommend.Mode
	userID     int64
	categoryID int64
	anchorID   int64
	limit      int
}

// mockEngine implements Recommender for testing.
type mockEngine struct {
	results []recommend.Result

	calls atomic.Int32
	mu    sync.Mutex
	last  engineCall
}

func (m *mockEngine) record(c engineCall) []recommend.Result {
	m.calls.Add(1)
	m.mu.Lock()
	m.last = c
	m.mu.Unlock()
	return m.results
}

func (m *mockEngine) lastCall() engineCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *mockEngine) Personalized(_ context.Context, userID int64, limit int) []recommend.Result {
	return m.record(engineCall{mode: recommend.ModePersonalized, userID: userID, limit: limit})
}

func (m *mockEngine) Category(_ context.Context, userID, categoryID int64, limit int) []recommend.Result {
	return m.record(engineCall{mode: recommend.ModeCategory, userID: userID, categoryID: categoryID, limit: limit})
}

func (m *mockEngine) Similar(_ context.Context, anchorID, userID int64, limit int) []recommend.Result {
	return m.record(engineCall{mode: recommend.ModeSimilar, anchorID: anchorID, userID: userID, limit: limit})
}

func (m *mockEngine) Trending(_ context.Context, limit int) []recommend.Result {
	return m.record(engineCall{mode: recommend.ModeTrending, limit: limit})
}

func (m *mockEngine) Stats() recommend.Stats {
	return recommend.Stats{
		Requests:  map[string]int64{"personalized": int64(m.calls.Load())},
		Fallbacks: map[string]int64{},
		Workers:   4,
	}
}

// mockCatalog implements Catalog for testing.
type mockCatalog struct {
	err      error
	statsErr error
	pingErr  error
	changed  bool

	downloads atomic.Int32
	adds      atomic.Int32
	removes   atomic.Int32
	pings     atomic.Int32
}

func (m *mockCatalog) RecordDownload(_ context.Context, userID, bookID int64) (recommend.DownloadEvent, error) {
	m.downloads.Add(1)
	if m.err != nil {
		return recommend.DownloadEvent{}, m.err
	}
	return recommend.DownloadEvent{
		UserID:       userID,
		ItemID:       bookID,
		DownloadedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}, nil
}

func (m *mockCatalog) AddFavorite(_ context.Context, _, _ int64) (bool, error) {
	m.adds.Add(1)
	return m.changed, m.err
}

func (m *mockCatalog) RemoveFavorite(_ context.Context, _, _ int64) (bool, error) {
	m.removes.Add(1)
	return m.changed, m.err
}

func (m *mockCatalog) Stats(context.Context) (catalog.Stats, error) {
	if m.statsErr != nil {
		return catalog.Stats{}, m.statsErr
	}
	return catalog.Stats{Books: 5, AvailableBooks: 4, Users: 2}, nil
}

func (m *mockCatalog) Ping(context.Context) error {
	m.pings.Add(1)
	return m.pingErr
}

type mockCacheStats struct{}

func (mockCacheStats) Stats() map[string]cache.Stats {
	return map[string]cache.Stats{"profiles": {Hits: 3, Misses: 1, Size: 1, HitRate: 0.75}}
}

type fixedBreaker string

func (b fixedBreaker) State() string { return string(b) }
