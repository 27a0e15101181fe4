// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package recommend

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// mockSource implements CandidateSource for testing.
type mockSource struct {
	items  []Item
	users  map[int64]*UserProfile
	recent map[int64]int64

	profileErr error
	itemsErr   error
	itemErr    error
	mostErr    error
	recentErr  error

	// blockItems makes AvailableItems wait for the context to end.
	blockItems bool

	profileCalls  atomic.Int32
	itemsCalls    atomic.Int32
	itemByIDCalls atomic.Int32
	recentCalls   atomic.Int32
	mostCalls     atomic.Int32
}

func (m *mockSource) UserProfile(_ context.Context, userID int64) (*UserProfile, error) {
	m.profileCalls.Add(1)
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	p, ok := m.users[userID]
	if !ok {
		return nil, ErrUnknownUser
	}
	return p, nil
}

func (m *mockSource) AvailableItems(ctx context.Context, categoryID int64) ([]Item, error) {
	m.itemsCalls.Add(1)
	if m.blockItems {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.itemsErr != nil {
		return nil, m.itemsErr
	}
	out := make([]Item, 0, len(m.items))
	for _, it := range m.items {
		if !it.Available {
			continue
		}
		if categoryID != 0 && it.CategoryID() != categoryID {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (m *mockSource) ItemByID(_ context.Context, itemID int64) (*Item, error) {
	m.itemByIDCalls.Add(1)
	if m.itemErr != nil {
		return nil, m.itemErr
	}
	for i := range m.items {
		if m.items[i].ID == itemID {
			it := m.items[i]
			return &it, nil
		}
	}
	return nil, ErrUnknownItem
}

func (m *mockSource) RecentDownloadCount(_ context.Context, itemID int64, _ time.Time) (int64, error) {
	m.recentCalls.Add(1)
	if m.recentErr != nil {
		return 0, m.recentErr
	}
	return m.recent[itemID], nil
}

func (m *mockSource) MostDownloaded(_ context.Context, limit int) ([]Item, error) {
	m.mostCalls.Add(1)
	if m.mostErr != nil {
		return nil, m.mostErr
	}
	out := make([]Item, 0, len(m.items))
	for _, it := range m.items {
		if it.Available {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DownloadCount > out[j].DownloadCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// recentSource adds RecentActivitySource to mockSource.
type recentSource struct {
	*mockSource
	activityCalls atomic.Int32
	lastLimit     atomic.Int32
}

func (r *recentSource) RecentlyDownloaded(_ context.Context, _ time.Time, limit int) ([]Item, error) {
	r.activityCalls.Add(1)
	r.lastLimit.Store(int32(limit))
	out := make([]Item, 0)
	for _, it := range r.items {
		if it.Available && r.recent[it.ID] > 0 {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return r.recent[out[i].ID] > r.recent[out[j].ID] })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// stubContent returns 1 for equal IDs, otherwise a per-pair lookup or zero.
type stubContent struct {
	pairs map[[2]int64]float64
	calls atomic.Int64
}

func (s *stubContent) Similarity(a, b *Item) float64 {
	s.calls.Add(1)
	if a.ID == b.ID {
		return 1
	}
	if v, ok := s.pairs[[2]int64{a.ID, b.ID}]; ok {
		return v
	}
	return s.pairs[[2]int64{b.ID, a.ID}]
}

type stubPrefs struct {
	byID map[int64]float64
	flat float64
}

func (p stubPrefs) Score(item *Item) float64 {
	if v, ok := p.byID[item.ID]; ok {
		return v
	}
	return p.flat
}

type stubBehavior struct {
	prefs stubPrefs

	mu        sync.Mutex
	favorites []Item
	downloads []Item
}

func (s *stubBehavior) Profile(favorites, downloads []Item) Preferences {
	s.mu.Lock()
	s.favorites, s.downloads = favorites, downloads
	s.mu.Unlock()
	return s.prefs
}

type stubPopularity struct {
	byID map[int64]float64
}

func (s stubPopularity) Popularity(item *Item, _ time.Time) float64 {
	return s.byID[item.ID]
}

// stubTrend scores recent/10, capped at 1.
type stubTrend struct{}

func (stubTrend) Trend(_ *Item, recent int64, _ time.Time) float64 {
	return min(1, float64(recent)/10)
}

// mockRecorder implements Recorder for testing.
type mockRecorder struct {
	mu        sync.Mutex
	modes     []string
	fallbacks []string
}

func (r *mockRecorder) RecordRecommendation(mode string, _ time.Duration, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes = append(r.modes, mode)
}

func (r *mockRecorder) RecordFallback(cause string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = append(r.fallbacks, cause)
}

func testSignals() (Signals, *stubContent, *stubBehavior) {
	content := &stubContent{pairs: map[[2]int64]float64{}}
	behavior := &stubBehavior{prefs: stubPrefs{byID: map[int64]float64{}}}
	return Signals{
		Content:    content,
		Behavior:   behavior,
		Popularity: stubPopularity{byID: map[int64]float64{}},
		Trend:      stubTrend{},
	}, content, behavior
}

var (
	catFiction = &Category{ID: 1, Name: "Fiction"}
	catScience = &Category{ID: 2, Name: "Science"}
)

func book(id int64, cat *Category, downloads int64) Item {
	return Item{
		ID:            id,
		Title:         "Book",
		Author:        "Author",
		Category:      cat,
		DownloadCount: downloads,
		CreatedAt:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Available:     true,
	}
}
