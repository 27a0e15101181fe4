// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfrank/internal/config"
	"github.com/tomtom215/shelfrank/internal/recommend"
	"github.com/tomtom215/shelfrank/internal/recommend/algorithms"
)

// testDBSemaphore serializes DuckDB tests. Concurrent CGO calls from many
// parallel tests can hang under CI resource pressure, so the semaphore is
// held for the whole test, not just while opening.
var testDBSemaphore = make(chan struct{}, 1)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const testSeed = `{
  "categories": [
    {"id": 1, "name": "Fiction"},
    {"id": 2, "name": "Science", "description": "Non-fiction science"}
  ],
  "books": [
    {"id": 10, "title": "The Dispossessed", "author": "Ursula K. Le Guin", "category_id": 1,
     "tags": [{"id": 1, "name": "sf"}, {"id": 2, "name": "classic"}],
     "download_count": 800, "favorite_count": 90, "created_at": "2025-01-01T00:00:00Z"},
    {"id": 11, "title": "The Fifth Season", "author": "N. K. Jemisin", "category_id": 1,
     "tags": [{"id": 3, "name": "fantasy"}],
     "download_count": 950, "favorite_count": 99, "created_at": "2026-02-25T00:00:00Z"},
    {"id": 20, "title": "Cosmos", "author": "Carl Sagan", "category_id": 2,
     "tags": [{"id": 4, "name": "space"}, {"id": 2, "name": "classic"}],
     "download_count": 1200, "favorite_count": 150, "created_at": "2024-01-01T00:00:00Z"},
    {"id": 30, "title": "Uncatalogued", "author": "Anon",
     "download_count": 5, "created_at": "2025-06-01T00:00:00Z"},
    {"id": 40, "title": "Withdrawn", "author": "Ursula K. Le Guin", "category_id": 1,
     "download_count": 2000, "available": false, "created_at": "2020-01-01T00:00:00Z"}
  ],
  "users": [
    {"id": 1, "username": "alice"},
    {"id": 2, "username": "bob"}
  ],
  "favorites": [
    {"user_id": 1, "book_id": 10, "created_at": "2026-01-01T00:00:00Z"}
  ],
  "downloads": [
    {"user_id": 1, "book_id": 20, "downloaded_at": "2026-02-26T00:00:00Z"},
    {"user_id": 2, "book_id": 11, "downloaded_at": "2026-02-28T00:00:00Z"},
    {"user_id": 2, "book_id": 11, "downloaded_at": "2026-02-27T00:00:00Z"},
    {"user_id": 2, "book_id": 30, "downloaded_at": "2026-01-01T00:00:00Z"}
  ]
}`

// setupTestStore opens an in-memory catalog loaded with testSeed.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	s, err := Open(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 1}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { closeQuietly(s) })

	s.SetClock(func() time.Time { return testNow })

	if _, err := s.LoadSeed(context.Background(), strings.NewReader(testSeed)); err != nil {
		t.Fatalf("LoadSeed() error = %v", err)
	}
	return s
}

// capturePublisher records published events.
type capturePublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *capturePublisher) snapshot() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

func ids(items []recommend.Item) []int64 {
	out := make([]int64, len(items))
	for i := range items {
		out[i] = items[i].ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- Test: Reads ---

func TestStore_UserProfile(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p, err := s.UserProfile(ctx, 2)
	if err != nil {
		t.Fatalf("UserProfile() error = %v", err)
	}
	if p.Username != "bob" || len(p.Favorites) != 0 {
		t.Errorf("profile = %+v", p)
	}
	if len(p.Downloads) != 3 {
		t.Fatalf("len(Downloads) = %d, want 3", len(p.Downloads))
	}
	for i := 1; i < len(p.Downloads); i++ {
		if p.Downloads[i].DownloadedAt.Before(p.Downloads[i-1].DownloadedAt) {
			t.Error("downloads not ordered oldest first")
		}
	}
	if p.Downloads[0].ItemID != 30 {
		t.Errorf("oldest download = %d, want 30", p.Downloads[0].ItemID)
	}

	alice, err := s.UserProfile(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(alice.Favorites, []int64{10}) {
		t.Errorf("alice favorites = %v", alice.Favorites)
	}

	_, err = s.UserProfile(ctx, 404)
	if !errors.Is(err, recommend.ErrUnknownUser) {
		t.Errorf("UserProfile(404) error = %v, want ErrUnknownUser", err)
	}
}

func TestStore_AvailableItems(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	all, err := s.AvailableItems(ctx, 0)
	if err != nil {
		t.Fatalf("AvailableItems(0) error = %v", err)
	}
	if got := ids(all); !equalIDs(got, []int64{10, 11, 20, 30}) {
		t.Errorf("AvailableItems(0) = %v, want [10 11 20 30]", got)
	}

	fiction, err := s.AvailableItems(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(fiction); !equalIDs(got, []int64{10, 11}) {
		t.Errorf("AvailableItems(1) = %v, want [10 11]", got)
	}

	none, err := s.AvailableItems(ctx, 99)
	if err != nil || len(none) != 0 {
		t.Errorf("AvailableItems(99) = %v, %v", none, err)
	}
}

func TestStore_ItemByID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	item, err := s.ItemByID(ctx, 20)
	if err != nil {
		t.Fatalf("ItemByID() error = %v", err)
	}
	if item.Category == nil || item.Category.Name != "Science" || item.Category.Description != "Non-fiction science" {
		t.Errorf("category = %+v", item.Category)
	}
	if len(item.Tags) != 2 || item.Tags[0].Name != "classic" || item.Tags[1].Name != "space" {
		t.Errorf("tags = %+v, want classic, space", item.Tags)
	}
	if item.DownloadCount != 1200 || item.FavoriteCount != 150 || !item.Available {
		t.Errorf("item = %+v", item)
	}
	if !item.CreatedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", item.CreatedAt)
	}

	orphan, err := s.ItemByID(ctx, 30)
	if err != nil {
		t.Fatal(err)
	}
	if orphan.Category != nil || len(orphan.Tags) != 0 {
		t.Errorf("uncategorised book = %+v", orphan)
	}

	withdrawn, err := s.ItemByID(ctx, 40)
	if err != nil || withdrawn.Available {
		t.Errorf("ItemByID(40) = %+v, %v; want unavailable book", withdrawn, err)
	}

	if _, err := s.ItemByID(ctx, 404); !errors.Is(err, recommend.ErrUnknownItem) {
		t.Errorf("ItemByID(404) error = %v, want ErrUnknownItem", err)
	}
}

func TestStore_DownloadActivity(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	since := testNow.Add(-7 * 24 * time.Hour)

	n, err := s.RecentDownloadCount(ctx, 11, since)
	if err != nil || n != 2 {
		t.Errorf("RecentDownloadCount(11) = %d, %v; want 2", n, err)
	}
	n, err = s.RecentDownloadCount(ctx, 30, since)
	if err != nil || n != 0 {
		t.Errorf("RecentDownloadCount(30) = %d, %v; want 0", n, err)
	}

	most, err := s.MostDownloaded(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(most); !equalIDs(got, []int64{20, 11, 10}) {
		t.Errorf("MostDownloaded(3) = %v, want [20 11 10] (40 is unavailable)", got)
	}

	recent, err := s.RecentlyDownloaded(ctx, since, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(recent); !equalIDs(got, []int64{11, 20}) {
		t.Errorf("RecentlyDownloaded() = %v, want [11 20]", got)
	}

	if empty, err := s.MostDownloaded(ctx, 0); err != nil || len(empty) != 0 {
		t.Errorf("MostDownloaded(0) = %v, %v", empty, err)
	}
}

// --- Test: Mutations ---

func TestStore_RecordDownload(t *testing.T) {
	s := setupTestStore(t)
	pub := &capturePublisher{}
	s.SetPublisher(pub)
	ctx := context.Background()

	ev, err := s.RecordDownload(ctx, 1, 11)
	if err != nil {
		t.Fatalf("RecordDownload() error = %v", err)
	}
	if ev.UserID != 1 || ev.ItemID != 11 || !ev.DownloadedAt.Equal(testNow) {
		t.Errorf("event = %+v", ev)
	}

	item, _ := s.ItemByID(ctx, 11)
	if item.DownloadCount != 951 {
		t.Errorf("DownloadCount = %d, want 951", item.DownloadCount)
	}
	p, _ := s.UserProfile(ctx, 1)
	last := p.Downloads[len(p.Downloads)-1]
	if last.ItemID != 11 {
		t.Errorf("latest download = %+v", last)
	}

	events := pub.snapshot()
	if len(events) != 1 || events[0].Type != TopicDownloadRecorded || events[0].BookID != 11 {
		t.Errorf("published = %+v", events)
	}

	if _, err := s.RecordDownload(ctx, 404, 11); !errors.Is(err, recommend.ErrUnknownUser) {
		t.Errorf("unknown user error = %v", err)
	}
	if _, err := s.RecordDownload(ctx, 1, 404); !errors.Is(err, recommend.ErrUnknownItem) {
		t.Errorf("unknown book error = %v", err)
	}
	if len(pub.snapshot()) != 1 {
		t.Error("failed mutations must not publish")
	}
}

func TestStore_Favorites(t *testing.T) {
	s := setupTestStore(t)
	pub := &capturePublisher{}
	s.SetPublisher(pub)
	ctx := context.Background()

	added, err := s.AddFavorite(ctx, 2, 20)
	if err != nil || !added {
		t.Fatalf("AddFavorite() = %v, %v", added, err)
	}
	added, err = s.AddFavorite(ctx, 2, 20)
	if err != nil || added {
		t.Errorf("second AddFavorite() = %v, %v; want no-op", added, err)
	}

	item, _ := s.ItemByID(ctx, 20)
	if item.FavoriteCount != 151 {
		t.Errorf("FavoriteCount = %d, want 151", item.FavoriteCount)
	}

	removed, err := s.RemoveFavorite(ctx, 2, 20)
	if err != nil || !removed {
		t.Fatalf("RemoveFavorite() = %v, %v", removed, err)
	}
	removed, err = s.RemoveFavorite(ctx, 2, 20)
	if err != nil || removed {
		t.Errorf("second RemoveFavorite() = %v, %v; want no-op", removed, err)
	}

	item, _ = s.ItemByID(ctx, 20)
	if item.FavoriteCount != 150 {
		t.Errorf("FavoriteCount = %d, want 150", item.FavoriteCount)
	}

	events := pub.snapshot()
	if len(events) != 2 {
		t.Fatalf("published %d events, want 2", len(events))
	}
	if !events[0].Favorite || events[1].Favorite {
		t.Errorf("events = %+v, want add then remove", events)
	}
	for _, ev := range events {
		if ev.Type != TopicFavoriteChanged {
			t.Errorf("event type = %q", ev.Type)
		}
	}
}

func TestStore_PublishFailureDoesNotFailWrite(t *testing.T) {
	s := setupTestStore(t)
	s.SetPublisher(&capturePublisher{err: errors.New("bus down")})

	if _, err := s.AddFavorite(context.Background(), 2, 11); err != nil {
		t.Fatalf("AddFavorite() error = %v", err)
	}
	p, _ := s.UserProfile(context.Background(), 2)
	if !equalIDs(p.Favorites, []int64{11}) {
		t.Errorf("favorites = %v", p.Favorites)
	}
}

func TestStore_UpsertBookReplacesTags(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	item, _ := s.ItemByID(ctx, 10)
	item.Title = "The Dispossessed (revised)"
	item.Tags = []recommend.Tag{{ID: 2, Name: "classic"}, {ID: 5, Name: "utopia"}}
	if err := s.UpsertBook(ctx, item); err != nil {
		t.Fatalf("UpsertBook() error = %v", err)
	}

	got, _ := s.ItemByID(ctx, 10)
	if got.Title != "The Dispossessed (revised)" {
		t.Errorf("Title = %q", got.Title)
	}
	if len(got.Tags) != 2 || got.Tags[0].Name != "classic" || got.Tags[1].Name != "utopia" {
		t.Errorf("tags = %+v, want classic, utopia", got.Tags)
	}

	item.Tags = nil
	if err := s.UpsertBook(ctx, item); err != nil {
		t.Fatal(err)
	}
	got, _ = s.ItemByID(ctx, 10)
	if len(got.Tags) != 0 {
		t.Errorf("tags = %+v, want none", got.Tags)
	}
}

func TestStore_InvalidInput(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
	}{
		{"category without name", func() error { return s.UpsertCategory(ctx, recommend.Category{ID: 3}) }},
		{"user without id", func() error { return s.UpsertUser(ctx, User{Username: "x"}) }},
		{"nil book", func() error { return s.UpsertBook(ctx, nil) }},
		{"book with unknown category", func() error {
			return s.UpsertBook(ctx, &recommend.Item{ID: 50, Title: "T", Category: &recommend.Category{ID: 99}})
		}},
		{"book with negative counter", func() error {
			return s.UpsertBook(ctx, &recommend.Item{ID: 50, Title: "T", DownloadCount: -1})
		}},
		{"tag without name", func() error {
			return s.UpsertBook(ctx, &recommend.Item{ID: 50, Title: "T", Tags: []recommend.Tag{{ID: 9}}})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestStore_StatsAndPing(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	want := Stats{Books: 5, AvailableBooks: 4, Categories: 2, Tags: 4, Users: 2, Favorites: 1, Downloads: 4}
	if stats != want {
		t.Errorf("Stats() = %+v, want %+v", stats, want)
	}
}

// --- Test: Seed ---

func TestDecodeSeed_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := DecodeSeed(strings.NewReader(`{"books": [{"id": 1, "title": "x", "colour": "red"}]}`))
	if err == nil {
		t.Error("DecodeSeed() accepted an unknown field")
	}
}

func TestSeedBook_DefaultsToAvailable(t *testing.T) {
	t.Parallel()

	no := false
	if !(&SeedBook{ID: 1}).item().Available {
		t.Error("missing available flag should mean available")
	}
	if (&SeedBook{ID: 1, Available: &no}).item().Available {
		t.Error("explicit false ignored")
	}
	if (&SeedBook{ID: 1}).item().Category != nil {
		t.Error("category_id 0 should mean no category")
	}
}

// --- Test: Engine over DuckDB ---

func TestStore_DrivesEngine(t *testing.T) {
	s := setupTestStore(t)

	e, err := recommend.NewEngine(recommend.DefaultConfig(), s, algorithms.DefaultSignals(zerolog.Nop()), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	e.SetClock(func() time.Time { return testNow })
	ctx := context.Background()

	personal := e.Personalized(ctx, 1, 10)
	if len(personal) != 3 {
		t.Fatalf("Personalized() = %d results, want 3 (4 available minus favorite)", len(personal))
	}
	for _, r := range personal {
		if r.Item.ID == 10 {
			t.Error("favorite recommended")
		}
	}

	trending := e.Trending(ctx, 10)
	if got := resultIDs(trending); len(got) != 2 {
		t.Errorf("Trending() = %v, want books 11 and 20", got)
	}

	if similar := e.Similar(ctx, 404, 0, 10); len(similar) != 0 {
		t.Errorf("Similar(unknown) = %v", similar)
	}

	fallback := e.Personalized(ctx, 404, 2)
	if len(fallback) != 2 || fallback[0].Type != recommend.ModeFallback || fallback[0].Item.ID != 20 {
		t.Errorf("fallback = %+v", fallback)
	}
}

func resultIDs(results []recommend.Result) []int64 {
	out := make([]int64, len(results))
	for i := range results {
		out[i] = results[i].Item.ID
	}
	return out
}
