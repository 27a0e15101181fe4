// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package catalog

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfrank/internal/cache"
	"github.com/tomtom215/shelfrank/internal/config"
	"github.com/tomtom215/shelfrank/internal/metrics"
	"github.com/tomtom215/shelfrank/internal/recommend"
)

// Cache names, used as metric labels and Stats keys.
const (
	CacheProfiles = "profiles"
	CacheItems    = "items"
	CacheLists    = "lists"
)

type listKind uint8

const (
	listAvailable listKind = iota + 1
	listMostDownloaded
)

// listKey identifies a cached book list: a category for available lists,
// a limit for most-downloaded lists.
type listKey struct {
	kind listKind
	arg  int64
}

// CachedSource is a read-through cache in front of a Source. Cached values
// are shared between callers and must not be modified.
//
// Recent-activity queries depend on the clock and are never cached.
type CachedSource struct {
	inner    Source
	profiles *cache.LRU[int64, *recommend.UserProfile]
	items    *cache.LRU[int64, *recommend.Item]
	lists    *cache.LRU[listKey, []recommend.Item]
	logger   zerolog.Logger

	// generation advances on every invalidation. A miss only stores its
	// result if no invalidation happened while it was loading.
	generation atomic.Uint64
}

var _ Source = (*CachedSource)(nil)

// NewCachedSource wraps inner with caches sized by cfg.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCachedSource(inner Source, cfg *config.CacheConfig, logger zerolog.Logger) *CachedSource {
	return &CachedSource{
		inner:    inner,
		profiles: cache.NewLRU[int64, *recommend.UserProfile](cfg.Capacity, cfg.TTL),
		items:    cache.NewLRU[int64, *recommend.Item](cfg.Capacity, cfg.TTL),
		// Lists are large; a handful per category is plenty.
		lists:  cache.NewLRU[listKey, []recommend.Item](max(cfg.Capacity/64, 16), cfg.TTL),
		logger: logger.With().Str("component", "catalog_cache").Logger(),
	}
}

// readThrough returns the cached value for key or loads and stores it.
func readThrough[K comparable, V any](c *CachedSource, lru *cache.LRU[K, V], name string, key K, load func() (V, error)) (V, error) {
	if v, ok := lru.Get(key); ok {
		metrics.RecordCacheLookup(name, true)
		return v, nil
	}
	metrics.RecordCacheLookup(name, false)

	gen := c.generation.Load()
	v, err := load()
	if err != nil {
		return v, err
	}
	if c.generation.Load() == gen {
		lru.Add(key, v)
	}
	return v, nil
}

// UserProfile implements recommend.CandidateSource.
func (c *CachedSource) UserProfile(ctx context.Context, userID int64) (*recommend.UserProfile, error) {
	return readThrough(c, c.profiles, CacheProfiles, userID, func() (*recommend.UserProfile, error) {
		return c.inner.UserProfile(ctx, userID)
	})
}

// ItemByID implements recommend.CandidateSource.
func (c *CachedSource) ItemByID(ctx context.Context, itemID int64) (*recommend.Item, error) {
	return readThrough(c, c.items, CacheItems, itemID, func() (*recommend.Item, error) {
		return c.inner.ItemByID(ctx, itemID)
	})
}

// AvailableItems implements recommend.CandidateSource.
func (c *CachedSource) AvailableItems(ctx context.Context, categoryID int64) ([]recommend.Item, error) {
	return readThrough(c, c.lists, CacheLists, listKey{listAvailable, categoryID}, func() ([]recommend.Item, error) {
		return c.inner.AvailableItems(ctx, categoryID)
	})
}

// MostDownloaded implements recommend.CandidateSource.
func (c *CachedSource) MostDownloaded(ctx context.Context, limit int) ([]recommend.Item, error) {
	return readThrough(c, c.lists, CacheLists, listKey{listMostDownloaded, int64(limit)}, func() ([]recommend.Item, error) {
		return c.inner.MostDownloaded(ctx, limit)
	})
}

// RecentDownloadCount implements recommend.CandidateSource. Not cached.
func (c *CachedSource) RecentDownloadCount(ctx context.Context, itemID int64, since time.Time) (int64, error) {
	return c.inner.RecentDownloadCount(ctx, itemID, since)
}

// RecentlyDownloaded implements recommend.RecentActivitySource. Not cached.
func (c *CachedSource) RecentlyDownloaded(ctx context.Context, since time.Time, limit int) ([]recommend.Item, error) {
	return c.inner.RecentlyDownloaded(ctx, since, limit)
}

// Invalidate drops every entry a catalog event may have made stale: the
// reader's profile, the book, and the book lists that can contain it. When
// the book is cached only its own category list, the all-categories list and
// the most-downloaded lists go; otherwise every list does.
func (c *CachedSource) Invalidate(ev Event) {
	c.generation.Add(1)

	category, known := int64(0), false
	if item, ok := c.items.Peek(ev.BookID); ok {
		category, known = item.CategoryID(), true
	}

	c.profiles.Remove(ev.UserID)
	c.items.Remove(ev.BookID)
	dropped := c.lists.RemoveFunc(func(k listKey) bool {
		if !known || k.kind == listMostDownloaded {
			return true
		}
		return k.arg == 0 || k.arg == category
	})

	metrics.CacheInvalidations.WithLabelValues(ev.Type).Inc()
	c.logger.Debug().Str("event", ev.Type).Int64("user_id", ev.UserID).
		Int64("book_id", ev.BookID).Int("lists_dropped", dropped).Msg("cache invalidated")
}

// Purge empties every cache, for example after a bulk seed.
func (c *CachedSource) Purge() {
	c.generation.Add(1)
	c.profiles.Clear()
	c.items.Clear()
	c.lists.Clear()
	metrics.CacheInvalidations.WithLabelValues("purge").Inc()
}

// Sweep removes expired entries and returns how many were dropped.
func (c *CachedSource) Sweep() int {
	return c.profiles.CleanupExpired() + c.items.CleanupExpired() + c.lists.CleanupExpired()
}

// Stats returns per-cache statistics keyed by cache name.
func (c *CachedSource) Stats() map[string]cache.Stats {
	return map[string]cache.Stats{
		CacheProfiles: c.profiles.Stats(),
		CacheItems:    c.items.Stats(),
		CacheLists:    c.lists.Stats(),
	}
}
