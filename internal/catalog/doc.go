// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

/*
Package catalog is the book catalog behind the recommendation engine.

Store keeps categories, books, tags, readers, favorites and download history
in DuckDB and implements recommend.CandidateSource and
recommend.RecentActivitySource. Mutations (RecordDownload, AddFavorite,
RemoveFavorite and the Upsert* family) publish catalog events on an EventBus.

Two decorators wrap any Source:

  - ResilientSource retries failed reads with bounded exponential backoff and
    guards them with a circuit breaker. Not-found errors pass straight through.
  - CachedSource keeps user profiles, books and available-book lists in TTL
    LRU caches and drops entries when catalog events arrive.

The usual stack, outermost first, is CachedSource -> ResilientSource -> Store.

# Events

	catalog.download_recorded   a reader downloaded a book
	catalog.favorite_changed    a reader added or removed a favorite

The default transport is an in-process watermill gochannel. Binaries built
with the nats tag can use NATS JetStream instead.
*/
package catalog
