// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

/*
Package services adapts shelfrank components to suture's Serve pattern.

  - HTTPServerService wraps an *http.Server and shuts it down gracefully.
  - CatalogEventConsumer reads one catalog topic and drops the cache
    entries each event makes stale.
  - CacheSweeper periodically removes expired cache entries.

Every service returns when its context is canceled and implements
fmt.Stringer so supervisor logs can name it.
*/
package services
