// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

// Package recommend ranks catalog books for a reader.
//
// # Architecture
//
// The Engine blends four hand-specified signals into one ordered list:
//
//   - Content: pairwise similarity from category, author and tag overlap
//   - Behavior: preference weights built from a reader's favorites and downloads
//   - Popularity: download and favorite counters with a freshness bonus
//   - Trend: recent download activity blended with popularity
//
// The signal implementations live in the algorithms subpackage and are
// injected through Signals, so this package has no dependency on them or on
// any storage layer. Catalog data arrives through CandidateSource.
//
// # Modes
//
//   - Personalized: content against favorites, behavior and popularity
//   - Category: the personalized blend restricted to one category
//   - Similar: content similarity against an anchor book
//   - Trending: books with downloads inside the trending window
//   - Fallback: most downloaded books with a flat score
//
// # Failure Handling
//
// Recommendation operations never return an error. An unknown reader, an
// empty candidate set, a collaborator failure or an expired deadline all
// produce the popularity fallback; each cause is logged and counted
// separately. An unknown anchor in Similar produces an empty list.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), source,
//	    algorithms.DefaultSignals(logger), logger)
//	if err != nil {
//	    return err
//	}
//	results := engine.Personalized(ctx, userID, 10)
package recommend
