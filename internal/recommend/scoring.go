// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package recommend

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// scoreFunc scores one candidate. keep=false drops it from the list.
type scoreFunc func(ctx context.Context, item *Item) (result Result, keep bool, err error)

// scoreCandidates runs score over candidates on a bounded worker pool.
// Output order matches candidate order, so a stable sort afterwards keeps
// ties in enumeration order. The first error or a cancelled context aborts
// the whole batch; partial results are never returned.
func (e *Engine) scoreCandidates(ctx context.Context, candidates []Item, score scoreFunc) ([]Result, error) {
	if len(candidates) == 0 {
		return []Result{}, nil
	}

	scored := make([]Result, len(candidates))
	keep := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(e.config.workers(), len(candidates)))

	for i := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, ok, err := score(gctx, &candidates[i])
			if err != nil {
				return err
			}
			scored[i], keep[i] = r, ok
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := scored[:0]
	for i := range scored {
		if keep[i] {
			results = append(results, scored[i])
		}
	}
	return results, nil
}

// rankResults sorts by descending score, keeping ties in input order, and
// truncates to k.
func rankResults(results []Result, k int) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}
