// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

/*
Package algorithms implements the scoring signals blended by the
recommendation engine.

# Signals

Content similarity between two books:

	sim(a, b) = 0.5 * category(a, b) + 0.3 * jaccard(tags_a, tags_b) + 0.2 * author(a, b)

where category is 1 only when both books have the same category, and author
is 1 when the trimmed authors match case-insensitively.

Behavior preferences accumulate +2 per favorite and +1 per distinct download
into category, author and tag tables, then score a candidate as:

	0.4 * min(1, w_cat/10) + 0.3 * min(1, w_author/5) + 0.3 * avg(min(1, w_tag/5))

Readers with no favorites and no downloads score a neutral 0.2 everywhere.

Popularity:

	0.4 * min(1, downloads/1000) + 0.4 * min(1, favorites/100) + 0.2 * freshness

with freshness = 0.2 * (30 - ageDays) / 30 for books younger than 30 days.

Trend:

	0.7 * min(1, recent7d/50) + 0.3 * popularity

Every signal returns a value in [0, 1]. The weights are the named constants
in the recommend package.

# Thread Safety

All scorers are stateless or read-only after construction and are safe for
concurrent use by the engine's worker pool.
*/
package algorithms
