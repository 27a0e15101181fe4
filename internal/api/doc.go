// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

/*
Package api exposes the recommendation engine and catalog mutations over HTTP.

Routes (all JSON, wrapped in models.APIResponse):

	GET    /api/v1/recommendations/personalized?user_id=&limit=
	GET    /api/v1/recommendations/category/{categoryID}?user_id=&limit=
	GET    /api/v1/recommendations/similar/{bookID}?user_id=&limit=
	GET    /api/v1/recommendations/trending?limit=
	GET    /api/v1/recommendations/stats
	POST   /api/v1/catalog/downloads      {"user_id": 1, "book_id": 2}
	POST   /api/v1/catalog/favorites      {"user_id": 1, "book_id": 2}
	DELETE /api/v1/catalog/favorites      {"user_id": 1, "book_id": 2}
	GET    /api/v1/health/live
	GET    /api/v1/health/ready
	GET    /metrics

Recommendation endpoints never fail because of the catalog: the engine serves
a popularity fallback instead. They only return errors for malformed input.
Omitted or non-positive limits use the engine default, large limits are
capped.

Middleware, outermost first: request ID, real IP, panic recovery, CORS,
Prometheus metrics and the performance monitor. The recommendation and catalog
groups add per-IP rate limiting, security headers and gzip compression.
Health probes are not rate limited.

Successful JSON responses carry an ETag computed over the data payload, and
a matching If-None-Match yields 304 Not Modified.
*/
package api
