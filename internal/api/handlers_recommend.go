// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/shelfrank/internal/cache"
	"github.com/tomtom215/shelfrank/internal/catalog"
	"github.com/tomtom215/shelfrank/internal/middleware"
	"github.com/tomtom215/shelfrank/internal/models"
	"github.com/tomtom215/shelfrank/internal/recommend"
	"github.com/tomtom215/shelfrank/internal/validation"
)

// StatsResponse is returned by GET /api/v1/recommendations/stats.
type StatsResponse struct {
	Engine         recommend.Stats            `json:"engine"`
	Catalog        *catalog.Stats             `json:"catalog,omitempty"`
	Cache          map[string]cache.Stats     `json:"cache,omitempty"`
	CircuitBreaker string                     `json:"circuit_breaker,omitempty"`
	Endpoints      []middleware.EndpointStats `json:"endpoints,omitempty"`
}

// Personalized handles GET /api/v1/recommendations/personalized.
func (h *Handler) Personalized(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, err.Error(), nil)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, err.Error(), nil)
		return
	}

	req := PersonalizedRequest{UserID: userID, Limit: limit}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	h.serveResults(w, r, func(ctx context.Context) []recommend.Result {
		return h.engine.Personalized(ctx, req.UserID, req.Limit)
	})
}

// Category handles GET /api/v1/recommendations/category/{categoryID}.
func (h *Handler) Category(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathInt64(r, "categoryID")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, err.Error(), nil)
		return
	}
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, err.Error(), nil)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, err.Error(), nil)
		return
	}

	req := CategoryRequest{CategoryID: categoryID, UserID: userID, Limit: limit}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	h.serveResults(w, r, func(ctx context.Context) []recommend.Result {
		return h.engine.Category(ctx, req.UserID, req.CategoryID, req.Limit)
	})
}

// Similar handles GET /api/v1/recommendations/similar/{bookID}. An unknown
// book yields an empty list, not a 404.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathInt64(r, "bookID")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, err.Error(), nil)
		return
	}
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, err.Error(), nil)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, err.Error(), nil)
		return
	}

	req := SimilarRequest{BookID: bookID, UserID: userID, Limit: limit}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	h.serveResults(w, r, func(ctx context.Context) []recommend.Result {
		return h.engine.Similar(ctx, req.BookID, req.UserID, req.Limit)
	})
}

// Trending handles GET /api/v1/recommendations/trending.
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, err.Error(), nil)
		return
	}

	req := TrendingRequest{Limit: limit}
	h.serveResults(w, r, func(ctx context.Context) []recommend.Result {
		return h.engine.Trending(ctx, req.Limit)
	})
}

// Stats handles GET /api/v1/recommendations/stats. A failing catalog count
// is logged and omitted rather than failing the request.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	resp := StatsResponse{Engine: h.engine.Stats()}

	ctx, cancel := context.WithTimeout(r.Context(), h.statsTimeout)
	defer cancel()

	if cs, err := h.catalog.Stats(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("catalog stats unavailable")
	} else {
		resp.Catalog = &cs
	}
	if h.cache != nil {
		resp.Cache = h.cache.Stats()
	}
	if h.breaker != nil {
		resp.CircuitBreaker = h.breaker.State()
	}
	if h.perf != nil {
		resp.Endpoints = h.perf.Stats()
	}

	respondSuccess(w, r, http.StatusOK, resp, models.Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
	})
}

// serveResults runs one ranking and writes the list with its count.
func (h *Handler) serveResults(w http.ResponseWriter, r *http.Request, rank func(context.Context) []recommend.Result) {
	start := time.Now()
	results := rank(r.Context())
	if results == nil {
		results = []recommend.Result{}
	}

	count := len(results)
	respondSuccess(w, r, http.StatusOK, results, models.Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
		Count:       &count,
	})
}
