// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/shelfrank/internal/catalog"
	"github.com/tomtom215/shelfrank/internal/models"
	"github.com/tomtom215/shelfrank/internal/recommend"
	"github.com/tomtom215/shelfrank/internal/validation"
)

// RecordDownload handles POST /api/v1/catalog/downloads.
func (h *Handler) RecordDownload(w http.ResponseWriter, r *http.Request) {
	req, ok := h.interaction(w, r)
	if !ok {
		return
	}

	start := time.Now()
	ev, err := h.catalog.RecordDownload(r.Context(), req.UserID, req.BookID)
	if err != nil {
		respondCatalogError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusCreated, ev, models.Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
	})
}

// AddFavorite handles POST /api/v1/catalog/favorites. Adding an existing
// favorite succeeds with changed=false.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	req, ok := h.interaction(w, r)
	if !ok {
		return
	}

	start := time.Now()
	added, err := h.catalog.AddFavorite(r.Context(), req.UserID, req.BookID)
	if err != nil {
		respondCatalogError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusOK, models.FavoriteResult{
		UserID: req.UserID, BookID: req.BookID, Favorite: true, Changed: added,
	}, models.Metadata{QueryTimeMS: time.Since(start).Milliseconds()})
}

// RemoveFavorite handles DELETE /api/v1/catalog/favorites.
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	req, ok := h.interaction(w, r)
	if !ok {
		return
	}

	start := time.Now()
	removed, err := h.catalog.RemoveFavorite(r.Context(), req.UserID, req.BookID)
	if err != nil {
		respondCatalogError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusOK, models.FavoriteResult{
		UserID: req.UserID, BookID: req.BookID, Favorite: false, Changed: removed,
	}, models.Metadata{QueryTimeMS: time.Since(start).Milliseconds()})
}

// interaction decodes and validates a {user_id, book_id} body. It writes the
// error response itself and reports whether the handler should continue.
func (h *Handler) interaction(w http.ResponseWriter, r *http.Request) (models.InteractionRequest, bool) {
	var req models.InteractionRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, err.Error(), nil)
		return req, false
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return req, false
	}
	return req, true
}

// respondCatalogError maps catalog failures to HTTP statuses.
func respondCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, recommend.ErrUnknownUser):
		respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "User not found", nil)
	case errors.Is(err, recommend.ErrUnknownItem):
		respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "Book not found", nil)
	case errors.Is(err, catalog.ErrInvalidInput):
		respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, err.Error(), nil)
	default:
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "A database error occurred", err)
	}
}
