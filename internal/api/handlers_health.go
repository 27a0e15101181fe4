// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/shelfrank/internal/models"
)

// Live handles GET /api/v1/health/live. It only proves the process serves HTTP.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, map[string]string{"status": "alive"}, models.Metadata{})
}

// Ready handles GET /api/v1/health/ready. It answers 503 while the catalog
// database is unreachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.readyTimeout)
	defer cancel()

	err := h.catalog.Ping(ctx)
	health := models.HealthStatus{
		Status:            "healthy",
		Version:           Version,
		DatabaseConnected: err == nil,
		Uptime:            time.Since(h.startTime).Seconds(),
		CheckedAt:         time.Now().UTC(),
	}
	if h.breaker != nil {
		health.CircuitBreaker = h.breaker.State()
	}

	if err != nil {
		h.logger.Warn().Err(err).Msg("readiness check failed")
		health.Status = "unavailable"
		respondErrorDetails(w, r, http.StatusServiceUnavailable, models.ErrCodeServiceUnavailable,
			"Catalog database unreachable", map[string]any{"health": health}, nil)
		return
	}

	respondSuccess(w, r, http.StatusOK, health, models.Metadata{})
}
