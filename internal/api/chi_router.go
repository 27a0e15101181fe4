// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/shelfrank/internal/middleware"
	"github.com/tomtom215/shelfrank/internal/models"
)

// compressionLevel is the gzip level used for JSON responses.
const compressionLevel = 5

// Router builds the chi route tree.
type Router struct {
	handler *Handler
	mw      *ChiMiddleware
}

// NewRouter creates a router for h using the given middleware configuration.
func NewRouter(h *Handler, mwConfig *ChiMiddlewareConfig) *Router {
	return &Router{
		handler: h,
		mw:      NewChiMiddleware(mwConfig),
	}
}

// SetupChi returns the complete HTTP handler.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.mw.CORS())
	r.Use(middleware.PrometheusMetrics)
	if router.handler.perf != nil {
		r.Use(router.handler.perf.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, models.ErrCodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, models.ErrCodeMethodNotAllowed, "Method not allowed", nil)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/health", func(r chi.Router) {
			r.Use(middleware.SecurityHeaders)
			r.Get("/live", router.handler.Live)
			r.Get("/ready", router.handler.Ready)
		})

		r.Group(func(r chi.Router) {
			r.Use(router.mw.RateLimit())
			r.Use(middleware.SecurityHeaders)
			r.Use(chimiddleware.Compress(compressionLevel, "application/json"))

			r.Route("/recommendations", func(r chi.Router) {
				r.Get("/personalized", router.handler.Personalized)
				r.Get("/category/{categoryID}", router.handler.Category)
				r.Get("/similar/{bookID}", router.handler.Similar)
				r.Get("/trending", router.handler.Trending)
				r.Get("/stats", router.handler.Stats)
			})

			r.Route("/catalog", func(r chi.Router) {
				r.Post("/downloads", router.handler.RecordDownload)
				r.Post("/favorites", router.handler.AddFavorite)
				r.Delete("/favorites", router.handler.RemoveFavorite)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
