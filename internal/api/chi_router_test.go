// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/shelfrank/internal/config"
	"github.com/tomtom215/shelfrank/internal/models"
	"github.com/tomtom215/shelfrank/internal/recommend"
)

// --- Test: Middleware configuration ---

func TestChiMiddlewareConfigFrom(t *testing.T) {
	t.Parallel()

	cfg := ChiMiddlewareConfigFrom(&config.APIConfig{
		CORSOrigins:       []string{"https://shelf.example"},
		RateLimitRequests: 7,
		RateLimitWindow:   30 * time.Second,
		RateLimitDisabled: true,
	})
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "https://shelf.example" {
		t.Errorf("origins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRequests != 7 || cfg.RateLimitWindow != 30*time.Second || !cfg.RateLimitDisabled {
		t.Errorf("rate limit = %d/%v disabled=%v", cfg.RateLimitRequests, cfg.RateLimitWindow, cfg.RateLimitDisabled)
	}

	if def := ChiMiddlewareConfigFrom(nil); len(def.CORSAllowedOrigins) != 0 {
		t.Errorf("nil config origins = %v, want none", def.CORSAllowedOrigins)
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	mw := DefaultChiMiddlewareConfig()
	mw.RateLimitRequests = 2
	mw.RateLimitWindow = time.Minute
	h := newTestRouter(t, Dependencies{Engine: &mockEngine{}, Catalog: &mockCatalog{}}, mw)

	for i := 0; i < 2; i++ {
		if rec := do(t, h, http.MethodGet, "/api/v1/recommendations/trending", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}

	rec := do(t, h, http.MethodGet, "/api/v1/recommendations/trending", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != models.ErrCodeRateLimited {
		t.Errorf("error = %+v", env.Error)
	}

	// Health probes sit outside the limited group.
	if rec := do(t, h, http.MethodGet, "/api/v1/health/live", ""); rec.Code != http.StatusOK {
		t.Errorf("health status = %d while API is limited", rec.Code)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	t.Parallel()

	mw := DefaultChiMiddlewareConfig()
	mw.RateLimitRequests = 1
	mw.RateLimitDisabled = true
	h := newTestRouter(t, Dependencies{Engine: &mockEngine{}, Catalog: &mockCatalog{}}, mw)

	for i := 0; i < 5; i++ {
		if rec := do(t, h, http.MethodGet, "/api/v1/recommendations/trending", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
}

func TestCORS_Preflight(t *testing.T) {
	t.Parallel()

	mw := unlimited()
	mw.CORSAllowedOrigins = []string{"https://shelf.example"}
	h := newTestRouter(t, Dependencies{Engine: &mockEngine{}, Catalog: &mockCatalog{}}, mw)

	tests := []struct {
		origin    string
		wantAllow string
	}{
		{"https://shelf.example", "https://shelf.example"},
		{"https://evil.example", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/catalog/favorites", nil)
		req.Header.Set("Origin", tt.origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
			t.Errorf("origin %s: Allow-Origin = %q, want %q", tt.origin, got, tt.wantAllow)
		}
	}
}

// --- Test: Routing ---

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, Dependencies{Engine: &mockEngine{}, Catalog: &mockCatalog{}}, nil)

	tests := []struct {
		method     string
		path       string
		wantStatus int
		wantCode   string
	}{
		{http.MethodGet, "/api/v1/nope", http.StatusNotFound, models.ErrCodeNotFound},
		{http.MethodGet, "/api/v1/recommendations/unknown", http.StatusNotFound, models.ErrCodeNotFound},
		{http.MethodGet, "/api/v1/catalog/downloads", http.StatusMethodNotAllowed, models.ErrCodeMethodNotAllowed},
		{http.MethodPost, "/api/v1/recommendations/trending", http.StatusMethodNotAllowed, models.ErrCodeMethodNotAllowed},
	}
	for _, tt := range tests {
		rec := do(t, h, tt.method, tt.path, "")
		if rec.Code != tt.wantStatus {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.path, rec.Code, tt.wantStatus)
			continue
		}
		if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != tt.wantCode {
			t.Errorf("%s %s: error = %+v", tt.method, tt.path, env.Error)
		}
	}
}

func TestRouter_SecurityHeaders(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, Dependencies{Engine: &mockEngine{}, Catalog: &mockCatalog{}}, nil)
	rec := do(t, h, http.MethodGet, "/api/v1/recommendations/trending", "")

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "application/json") {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestRouter_Compression(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, Dependencies{Engine: &mockEngine{results: sampleResults()}, Catalog: &mockCatalog{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/trending", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Errorf("Content-Encoding = %q, want gzip", got)
	}
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, Dependencies{Engine: &mockEngine{}, Catalog: &mockCatalog{}}, nil)
	do(t, h, http.MethodGet, "/api/v1/recommendations/trending", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "shelfrank_api_requests_total") {
		t.Error("metrics output missing shelfrank_api_requests_total")
	}
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, Dependencies{Engine: &panicEngine{}, Catalog: &mockCatalog{}}, nil)

	rec := do(t, h, http.MethodGet, "/api/v1/recommendations/trending", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

type panicEngine struct{ mockEngine }

func (*panicEngine) Trending(_ context.Context, _ int) []recommend.Result {
	panic("scorer exploded")
}
