// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

// maxBodyBytes bounds request bodies on write endpoints.
const maxBodyBytes = 4 << 10

// Request structs carry parsed parameters through validation. The query tag
// names the parameter in validation errors. Limit is not range checked here:
// the engine maps zero and negative limits to the default and caps large ones.

// PersonalizedRequest holds the query of the personalized endpoint.
type PersonalizedRequest struct {
	UserID int64 `query:"user_id" validate:"entity_id"`
	Limit  int   `query:"limit"`
}

// CategoryRequest holds the path and query of the category endpoint.
type CategoryRequest struct {
	CategoryID int64 `query:"categoryID" validate:"entity_id"`
	UserID     int64 `query:"user_id" validate:"entity_id"`
	Limit      int   `query:"limit"`
}

// SimilarRequest holds the path and query of the similar endpoint. UserID is
// optional; without it no favorites are excluded.
type SimilarRequest struct {
	BookID int64 `query:"bookID" validate:"entity_id"`
	UserID int64 `query:"user_id" validate:"gte=0"`
	Limit  int   `query:"limit"`
}

// TrendingRequest holds the query of the trending endpoint.
type TrendingRequest struct {
	Limit int `query:"limit"`
}

// paramError reports a parameter that is not a valid integer.
type paramError struct {
	name  string
	value string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("%s must be an integer, got %q", e.name, e.value)
}

// queryInt64 parses an optional integer query parameter.
func queryInt64(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &paramError{name: name, value: raw}
	}
	return v, nil
}

// queryLimit parses the optional limit parameter. Values that overflow int
// are rejected; range normalization is left to the engine.
func queryLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: "limit", value: raw}
	}
	return v, nil
}

// pathInt64 parses a chi URL parameter.
func pathInt64(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &paramError{name: name, value: raw}
	}
	return v, nil
}

// decodeBody reads a single JSON object into dst, rejecting unknown fields
// and trailing data.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
