// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package models

import (
	"time"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error codes used in APIError.Code.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	ErrCodeDatabase           = "DATABASE_ERROR"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIResponse is the envelope returned by every JSON endpoint.
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata describes how a response was produced.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Count       *int      `json:"count,omitempty"`
}

// APIError is a structured failure.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// InteractionRequest is the body of the download and favorite endpoints.
type InteractionRequest struct {
	UserID int64 `json:"user_id" validate:"entity_id"`
	BookID int64 `json:"book_id" validate:"entity_id"`
}

// FavoriteResult reports the outcome of a favorite toggle. Changed is false
// when the request matched the current state.
type FavoriteResult struct {
	UserID   int64 `json:"user_id"`
	BookID   int64 `json:"book_id"`
	Favorite bool  `json:"favorite"`
	Changed  bool  `json:"changed"`
}

// HealthStatus is returned by the readiness probe.
type HealthStatus struct {
	Status            string    `json:"status"`
	Version           string    `json:"version"`
	DatabaseConnected bool      `json:"database_connected"`
	CircuitBreaker    string    `json:"circuit_breaker,omitempty"`
	Uptime            float64   `json:"uptime_seconds"`
	CheckedAt         time.Time `json:"checked_at"`
}
