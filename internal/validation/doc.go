// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

// Package validation validates API request structs with
// go-playground/validator v10.
//
// A single validator instance is shared process-wide; it caches struct
// metadata after the first use. Field names in errors are taken from the
// struct's `query` or `json` tag, so a failure on
//
//	UserID int64 `query:"user_id" validate:"required,gt=0"`
//
// is reported as "user_id is required". Failures convert to the API error
// envelope through ToAPIError, which always uses the VALIDATION_ERROR code.
//
// Custom tags:
//
//   - entity_id: a positive catalog identifier (books, users, categories)
package validation
