// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

/*
Package models defines the HTTP wire types shared by the API handlers and
the shelfctl CLI.

Every endpoint answers with an APIResponse envelope:

	{
	  "status": "success",
	  "data": [...],
	  "metadata": {"timestamp": "...", "query_time_ms": 3, "count": 10}
	}

Errors use the same envelope with status "error" and a populated error
object carrying a machine-readable code.

Request bodies (InteractionRequest) carry validator tags and are checked by
internal/validation before reaching the catalog.
*/
package models
