// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package catalog

import (
	"context"
	"fmt"
	"time"
)

// schemaTimeout bounds schema creation at startup.
const schemaTimeout = 60 * time.Second

// Counters on books are updated in place, so books carries no secondary
// indexes: DuckDB rejects ON CONFLICT DO UPDATE on indexed columns.
var schemaQueries = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS books (
		id BIGINT PRIMARY KEY,
		title TEXT NOT NULL,
		author TEXT NOT NULL DEFAULT '',
		isbn TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		publication_year INTEGER NOT NULL DEFAULT 0,
		page_count INTEGER NOT NULL DEFAULT 0,
		language TEXT NOT NULL DEFAULT '',
		category_id BIGINT,
		download_count BIGINT NOT NULL DEFAULT 0,
		favorite_count BIGINT NOT NULL DEFAULT 0,
		available BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS book_tags (
		book_id BIGINT NOT NULL,
		tag_id BIGINT NOT NULL,
		PRIMARY KEY (book_id, tag_id)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		user_id BIGINT NOT NULL,
		book_id BIGINT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, book_id)
	)`,
	`CREATE SEQUENCE IF NOT EXISTS downloads_id_seq START 1`,
	`CREATE TABLE IF NOT EXISTS downloads (
		id BIGINT PRIMARY KEY DEFAULT nextval('downloads_id_seq'),
		user_id BIGINT NOT NULL,
		book_id BIGINT NOT NULL,
		downloaded_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_downloads_user ON downloads(user_id, downloaded_at)`,
	`CREATE INDEX IF NOT EXISTS idx_downloads_book_time ON downloads(book_id, downloaded_at)`,
	`CREATE INDEX IF NOT EXISTS idx_book_tags_book ON book_tags(book_id)`,
}

// createSchema creates every table, sequence and index idempotently.
func (s *Store) createSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()

	for _, query := range schemaQueries {
		if _, err := s.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}
