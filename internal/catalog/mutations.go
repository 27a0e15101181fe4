// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/shelfrank/internal/recommend"
)

// User is a reader record.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UpsertCategory inserts or replaces a category.
func (s *Store) UpsertCategory(ctx context.Context, c recommend.Category) (err error) {
	defer observe("upsert_category", time.Now(), &err)

	if c.ID <= 0 || strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: category needs a positive id and a name", ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO categories (id, name, description) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, description = excluded.description`,
		c.ID, c.Name, c.Description)
	if err != nil {
		return fmt.Errorf("failed to upsert category %d: %w", c.ID, err)
	}
	return nil
}

// UpsertUser inserts or replaces a reader.
func (s *Store) UpsertUser(ctx context.Context, u User) (err error) {
	defer observe("upsert_user", time.Now(), &err)

	if u.ID <= 0 || strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("%w: user needs a positive id and a username", ErrInvalidInput)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO users (id, username, email, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET username = excluded.username, email = excluded.email`,
		u.ID, u.Username, u.Email, u.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert user %d: %w", u.ID, err)
	}
	return nil
}

// UpsertBook inserts or replaces a book and its tag set. Tags are created
// on first use. A non-nil Category must already exist.
func (s *Store) UpsertBook(ctx context.Context, item *recommend.Item) (err error) {
	defer observe("upsert_book", time.Now(), &err)

	if item == nil || item.ID <= 0 || strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("%w: book needs a positive id and a title", ErrInvalidInput)
	}
	if item.DownloadCount < 0 || item.FavoriteCount < 0 {
		return fmt.Errorf("%w: book %d has negative counters", ErrInvalidInput, item.ID)
	}
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	var categoryID sql.NullInt64
	if item.Category != nil {
		if err := requireRow(ctx, tx, `SELECT 1 FROM categories WHERE id = ?`, item.Category.ID); err != nil {
			return fmt.Errorf("%w: book %d references unknown category %d", ErrInvalidInput, item.ID, item.Category.ID)
		}
		categoryID = sql.NullInt64{Int64: item.Category.ID, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO books (id, title, author, isbn, description, publication_year, page_count,
			language, category_id, download_count, favorite_count, available, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			isbn = excluded.isbn,
			description = excluded.description,
			publication_year = excluded.publication_year,
			page_count = excluded.page_count,
			language = excluded.language,
			category_id = excluded.category_id,
			download_count = excluded.download_count,
			favorite_count = excluded.favorite_count,
			available = excluded.available`,
		item.ID, item.Title, item.Author, item.ISBN, item.Description, item.PublicationYear, item.PageCount,
		item.Language, categoryID, item.DownloadCount, item.FavoriteCount, item.Available, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert book %d: %w", item.ID, err)
	}

	if err := replaceTags(ctx, tx, item.ID, item.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit book %d: %w", item.ID, err)
	}
	return nil
}

// replaceTags makes the book's tag links equal to tags. Links that survive
// are left in place rather than deleted and re-inserted.
func replaceTags(ctx context.Context, tx *sql.Tx, bookID int64, tags []recommend.Tag) error {
	keep := make([]any, 0, len(tags)+1)
	keep = append(keep, bookID)
	for _, tag := range tags {
		if tag.ID <= 0 || strings.TrimSpace(tag.Name) == "" {
			return fmt.Errorf("%w: book %d has a tag without id or name", ErrInvalidInput, bookID)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tags (id, name) VALUES (?, ?)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name`, tag.ID, tag.Name)
		if err != nil {
			return fmt.Errorf("failed to upsert tag %d: %w", tag.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO book_tags (book_id, tag_id) VALUES (?, ?)
			ON CONFLICT DO NOTHING`, bookID, tag.ID)
		if err != nil {
			return fmt.Errorf("failed to link tag %d to book %d: %w", tag.ID, bookID, err)
		}
		keep = append(keep, tag.ID)
	}

	query := `DELETE FROM book_tags WHERE book_id = ?`
	if len(keep) > 1 {
		query += ` AND tag_id NOT IN (` + placeholders(len(keep)-1) + `)`
	}
	if _, err := tx.ExecContext(ctx, query, keep...); err != nil {
		return fmt.Errorf("failed to prune tags of book %d: %w", bookID, err)
	}
	return nil
}

// RecordDownload appends a download to the reader's history and bumps the
// book's download counter.
func (s *Store) RecordDownload(ctx context.Context, userID, bookID int64) (ev recommend.DownloadEvent, err error) {
	defer observe("record_download", time.Now(), &err)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return ev, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	if err := requireUserAndBook(ctx, tx, userID, bookID); err != nil {
		return ev, err
	}

	ev = recommend.DownloadEvent{UserID: userID, ItemID: bookID, DownloadedAt: s.now()}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO downloads (user_id, book_id, downloaded_at) VALUES (?, ?, ?)`,
		userID, bookID, ev.DownloadedAt.UTC()); err != nil {
		return ev, fmt.Errorf("failed to insert download: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE books SET download_count = download_count + 1 WHERE id = ?`, bookID); err != nil {
		return ev, fmt.Errorf("failed to bump download count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ev, fmt.Errorf("failed to commit download: %w", err)
	}

	s.publish(ctx, Event{Type: TopicDownloadRecorded, UserID: userID, BookID: bookID, OccurredAt: ev.DownloadedAt})
	return ev, nil
}

// AddFavorite marks a book as a reader's favorite. It reports whether the
// favorite is new; adding an existing favorite changes nothing.
func (s *Store) AddFavorite(ctx context.Context, userID, bookID int64) (added bool, err error) {
	defer observe("add_favorite", time.Now(), &err)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	if err := requireUserAndBook(ctx, tx, userID, bookID); err != nil {
		return false, err
	}

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE user_id = ? AND book_id = ?`, userID, bookID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	if exists > 0 {
		return false, nil
	}

	now := s.now()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO favorites (user_id, book_id, created_at) VALUES (?, ?, ?)`,
		userID, bookID, now.UTC()); err != nil {
		return false, fmt.Errorf("failed to insert favorite: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE books SET favorite_count = favorite_count + 1 WHERE id = ?`, bookID); err != nil {
		return false, fmt.Errorf("failed to bump favorite count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit favorite: %w", err)
	}

	s.publish(ctx, Event{Type: TopicFavoriteChanged, UserID: userID, BookID: bookID, Favorite: true, OccurredAt: now})
	return true, nil
}

// RemoveFavorite removes a favorite. It reports whether one was removed.
func (s *Store) RemoveFavorite(ctx context.Context, userID, bookID int64) (removed bool, err error) {
	defer observe("remove_favorite", time.Now(), &err)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	if err := requireUserAndBook(ctx, tx, userID, bookID); err != nil {
		return false, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = ? AND book_id = ?`, userID, bookID)
	if err != nil {
		return false, fmt.Errorf("failed to delete favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE books SET favorite_count = GREATEST(favorite_count - 1, 0) WHERE id = ?`, bookID); err != nil {
		return false, fmt.Errorf("failed to lower favorite count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit favorite removal: %w", err)
	}

	s.publish(ctx, Event{Type: TopicFavoriteChanged, UserID: userID, BookID: bookID, Favorite: false, OccurredAt: s.now()})
	return true, nil
}

func requireUserAndBook(ctx context.Context, tx *sql.Tx, userID, bookID int64) error {
	if err := requireRow(ctx, tx, `SELECT 1 FROM users WHERE id = ?`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user %d: %w", userID, recommend.ErrUnknownUser)
		}
		return err
	}
	if err := requireRow(ctx, tx, `SELECT 1 FROM books WHERE id = ?`, bookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("book %d: %w", bookID, recommend.ErrUnknownItem)
		}
		return err
	}
	return nil
}

func requireRow(ctx context.Context, tx *sql.Tx, query string, id int64) error {
	var one int
	return tx.QueryRowContext(ctx, query, id).Scan(&one)
}
