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

// itemSelect is shared by every book query; scanItem reads its columns.
const itemSelect = `SELECT
		b.id, b.title, b.author, b.isbn, b.description,
		b.publication_year, b.page_count, b.language,
		b.download_count, b.favorite_count, b.available, b.created_at,
		c.id, c.name, c.description
	FROM books b
	LEFT JOIN categories c ON c.id = b.category_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (recommend.Item, error) {
	var (
		item    recommend.Item
		catID   sql.NullInt64
		catName sql.NullString
		catDesc sql.NullString
	)
	err := row.Scan(
		&item.ID, &item.Title, &item.Author, &item.ISBN, &item.Description,
		&item.PublicationYear, &item.PageCount, &item.Language,
		&item.DownloadCount, &item.FavoriteCount, &item.Available, &item.CreatedAt,
		&catID, &catName, &catDesc,
	)
	if err != nil {
		return recommend.Item{}, err
	}
	// A dangling category_id reads as no category.
	if catID.Valid {
		item.Category = &recommend.Category{ID: catID.Int64, Name: catName.String, Description: catDesc.String}
	}
	item.Tags = []recommend.Tag{}
	return item, nil
}

// queryItems runs an itemSelect query and attaches tags to the results.
func (s *Store) queryItems(ctx context.Context, query string, args ...any) ([]recommend.Item, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer closeWithLog(rows, s.logger, "rows")

	items := make([]recommend.Item, 0, 64)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate books: %w", err)
	}

	if err := s.attachTags(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// attachTags loads tags for items in one query, ordered by name.
func (s *Store) attachTags(ctx context.Context, items []recommend.Item) error {
	if len(items) == 0 {
		return nil
	}

	index := make(map[int64]int, len(items))
	args := make([]any, len(items))
	for i := range items {
		index[items[i].ID] = i
		args[i] = items[i].ID
	}

	query := `SELECT bt.book_id, t.id, t.name
		FROM book_tags bt
		JOIN tags t ON t.id = bt.tag_id
		WHERE bt.book_id IN (` + placeholders(len(items)) + `)
		ORDER BY bt.book_id, t.name`

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query tags: %w", err)
	}
	defer closeWithLog(rows, s.logger, "rows")

	for rows.Next() {
		var bookID int64
		var tag recommend.Tag
		if err := rows.Scan(&bookID, &tag.ID, &tag.Name); err != nil {
			return fmt.Errorf("failed to scan tag: %w", err)
		}
		if i, ok := index[bookID]; ok {
			items[i].Tags = append(items[i].Tags, tag)
		}
	}
	return rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// UserProfile implements recommend.CandidateSource.
func (s *Store) UserProfile(ctx context.Context, userID int64) (profile *recommend.UserProfile, err error) {
	defer observe("user_profile", time.Now(), &err)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	p := &recommend.UserProfile{ID: userID, Favorites: []int64{}, Downloads: []recommend.DownloadEvent{}}
	err = s.conn.QueryRowContext(ctx, `SELECT username FROM users WHERE id = ?`, userID).Scan(&p.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", userID, recommend.ErrUnknownUser)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if p.Favorites, err = s.favoriteIDs(ctx, userID); err != nil {
		return nil, err
	}
	if p.Downloads, err = s.downloadHistory(ctx, userID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) favoriteIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT book_id FROM favorites WHERE user_id = ? ORDER BY created_at, book_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer closeWithLog(rows, s.logger, "rows")

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) downloadHistory(ctx context.Context, userID int64) ([]recommend.DownloadEvent, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT user_id, book_id, downloaded_at FROM downloads WHERE user_id = ? ORDER BY downloaded_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer closeWithLog(rows, s.logger, "rows")

	events := []recommend.DownloadEvent{}
	for rows.Next() {
		var ev recommend.DownloadEvent
		if err := rows.Scan(&ev.UserID, &ev.ItemID, &ev.DownloadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// AvailableItems implements recommend.CandidateSource.
func (s *Store) AvailableItems(ctx context.Context, categoryID int64) (items []recommend.Item, err error) {
	defer observe("available_items", time.Now(), &err)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if categoryID == 0 {
		return s.queryItems(ctx, itemSelect+` WHERE b.available ORDER BY b.id`)
	}
	return s.queryItems(ctx, itemSelect+` WHERE b.available AND b.category_id = ? ORDER BY b.id`, categoryID)
}

// ItemByID implements recommend.CandidateSource. Unavailable books are
// returned too; callers filter on Available.
func (s *Store) ItemByID(ctx context.Context, itemID int64) (item *recommend.Item, err error) {
	defer observe("item_by_id", time.Now(), &err)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	items, err := s.queryItems(ctx, itemSelect+` WHERE b.id = ?`, itemID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("book %d: %w", itemID, recommend.ErrUnknownItem)
	}
	return &items[0], nil
}

// RecentDownloadCount implements recommend.CandidateSource.
func (s *Store) RecentDownloadCount(ctx context.Context, itemID int64, since time.Time) (n int64, err error) {
	defer observe("recent_download_count", time.Now(), &err)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err = s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM downloads WHERE book_id = ? AND downloaded_at >= ?`,
		itemID, since.UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent downloads: %w", err)
	}
	return n, nil
}

// MostDownloaded implements recommend.CandidateSource. Ties are broken by
// book ID so the order is deterministic.
func (s *Store) MostDownloaded(ctx context.Context, limit int) (items []recommend.Item, err error) {
	defer observe("most_downloaded", time.Now(), &err)

	if limit <= 0 {
		return []recommend.Item{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.queryItems(ctx, itemSelect+`
		WHERE b.available
		ORDER BY b.download_count DESC, b.id
		LIMIT ?`, limit)
}

// RecentlyDownloaded implements recommend.RecentActivitySource: available
// books with at least one download at or after since, busiest first.
func (s *Store) RecentlyDownloaded(ctx context.Context, since time.Time, limit int) (items []recommend.Item, err error) {
	defer observe("recently_downloaded", time.Now(), &err)

	if limit <= 0 {
		return []recommend.Item{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.queryItems(ctx, itemSelect+`
		JOIN (
			SELECT book_id, COUNT(*) AS recent, MAX(downloaded_at) AS last_at
			FROM downloads
			WHERE downloaded_at >= ?
			GROUP BY book_id
		) r ON r.book_id = b.id
		WHERE b.available
		ORDER BY r.recent DESC, r.last_at DESC, b.id
		LIMIT ?`, since.UTC(), limit)
}
