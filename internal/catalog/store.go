// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfrank/internal/config"
	"github.com/tomtom215/shelfrank/internal/metrics"
	"github.com/tomtom215/shelfrank/internal/recommend"
)

// queryTimeout bounds every catalog query on top of the caller's context.
const queryTimeout = 30 * time.Second

// Source is what the engine needs from a catalog: the required candidate
// queries plus recent activity for trending.
type Source interface {
	recommend.CandidateSource
	recommend.RecentActivitySource
}

// Publisher receives catalog events after a mutation commits.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Store wraps the DuckDB connection and provides catalog access.
type Store struct {
	conn      *sql.DB
	cfg       *config.DatabaseConfig
	logger    zerolog.Logger
	publisher Publisher
	now       func() time.Time
}

var (
	_ Source    = (*Store)(nil)
	_ Publisher = (*EventBus)(nil)
)

// Open connects to DuckDB and creates the schema.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg *config.DatabaseConfig, logger zerolog.Logger) (*Store, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	path := cfg.Path
	if cfg.IsInMemory() {
		path = ":memory:"
	} else if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}

	connStr := fmt.Sprintf("%s?threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		path, numThreads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		conn:   conn,
		cfg:    cfg,
		logger: logger.With().Str("component", "catalog").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}

	s.configureConnectionPool()

	if err := s.createSchema(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.logger.Info().Str("path", path).Int("threads", numThreads).Msg("catalog opened")
	return s, nil
}

// configureConnectionPool sizes the pool for DuckDB's single-process model.
func (s *Store) configureConnectionPool() {
	s.conn.SetMaxOpenConns(runtime.NumCPU())
	s.conn.SetMaxIdleConns(2)
	s.conn.SetConnMaxLifetime(time.Hour)
	s.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// SetPublisher installs the event publisher used by mutations. A nil
// publisher disables events.
func (s *Store) SetPublisher(p Publisher) {
	s.publisher = p
}

// SetClock overrides the clock used to stamp mutations. Tests only.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.conn.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Conn returns the underlying SQL database connection.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// Stats summarizes catalog size.
type Stats struct {
	Books          int64 `json:"books"`
	AvailableBooks int64 `json:"available_books"`
	Categories     int64 `json:"categories"`
	Tags           int64 `json:"tags"`
	Users          int64 `json:"users"`
	Favorites      int64 `json:"favorites"`
	Downloads      int64 `json:"downloads"`
}

// Stats counts rows in every catalog table.
func (s *Store) Stats(ctx context.Context) (stats Stats, err error) {
	defer observe("stats", time.Now(), &err)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT
		(SELECT COUNT(*) FROM books),
		(SELECT COUNT(*) FROM books WHERE available),
		(SELECT COUNT(*) FROM categories),
		(SELECT COUNT(*) FROM tags),
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM favorites),
		(SELECT COUNT(*) FROM downloads)`

	err = s.conn.QueryRowContext(ctx, query).Scan(
		&stats.Books, &stats.AvailableBooks, &stats.Categories, &stats.Tags,
		&stats.Users, &stats.Favorites, &stats.Downloads,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count catalog rows: %w", err)
	}
	return stats, nil
}

// observe records query latency and failures. Not-found results are not
// counted as errors.
func observe(operation string, start time.Time, errp *error) {
	err := *errp
	if recommend.IsNotFound(err) {
		err = nil
	}
	metrics.RecordCatalogQuery(operation, time.Since(start), err)
}
