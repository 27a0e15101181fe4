// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package catalog

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/tomtom215/shelfrank/internal/recommend"
)

var errFlaky = errors.New("connection reset")

// mockSource is a Source whose calls are counted and whose first failN
// calls fail with err.
type mockSource struct {
	calls atomic.Int64
	failN atomic.Int64
	err   error

	recentCalls atomic.Int64
	block       chan struct{} // when set, calls wait on it
}

func (m *mockSource) next(ctx context.Context) error {
	m.calls.Add(1)
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.failN.Load() > 0 {
		m.failN.Add(-1)
		return m.err
	}
	return nil
}

func (m *mockSource) UserProfile(ctx context.Context, userID int64) (*recommend.UserProfile, error) {
	if err := m.next(ctx); err != nil {
		return nil, err
	}
	if userID == 404 {
		return nil, recommend.ErrUnknownUser
	}
	return &recommend.UserProfile{ID: userID, Username: "reader"}, nil
}

func (m *mockSource) AvailableItems(ctx context.Context, categoryID int64) ([]recommend.Item, error) {
	if err := m.next(ctx); err != nil {
		return nil, err
	}
	return []recommend.Item{{ID: 1, Available: true, Category: &recommend.Category{ID: max(categoryID, 1)}}}, nil
}

func (m *mockSource) ItemByID(ctx context.Context, itemID int64) (*recommend.Item, error) {
	if err := m.next(ctx); err != nil {
		return nil, err
	}
	if itemID == 404 {
		return nil, recommend.ErrUnknownItem
	}
	return &recommend.Item{ID: itemID, Available: true, Category: &recommend.Category{ID: 1 + itemID%2}}, nil
}

func (m *mockSource) RecentDownloadCount(ctx context.Context, _ int64, _ time.Time) (int64, error) {
	m.recentCalls.Add(1)
	if err := m.next(ctx); err != nil {
		return 0, err
	}
	return 3, nil
}

func (m *mockSource) MostDownloaded(ctx context.Context, limit int) ([]recommend.Item, error) {
	if err := m.next(ctx); err != nil {
		return nil, err
	}
	out := make([]recommend.Item, limit)
	for i := range out {
		out[i] = recommend.Item{ID: int64(i + 1), Available: true}
	}
	return out, nil
}

func (m *mockSource) RecentlyDownloaded(ctx context.Context, _ time.Time, limit int) ([]recommend.Item, error) {
	m.recentCalls.Add(1)
	return m.MostDownloaded(ctx, limit)
}
