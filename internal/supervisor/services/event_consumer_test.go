// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfrank/internal/catalog"
	"github.com/tomtom215/shelfrank/internal/metrics"
)

// mockSubscriber hands out a channel the test controls.
type mockSubscriber struct {
	ch  chan *message.Message
	err error
}

func (m *mockSubscriber) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.ch, nil
}

type mockInvalidator struct {
	mu     sync.Mutex
	events []catalog.Event
}

func (m *mockInvalidator) Invalidate(ev catalog.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *mockInvalidator) Events() []catalog.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]catalog.Event(nil), m.events...)
}

func eventMessage(t *testing.T, ev catalog.Event) *message.Message {
	t.Helper()
	payload, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return message.NewMessage(watermill.NewUUID(), payload)
}

func waitAcked(t *testing.T, msg *message.Message) {
	t.Helper()
	select {
	case <-msg.Acked():
	case <-time.After(2 * time.Second):
		t.Fatalf("message %s was not acked", msg.UUID)
	}
}

// --- Test: CatalogEventConsumer ---

func TestCatalogEventConsumer_InvalidatesAndAcks(t *testing.T) {
	sub := &mockSubscriber{ch: make(chan *message.Message, 2)}
	inv := &mockInvalidator{}
	c := NewCatalogEventConsumer(sub, inv, catalog.TopicDownloadRecorded, zerolog.Nop())

	okBefore := testutil.ToFloat64(metrics.EventsConsumed.WithLabelValues(catalog.TopicDownloadRecorded, "ok"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- c.Serve(ctx) }()

	msg := eventMessage(t, catalog.Event{Type: catalog.TopicDownloadRecorded, UserID: 7, BookID: 42, OccurredAt: time.Now()})
	sub.ch <- msg
	waitAcked(t, msg)

	got := inv.Events()
	if len(got) != 1 || got[0].UserID != 7 || got[0].BookID != 42 {
		t.Errorf("invalidated events = %+v", got)
	}
	if d := testutil.ToFloat64(metrics.EventsConsumed.WithLabelValues(catalog.TopicDownloadRecorded, "ok")) - okBefore; d != 1 {
		t.Errorf("ok counter delta = %v, want 1", d)
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestCatalogEventConsumer_MalformedIsAckedAndSkipped(t *testing.T) {
	sub := &mockSubscriber{ch: make(chan *message.Message, 2)}
	inv := &mockInvalidator{}
	c := NewCatalogEventConsumer(sub, inv, catalog.TopicFavoriteChanged, zerolog.Nop())

	before := testutil.ToFloat64(metrics.EventsConsumed.WithLabelValues(catalog.TopicFavoriteChanged, "malformed"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Serve(ctx) }()

	bad := message.NewMessage(watermill.NewUUID(), []byte("{not json"))
	unknown := eventMessage(t, catalog.Event{Type: "catalog.unknown", UserID: 1, BookID: 1})
	sub.ch <- bad
	sub.ch <- unknown
	waitAcked(t, bad)
	waitAcked(t, unknown)

	if n := len(inv.Events()); n != 0 {
		t.Errorf("malformed events invalidated %d times", n)
	}
	if d := testutil.ToFloat64(metrics.EventsConsumed.WithLabelValues(catalog.TopicFavoriteChanged, "malformed")) - before; d != 2 {
		t.Errorf("malformed counter delta = %v, want 2", d)
	}
}

func TestCatalogEventConsumer_ClosedSubscriptionFails(t *testing.T) {
	t.Parallel()

	sub := &mockSubscriber{ch: make(chan *message.Message)}
	close(sub.ch)
	c := NewCatalogEventConsumer(sub, &mockInvalidator{}, catalog.TopicDownloadRecorded, zerolog.Nop())

	err := c.Serve(context.Background())
	if !errors.Is(err, errSubscriptionClosed) {
		t.Errorf("Serve() = %v, want errSubscriptionClosed", err)
	}
}

func TestCatalogEventConsumer_SubscribeError(t *testing.T) {
	t.Parallel()

	sub := &mockSubscriber{err: catalog.ErrBusClosed}
	c := NewCatalogEventConsumer(sub, &mockInvalidator{}, catalog.TopicDownloadRecorded, zerolog.Nop())

	if err := c.Serve(context.Background()); !errors.Is(err, catalog.ErrBusClosed) {
		t.Errorf("Serve() = %v, want ErrBusClosed", err)
	}
	if got := c.String(); got != "catalog-events:"+catalog.TopicDownloadRecorded {
		t.Errorf("String() = %q", got)
	}
}

func TestCatalogEventConsumer_MemoryBus(t *testing.T) {
	bus := catalog.NewMemoryEventBus(16, zerolog.Nop())
	defer bus.Close()

	inv := &mockInvalidator{}
	c := NewCatalogEventConsumer(bus, inv, catalog.TopicFavoriteChanged, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Serve(ctx) }()

	// The in-memory bus drops messages published before the subscription
	// exists, so keep publishing until one lands.
	ev := catalog.Event{Type: catalog.TopicFavoriteChanged, UserID: 3, BookID: 9, Favorite: true}
	deadline := time.Now().Add(2 * time.Second)
	for len(inv.Events()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("event never reached the invalidator")
		}
		if err := bus.Publish(ctx, ev); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	got := inv.Events()[0]
	if got.UserID != 3 || got.BookID != 9 || !got.Favorite {
		t.Errorf("event = %+v", got)
	}
}
