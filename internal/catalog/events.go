// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfrank/internal/config"
	"github.com/tomtom215/shelfrank/internal/logging"
	"github.com/tomtom215/shelfrank/internal/metrics"
)

// Catalog event topics.
const (
	TopicDownloadRecorded = "catalog.download_recorded"
	TopicFavoriteChanged  = "catalog.favorite_changed"
)

// correlationIDKey carries the request correlation ID in message metadata.
const correlationIDKey = "correlation_id"

// ErrBusClosed is returned when publishing on a closed EventBus.
var ErrBusClosed = errors.New("event bus closed")

// Topics lists every catalog topic.
func Topics() []string {
	return []string{TopicDownloadRecorded, TopicFavoriteChanged}
}

// Event describes one committed catalog mutation. Type is the topic.
type Event struct {
	Type       string    `json:"type"`
	UserID     int64     `json:"user_id"`
	BookID     int64     `json:"book_id"`
	Favorite   bool      `json:"favorite,omitempty"` // favorite_changed only: true when added
	OccurredAt time.Time `json:"occurred_at"`
}

// DecodeEvent parses a message payload. The topic comes from the payload.
func DecodeEvent(msg *message.Message) (Event, error) {
	var ev Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return Event{}, fmt.Errorf("decode catalog event %s: %w", msg.UUID, err)
	}
	if ev.Type != TopicDownloadRecorded && ev.Type != TopicFavoriteChanged {
		return Event{}, fmt.Errorf("decode catalog event %s: unknown type %q", msg.UUID, ev.Type)
	}
	return ev, nil
}

// CorrelationID returns the correlation ID the publisher attached to msg.
func CorrelationID(msg *message.Message) string {
	return msg.Metadata.Get(correlationIDKey)
}

// EventBus publishes and subscribes to catalog events over watermill.
type EventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewEventBus builds the bus selected by cfg.Transport.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEventBus(cfg *config.EventsConfig, logger zerolog.Logger) (*EventBus, error) {
	logger = logger.With().Str("component", "catalog_events").Logger()
	wmLogger := logging.NewWatermillAdapter(logger)

	switch cfg.Transport {
	case "", "memory":
		return NewMemoryEventBus(cfg.BufferSize, logger), nil
	case "nats":
		pub, sub, err := newNATSPubSub(cfg, wmLogger)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("url", cfg.NATSURL).Msg("catalog events on NATS JetStream")
		return &EventBus{publisher: pub, subscriber: sub, logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown events transport %q", cfg.Transport)
	}
}

// NewMemoryEventBus returns an in-process bus. Messages published while no
// subscriber is attached are dropped.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMemoryEventBus(bufferSize int64, logger zerolog.Logger) *EventBus {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: bufferSize,
	}, logging.NewWatermillAdapter(logger))

	return &EventBus{publisher: pubSub, subscriber: pubSub, logger: logger}
}

// Publish encodes ev and sends it on its topic.
func (b *EventBus) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode catalog event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(correlationIDKey, id)
	}

	if err := b.publisher.Publish(ev.Type, msg); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}

	metrics.EventsPublished.WithLabelValues(ev.Type).Inc()
	return nil
}

// Subscribe returns a channel of messages for topic. The channel is closed
// when ctx is canceled or the bus is closed. Every message must be acked.
func (b *EventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	return b.subscriber.Subscribe(ctx, topic)
}

// Close shuts down the publisher and subscriber. It is safe to call twice.
func (b *EventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	// gochannel uses one value for both sides.
	if any(b.subscriber) != any(b.publisher) {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	return errors.Join(errs...)
}

// publish is called by mutations after commit. Failures are logged, never
// returned: the write already happened.
func (s *Store) publish(ctx context.Context, ev Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("topic", ev.Type).
			Int64("user_id", ev.UserID).Int64("book_id", ev.BookID).
			Msg("failed to publish catalog event")
	}
}
