// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfrank/internal/catalog"
	"github.com/tomtom215/shelfrank/internal/metrics"
)

// errSubscriptionClosed makes the supervisor restart a consumer whose
// subscription ended underneath it.
var errSubscriptionClosed = errors.New("subscription closed")

// EventSubscriber is satisfied by *catalog.EventBus.
type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// CacheInvalidator is satisfied by *catalog.CachedSource.
type CacheInvalidator interface {
	Invalidate(ev catalog.Event)
}

// CatalogEventConsumer drains one catalog topic into the cache.
type CatalogEventConsumer struct {
	bus    EventSubscriber
	cache  CacheInvalidator
	topic  string
	logger zerolog.Logger
}

// NewCatalogEventConsumer creates a consumer for topic.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCatalogEventConsumer(bus EventSubscriber, cache CacheInvalidator, topic string, logger zerolog.Logger) *CatalogEventConsumer {
	return &CatalogEventConsumer{
		bus:    bus,
		cache:  cache,
		topic:  topic,
		logger: logger.With().Str("service", "catalog-events").Str("topic", topic).Logger(),
	}
}

// Serve implements suture.Service.
func (c *CatalogEventConsumer) Serve(ctx context.Context) error {
	messages, err := c.bus.Subscribe(ctx, c.topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.topic, err)
	}
	c.logger.Debug().Msg("consuming catalog events")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("%s: %w", c.topic, errSubscriptionClosed)
			}
			c.handle(msg)
		}
	}
}

// handle acks every message. A payload that cannot be decoded will never
// decode, so redelivery would only loop.
func (c *CatalogEventConsumer) handle(msg *message.Message) {
	defer msg.Ack()

	ev, err := catalog.DecodeEvent(msg)
	if err != nil {
		metrics.EventsConsumed.WithLabelValues(c.topic, "malformed").Inc()
		c.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping malformed catalog event")
		return
	}

	c.cache.Invalidate(ev)
	metrics.EventsConsumed.WithLabelValues(c.topic, "ok").Inc()
	c.logger.Debug().
		Str("correlation_id", catalog.CorrelationID(msg)).
		Int64("user_id", ev.UserID).
		Int64("book_id", ev.BookID).
		Msg("catalog event applied")
}

// String implements fmt.Stringer.
func (c *CatalogEventConsumer) String() string {
	return "catalog-events:" + c.topic
}
