// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

//go:build !nats

package catalog

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/shelfrank/internal/config"
)

// ErrNATSNotCompiled is returned for events.transport=nats in builds without the nats tag.
var ErrNATSNotCompiled = errors.New("NATS transport not compiled in: rebuild with -tags nats")

func newNATSPubSub(_ *config.EventsConfig, _ watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	return nil, nil, ErrNATSNotCompiled
}
