// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/showfeed/internal/logging"
)

// Sink receives routed messages.
type Sink interface {
	Deliver(userID, topic string, payload []byte)
}

// Router forwards every message on the given topics to a Sink. It runs as a
// supervised service.
type Router struct {
	bus    *Bus
	sink   Sink
	topics []string
}

// NewRouter creates a router. With no topics it routes feed.status and
// prefs.changed.
func NewRouter(bus *Bus, sink Sink, topics ...string) *Router {
	if len(topics) == 0 {
		topics = []string{TopicFeedStatus, TopicPrefsChanged}
	}
	return &Router{bus: bus, sink: sink, topics: topics}
}

// Serve subscribes and forwards until ctx is cancelled.
func (r *Router) Serve(ctx context.Context) error {
	channels := make([]<-chan *message.Message, 0, len(r.topics))
	for _, topic := range r.topics {
		ch, err := r.bus.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		channels = append(channels, ch)
	}

	var wg sync.WaitGroup
	for i, ch := range channels {
		wg.Add(1)
		go func(topic string, ch <-chan *message.Message) {
			defer wg.Done()
			r.forward(topic, ch)
		}(r.topics[i], ch)
	}
	wg.Wait()
	return ctx.Err()
}

func (r *Router) forward(topic string, ch <-chan *message.Message) {
	for msg := range ch {
		userID := msg.Metadata.Get(MetadataUserID)
		if userID == "" {
			logging.Warn().Str("topic", topic).Str("message_id", msg.UUID).Msg("Dropping event without user id")
			msg.Ack()
			continue
		}
		r.sink.Deliver(userID, topic, msg.Payload)
		msg.Ack()
	}
}

// String identifies the service in supervisor logs.
func (r *Router) String() string {
	return "event-router"
}
