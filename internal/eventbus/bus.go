// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

// Package eventbus carries recorded-view notifications between the
// recorder and in-process consumers over a Watermill Pub/Sub. The
// transport is the in-memory gochannel implementation: consumers live
// in the same process as the recorder.
package eventbus

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/kukhariev/viewscope/internal/config"
	"github.com/kukhariev/viewscope/internal/metrics"
)

// TopicViewRecorded carries ViewRecordedEvent messages.
const TopicViewRecorded = "view.recorded"

// Bus wraps the in-process Pub/Sub.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter
}

// New creates an in-process bus.
func New(cfg *config.BusConfig) *Bus {
	logger := NewWatermillLogger()
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            int64(cfg.BufferSize),
		Persistent:                     cfg.PersistentSubscribe,
		BlockPublishUntilSubscriberAck: false,
	}, logger)

	return &Bus{pubsub: pubsub, logger: logger}
}

// Publish sends a message to a topic and records the publish metric.
func (b *Bus) Publish(topic string, msg *message.Message) error {
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return err
	}
	metrics.BusPublished.WithLabelValues(topic).Inc()
	return nil
}

// Subscribe returns a channel of messages for a topic.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// Logger exposes the bus logger for router construction.
func (b *Bus) Logger() watermill.LoggerAdapter {
	return b.logger
}

// Close shuts down the Pub/Sub and all subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
