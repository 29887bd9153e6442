// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package eventbus

import (
	"context"

	"github.com/kukhariev/viewscope/internal/logging"
	"github.com/kukhariev/viewscope/internal/metrics"
)

// Consumer drains view.recorded messages and feeds the view counters.
// It runs until its context is canceled or the bus closes.
type Consumer struct {
	bus *Bus
}

// NewConsumer creates a consumer over the given bus.
func NewConsumer(bus *Bus) *Consumer {
	return &Consumer{bus: bus}
}

// Run subscribes and processes messages until ctx is done. Returns nil
// on clean shutdown.
func (c *Consumer) Run(ctx context.Context) error {
	messages, err := c.bus.Subscribe(ctx, TopicViewRecorded)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}

			event, err := ParseViewRecorded(msg)
			if err != nil {
				metrics.BusConsumeFailures.WithLabelValues(TopicViewRecorded).Inc()
				logging.Warn().Err(err).Str("message_uuid", msg.UUID).
					Msg("Dropping malformed view.recorded message")
				msg.Ack()
				continue
			}

			metrics.BusConsumed.WithLabelValues(TopicViewRecorded).Inc()
			if event.NewView {
				metrics.ViewsRecorded.Inc()
			} else {
				metrics.ViewsDeduplicated.Inc()
			}

			logging.Debug().
				Str("video_id", event.VideoID.String()).
				Str("viewer_session_id", event.ViewerSessionID).
				Bool("new_view", event.NewView).
				Int64("position", event.Position).
				Msg("View recorded")
			msg.Ack()
		}
	}
}
