// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kukhariev/viewscope/internal/config"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()

	bus := New(&config.BusConfig{BufferSize: 16})
	t.Cleanup(func() {
		if err := bus.Close(); err != nil {
			t.Errorf("bus close: %v", err)
		}
	})
	return bus
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	bus := newTestBus(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := bus.Subscribe(ctx, TopicViewRecorded)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	event := &ViewRecordedEvent{
		EventID:         uuid.New(),
		VideoID:         uuid.New(),
		ViewerSessionID: "viewer-a",
		Position:        12,
		NewView:         true,
		RecordedAt:      time.Now().UTC(),
	}
	msg, err := event.ToMessage()
	if err != nil {
		t.Fatalf("ToMessage: %v", err)
	}
	if err := bus.Publish(TopicViewRecorded, msg); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	case received := <-messages:
		received.Ack()

		got, err := ParseViewRecorded(received)
		if err != nil {
			t.Fatalf("ParseViewRecorded: %v", err)
		}
		if got.EventID != event.EventID {
			t.Errorf("EventID = %v, want %v", got.EventID, event.EventID)
		}
		if got.SchemaVersion != SchemaVersion {
			t.Errorf("SchemaVersion = %d, want %d", got.SchemaVersion, SchemaVersion)
		}
		if got.Position != 12 || !got.NewView {
			t.Errorf("unexpected payload: %+v", got)
		}
		if received.UUID != event.EventID.String() {
			t.Errorf("message UUID = %q, want event ID", received.UUID)
		}
	}
}

func TestConsumerStopsOnContextCancel(t *testing.T) {
	bus := newTestBus(t)
	consumer := NewConsumer(bus)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- consumer.Run(ctx)
	}()

	event := &ViewRecordedEvent{EventID: uuid.New(), VideoID: uuid.New(), NewView: true}
	msg, err := event.ToMessage()
	if err != nil {
		t.Fatalf("ToMessage: %v", err)
	}
	if err := bus.Publish(TopicViewRecorded, msg); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("consumer returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}

func TestParseViewRecordedMalformed(t *testing.T) {
	t.Parallel()

	event := &ViewRecordedEvent{EventID: uuid.New()}
	msg, err := event.ToMessage()
	if err != nil {
		t.Fatalf("ToMessage: %v", err)
	}
	msg.Payload = []byte("{not json")

	if _, err := ParseViewRecorded(msg); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
