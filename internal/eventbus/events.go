// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package eventbus

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// SchemaVersion is the current event schema version. Increment on
// breaking changes to ViewRecordedEvent.
const SchemaVersion = 1

// ViewRecordedEvent is published after a view event has been stored.
type ViewRecordedEvent struct {
	SchemaVersion int `json:"schema_version"`

	EventID         uuid.UUID `json:"event_id"`
	VideoID         uuid.UUID `json:"video_id"`
	ViewerSessionID string    `json:"viewer_session_id"`
	Position        int64     `json:"position"`

	// NewView is true when the event opened a fresh view window rather
	// than extending an existing one.
	NewView bool `json:"new_view"`

	RecordedAt time.Time `json:"recorded_at"`
}

// ToMessage serializes the event into a Watermill message. The message
// UUID equals the stored event ID so downstream dedup stays possible.
func (e *ViewRecordedEvent) ToMessage() (*message.Message, error) {
	if e.SchemaVersion == 0 {
		e.SchemaVersion = SchemaVersion
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal view recorded event: %w", err)
	}

	msg := message.NewMessage(e.EventID.String(), payload)
	msg.Metadata.Set("event_type", "view.recorded")
	return msg, nil
}

// ParseViewRecorded deserializes a Watermill message back into the
// event structure.
func ParseViewRecorded(msg *message.Message) (*ViewRecordedEvent, error) {
	var event ViewRecordedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("unmarshal view recorded event: %w", err)
	}
	return &event, nil
}
