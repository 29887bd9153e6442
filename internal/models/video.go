// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

// Package models defines the data structures shared across the view
// tracking engine: videos, view events, viewer sessions and the three
// derived statistics projections.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Video is the metadata this subsystem reads about a video. Videos are
// created elsewhere (upload or live-session start) and are never
// mutated here.
//
// Exactly one of local/remote holds for the lifetime of a video on a
// given instance. IsLive is immutable once set and excludes the video
// from retention statistics.
type Video struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	OwnerAccountID string    `json:"owner_account_id"`

	// IsLocal marks a video owned and authoritative on this instance.
	// Remote (federated/mirrored) videos never expose statistics here.
	IsLocal bool `json:"is_local"`

	// IsLive marks live content. Live videos have no fixed duration, so
	// retention curves are categorically inapplicable to them.
	IsLive bool `json:"is_live"`

	// Duration is the playback length in seconds. Zero for live videos.
	Duration int64 `json:"duration"`

	CreatedAt time.Time `json:"created_at"`
}

// ViewEvent is one recorded playback ping. Events are append-only and
// immutable once stored; RecordedAt is assigned by the store, never by
// the client.
type ViewEvent struct {
	ID              uuid.UUID `json:"id"`
	VideoID         uuid.UUID `json:"video_id"`
	ViewerSessionID string    `json:"viewer_session_id"`

	// Position is the playback position in seconds at the time of the
	// ping. Always a non-negative integer; invalid positions are
	// rejected before storage.
	Position int64 `json:"position"`

	RecordedAt time.Time `json:"recorded_at"`
}

// ViewSession tracks one viewer's continuation state on one video.
// Repeated pings from the same viewer session inside the dedup window
// extend the session instead of opening a new one; raw events are
// stored regardless, for retention-curve fidelity.
type ViewSession struct {
	VideoID         uuid.UUID `json:"video_id"`
	ViewerSessionID string    `json:"viewer_session_id"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `json:"last_seen"`

	// MaxPosition is the furthest playback second this viewer reported.
	MaxPosition int64 `json:"max_position"`
}
