// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

// Package views ingests playback pings. A ping is validated against
// the target video, collapsed into the viewer's open view window when
// one exists, appended to the event store behind a circuit breaker,
// and announced on the event bus.
package views

import (
	"context"
	"time"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/kukhariev/viewscope/internal/apperr"
	"github.com/kukhariev/viewscope/internal/config"
	"github.com/kukhariev/viewscope/internal/eventbus"
	"github.com/kukhariev/viewscope/internal/logging"
	"github.com/kukhariev/viewscope/internal/metrics"
	"github.com/kukhariev/viewscope/internal/models"
)

// Store is the slice of the database the recorder writes through.
// *database.DB satisfies it.
type Store interface {
	GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error)
	InsertViewEvent(ctx context.Context, event *models.ViewEvent) error
	UpsertViewSession(ctx context.Context, session *models.ViewSession) error
}

// Result describes the outcome of one recorded ping.
type Result struct {
	EventID uuid.UUID

	// NewView is true when the ping opened a fresh view window.
	NewView bool
}

// Recorder validates and stores incoming playback pings.
type Recorder struct {
	store   Store
	windows *WindowStore
	bus     *eventbus.Bus
	breaker *gobreaker.CircuitBreaker[interface{}]
	cfg     *config.ViewsConfig
}

// NewRecorder creates a recorder. The bus may be nil; recording then
// skips the published notification.
func NewRecorder(store Store, windows *WindowStore, bus *eventbus.Bus, cfg *config.ViewsConfig) *Recorder {
	return &Recorder{
		store:   store,
		windows: windows,
		bus:     bus,
		breaker: NewStoreBreaker(cfg),
		cfg:     cfg,
	}
}

// Record processes one playback ping. Validation that needs the video
// (position against duration) happens here, after existence is known;
// pure shape validation happened at the API boundary.
//
// dedupToken is an optional caller-supplied idempotency key. A retry
// carrying a token already seen inside the window is acknowledged
// without a second append.
func (r *Recorder) Record(ctx context.Context, videoID uuid.UUID, viewerSessionID string, position int64, dedupToken string) (*Result, error) {
	if position < 0 {
		metrics.RecordViewRejected("validation")
		return nil, apperr.NewValidation("currentTime", "position must not be negative")
	}
	if viewerSessionID == "" {
		metrics.RecordViewRejected("validation")
		return nil, apperr.NewValidation("viewerSessionId", "viewer session id must not be empty")
	}

	video, err := r.store.GetVideo(ctx, videoID)
	if err != nil {
		if apperr.IsNotFound(err) {
			metrics.RecordViewRejected("not_found")
		} else {
			metrics.RecordViewRejected("store")
		}
		return nil, err
	}

	// Live videos have no fixed end, so the duration bound only applies
	// to on-demand content.
	if r.cfg.EnforceDurationBound && !video.IsLive && position > video.Duration {
		metrics.RecordViewRejected("validation")
		return nil, apperr.NewValidation("currentTime",
			"position %d exceeds video duration %d", position, video.Duration)
	}

	if dedupToken != "" {
		first, err := r.windows.TouchToken(dedupToken)
		if err != nil {
			metrics.RecordViewRejected("store")
			return nil, apperr.NewTransientStore("touch idempotency token", err)
		}
		if !first {
			return &Result{NewView: false}, nil
		}
	}

	newView, err := r.windows.Touch(videoID.String(), viewerSessionID)
	if err != nil {
		metrics.RecordViewRejected("store")
		return nil, apperr.NewTransientStore("touch view window", err)
	}

	now := time.Now().UTC()
	event := &models.ViewEvent{
		ID:              uuid.New(),
		VideoID:         videoID,
		ViewerSessionID: viewerSessionID,
		Position:        position,
		RecordedAt:      now,
	}
	session := &models.ViewSession{
		VideoID:         videoID,
		ViewerSessionID: viewerSessionID,
		FirstSeen:       now,
		LastSeen:        now,
		MaxPosition:     position,
	}

	if _, err := r.breaker.Execute(func() (interface{}, error) {
		if err := r.store.InsertViewEvent(ctx, event); err != nil {
			return nil, err
		}
		return nil, r.store.UpsertViewSession(ctx, session)
	}); err != nil {
		// The event never became durable, so the token and the window
		// opened above must not survive: a retry has to be treated as
		// if this attempt never happened.
		if dedupToken != "" {
			if relErr := r.windows.ReleaseToken(dedupToken); relErr != nil {
				logging.Warn().Err(relErr).Msg("Failed to release idempotency token after append failure")
			}
		}
		if newView {
			if relErr := r.windows.Release(videoID.String(), viewerSessionID); relErr != nil {
				logging.Warn().Err(relErr).Msg("Failed to release view window after append failure")
			}
		}
		metrics.RecordViewRejected("store")
		if apperr.IsStore(err) {
			return nil, err
		}
		// Breaker-open errors surface as transient store failures.
		return nil, apperr.NewTransientStore("append view event", err)
	}

	r.publish(event, newView)

	return &Result{EventID: event.ID, NewView: newView}, nil
}

// publish announces the stored event. Publish failures are logged and
// swallowed: the event is durable, only the notification was lost.
func (r *Recorder) publish(event *models.ViewEvent, newView bool) {
	if r.bus == nil {
		return
	}

	busEvent := &eventbus.ViewRecordedEvent{
		EventID:         event.ID,
		VideoID:         event.VideoID,
		ViewerSessionID: event.ViewerSessionID,
		Position:        event.Position,
		NewView:         newView,
		RecordedAt:      event.RecordedAt,
	}
	msg, err := busEvent.ToMessage()
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to encode view recorded event")
		return
	}
	if err := r.bus.Publish(eventbus.TopicViewRecorded, msg); err != nil {
		logging.Warn().Err(err).Msg("Failed to publish view recorded event")
	}
}
