// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kukhariev/viewscope/internal/apperr"
	"github.com/kukhariev/viewscope/internal/metrics"
	"github.com/kukhariev/viewscope/internal/models"
)

// InsertViewEvent appends one view event. The table is append-only;
// a duplicate event ID is silently ignored so replays stay idempotent.
func (db *DB) InsertViewEvent(ctx context.Context, event *models.ViewEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.RecordedAt.IsZero() {
		event.RecordedAt = time.Now().UTC()
	}

	query := `INSERT INTO view_events (id, video_id, viewer_session_id, position_sec, recorded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query,
		event.ID, event.VideoID, event.ViewerSessionID, event.Position, event.RecordedAt)
	metrics.RecordDBQuery("insert", "view_events", time.Since(start), err)
	if err != nil {
		return apperr.NewTransientStore("insert view event", err)
	}
	return nil
}

// UpsertViewSession records or advances the per-viewer session rollup.
// max_position only ever grows; last_seen tracks the newest event.
func (db *DB) UpsertViewSession(ctx context.Context, session *models.ViewSession) error {
	query := `INSERT INTO view_sessions (video_id, viewer_session_id, first_seen, last_seen, max_position)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (video_id, viewer_session_id) DO UPDATE SET
			last_seen = excluded.last_seen,
			max_position = GREATEST(view_sessions.max_position, excluded.max_position)`

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query,
		session.VideoID, session.ViewerSessionID,
		session.FirstSeen, session.LastSeen, session.MaxPosition)
	metrics.RecordDBQuery("upsert", "view_sessions", time.Since(start), err)
	if err != nil {
		return apperr.NewTransientStore("upsert view session", err)
	}
	return nil
}

// GetViewSession looks up one session rollup. Returns nil without
// error when the viewer has no session for the video.
func (db *DB) GetViewSession(ctx context.Context, videoID uuid.UUID, viewerSessionID string) (*models.ViewSession, error) {
	query := `SELECT video_id, viewer_session_id, first_seen, last_seen, max_position
		FROM view_sessions WHERE video_id = ? AND viewer_session_id = ?`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, videoID, viewerSessionID)
	metrics.RecordDBQuery("get", "view_sessions", time.Since(start), err)
	if err != nil {
		return nil, apperr.NewTransientStore("get view session", err)
	}
	defer closeWithLog(rows, "view session rows")

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, apperr.NewTransientStore("get view session", err)
		}
		return nil, nil
	}

	var session models.ViewSession
	if err := rows.Scan(&session.VideoID, &session.ViewerSessionID,
		&session.FirstSeen, &session.LastSeen, &session.MaxPosition); err != nil {
		return nil, apperr.NewTransientStore("scan view session", err)
	}
	return &session, nil
}

// PruneStaleSessions deletes session rollups not seen since the cutoff
// and returns the number removed. The append-only event log is kept.
func (db *DB) PruneStaleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM view_sessions WHERE last_seen < ?`

	start := time.Now()
	result, err := db.conn.ExecContext(ctx, query, cutoff)
	metrics.RecordDBQuery("prune", "view_sessions", time.Since(start), err)
	if err != nil {
		return 0, apperr.NewTransientStore("prune view sessions", err)
	}

	pruned, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return pruned, nil
}
