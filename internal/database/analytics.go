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

// CountViewEvents returns the total number of view events for a video.
func (db *DB) CountViewEvents(ctx context.Context, videoID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM view_events WHERE video_id = ?`

	start := time.Now()
	var count int64
	err := db.conn.QueryRowContext(ctx, query, videoID).Scan(&count)
	metrics.RecordDBQuery("count", "view_events", time.Since(start), err)
	if err != nil {
		return 0, apperr.NewTransientStore("count view events", err)
	}
	return count, nil
}

// CountDistinctViewers returns the number of distinct viewer sessions
// that recorded at least one event for the video.
func (db *DB) CountDistinctViewers(ctx context.Context, videoID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(DISTINCT viewer_session_id) FROM view_events WHERE video_id = ?`

	start := time.Now()
	var count int64
	err := db.conn.QueryRowContext(ctx, query, videoID).Scan(&count)
	metrics.RecordDBQuery("count_distinct", "view_events", time.Since(start), err)
	if err != nil {
		return 0, apperr.NewTransientStore("count distinct viewers", err)
	}
	return count, nil
}

// TotalWatchTime sums the deepest playback position across all viewer
// sessions of a video, in seconds. Derived from the append-only event
// log rather than the view_sessions rollup, so pruning stale sessions
// never shrinks the total while events are retained.
func (db *DB) TotalWatchTime(ctx context.Context, videoID uuid.UUID) (int64, error) {
	query := `SELECT COALESCE(SUM(peak), 0) FROM (
			SELECT MAX(position_sec) AS peak
			FROM view_events
			WHERE video_id = ?
			GROUP BY viewer_session_id
		)`

	start := time.Now()
	var total int64
	err := db.conn.QueryRowContext(ctx, query, videoID).Scan(&total)
	metrics.RecordDBQuery("sum", "view_events", time.Since(start), err)
	if err != nil {
		return 0, apperr.NewTransientStore("total watch time", err)
	}
	return total, nil
}

// ViewEventsInRange returns events for a video inside [from, to),
// ordered by recorded time ascending.
func (db *DB) ViewEventsInRange(ctx context.Context, videoID uuid.UUID, from, to time.Time) ([]models.ViewEvent, error) {
	query := `SELECT id, video_id, viewer_session_id, position_sec, recorded_at
		FROM view_events
		WHERE video_id = ? AND recorded_at >= ? AND recorded_at < ?
		ORDER BY recorded_at ASC`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, videoID, from, to)
	metrics.RecordDBQuery("range", "view_events", time.Since(start), err)
	if err != nil {
		return nil, apperr.NewTransientStore("query view events", err)
	}
	defer closeWithLog(rows, "view event rows")

	var events []models.ViewEvent
	for rows.Next() {
		var event models.ViewEvent
		if err := rows.Scan(&event.ID, &event.VideoID, &event.ViewerSessionID,
			&event.Position, &event.RecordedAt); err != nil {
			return nil, apperr.NewTransientStore("scan view event", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.NewTransientStore("iterate view events", err)
	}
	return events, nil
}

// SessionPeaks returns the deepest position reached by each viewer
// session of a video. Used to build retention curves. Derived from the
// append-only event log, so the curve survives view_sessions pruning.
func (db *DB) SessionPeaks(ctx context.Context, videoID uuid.UUID) ([]models.SessionPeak, error) {
	query := `SELECT viewer_session_id, MAX(position_sec)
		FROM view_events
		WHERE video_id = ?
		GROUP BY viewer_session_id
		ORDER BY viewer_session_id ASC`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, videoID)
	metrics.RecordDBQuery("peaks", "view_events", time.Since(start), err)
	if err != nil {
		return nil, apperr.NewTransientStore("query session peaks", err)
	}
	defer closeWithLog(rows, "session peak rows")

	var peaks []models.SessionPeak
	for rows.Next() {
		var peak models.SessionPeak
		if err := rows.Scan(&peak.ViewerSessionID, &peak.MaxPosition); err != nil {
			return nil, apperr.NewTransientStore("scan session peak", err)
		}
		peaks = append(peaks, peak)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.NewTransientStore("iterate session peaks", err)
	}
	return peaks, nil
}
