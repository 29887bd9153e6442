// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kukhariev/viewscope/internal/apperr"
	"github.com/kukhariev/viewscope/internal/metrics"
	"github.com/kukhariev/viewscope/internal/models"
)

// UpsertVideo inserts a video or updates its mutable fields.
func (db *DB) UpsertVideo(ctx context.Context, video *models.Video) error {
	if video.ID == uuid.Nil {
		video.ID = uuid.New()
	}
	if video.CreatedAt.IsZero() {
		video.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO videos (id, name, owner_account_id, is_local, is_live, duration, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			owner_account_id = excluded.owner_account_id,
			is_local = excluded.is_local,
			is_live = excluded.is_live,
			duration = excluded.duration`

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query,
		video.ID, video.Name, video.OwnerAccountID,
		video.IsLocal, video.IsLive, video.Duration, video.CreatedAt)
	metrics.RecordDBQuery("upsert", "videos", time.Since(start), err)
	if err != nil {
		return apperr.NewTransientStore("upsert video", err)
	}
	return nil
}

// GetVideo looks up a video by ID. Returns apperr.NotFoundError when
// no such video exists.
func (db *DB) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	query := `SELECT id, name, owner_account_id, is_local, is_live, duration, created_at
		FROM videos WHERE id = ?`

	start := time.Now()
	row := db.conn.QueryRowContext(ctx, query, id)

	var video models.Video
	err := row.Scan(&video.ID, &video.Name, &video.OwnerAccountID,
		&video.IsLocal, &video.IsLive, &video.Duration, &video.CreatedAt)
	metrics.RecordDBQuery("get", "videos", time.Since(start), err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NewNotFound("video", id.String())
	}
	if err != nil {
		return nil, apperr.NewTransientStore("get video", err)
	}
	return &video, nil
}

// DeleteVideo removes a video and its recorded events and sessions.
func (db *DB) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	start := time.Now()

	var err error
	for _, stmt := range []string{
		`DELETE FROM view_events WHERE video_id = ?`,
		`DELETE FROM view_sessions WHERE video_id = ?`,
		`DELETE FROM videos WHERE id = ?`,
	} {
		if _, err = db.conn.ExecContext(ctx, stmt, id); err != nil {
			break
		}
	}
	metrics.RecordDBQuery("delete", "videos", time.Since(start), err)
	if err != nil {
		return apperr.NewTransientStore("delete video", err)
	}
	return nil
}
