// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

// Package stats builds the three read projections over recorded view
// events: overall totals, bucketed timeseries, and retention curves.
// Bucketing and curve shaping happen in Go; the store only supplies
// ordered events and per-session peaks.
package stats

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kukhariev/viewscope/internal/apperr"
	"github.com/kukhariev/viewscope/internal/logging"
	"github.com/kukhariev/viewscope/internal/models"
)

// retentionMaxPoints caps the number of samples in a retention curve.
const retentionMaxPoints = 100

// EventSource supplies the stored facts the aggregator projects from.
// *database.DB satisfies it.
type EventSource interface {
	CountViewEvents(ctx context.Context, videoID uuid.UUID) (int64, error)
	CountDistinctViewers(ctx context.Context, videoID uuid.UUID) (int64, error)
	TotalWatchTime(ctx context.Context, videoID uuid.UUID) (int64, error)
	ViewEventsInRange(ctx context.Context, videoID uuid.UUID, from, to time.Time) ([]models.ViewEvent, error)
	SessionPeaks(ctx context.Context, videoID uuid.UUID) ([]models.SessionPeak, error)
}

// Aggregator computes stats projections for a video.
type Aggregator struct {
	source EventSource
}

// NewAggregator creates an aggregator over the given source.
func NewAggregator(source EventSource) *Aggregator {
	return &Aggregator{source: source}
}

// Overall returns lifetime totals for a video.
func (a *Aggregator) Overall(ctx context.Context, video *models.Video) (*models.OverallStats, error) {
	totalViews, err := a.source.CountViewEvents(ctx, video.ID)
	if err != nil {
		return nil, err
	}
	viewers, err := a.source.CountDistinctViewers(ctx, video.ID)
	if err != nil {
		return nil, err
	}
	watchTime, err := a.source.TotalWatchTime(ctx, video.ID)
	if err != nil {
		return nil, err
	}

	stats := &models.OverallStats{
		VideoID:        video.ID,
		TotalViews:     totalViews,
		ViewersCount:   viewers,
		TotalWatchTime: watchTime,
	}
	if viewers > 0 {
		stats.AverageWatchTime = float64(watchTime) / float64(viewers)
	}
	return stats, nil
}

// Timeserie returns one value per interval bucket between from and to.
// Buckets are contiguous and zero-filled; an event falling exactly on
// a bucket boundary counts toward the bucket starting at that instant.
func (a *Aggregator) Timeserie(ctx context.Context, video *models.Video, metric models.Metric, from, to time.Time, interval time.Duration) (*models.TimeserieStats, error) {
	if !metric.Valid() {
		return nil, apperr.NewValidation("metric", "unknown metric %q", string(metric))
	}
	if interval <= 0 {
		return nil, apperr.NewValidation("interval", "interval must be positive")
	}
	if !to.After(from) {
		return nil, apperr.NewValidation("endDate", "end date must be after start date")
	}

	events, err := a.source.ViewEventsInRange(ctx, video.ID, from, to)
	if err != nil {
		return nil, err
	}

	bucketCount := int(to.Sub(from) / interval)
	if to.Sub(from)%interval != 0 {
		bucketCount++
	}

	buckets := make([]models.TimeserieBucket, bucketCount)
	for i := range buckets {
		buckets[i].BucketStart = from.Add(time.Duration(i) * interval)
	}

	switch metric {
	case models.MetricViews:
		for _, event := range events {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			idx := int(event.RecordedAt.Sub(from) / interval)
			if idx >= 0 && idx < bucketCount {
				buckets[idx].Value++
			}
		}
	case models.MetricViewers:
		seen := make([]map[string]struct{}, bucketCount)
		for _, event := range events {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			idx := int(event.RecordedAt.Sub(from) / interval)
			if idx < 0 || idx >= bucketCount {
				continue
			}
			if seen[idx] == nil {
				seen[idx] = make(map[string]struct{})
			}
			if _, ok := seen[idx][event.ViewerSessionID]; !ok {
				seen[idx][event.ViewerSessionID] = struct{}{}
				buckets[idx].Value++
			}
		}
	}

	return &models.TimeserieStats{
		VideoID:  video.ID,
		Metric:   metric,
		Interval: interval,
		Buckets:  buckets,
	}, nil
}

// Retention returns the fraction of viewer sessions that reached each
// sampled playback second. Live videos have no fixed timeline to
// sample against, so they are rejected as a validation failure. The
// curve is non-increasing: a session that reached second s also
// reached every earlier second, and the result is clamped to the
// invariant before it is served.
func (a *Aggregator) Retention(ctx context.Context, video *models.Video) (*models.RetentionStats, error) {
	if video.IsLive {
		return nil, apperr.NewValidation("videoId", "cannot compute retention for a live video")
	}
	if video.Duration <= 0 {
		return &models.RetentionStats{VideoID: video.ID}, nil
	}

	peaks, err := a.source.SessionPeaks(ctx, video.ID)
	if err != nil {
		return nil, err
	}
	if len(peaks) == 0 {
		return &models.RetentionStats{VideoID: video.ID}, nil
	}

	step := video.Duration / retentionMaxPoints
	if step < 1 {
		step = 1
	}

	total := float64(len(peaks))
	var points []models.RetentionPoint
	for second := int64(0); second <= video.Duration; second += step {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		reached := 0
		for _, peak := range peaks {
			if peak.MaxPosition >= second {
				reached++
			}
		}
		points = append(points, models.RetentionPoint{
			PlaybackSecond:   second,
			RetainedFraction: float64(reached) / total,
		})
	}

	if clamped := clampNonIncreasing(points); clamped > 0 {
		logging.Error().
			Str("video_id", video.ID.String()).
			Int("clamped_points", clamped).
			Msg("Retention curve violated non-increasing invariant")
	}

	return &models.RetentionStats{
		VideoID: video.ID,
		Points:  points,
	}, nil
}

// clampNonIncreasing forces a retention curve to be non-increasing,
// returning how many points had to be clamped. A fraction higher than
// its predecessor cannot come from valid peaks, so the curve is
// repaired and the violation reported rather than served as-is.
func clampNonIncreasing(points []models.RetentionPoint) int {
	clamped := 0
	for i := 1; i < len(points); i++ {
		if points[i].RetainedFraction > points[i-1].RetainedFraction {
			points[i].RetainedFraction = points[i-1].RetainedFraction
			clamped++
		}
	}
	return clamped
}
