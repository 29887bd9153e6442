// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Metric is the closed enumeration of time-series metrics. Adding a
// metric is a compile-time-checked addition: the aggregator switches
// exhaustively over this type, never over raw strings.
type Metric string

const (
	// MetricViews counts raw view events per bucket.
	MetricViews Metric = "views"

	// MetricViewers counts distinct viewer sessions per bucket.
	MetricViewers Metric = "viewers"
)

// ParseMetric converts a request string into a Metric. Unknown values
// are a validation failure, never a silently-empty series.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricViews:
		return MetricViews, nil
	case MetricViewers:
		return MetricViewers, nil
	default:
		return "", fmt.Errorf("unknown metric %q", s)
	}
}

// Valid reports whether m is a member of the enumeration.
func (m Metric) Valid() bool {
	switch m {
	case MetricViews, MetricViewers:
		return true
	}
	return false
}

// OverallStats is the totals projection for one video. It is derived
// on demand from the event store and owns no storage of its own.
type OverallStats struct {
	VideoID uuid.UUID `json:"video_id"`

	// TotalViews is the count of stored view events.
	TotalViews int64 `json:"total_views"`

	// ViewersCount is the count of distinct viewer sessions.
	ViewersCount int64 `json:"viewers_count"`

	// TotalWatchTime sums each session's furthest playback second.
	TotalWatchTime int64 `json:"total_watch_time"`

	// AverageWatchTime is TotalWatchTime / ViewersCount, zero when the
	// video has no viewers.
	AverageWatchTime float64 `json:"average_watch_time"`
}

// TimeserieBucket is one fixed-interval bucket of a time series.
type TimeserieBucket struct {
	BucketStart time.Time `json:"bucket_start"`
	Value       int64     `json:"value"`
}

// TimeserieStats is a chronologically ascending, gap-free sequence of
// buckets for one metric. Buckets with no events appear with value 0.
type TimeserieStats struct {
	VideoID  uuid.UUID         `json:"video_id"`
	Metric   Metric            `json:"metric"`
	Interval time.Duration     `json:"-"`
	Buckets  []TimeserieBucket `json:"buckets"`
}

// IntervalSeconds is the bucket width, serialized in seconds.
func (t *TimeserieStats) IntervalSeconds() int64 {
	return int64(t.Interval / time.Second)
}

// RetentionPoint is the retained fraction of viewers at one playback
// second.
type RetentionPoint struct {
	PlaybackSecond   int64   `json:"playback_second"`
	RetainedFraction float64 `json:"retained_fraction"`
}

// RetentionStats is the viewer retention curve of an on-demand video:
// for each playback second, the fraction of sessions still watching at
// that second relative to the viewers at second 0. Non-increasing by
// construction; the aggregator enforces this as an invariant.
type RetentionStats struct {
	VideoID uuid.UUID        `json:"video_id"`
	Points  []RetentionPoint `json:"points"`
}

// SessionPeak is a viewer session's furthest reported playback second,
// the raw material of the retention curve.
type SessionPeak struct {
	ViewerSessionID string
	MaxPosition     int64
}
