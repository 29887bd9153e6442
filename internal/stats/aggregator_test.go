// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kukhariev/viewscope/internal/apperr"
	"github.com/kukhariev/viewscope/internal/models"
)

// fakeSource is an in-memory EventSource for aggregator tests.
type fakeSource struct {
	events []models.ViewEvent
	peaks  []models.SessionPeak
}

func (f *fakeSource) CountViewEvents(_ context.Context, _ uuid.UUID) (int64, error) {
	return int64(len(f.events)), nil
}

func (f *fakeSource) CountDistinctViewers(_ context.Context, _ uuid.UUID) (int64, error) {
	seen := make(map[string]struct{})
	for _, e := range f.events {
		seen[e.ViewerSessionID] = struct{}{}
	}
	return int64(len(seen)), nil
}

func (f *fakeSource) TotalWatchTime(_ context.Context, _ uuid.UUID) (int64, error) {
	var total int64
	for _, p := range f.peaks {
		total += p.MaxPosition
	}
	return total, nil
}

func (f *fakeSource) ViewEventsInRange(_ context.Context, _ uuid.UUID, from, to time.Time) ([]models.ViewEvent, error) {
	var out []models.ViewEvent
	for _, e := range f.events {
		if !e.RecordedAt.Before(from) && e.RecordedAt.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeSource) SessionPeaks(_ context.Context, _ uuid.UUID) ([]models.SessionPeak, error) {
	return f.peaks, nil
}

func vodVideo(duration int64) *models.Video {
	return &models.Video{
		ID:       uuid.New(),
		IsLocal:  true,
		Duration: duration,
	}
}

func TestOverall(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	source := &fakeSource{
		events: []models.ViewEvent{
			{ViewerSessionID: "a", RecordedAt: now},
			{ViewerSessionID: "a", RecordedAt: now.Add(time.Minute)},
			{ViewerSessionID: "b", RecordedAt: now},
		},
		peaks: []models.SessionPeak{
			{ViewerSessionID: "a", MaxPosition: 60},
			{ViewerSessionID: "b", MaxPosition: 20},
		},
	}

	agg := NewAggregator(source)
	got, err := agg.Overall(context.Background(), vodVideo(120))
	if err != nil {
		t.Fatalf("Overall: %v", err)
	}

	if got.TotalViews != 3 {
		t.Errorf("TotalViews = %d, want 3", got.TotalViews)
	}
	if got.ViewersCount != 2 {
		t.Errorf("ViewersCount = %d, want 2", got.ViewersCount)
	}
	if got.TotalWatchTime != 80 {
		t.Errorf("TotalWatchTime = %d, want 80", got.TotalWatchTime)
	}
	if got.AverageWatchTime != 40 {
		t.Errorf("AverageWatchTime = %v, want 40", got.AverageWatchTime)
	}
}

func TestOverallNoViewers(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(&fakeSource{})
	got, err := agg.Overall(context.Background(), vodVideo(120))
	if err != nil {
		t.Fatalf("Overall: %v", err)
	}
	if got.AverageWatchTime != 0 {
		t.Errorf("AverageWatchTime = %v, want 0", got.AverageWatchTime)
	}
}

func TestTimeserieViews(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(3 * time.Hour)

	source := &fakeSource{
		events: []models.ViewEvent{
			{ViewerSessionID: "a", RecordedAt: from.Add(5 * time.Minute)},
			{ViewerSessionID: "b", RecordedAt: from.Add(30 * time.Minute)},
			// Exactly on the second bucket boundary: counts in bucket 1.
			{ViewerSessionID: "a", RecordedAt: from.Add(time.Hour)},
			{ViewerSessionID: "c", RecordedAt: from.Add(2*time.Hour + time.Minute)},
		},
	}

	agg := NewAggregator(source)
	got, err := agg.Timeserie(context.Background(), vodVideo(120), models.MetricViews, from, to, time.Hour)
	if err != nil {
		t.Fatalf("Timeserie: %v", err)
	}

	if len(got.Buckets) != 3 {
		t.Fatalf("len(Buckets) = %d, want 3", len(got.Buckets))
	}
	wantValues := []int64{2, 1, 1}
	var sum int64
	for i, bucket := range got.Buckets {
		if bucket.Value != wantValues[i] {
			t.Errorf("bucket %d value = %d, want %d", i, bucket.Value, wantValues[i])
		}
		wantStart := from.Add(time.Duration(i) * time.Hour)
		if !bucket.BucketStart.Equal(wantStart) {
			t.Errorf("bucket %d start = %v, want %v", i, bucket.BucketStart, wantStart)
		}
		sum += bucket.Value
	}
	if sum != int64(len(source.events)) {
		t.Errorf("bucket sum = %d, want %d", sum, len(source.events))
	}
}

func TestTimeserieViewersDistinctPerBucket(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(2 * time.Hour)

	source := &fakeSource{
		events: []models.ViewEvent{
			{ViewerSessionID: "a", RecordedAt: from.Add(time.Minute)},
			{ViewerSessionID: "a", RecordedAt: from.Add(2 * time.Minute)},
			{ViewerSessionID: "b", RecordedAt: from.Add(3 * time.Minute)},
			{ViewerSessionID: "a", RecordedAt: from.Add(time.Hour + time.Minute)},
		},
	}

	agg := NewAggregator(source)
	got, err := agg.Timeserie(context.Background(), vodVideo(120), models.MetricViewers, from, to, time.Hour)
	if err != nil {
		t.Fatalf("Timeserie: %v", err)
	}

	if len(got.Buckets) != 2 {
		t.Fatalf("len(Buckets) = %d, want 2", len(got.Buckets))
	}
	if got.Buckets[0].Value != 2 {
		t.Errorf("bucket 0 viewers = %d, want 2", got.Buckets[0].Value)
	}
	if got.Buckets[1].Value != 1 {
		t.Errorf("bucket 1 viewers = %d, want 1", got.Buckets[1].Value)
	}
}

func TestTimeserieZeroFill(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(4 * time.Hour)

	agg := NewAggregator(&fakeSource{})
	got, err := agg.Timeserie(context.Background(), vodVideo(120), models.MetricViews, from, to, time.Hour)
	if err != nil {
		t.Fatalf("Timeserie: %v", err)
	}

	if len(got.Buckets) != 4 {
		t.Fatalf("len(Buckets) = %d, want 4", len(got.Buckets))
	}
	for i, bucket := range got.Buckets {
		if bucket.Value != 0 {
			t.Errorf("bucket %d value = %d, want 0", i, bucket.Value)
		}
	}
}

func TestTimeserieValidation(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	agg := NewAggregator(&fakeSource{})

	tests := []struct {
		name     string
		metric   models.Metric
		from, to time.Time
		interval time.Duration
	}{
		{"unknown metric", models.Metric("hello"), from, from.Add(time.Hour), time.Hour},
		{"zero interval", models.MetricViews, from, from.Add(time.Hour), 0},
		{"end before start", models.MetricViews, from, from.Add(-time.Hour), time.Hour},
		{"end equals start", models.MetricViews, from, from, time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := agg.Timeserie(context.Background(), vodVideo(120), tt.metric, tt.from, tt.to, tt.interval)
			if !apperr.IsValidation(err) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestRetentionCurve(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		peaks: []models.SessionPeak{
			{ViewerSessionID: "a", MaxPosition: 100},
			{ViewerSessionID: "b", MaxPosition: 50},
			{ViewerSessionID: "c", MaxPosition: 10},
			{ViewerSessionID: "d", MaxPosition: 0},
		},
	}

	agg := NewAggregator(source)
	got, err := agg.Retention(context.Background(), vodVideo(100))
	if err != nil {
		t.Fatalf("Retention: %v", err)
	}

	if len(got.Points) == 0 {
		t.Fatal("expected retention points")
	}
	if got.Points[0].PlaybackSecond != 0 {
		t.Errorf("first point second = %d, want 0", got.Points[0].PlaybackSecond)
	}
	if got.Points[0].RetainedFraction != 1.0 {
		t.Errorf("retention at 0 = %v, want 1.0", got.Points[0].RetainedFraction)
	}

	// Non-increasing along the whole curve.
	for i := 1; i < len(got.Points); i++ {
		if got.Points[i].RetainedFraction > got.Points[i-1].RetainedFraction {
			t.Errorf("retention increased at point %d: %v > %v",
				i, got.Points[i].RetainedFraction, got.Points[i-1].RetainedFraction)
		}
	}

	last := got.Points[len(got.Points)-1]
	if last.PlaybackSecond != 100 {
		t.Errorf("last point second = %d, want 100", last.PlaybackSecond)
	}
	if last.RetainedFraction != 0.25 {
		t.Errorf("retention at end = %v, want 0.25", last.RetainedFraction)
	}
}

func TestRetentionLiveVideoRejected(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(&fakeSource{})
	video := &models.Video{ID: uuid.New(), IsLocal: true, IsLive: true}

	_, err := agg.Retention(context.Background(), video)
	if !apperr.IsValidation(err) {
		t.Fatalf("expected ValidationError for live video, got %v", err)
	}
}

func TestRetentionNoSessions(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(&fakeSource{})
	got, err := agg.Retention(context.Background(), vodVideo(100))
	if err != nil {
		t.Fatalf("Retention: %v", err)
	}
	if len(got.Points) != 0 {
		t.Errorf("expected empty curve, got %d points", len(got.Points))
	}
}

func TestRetentionPointCap(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		peaks: []models.SessionPeak{{ViewerSessionID: "a", MaxPosition: 90000}},
	}
	agg := NewAggregator(source)

	got, err := agg.Retention(context.Background(), vodVideo(90000))
	if err != nil {
		t.Fatalf("Retention: %v", err)
	}
	if len(got.Points) > retentionMaxPoints+1 {
		t.Errorf("len(Points) = %d, want at most %d", len(got.Points), retentionMaxPoints+1)
	}
}

func TestClampNonIncreasing(t *testing.T) {
	t.Parallel()

	points := []models.RetentionPoint{
		{PlaybackSecond: 0, RetainedFraction: 1.0},
		{PlaybackSecond: 10, RetainedFraction: 0.5},
		{PlaybackSecond: 20, RetainedFraction: 0.8},
		{PlaybackSecond: 30, RetainedFraction: 0.4},
	}

	if clamped := clampNonIncreasing(points); clamped != 1 {
		t.Errorf("clamped = %d, want 1", clamped)
	}
	for i := 1; i < len(points); i++ {
		if points[i].RetainedFraction > points[i-1].RetainedFraction {
			t.Errorf("point %d = %f exceeds predecessor %f",
				i, points[i].RetainedFraction, points[i-1].RetainedFraction)
		}
	}
	if points[2].RetainedFraction != 0.5 {
		t.Errorf("clamped fraction = %f, want 0.5", points[2].RetainedFraction)
	}

	valid := []models.RetentionPoint{
		{PlaybackSecond: 0, RetainedFraction: 1.0},
		{PlaybackSecond: 10, RetainedFraction: 1.0},
		{PlaybackSecond: 20, RetainedFraction: 0.2},
	}
	if clamped := clampNonIncreasing(valid); clamped != 0 {
		t.Errorf("clamped on valid curve = %d, want 0", clamped)
	}
}

func TestAggregatorCanceledContext(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC().Truncate(time.Hour)
	source := &fakeSource{
		events: []models.ViewEvent{
			{ViewerSessionID: "a", RecordedAt: now},
			{ViewerSessionID: "b", RecordedAt: now.Add(time.Minute)},
		},
		peaks: []models.SessionPeak{{ViewerSessionID: "a", MaxPosition: 90}},
	}
	agg := NewAggregator(source)
	video := vodVideo(120)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := agg.Timeserie(ctx, video, models.MetricViews, now, now.Add(time.Hour), time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("Timeserie with canceled context: err = %v, want %v", err, context.Canceled)
	}
	if _, err := agg.Retention(ctx, video); !errors.Is(err, context.Canceled) {
		t.Errorf("Retention with canceled context: err = %v, want %v", err, context.Canceled)
	}
}
