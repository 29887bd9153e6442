// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package models

import (
	"testing"
	"time"
)

func TestParseMetric(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Metric
		wantErr bool
	}{
		{"views", MetricViews, false},
		{"viewers", MetricViewers, false},
		{"hello", "", true},
		{"", "", true},
		{"Viewers", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMetric(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMetric(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMetric(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMetricValid(t *testing.T) {
	t.Parallel()

	if !MetricViews.Valid() || !MetricViewers.Valid() {
		t.Error("enumeration members must be valid")
	}
	if Metric("hello").Valid() {
		t.Error("unknown metric must not be valid")
	}
}

func TestTimeserieIntervalSeconds(t *testing.T) {
	t.Parallel()

	ts := &TimeserieStats{Interval: 10 * time.Minute}
	if got := ts.IntervalSeconds(); got != 600 {
		t.Errorf("IntervalSeconds() = %d, want 600", got)
	}
}
