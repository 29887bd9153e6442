// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

// Package metrics provides Prometheus instrumentation for:
//   - View ingestion (recorded, deduplicated, rejected)
//   - Database query performance (DuckDB)
//   - API endpoint latency and throughput
//   - Event bus publish/consume counts
//   - Store circuit breaker state
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// View ingestion metrics
	ViewsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "views_recorded_total",
			Help: "Total number of view events accepted and stored",
		},
	)

	ViewsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "views_deduplicated_total",
			Help: "Total number of view events collapsed into an existing view window",
		},
	)

	ViewsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "views_rejected_total",
			Help: "Total number of view events rejected before storage",
		},
		[]string{"reason"}, // "validation", "not_found", "store"
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Event bus metrics
	BusPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_messages_published_total",
			Help: "Total number of messages published to the event bus",
		},
		[]string{"topic"},
	)

	BusConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_messages_consumed_total",
			Help: "Total number of messages consumed from the event bus",
		},
		[]string{"topic"},
	)

	BusConsumeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_consume_failures_total",
			Help: "Total number of message handling failures",
		},
		[]string{"topic"},
	)

	// Circuit breaker state: 0=closed, 1=half-open, 2=open
	StoreBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_breaker_state",
			Help: "View store circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// Janitor metrics
	SessionsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_pruned_total",
			Help: "Total number of stale viewer sessions removed by the janitor",
		},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordViewRejected records a rejected view ingestion attempt.
func RecordViewRejected(reason string) {
	ViewsRejected.WithLabelValues(reason).Inc()
}
