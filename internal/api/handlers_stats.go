// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kukhariev/viewscope/internal/apperr"
	"github.com/kukhariev/viewscope/internal/auth"
	"github.com/kukhariev/viewscope/internal/models"
)

// maxTimeserieBuckets caps the number of buckets a single request may
// ask for.
const maxTimeserieBuckets = 1000

// defaultTimeserieInterval is the bucket width when the request does
// not specify one.
const defaultTimeserieInterval = 24 * time.Hour

// statsGate runs the shared stats checks in their fixed order:
// request shape first, then authentication, then video existence, then
// authorization. Each gate fails with its own error class, so a
// malformed request reads as malformed even without credentials, and a
// valid token is required before ownership is ever consulted.
func (h *Handler) statsGate(r *http.Request, videoID uuid.UUID) (*models.Video, error) {
	claims, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return nil, err
	}

	video, err := h.db.GetVideo(r.Context(), videoID)
	if err != nil {
		return nil, err
	}

	if err := h.resolver.CanReadStats(r.Context(), claims, video); err != nil {
		return nil, err
	}
	return video, nil
}

// OverallStats handles GET /api/v1/videos/{videoID}/stats/overall.
func (h *Handler) OverallStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	videoID, err := pathVideoID(r)
	if err != nil {
		rw.WriteAppError(err)
		return
	}

	video, err := h.statsGate(r, videoID)
	if err != nil {
		rw.WriteAppError(err)
		return
	}

	overall, err := h.aggregator.Overall(r.Context(), video)
	if err != nil {
		rw.WriteAppError(err)
		return
	}
	rw.Success(overall)
}

// TimeserieStats handles
// GET /api/v1/videos/{videoID}/stats/timeseries/{metric}.
//
// The metric is part of the request shape: an unknown metric is a bad
// request before authentication is even considered.
func (h *Handler) TimeserieStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	videoID, err := pathVideoID(r)
	if err != nil {
		rw.WriteAppError(err)
		return
	}

	metric, err := models.ParseMetric(chi.URLParam(r, "metric"))
	if err != nil {
		rw.WriteAppError(apperr.NewValidation("metric", "%s", err.Error()))
		return
	}

	interval := defaultTimeserieInterval
	if raw := r.URL.Query().Get("interval"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			rw.WriteAppError(apperr.NewValidation("interval", "must be a positive duration"))
			return
		}
		interval = parsed
	}

	video, err := h.statsGate(r, videoID)
	if err != nil {
		rw.WriteAppError(err)
		return
	}

	from, to, err := timeRangeQuery(r, video.CreatedAt, time.Now().UTC())
	if err != nil {
		rw.WriteAppError(err)
		return
	}
	if int64(to.Sub(from)/interval) > maxTimeserieBuckets {
		rw.WriteAppError(apperr.NewValidation("interval",
			"range would produce more than %d buckets", maxTimeserieBuckets))
		return
	}

	serie, err := h.aggregator.Timeserie(r.Context(), video, metric, from, to, interval)
	if err != nil {
		rw.WriteAppError(err)
		return
	}
	rw.Success(serie)
}

// RetentionStats handles GET /api/v1/videos/{videoID}/stats/retention.
func (h *Handler) RetentionStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	videoID, err := pathVideoID(r)
	if err != nil {
		rw.WriteAppError(err)
		return
	}

	video, err := h.statsGate(r, videoID)
	if err != nil {
		rw.WriteAppError(err)
		return
	}

	retention, err := h.aggregator.Retention(r.Context(), video)
	if err != nil {
		rw.WriteAppError(err)
		return
	}
	rw.Success(retention)
}
