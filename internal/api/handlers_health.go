// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package api

import (
	"net/http"
	"time"
)

// HealthLive handles GET /api/v1/health/live. It answers as long as
// the process serves requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]any{"status": "alive"})
}

// HealthReady handles GET /api/v1/health/ready. Readiness requires a
// reachable database.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if err := h.db.Ping(r.Context()); err != nil {
		rw.ServiceUnavailable("database not reachable")
		return
	}
	rw.Success(map[string]any{"status": "ready"})
}

// Health handles GET /api/v1/health. It reports degraded rather than
// failing outright when the database is unreachable, so load balancers
// can distinguish a slow store from a dead process.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := "healthy"
	dbStatus := "up"
	code := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		status = "degraded"
		dbStatus = "down"
		code = http.StatusServiceUnavailable
	}

	rw.WriteStatus(code, map[string]any{
		"status":    status,
		"database":  dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
