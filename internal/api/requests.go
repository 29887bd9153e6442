// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package api

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/kukhariev/viewscope/internal/apperr"
	"github.com/kukhariev/viewscope/internal/auth"
)

// RecordViewRequest is the body of POST /videos/{videoID}/views.
// CurrentTime is a pointer so a missing field is distinguishable from
// an explicit zero: second 0 is a valid playback position.
type RecordViewRequest struct {
	CurrentTime *int64 `json:"currentTime" validate:"required,min=0"`

	// ViewerSessionID optionally pins the viewer session. When absent
	// the server derives one from the caller's identity or address.
	ViewerSessionID string `json:"viewerSessionId,omitempty" validate:"omitempty,max=128"`
}

// pathVideoID parses the {videoID} path parameter.
func pathVideoID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "videoID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.NewValidation("videoID", "must be a valid UUID")
	}
	return id, nil
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return apperr.NewValidation("body", "invalid JSON body: %v", err)
	}
	return nil
}

// viewerSessionID derives the viewer session identity for a ping. An
// authenticated account always maps to the same session id; anonymous
// viewers are bucketed by a hash of address and user agent so the same
// device continues the same session without being personally tracked.
func viewerSessionID(r *http.Request, req *RecordViewRequest) string {
	if req.ViewerSessionID != "" {
		return "client:" + req.ViewerSessionID
	}

	if identity := auth.IdentityFromContext(r.Context()); identity.Authenticated() {
		return "acct:" + identity.Claims.AccountID
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	sum := sha256.Sum256([]byte(host + "|" + r.UserAgent()))
	return "anon:" + hex.EncodeToString(sum[:8])
}

// timeRangeQuery parses optional startDate/endDate query parameters in
// RFC3339, falling back to the given defaults.
func timeRangeQuery(r *http.Request, defaultFrom, defaultTo time.Time) (time.Time, time.Time, error) {
	from, to := defaultFrom, defaultTo

	if raw := r.URL.Query().Get("startDate"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, apperr.NewValidation("startDate", "must be a valid RFC3339 timestamp")
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("endDate"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, apperr.NewValidation("endDate", "must be a valid RFC3339 timestamp")
		}
		to = parsed
	}

	if !to.After(from) {
		return time.Time{}, time.Time{}, apperr.NewValidation("endDate", "end date must be after start date")
	}
	return from, to, nil
}
