// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package api

import (
	"net/http"

	"github.com/kukhariev/viewscope/internal/validation"
)

// RecordView handles POST /api/v1/videos/{videoID}/views.
//
// Views are recordable anonymously: credentials, when present, only
// refine the viewer session identity. Request shape is validated
// before anything else so a malformed ping fails as a bad request
// regardless of who sent it.
func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	videoID, err := pathVideoID(r)
	if err != nil {
		rw.WriteAppError(err)
		return
	}

	var req RecordViewRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.WriteAppError(err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.WriteAppError(verr.ToAppError())
		return
	}

	// A client that retries after a lost response sends the same
	// Idempotency-Key; the recorder suppresses the duplicate append.
	dedupToken := r.Header.Get("Idempotency-Key")

	if _, err := h.recorder.Record(r.Context(), videoID, viewerSessionID(r, &req), *req.CurrentTime, dedupToken); err != nil {
		rw.WriteAppError(err)
		return
	}

	// Clients fire pings on a timer and ignore the body.
	rw.NoContent()
}
