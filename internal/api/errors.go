// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package api

import (
	"net/http"

	"github.com/kukhariev/viewscope/internal/apperr"
	"github.com/kukhariev/viewscope/internal/logging"
)

// WriteAppError maps the application error taxonomy onto HTTP once,
// here, so handlers return domain errors and never pick status codes.
func (rw *ResponseWriter) WriteAppError(err error) {
	switch {
	case apperr.IsValidation(err):
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
	case apperr.IsAuthentication(err):
		rw.Unauthorized(err.Error())
	case apperr.IsAuthorization(err):
		rw.Forbidden(err.Error())
	case apperr.IsNotFound(err):
		rw.NotFound(err.Error())
	case apperr.IsTransient(err):
		logging.Error().Err(err).Msg("Transient store failure")
		rw.ServiceUnavailable("The store is temporarily unavailable")
	case apperr.IsStore(err):
		rw.DatabaseError(err)
	default:
		logging.Error().Err(err).Msg("Unhandled error")
		rw.InternalError("An unexpected error occurred")
	}
}
