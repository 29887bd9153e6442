// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/kukhariev/viewscope/internal/database"
	"github.com/kukhariev/viewscope/internal/models"
	"github.com/kukhariev/viewscope/internal/ownership"
	"github.com/kukhariev/viewscope/internal/stats"
	"github.com/kukhariev/viewscope/internal/views"
)

// VideoGetter looks up video metadata for stats and ingestion gates.
type VideoGetter interface {
	GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error)
	Ping(ctx context.Context) error
}

// Handler holds the dependencies of all HTTP handlers.
type Handler struct {
	db         VideoGetter
	recorder   *views.Recorder
	aggregator *stats.Aggregator
	resolver   *ownership.Resolver
}

// NewHandler creates the handler set.
func NewHandler(db *database.DB, recorder *views.Recorder, aggregator *stats.Aggregator, resolver *ownership.Resolver) *Handler {
	return &Handler{
		db:         db,
		recorder:   recorder,
		aggregator: aggregator,
		resolver:   resolver,
	}
}
