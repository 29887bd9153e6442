// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package services

import (
	"context"
	"time"

	"github.com/kukhariev/viewscope/internal/logging"
	"github.com/kukhariev/viewscope/internal/metrics"
)

// SessionPruner removes continuation state not touched since the
// cutoff. Satisfied by *database.DB.
type SessionPruner interface {
	PruneStaleSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

// WindowGC reclaims space in the dedup window store. Satisfied by
// *views.WindowStore.
type WindowGC interface {
	RunGC() error
}

// JanitorService periodically prunes stale view sessions and runs
// value log GC on the window store. Pruning only touches continuation
// bookkeeping; raw view events are never deleted.
type JanitorService struct {
	pruner     SessionPruner
	windows    WindowGC
	interval   time.Duration
	sessionTTL time.Duration
}

// NewJanitorService creates the janitor.
func NewJanitorService(pruner SessionPruner, windows WindowGC, interval, sessionTTL time.Duration) *JanitorService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &JanitorService{
		pruner:     pruner,
		windows:    windows,
		interval:   interval,
		sessionTTL: sessionTTL,
	}
}

// Serve implements suture.Service.
func (s *JanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *JanitorService) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.sessionTTL)
	pruned, err := s.pruner.PruneStaleSessions(ctx, cutoff)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to prune stale view sessions")
	} else if pruned > 0 {
		metrics.SessionsPruned.Add(float64(pruned))
		logging.Debug().Int64("pruned", pruned).Msg("Pruned stale view sessions")
	}

	if s.windows != nil {
		if err := s.windows.RunGC(); err != nil {
			logging.Error().Err(err).Msg("Window store GC failed")
		}
	}
}

// String identifies the service in supervisor logs.
func (s *JanitorService) String() string {
	return "session-janitor"
}
