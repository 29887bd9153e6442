// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package ownership

import (
	"context"

	"github.com/kukhariev/viewscope/internal/apperr"
	"github.com/kukhariev/viewscope/internal/auth"
	"github.com/kukhariev/viewscope/internal/models"
)

// Resolver decides stats visibility for a caller and a video.
type Resolver struct {
	enforcer *Enforcer
}

// NewResolver creates a resolver backed by the given enforcer.
func NewResolver(enforcer *Enforcer) *Resolver {
	return &Resolver{enforcer: enforcer}
}

// IsLocal reports whether the video originates from this instance.
// Stats reads are only ever allowed for local videos; federated copies
// are mirrored metadata, not data this instance is authoritative for.
func (r *Resolver) IsLocal(video *models.Video) bool {
	return video.IsLocal
}

// CanReadStats returns nil when the caller may read the video's stats.
// The failure is always an AuthorizationError: the caller is known,
// the video exists, but the pairing is not entitled. Error messages do
// not disclose who owns the video.
func (r *Resolver) CanReadStats(_ context.Context, claims *auth.Claims, video *models.Video) error {
	if !r.IsLocal(video) {
		return apperr.NewAuthorization("stats are only available for local videos")
	}

	if claims.AccountID != "" && claims.AccountID == video.OwnerAccountID {
		return nil
	}

	allowed, err := r.enforcer.EnforceAnyRole(claims.AccountID, claims.Roles, ObjectStats, ActionRead)
	if err != nil {
		return apperr.NewTransientStore("authorize stats read", err)
	}
	if !allowed {
		return apperr.NewAuthorization("not allowed to read stats for this video")
	}
	return nil
}
