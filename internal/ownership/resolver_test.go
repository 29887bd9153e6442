// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package ownership

import (
	"context"
	"testing"
	"time"

	"github.com/kukhariev/viewscope/internal/apperr"
	"github.com/kukhariev/viewscope/internal/auth"
	"github.com/kukhariev/viewscope/internal/models"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()

	enforcer, err := NewEnforcer(&EnforcerConfig{
		CacheEnabled: true,
		CacheTTL:     time.Minute,
	})
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	t.Cleanup(enforcer.Close)
	return NewResolver(enforcer)
}

func TestCanReadStats(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t)

	localVideo := &models.Video{OwnerAccountID: "owner-1", IsLocal: true}
	remoteVideo := &models.Video{OwnerAccountID: "owner-1", IsLocal: false}

	tests := []struct {
		name    string
		claims  *auth.Claims
		video   *models.Video
		wantErr bool
	}{
		{
			name:   "owner reads own video",
			claims: &auth.Claims{AccountID: "owner-1"},
			video:  localVideo,
		},
		{
			name:    "stranger denied",
			claims:  &auth.Claims{AccountID: "other-1"},
			video:   localVideo,
			wantErr: true,
		},
		{
			name:   "moderator role allowed",
			claims: &auth.Claims{AccountID: "other-1", Roles: []string{"moderator"}},
			video:  localVideo,
		},
		{
			name:   "admin role allowed",
			claims: &auth.Claims{AccountID: "other-1", Roles: []string{"admin"}},
			video:  localVideo,
		},
		{
			name:    "unknown role denied",
			claims:  &auth.Claims{AccountID: "other-1", Roles: []string{"viewer"}},
			video:   localVideo,
			wantErr: true,
		},
		{
			name:    "owner denied on remote video",
			claims:  &auth.Claims{AccountID: "owner-1"},
			video:   remoteVideo,
			wantErr: true,
		},
		{
			name:    "admin denied on remote video",
			claims:  &auth.Claims{AccountID: "other-1", Roles: []string{"admin"}},
			video:   remoteVideo,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := resolver.CanReadStats(context.Background(), tt.claims, tt.video)
			if tt.wantErr {
				if !apperr.IsAuthorization(err) {
					t.Fatalf("expected AuthorizationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected access, got %v", err)
			}
		})
	}
}

func TestEnforcerRoleGrant(t *testing.T) {
	t.Parallel()

	enforcer, err := NewEnforcer(DefaultEnforcerConfig())
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	t.Cleanup(enforcer.Close)

	allowed, err := enforcer.Enforce("acct-x", ObjectStats, ActionRead)
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	if allowed {
		t.Fatal("account without role should be denied")
	}

	if _, err := enforcer.AddRoleForUser("acct-x", "moderator"); err != nil {
		t.Fatalf("AddRoleForUser: %v", err)
	}

	allowed, err = enforcer.Enforce("acct-x", ObjectStats, ActionRead)
	if err != nil {
		t.Fatalf("Enforce after grant: %v", err)
	}
	if !allowed {
		t.Fatal("account with moderator role should be allowed")
	}
}

func TestDecisionCacheExpiry(t *testing.T) {
	t.Parallel()

	cache := newDecisionCache(10 * time.Millisecond)
	t.Cleanup(cache.stop)

	cache.set("sub", "obj", "act", true)
	if allowed, ok := cache.get("sub", "obj", "act"); !ok || !allowed {
		t.Fatal("expected cached allow")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := cache.get("sub", "obj", "act"); ok {
		t.Fatal("expected cache entry to expire")
	}
}
