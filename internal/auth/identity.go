// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/kukhariev/viewscope/internal/apperr"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Identity is the outcome of credential extraction for one request.
// Exactly one of Claims or Err is set when credentials were presented;
// both are nil for anonymous requests.
type Identity struct {
	Claims *Claims
	Err    error
}

// Authenticated reports whether the request carries valid credentials.
func (id *Identity) Authenticated() bool {
	return id != nil && id.Claims != nil
}

// ExtractIdentity reads the Authorization header, validates any bearer
// token found, and stores the result in the request context. It never
// writes a response: enforcement happens in handlers so that request
// validation can run first.
func (m *JWTManager) ExtractIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := &Identity{}

		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				identity.Err = apperr.NewAuthentication("authorization header must use Bearer scheme")
			} else {
				claims, err := m.ValidateToken(tokenString)
				if err != nil {
					identity.Err = apperr.NewAuthentication("invalid or expired token")
				} else {
					identity.Claims = claims
				}
			}
		}

		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityFromContext returns the identity stored by ExtractIdentity,
// or nil when the middleware did not run.
func IdentityFromContext(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityContextKey).(*Identity); ok {
		return id
	}
	return nil
}

// RequireIdentity returns the validated claims or an authentication
// error suitable for the response. Call this from handlers once
// request validation has passed.
func RequireIdentity(ctx context.Context) (*Claims, error) {
	identity := IdentityFromContext(ctx)
	if identity == nil {
		return nil, apperr.NewAuthentication("authentication required")
	}
	if identity.Err != nil {
		return nil, identity.Err
	}
	if identity.Claims == nil {
		return nil, apperr.NewAuthentication("authentication required")
	}
	return identity.Claims, nil
}
