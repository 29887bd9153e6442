// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kukhariev/viewscope/internal/auth"
	"github.com/kukhariev/viewscope/internal/config"
	"github.com/kukhariev/viewscope/internal/middleware"
)

// Router builds the HTTP routing tree.
type Router struct {
	handler *Handler
	jwt     *auth.JWTManager
	cfg     *config.ServerConfig
}

// NewRouter wires handlers, identity extraction, and server config
// into a router builder.
func NewRouter(handler *Handler, jwt *auth.JWTManager, cfg *config.ServerConfig) *Router {
	return &Router{
		handler: handler,
		jwt:     jwt,
		cfg:     cfg,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health endpoints stay outside the rate limiter so monitoring
	// cannot starve itself out.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1/videos/{videoID}", func(r chi.Router) {
		if router.cfg.RateLimitReqs > 0 {
			r.Use(httprate.LimitByIP(router.cfg.RateLimitReqs, router.cfg.RateLimitWindow))
		}
		r.Use(middleware.PrometheusMetrics)
		// Identity extraction never rejects. Handlers validate the
		// request shape first and only then require credentials, so a
		// malformed request reads as 400 even without a token.
		r.Use(router.jwt.ExtractIdentity)

		r.Post("/views", router.handler.RecordView)

		r.Route("/stats", func(r chi.Router) {
			r.Get("/overall", router.handler.OverallStats)
			r.Get("/timeseries/{metric}", router.handler.TimeserieStats)
			r.Get("/retention", router.handler.RetentionStats)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
