// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

// Package main is the entry point of the Viewscope server.
//
// Viewscope ingests playback view pings for videos, deduplicates them
// into viewer sessions, and serves ownership-gated statistics: overall
// totals, time series, and retention curves.
//
// The server initializes components in order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, config file,
//     VIEWSCOPE_ environment variables)
//  2. Logging: global zerolog logger
//  3. Database: DuckDB event store
//  4. Dedup window store: BadgerDB with TTL expiry
//  5. Event bus: in-process Watermill Pub/Sub
//  6. Authorization: Casbin enforcer with embedded RBAC policy
//  7. HTTP API: chi router behind the supervision tree
//
// Shutdown is signal driven: SIGINT and SIGTERM cancel the supervisor
// context, the HTTP server drains in-flight requests, and the database
// checkpoints before closing.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kukhariev/viewscope/internal/api"
	"github.com/kukhariev/viewscope/internal/auth"
	"github.com/kukhariev/viewscope/internal/config"
	"github.com/kukhariev/viewscope/internal/database"
	"github.com/kukhariev/viewscope/internal/eventbus"
	"github.com/kukhariev/viewscope/internal/logging"
	"github.com/kukhariev/viewscope/internal/ownership"
	"github.com/kukhariev/viewscope/internal/stats"
	"github.com/kukhariev/viewscope/internal/supervisor"
	"github.com/kukhariev/viewscope/internal/supervisor/services"
	"github.com/kukhariev/viewscope/internal/views"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("db_path", cfg.Database.Path).
		Dur("dedup_window", cfg.Views.DedupWindow).
		Msg("Starting Viewscope")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	windows, err := views.NewWindowStore(cfg.Views.TokenStorePath, cfg.Views.DedupWindow)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open dedup window store")
	}
	defer func() {
		if err := windows.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing window store")
		}
	}()

	bus := eventbus.New(&cfg.Bus)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	enforcer, err := ownership.NewEnforcer(&ownership.EnforcerConfig{
		CacheEnabled: cfg.Security.RoleCacheTTL > 0,
		CacheTTL:     cfg.Security.RoleCacheTTL,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create authorization enforcer")
	}
	defer enforcer.Close()

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create JWT manager")
	}

	recorder := views.NewRecorder(db, windows, bus, &cfg.Views)
	aggregator := stats.NewAggregator(db)
	resolver := ownership.NewResolver(enforcer)

	handler := api.NewHandler(db, recorder, aggregator, resolver)
	router := api.NewRouter(handler, jwtManager, &cfg.Server)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPService(server, cfg.Server.ShutdownTimeout))
	tree.AddBackgroundService(services.NewBusService(eventbus.NewConsumer(bus)))
	tree.AddBackgroundService(services.NewJanitorService(db, windows, cfg.Janitor.Interval, cfg.Janitor.SessionTTL))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", cfg.Server.Addr()).Msg("Viewscope ready")

	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Supervisor terminated unexpectedly")
		os.Exit(1)
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service missed shutdown timeout")
		}
	}

	logging.Info().Msg("Viewscope stopped")
}
