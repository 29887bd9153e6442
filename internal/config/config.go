// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

// Package config holds the application configuration and its loader.
// Configuration is layered: built-in defaults, an optional YAML file,
// then environment variables, with later layers taking precedence.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration for the viewscope server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Views    ViewsConfig    `koanf:"views"`
	Bus      BusConfig      `koanf:"bus"`
	Janitor  JanitorConfig  `koanf:"janitor"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// DatabaseConfig controls the embedded DuckDB store.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// SecurityConfig controls authentication and authorization.
type SecurityConfig struct {
	JWTSecret    string        `koanf:"jwt_secret"`
	TokenTTL     time.Duration `koanf:"token_ttl"`
	RoleCacheTTL time.Duration `koanf:"role_cache_ttl"`
}

// ViewsConfig controls view event ingestion behavior.
type ViewsConfig struct {
	// DedupWindow is how long a viewer session counts as the same view.
	DedupWindow time.Duration `koanf:"dedup_window"`
	// EnforceDurationBound rejects positions beyond the video duration.
	EnforceDurationBound bool `koanf:"enforce_duration_bound"`
	// TokenStorePath is the on-disk location of the dedup token store.
	// Empty means in-memory only.
	TokenStorePath string `koanf:"token_store_path"`
	// BreakerMaxFailures opens the store circuit breaker after this
	// many consecutive append failures.
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerOpenTimeout time.Duration `koanf:"breaker_open_timeout"`
}

// BusConfig controls the in-process event bus.
type BusConfig struct {
	BufferSize          int           `koanf:"buffer_size"`
	PersistentSubscribe bool          `koanf:"persistent_subscribe"`
	CloseTimeout        time.Duration `koanf:"close_timeout"`
}

// JanitorConfig controls background session pruning.
type JanitorConfig struct {
	Interval   time.Duration `koanf:"interval"`
	SessionTTL time.Duration `koanf:"session_ttl"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that would prevent the
// server from operating correctly. It returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitReqs < 0 {
		return fmt.Errorf("server.rate_limit_reqs must not be negative, got %d", c.Server.RateLimitReqs)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Security.JWTSecret != "" && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters, got %d", len(c.Security.JWTSecret))
	}
	if c.Security.TokenTTL <= 0 {
		return fmt.Errorf("security.token_ttl must be positive, got %s", c.Security.TokenTTL)
	}
	if c.Views.DedupWindow <= 0 {
		return fmt.Errorf("views.dedup_window must be positive, got %s", c.Views.DedupWindow)
	}
	if c.Janitor.Interval <= 0 {
		return fmt.Errorf("janitor.interval must be positive, got %s", c.Janitor.Interval)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error, fatal, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// Addr returns the host:port string for the HTTP listener.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
