// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "port zero",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "port too large",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port",
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.Security.JWTSecret = "tooshort" },
			wantErr: "security.jwt_secret",
		},
		{
			name: "long jwt secret accepted",
			mutate: func(c *Config) {
				c.Security.JWTSecret = strings.Repeat("s", 32)
			},
			wantErr: "",
		},
		{
			name:    "zero dedup window",
			mutate:  func(c *Config) { c.Views.DedupWindow = 0 },
			wantErr: "views.dedup_window",
		},
		{
			name:    "negative token ttl",
			mutate:  func(c *Config) { c.Security.TokenTTL = -time.Hour },
			wantErr: "security.token_ttl",
		},
		{
			name:    "zero janitor interval",
			mutate:  func(c *Config) { c.Janitor.Interval = 0 },
			wantErr: "janitor.interval",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid config, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"VIEWSCOPE_SERVER_PORT", "server.port"},
		{"VIEWSCOPE_SERVER_RATE_LIMIT_WINDOW", "server.rate_limit_window"},
		{"VIEWSCOPE_DATABASE_PATH", "database.path"},
		{"VIEWSCOPE_DATABASE_MAX_MEMORY", "database.max_memory"},
		{"VIEWSCOPE_SECURITY_JWT_SECRET", "security.jwt_secret"},
		{"VIEWSCOPE_VIEWS_DEDUP_WINDOW", "views.dedup_window"},
		{"VIEWSCOPE_VIEWS_ENFORCE_DURATION_BOUND", "views.enforce_duration_bound"},
		{"VIEWSCOPE_JANITOR_SESSION_TTL", "janitor.session_ttl"},
		{"VIEWSCOPE_LOGGING_LEVEL", "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := envTransformFunc(tt.in); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()

	sc := ServerConfig{Host: "127.0.0.1", Port: 9400}
	if got := sc.Addr(); got != "127.0.0.1:9400" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:9400")
	}
}
