// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/viewscope/config.yaml",
	"/etc/viewscope/config.yml",
}

// ConfigPathEnvVar overrides the config file search when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. Defaults are
// loaded first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            9400,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: 1 * time.Minute,
		},
		Database: DatabaseConfig{
			Path:      "/data/viewscope.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		Security: SecurityConfig{
			JWTSecret:    "",
			TokenTTL:     24 * time.Hour,
			RoleCacheTTL: 5 * time.Minute,
		},
		Views: ViewsConfig{
			DedupWindow:          1 * time.Hour,
			EnforceDurationBound: true,
			TokenStorePath:       "",
			BreakerMaxFailures:   5,
			BreakerOpenTimeout:   30 * time.Second,
		},
		Bus: BusConfig{
			BufferSize:          1024,
			PersistentSubscribe: false,
			CloseTimeout:        10 * time.Second,
		},
		Janitor: JanitorConfig{
			Interval:   10 * time.Minute,
			SessionTTL: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// VIEWSCOPE_SERVER_PORT -> server.port
	envProvider := env.Provider("VIEWSCOPE_", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when they arrive from env vars.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices
// for known slice fields. Env vars come in as plain strings.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf paths.
//
// Examples:
//   - VIEWSCOPE_SERVER_PORT        -> server.port
//   - VIEWSCOPE_DATABASE_PATH      -> database.path
//   - VIEWSCOPE_VIEWS_DEDUP_WINDOW -> views.dedup_window
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "VIEWSCOPE_"))

	// Explicit mappings for names where the section split is ambiguous.
	envMappings := map[string]string{
		"server_host":              "server.host",
		"server_port":              "server.port",
		"server_read_timeout":      "server.read_timeout",
		"server_write_timeout":     "server.write_timeout",
		"server_shutdown_timeout":  "server.shutdown_timeout",
		"server_cors_origins":      "server.cors_origins",
		"server_rate_limit_reqs":   "server.rate_limit_reqs",
		"server_rate_limit_window": "server.rate_limit_window",

		"database_path":       "database.path",
		"database_max_memory": "database.max_memory",
		"database_threads":    "database.threads",

		"security_jwt_secret":     "security.jwt_secret",
		"security_token_ttl":      "security.token_ttl",
		"security_role_cache_ttl": "security.role_cache_ttl",

		"views_dedup_window":           "views.dedup_window",
		"views_enforce_duration_bound": "views.enforce_duration_bound",
		"views_token_store_path":       "views.token_store_path",
		"views_breaker_max_failures":   "views.breaker_max_failures",
		"views_breaker_open_timeout":   "views.breaker_open_timeout",

		"bus_buffer_size":          "bus.buffer_size",
		"bus_persistent_subscribe": "bus.persistent_subscribe",
		"bus_close_timeout":        "bus.close_timeout",

		"janitor_interval":    "janitor.interval",
		"janitor_session_ttl": "janitor.session_ttl",

		"logging_level":  "logging.level",
		"logging_format": "logging.format",
		"logging_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Unknown vars fall back to section_key -> section.key on the first
	// underscore. Unmatched keys are ignored by Unmarshal.
	if idx := strings.Index(key, "_"); idx > 0 {
		return key[:idx] + "." + key[idx+1:]
	}
	return key
}
