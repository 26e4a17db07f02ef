// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file search paths.
const ConfigPathEnvVar = "CATALOGUS_CONFIG"

// DefaultConfigPaths are searched in order for an optional YAML config file.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config/config.yaml",
	"/etc/catalogus/config.yaml",
}

// Load loads configuration with the precedence ENV > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
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

// envMappings maps flat environment variable names to koanf config paths.
// Unmapped variables are ignored so unrelated environment noise cannot
// perturb the configuration.
var envMappings = map[string]string{
	// TMDB
	"TMDB_API_TOKEN":        "tmdb.api_token",
	"TMDB_BASE_URL":         "tmdb.base_url",
	"TMDB_CALLS_PER_SECOND": "tmdb.calls_per_second",
	"TMDB_RETRY_DEADLINE":   "tmdb.retry_deadline",
	"TMDB_REQUEST_TIMEOUT":  "tmdb.request_timeout",
	"TMDB_BREAKER_ENABLED":  "tmdb.breaker_enabled",

	// Database
	"DUCKDB_PATH":         "database.path",
	"DUCKDB_MEMORY_LIMIT": "database.memory_limit",
	"DUCKDB_THREADS":      "database.threads",

	// Import
	"IMPORT_CONCURRENCY":        "import.concurrency",
	"IMPORT_MAX_PAGES_PER_YEAR": "import.max_pages_per_year",

	// Server
	"HTTP_HOST":             "server.host",
	"HTTP_PORT":             "server.port",
	"HTTP_READ_TIMEOUT":     "server.read_timeout",
	"HTTP_WRITE_TIMEOUT":    "server.write_timeout",
	"HTTP_SHUTDOWN_TIMEOUT": "server.shutdown_timeout",
	"HTTP_RATE_LIMIT":       "server.rate_limit",

	// Logging
	"LOG_LEVEL":  "logging.level",
	"LOG_FORMAT": "logging.format",
	"LOG_CALLER": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf config paths.
// Returning "" skips the variable.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
