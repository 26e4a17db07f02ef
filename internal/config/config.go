// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package config

import (
	"time"
)

// Config holds all application configuration loaded from environment variables
// and an optional config file.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any setting
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	TMDB     TMDBConfig     `koanf:"tmdb"`
	Database DatabaseConfig `koanf:"database"`
	Import   ImportConfig   `koanf:"import"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// TMDBConfig holds TMDB API connection settings.
//
// Environment Variables:
//   - TMDB_API_TOKEN: Bearer token for api.themoviedb.org (required)
//   - TMDB_BASE_URL: API base URL override, mainly for testing
//   - TMDB_CALLS_PER_SECOND: Initial request pacing before header calibration
//   - TMDB_RETRY_DEADLINE: Wall-clock budget for retrying transient failures
type TMDBConfig struct {
	// APIToken is the TMDB v4 read access token. Required.
	APIToken string `koanf:"api_token"`

	// BaseURL is the TMDB API root. Default: https://api.themoviedb.org/3
	BaseURL string `koanf:"base_url"`

	// CallsPerSecond is the initial pacing rate before the first
	// X-RateLimit-Limit header is observed. Default: 50
	CallsPerSecond int `koanf:"calls_per_second"`

	// RetryDeadline bounds the total time spent retrying a single request
	// across transient failures. Default: 10s
	RetryDeadline time.Duration `koanf:"retry_deadline"`

	// RequestTimeout is the per-attempt HTTP timeout. Default: 30s
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// BreakerEnabled wraps the client in a circuit breaker. Default: true
	BreakerEnabled bool `koanf:"breaker_enabled"`
}

// DatabaseConfig holds DuckDB settings.
//
// Environment Variables:
//   - DUCKDB_PATH: Database file path (default: data/catalogus.duckdb)
//   - DUCKDB_MEMORY_LIMIT: Max memory for DuckDB (e.g. "2GB")
//   - DUCKDB_THREADS: Worker threads for DuckDB
type DatabaseConfig struct {
	// Path is the DuckDB file location. Use ":memory:" for an in-memory store.
	Path string `koanf:"path"`

	// MemoryLimit caps DuckDB memory usage. Empty means DuckDB default.
	MemoryLimit string `koanf:"memory_limit"`

	// Threads sets DuckDB worker threads. 0 means DuckDB default.
	Threads int `koanf:"threads"`
}

// ImportConfig holds import orchestration settings.
//
// Environment Variables:
//   - IMPORT_CONCURRENCY: Max import units executing simultaneously
//   - IMPORT_MAX_PAGES_PER_YEAR: Discover pagination cap per year
type ImportConfig struct {
	// Concurrency bounds simultaneously executing import units. Default: 10
	Concurrency int64 `koanf:"concurrency"`

	// MaxPagesPerYear caps discover pagination in year mode. Default: 500
	MaxPagesPerYear int `koanf:"max_pages_per_year"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST, HTTP_PORT: Listen address (default 0.0.0.0:8080)
//   - HTTP_RATE_LIMIT: Requests per minute per client IP
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// ReadTimeout and WriteTimeout guard slow clients. Import requests run
	// until completion, so WriteTimeout must cover the longest expected run.
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown. Default: 30s
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is the per-client request budget per minute. Default: 120
	RateLimit int `koanf:"rate_limit"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json or console (default: json)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, layered under file and
// environment configuration.
func defaultConfig() Config {
	return Config{
		TMDB: TMDBConfig{
			BaseURL:        "https://api.themoviedb.org/3",
			CallsPerSecond: 50,
			RetryDeadline:  10 * time.Second,
			RequestTimeout: 30 * time.Second,
			BreakerEnabled: true,
		},
		Database: DatabaseConfig{
			Path: "data/catalogus.duckdb",
		},
		Import: ImportConfig{
			Concurrency:     10,
			MaxPagesPerYear: 500,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			RateLimit:       120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
