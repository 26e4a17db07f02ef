// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateImport(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateTMDB fails fast before any network call is attempted.
func (c *Config) validateTMDB() error {
	if c.TMDB.APIToken == "" {
		return fmt.Errorf("TMDB_API_TOKEN is required")
	}
	if c.TMDB.BaseURL == "" {
		return fmt.Errorf("TMDB_BASE_URL must not be empty")
	}
	if err := validateHTTPURL(c.TMDB.BaseURL, "TMDB_BASE_URL"); err != nil {
		return err
	}
	if c.TMDB.CallsPerSecond <= 0 {
		return fmt.Errorf("TMDB_CALLS_PER_SECOND must be positive, got %d", c.TMDB.CallsPerSecond)
	}
	if c.TMDB.RetryDeadline <= 0 {
		return fmt.Errorf("TMDB_RETRY_DEADLINE must be positive, got %s", c.TMDB.RetryDeadline)
	}
	if c.TMDB.RequestTimeout <= 0 {
		return fmt.Errorf("TMDB_REQUEST_TIMEOUT must be positive, got %s", c.TMDB.RequestTimeout)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateImport() error {
	if c.Import.Concurrency < 1 {
		return fmt.Errorf("IMPORT_CONCURRENCY must be at least 1, got %d", c.Import.Concurrency)
	}
	if c.Import.MaxPagesPerYear < 1 {
		return fmt.Errorf("IMPORT_MAX_PAGES_PER_YEAR must be at least 1, got %d", c.Import.MaxPagesPerYear)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimit < 1 {
		return fmt.Errorf("HTTP_RATE_LIMIT must be at least 1, got %d", c.Server.RateLimit)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

// validateHTTPURL checks that a URL is well-formed with an http(s) scheme.
func validateHTTPURL(raw, name string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme, got %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", name)
	}
	return nil
}
