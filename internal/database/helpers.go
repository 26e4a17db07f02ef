// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package database

import (
	"strings"
	"time"
)

// nullIfBlank normalizes blank or whitespace-only strings to NULL so an
// absent upstream value never overwrites stored data through COALESCE.
func nullIfBlank(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return trimmed
}

// nullDate parses an ISO date, storing NULL for blank or malformed input
// rather than failing the enclosing write.
func nullDate(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return nil
	}
	return t
}

// nullIfZero normalizes non-positive integers to NULL.
func nullIfZero(n int64) any {
	if n <= 0 {
		return nil
	}
	return n
}
