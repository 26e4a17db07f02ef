// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Lookup upserts share one shape: insert with a fresh UUID, on conflict
// update descriptive columns through COALESCE so NULL never erases an
// existing value, then read the surviving row's key back. The read-back is
// required because a conflicting insert discards the candidate UUID. Key
// columns are cast to VARCHAR on the way out; the driver scans a bare UUID
// column as raw bytes, which cannot be bound back as a parameter.

// UpsertGenre upserts a genre by its TMDB ID and returns the internal ID.
func (db *DB) UpsertGenre(tx *sql.Tx, tmdbID int64, name string) (string, error) {
	_, err := tx.Exec(`
		INSERT INTO genre (id, tmdb_id, name)
		VALUES (?, ?, ?)
		ON CONFLICT (tmdb_id) DO UPDATE SET
			name = COALESCE(EXCLUDED.name, name)`,
		uuid.New().String(), tmdbID, nullIfBlank(name))
	if err != nil {
		return "", fmt.Errorf("upsert genre %d: %w", tmdbID, err)
	}

	var id string
	if err := tx.QueryRow(`SELECT id::VARCHAR FROM genre WHERE tmdb_id = ?`, tmdbID).Scan(&id); err != nil {
		return "", fmt.Errorf("lookup genre %d: %w", tmdbID, err)
	}
	return id, nil
}

// UpsertLanguage upserts a language by ISO 639-1 code. Descriptive fields
// only ever fill in, never blank out.
func (db *DB) UpsertLanguage(tx *sql.Tx, iso639 string, name, englishName string) error {
	_, err := tx.Exec(`
		INSERT INTO language (iso_639_1, name, english_name)
		VALUES (?, ?, ?)
		ON CONFLICT (iso_639_1) DO UPDATE SET
			name = COALESCE(EXCLUDED.name, name),
			english_name = COALESCE(EXCLUDED.english_name, english_name)`,
		iso639, nullIfBlank(name), nullIfBlank(englishName))
	if err != nil {
		return fmt.Errorf("upsert language %q: %w", iso639, err)
	}
	return nil
}

// UpsertCountry upserts a country by ISO 3166-1 code.
func (db *DB) UpsertCountry(tx *sql.Tx, iso3166 string, name string) error {
	_, err := tx.Exec(`
		INSERT INTO country (iso_3166_1, name)
		VALUES (?, ?)
		ON CONFLICT (iso_3166_1) DO UPDATE SET
			name = COALESCE(EXCLUDED.name, name)`,
		iso3166, nullIfBlank(name))
	if err != nil {
		return fmt.Errorf("upsert country %q: %w", iso3166, err)
	}
	return nil
}

// UpsertCountryType upserts a country-role qualifier (e.g. "production")
// and returns its internal ID.
func (db *DB) UpsertCountryType(tx *sql.Tx, code string) (string, error) {
	_, err := tx.Exec(`
		INSERT INTO country_type (id, code)
		VALUES (?, ?)
		ON CONFLICT (code) DO NOTHING`,
		uuid.New().String(), code)
	if err != nil {
		return "", fmt.Errorf("upsert country_type %q: %w", code, err)
	}

	var id string
	if err := tx.QueryRow(`SELECT id::VARCHAR FROM country_type WHERE code = ?`, code).Scan(&id); err != nil {
		return "", fmt.Errorf("lookup country_type %q: %w", code, err)
	}
	return id, nil
}

// UpsertProductionCompany upserts a company by TMDB ID and returns the
// internal ID.
func (db *DB) UpsertProductionCompany(tx *sql.Tx, tmdbID int64, name, originCountry, logoPath string) (string, error) {
	_, err := tx.Exec(`
		INSERT INTO production_company (id, tmdb_id, name, origin_country, logo_path)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (tmdb_id) DO UPDATE SET
			name = COALESCE(EXCLUDED.name, name),
			origin_country = COALESCE(EXCLUDED.origin_country, origin_country),
			logo_path = COALESCE(EXCLUDED.logo_path, logo_path)`,
		uuid.New().String(), tmdbID, nullIfBlank(name), nullIfBlank(originCountry), nullIfBlank(logoPath))
	if err != nil {
		return "", fmt.Errorf("upsert production_company %d: %w", tmdbID, err)
	}

	var id string
	if err := tx.QueryRow(`SELECT id::VARCHAR FROM production_company WHERE tmdb_id = ?`, tmdbID).Scan(&id); err != nil {
		return "", fmt.Errorf("lookup production_company %d: %w", tmdbID, err)
	}
	return id, nil
}

// UpsertDepartment upserts a crew department by name and returns its ID.
func (db *DB) UpsertDepartment(tx *sql.Tx, name string) (string, error) {
	_, err := tx.Exec(`
		INSERT INTO department (id, name)
		VALUES (?, ?)
		ON CONFLICT (name) DO NOTHING`,
		uuid.New().String(), name)
	if err != nil {
		return "", fmt.Errorf("upsert department %q: %w", name, err)
	}

	var id string
	if err := tx.QueryRow(`SELECT id::VARCHAR FROM department WHERE name = ?`, name).Scan(&id); err != nil {
		return "", fmt.Errorf("lookup department %q: %w", name, err)
	}
	return id, nil
}

// UpsertJob upserts a job within a department and returns its ID.
func (db *DB) UpsertJob(tx *sql.Tx, departmentID, name string) (string, error) {
	_, err := tx.Exec(`
		INSERT INTO job (id, department_id, name)
		VALUES (?, ?, ?)
		ON CONFLICT (department_id, name) DO NOTHING`,
		uuid.New().String(), departmentID, name)
	if err != nil {
		return "", fmt.Errorf("upsert job %q: %w", name, err)
	}

	var id string
	if err := tx.QueryRow(
		`SELECT id::VARCHAR FROM job WHERE department_id = ? AND name = ?`,
		departmentID, name,
	).Scan(&id); err != nil {
		return "", fmt.Errorf("lookup job %q: %w", name, err)
	}
	return id, nil
}

// UpsertWatchProvider upserts a streaming provider for a region and returns
// its internal ID. Display priority is regional, hence part of the row.
func (db *DB) UpsertWatchProvider(tx *sql.Tx, tmdbID int64, region, name, logoPath string, displayPriority int) (string, error) {
	_, err := tx.Exec(`
		INSERT INTO watch_provider (id, tmdb_id, region, name, logo_path, display_priority)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (tmdb_id, region) DO UPDATE SET
			name = COALESCE(EXCLUDED.name, name),
			logo_path = COALESCE(EXCLUDED.logo_path, logo_path),
			display_priority = COALESCE(EXCLUDED.display_priority, display_priority)`,
		uuid.New().String(), tmdbID, region, nullIfBlank(name), nullIfBlank(logoPath), displayPriority)
	if err != nil {
		return "", fmt.Errorf("upsert watch_provider %d/%s: %w", tmdbID, region, err)
	}

	var id string
	if err := tx.QueryRow(
		`SELECT id::VARCHAR FROM watch_provider WHERE tmdb_id = ? AND region = ?`,
		tmdbID, region,
	).Scan(&id); err != nil {
		return "", fmt.Errorf("lookup watch_provider %d/%s: %w", tmdbID, region, err)
	}
	return id, nil
}
