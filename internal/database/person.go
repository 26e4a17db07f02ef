// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// PersonRecord is the storable shape of a person. Blank strings are
// normalized to NULL at write time.
type PersonRecord struct {
	TMDBID               int64
	Name                 string
	IMDBID               string
	Biography            string
	Birthday             string
	Deathday             string
	Gender               int
	Homepage             string
	KnownForDepartmentID string
	PlaceOfBirth         string
	Popularity           float64
	ProfilePath          string
	Adult                bool
}

// PersonIDByTMDB returns the internal ID for a TMDB person ID, or false
// when the person is not stored yet.
func (db *DB) PersonIDByTMDB(ctx context.Context, tmdbID int64) (string, bool, error) {
	var id string
	err := db.conn.QueryRowContext(ctx, `SELECT id::VARCHAR FROM person WHERE tmdb_id = ?`, tmdbID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup person %d: %w", tmdbID, err)
	}
	return id, true, nil
}

// UpsertPerson upserts a person by TMDB ID and returns the internal ID.
func (db *DB) UpsertPerson(tx *sql.Tx, rec PersonRecord) (string, error) {
	var deptID any
	if rec.KnownForDepartmentID != "" {
		deptID = rec.KnownForDepartmentID
	}

	_, err := tx.Exec(`
		INSERT INTO person (
			id, tmdb_id, name, imdb_id, biography, birthday, deathday,
			gender, homepage, known_for_department_id, place_of_birth,
			popularity, profile_path, adult, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, now())
		ON CONFLICT (tmdb_id) DO UPDATE SET
			name = COALESCE(EXCLUDED.name, name),
			imdb_id = COALESCE(EXCLUDED.imdb_id, imdb_id),
			biography = COALESCE(EXCLUDED.biography, biography),
			birthday = COALESCE(EXCLUDED.birthday, birthday),
			deathday = COALESCE(EXCLUDED.deathday, deathday),
			gender = EXCLUDED.gender,
			homepage = COALESCE(EXCLUDED.homepage, homepage),
			known_for_department_id = COALESCE(EXCLUDED.known_for_department_id, known_for_department_id),
			place_of_birth = COALESCE(EXCLUDED.place_of_birth, place_of_birth),
			popularity = EXCLUDED.popularity,
			profile_path = COALESCE(EXCLUDED.profile_path, profile_path),
			adult = EXCLUDED.adult,
			updated_at = now()`,
		uuid.New().String(), rec.TMDBID, rec.Name, nullIfBlank(rec.IMDBID),
		nullIfBlank(rec.Biography), nullDate(rec.Birthday), nullDate(rec.Deathday),
		rec.Gender, nullIfBlank(rec.Homepage), deptID, nullIfBlank(rec.PlaceOfBirth),
		rec.Popularity, nullIfBlank(rec.ProfilePath), rec.Adult)
	if err != nil {
		return "", fmt.Errorf("upsert person %d: %w", rec.TMDBID, err)
	}

	var id string
	if err := tx.QueryRow(`SELECT id::VARCHAR FROM person WHERE tmdb_id = ?`, rec.TMDBID).Scan(&id); err != nil {
		return "", fmt.Errorf("lookup person %d: %w", rec.TMDBID, err)
	}
	return id, nil
}

// ReplacePersonAliases replaces the full alias set of a person. Blank
// aliases are dropped.
func (db *DB) ReplacePersonAliases(tx *sql.Tx, personID string, aliases []string) error {
	if _, err := tx.Exec(`DELETE FROM person_alias WHERE person_id = ?`, personID); err != nil {
		return fmt.Errorf("clear aliases for %s: %w", personID, err)
	}

	for _, alias := range aliases {
		v := nullIfBlank(alias)
		if v == nil {
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO person_alias (id, person_id, alias) VALUES (?, ?, ?)`,
			uuid.New().String(), personID, v,
		); err != nil {
			return fmt.Errorf("insert alias for %s: %w", personID, err)
		}
	}
	return nil
}
