// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaTimeout bounds schema creation statements.
const schemaTimeout = 30 * time.Second

// createSchema creates all tables and indexes if they do not exist.
//
// Every upsert anchor is declared as a UNIQUE constraint or primary key;
// DuckDB's ON CONFLICT requires one. Relation tables reference entity rows
// by UUID without FK constraints, because DuckDB disallows upserts on
// FK-referenced tables. Write ordering (entities before relations) keeps
// the references valid.
func (db *DB) createSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()

	statements := append(tableStatements(), indexStatements()...)
	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

func tableStatements() []string {
	return []string{
		// Entity tables.
		`CREATE TABLE IF NOT EXISTS movie (
			id UUID PRIMARY KEY,
			tmdb_id BIGINT NOT NULL UNIQUE,
			imdb_id TEXT,
			title TEXT,
			original_title TEXT,
			original_language_id TEXT,
			overview TEXT,
			tagline TEXT,
			status TEXT,
			homepage TEXT,
			release_date DATE,
			runtime INTEGER,
			budget BIGINT,
			revenue BIGINT,
			popularity DOUBLE,
			vote_average DOUBLE,
			vote_count BIGINT,
			adult BOOLEAN NOT NULL DEFAULT false,
			video BOOLEAN NOT NULL DEFAULT false,
			poster_path TEXT,
			backdrop_path TEXT,
			updated_at TIMESTAMP NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS genre (
			id UUID PRIMARY KEY,
			tmdb_id BIGINT NOT NULL UNIQUE,
			name TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS language (
			iso_639_1 TEXT PRIMARY KEY,
			name TEXT,
			english_name TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS country (
			iso_3166_1 TEXT PRIMARY KEY,
			name TEXT
		)`,

		// Qualifies movie-country links by role, e.g. "production".
		`CREATE TABLE IF NOT EXISTS country_type (
			id UUID PRIMARY KEY,
			code TEXT NOT NULL UNIQUE
		)`,

		`CREATE TABLE IF NOT EXISTS production_company (
			id UUID PRIMARY KEY,
			tmdb_id BIGINT NOT NULL UNIQUE,
			name TEXT,
			origin_country TEXT,
			logo_path TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS department (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,

		`CREATE TABLE IF NOT EXISTS job (
			id UUID PRIMARY KEY,
			department_id UUID NOT NULL,
			name TEXT NOT NULL,
			UNIQUE (department_id, name)
		)`,

		`CREATE TABLE IF NOT EXISTS person (
			id UUID PRIMARY KEY,
			tmdb_id BIGINT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			imdb_id TEXT,
			biography TEXT,
			birthday DATE,
			deathday DATE,
			gender INTEGER,
			homepage TEXT,
			known_for_department_id UUID,
			place_of_birth TEXT,
			popularity DOUBLE,
			profile_path TEXT,
			adult BOOLEAN NOT NULL DEFAULT false,
			updated_at TIMESTAMP NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS person_alias (
			id UUID PRIMARY KEY,
			person_id UUID NOT NULL,
			alias TEXT NOT NULL
		)`,

		// The same provider carries distinct display priorities per region,
		// so region is part of the identity.
		`CREATE TABLE IF NOT EXISTS watch_provider (
			id UUID PRIMARY KEY,
			tmdb_id BIGINT NOT NULL,
			region TEXT NOT NULL,
			name TEXT,
			logo_path TEXT,
			display_priority INTEGER,
			UNIQUE (tmdb_id, region)
		)`,

		// Relation tables, fully replaced per movie on re-import.
		`CREATE TABLE IF NOT EXISTS movie_genre (
			movie_id UUID NOT NULL,
			genre_id UUID NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS movie_spoken_language (
			movie_id UUID NOT NULL,
			language_id TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS movie_country (
			movie_id UUID NOT NULL,
			country_id TEXT NOT NULL,
			country_type_id UUID NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS movie_production_company (
			movie_id UUID NOT NULL,
			production_company_id UUID NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS movie_title (
			id UUID PRIMARY KEY,
			movie_id UUID NOT NULL,
			country_id TEXT,
			title TEXT NOT NULL,
			type TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS movie_cast (
			id UUID PRIMARY KEY,
			movie_id UUID NOT NULL,
			person_id UUID NOT NULL,
			character TEXT,
			billing_order INTEGER
		)`,

		`CREATE TABLE IF NOT EXISTS movie_crew (
			id UUID PRIMARY KEY,
			movie_id UUID NOT NULL,
			person_id UUID NOT NULL,
			department_id UUID,
			job_id UUID
		)`,

		`CREATE TABLE IF NOT EXISTS movie_watch_provider (
			id UUID PRIMARY KEY,
			movie_id UUID NOT NULL,
			watch_provider_id UUID NOT NULL,
			offer_type TEXT NOT NULL,
			region TEXT,
			link TEXT,
			UNIQUE (movie_id, watch_provider_id, offer_type)
		)`,
	}
}

func indexStatements() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_movie_genre_movie ON movie_genre(movie_id)`,
		`CREATE INDEX IF NOT EXISTS idx_movie_spoken_language_movie ON movie_spoken_language(movie_id)`,
		`CREATE INDEX IF NOT EXISTS idx_movie_country_movie ON movie_country(movie_id)`,
		`CREATE INDEX IF NOT EXISTS idx_movie_production_company_movie ON movie_production_company(movie_id)`,
		`CREATE INDEX IF NOT EXISTS idx_movie_title_movie ON movie_title(movie_id)`,
		`CREATE INDEX IF NOT EXISTS idx_movie_cast_movie ON movie_cast(movie_id)`,
		`CREATE INDEX IF NOT EXISTS idx_movie_crew_movie ON movie_crew(movie_id)`,
		`CREATE INDEX IF NOT EXISTS idx_movie_watch_provider_movie ON movie_watch_provider(movie_id)`,
		`CREATE INDEX IF NOT EXISTS idx_person_alias_person ON person_alias(person_id)`,
	}
}
