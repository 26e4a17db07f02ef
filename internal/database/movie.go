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

// MovieRecord is the storable shape of a movie. Blank strings and malformed
// dates are normalized to NULL at write time.
type MovieRecord struct {
	TMDBID             int64
	IMDBID             string
	Title              string
	OriginalTitle      string
	OriginalLanguageID string
	Overview           string
	Tagline            string
	Status             string
	Homepage           string
	ReleaseDate        string
	Runtime            int
	Budget             int64
	Revenue            int64
	Popularity         float64
	VoteAverage        float64
	VoteCount          int64
	Adult              bool
	Video              bool
	PosterPath         string
	BackdropPath       string
}

// UpsertMovie upserts a movie by TMDB ID and returns the internal ID.
// Unlike lookup tables, a re-imported movie takes the payload's values
// wholesale; the payload is the authoritative record.
func (db *DB) UpsertMovie(tx *sql.Tx, rec MovieRecord) (string, error) {
	_, err := tx.Exec(`
		INSERT INTO movie (
			id, tmdb_id, imdb_id, title, original_title, original_language_id,
			overview, tagline, status, homepage, release_date, runtime,
			budget, revenue, popularity, vote_average, vote_count,
			adult, video, poster_path, backdrop_path, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, now())
		ON CONFLICT (tmdb_id) DO UPDATE SET
			imdb_id = EXCLUDED.imdb_id,
			title = EXCLUDED.title,
			original_title = EXCLUDED.original_title,
			original_language_id = EXCLUDED.original_language_id,
			overview = EXCLUDED.overview,
			tagline = EXCLUDED.tagline,
			status = EXCLUDED.status,
			homepage = EXCLUDED.homepage,
			release_date = EXCLUDED.release_date,
			runtime = EXCLUDED.runtime,
			budget = EXCLUDED.budget,
			revenue = EXCLUDED.revenue,
			popularity = EXCLUDED.popularity,
			vote_average = EXCLUDED.vote_average,
			vote_count = EXCLUDED.vote_count,
			adult = EXCLUDED.adult,
			video = EXCLUDED.video,
			poster_path = EXCLUDED.poster_path,
			backdrop_path = EXCLUDED.backdrop_path,
			updated_at = now()`,
		uuid.New().String(), rec.TMDBID, nullIfBlank(rec.IMDBID),
		nullIfBlank(rec.Title), nullIfBlank(rec.OriginalTitle), nullIfBlank(rec.OriginalLanguageID),
		nullIfBlank(rec.Overview), nullIfBlank(rec.Tagline), nullIfBlank(rec.Status),
		nullIfBlank(rec.Homepage), nullDate(rec.ReleaseDate), nullIfZero(int64(rec.Runtime)),
		nullIfZero(rec.Budget), nullIfZero(rec.Revenue), rec.Popularity,
		rec.VoteAverage, rec.VoteCount, rec.Adult, rec.Video,
		nullIfBlank(rec.PosterPath), nullIfBlank(rec.BackdropPath))
	if err != nil {
		return "", fmt.Errorf("upsert movie %d: %w", rec.TMDBID, err)
	}

	var id string
	if err := tx.QueryRow(`SELECT id::VARCHAR FROM movie WHERE tmdb_id = ?`, rec.TMDBID).Scan(&id); err != nil {
		return "", fmt.Errorf("lookup movie %d: %w", rec.TMDBID, err)
	}
	return id, nil
}

// relationTables lists every relation cleared before re-linking a movie.
var relationTables = []string{
	"movie_genre",
	"movie_spoken_language",
	"movie_country",
	"movie_production_company",
	"movie_title",
	"movie_cast",
	"movie_crew",
	"movie_watch_provider",
}

// ClearMovieRelations deletes every relation row of a movie so the fresh
// payload fully replaces the stored link set. Rows absent upstream vanish.
func (db *DB) ClearMovieRelations(tx *sql.Tx, movieID string) error {
	for _, table := range relationTables {
		if _, err := tx.Exec(
			fmt.Sprintf(`DELETE FROM %s WHERE movie_id = ?`, table), movieID,
		); err != nil {
			return fmt.Errorf("clear %s for movie %s: %w", table, movieID, err)
		}
	}
	return nil
}

// LinkMovieGenre links a movie to a genre.
func (db *DB) LinkMovieGenre(tx *sql.Tx, movieID, genreID string) error {
	_, err := tx.Exec(
		`INSERT INTO movie_genre (movie_id, genre_id) VALUES (?, ?)`,
		movieID, genreID)
	if err != nil {
		return fmt.Errorf("link movie genre: %w", err)
	}
	return nil
}

// LinkMovieSpokenLanguage links a movie to a spoken language.
func (db *DB) LinkMovieSpokenLanguage(tx *sql.Tx, movieID, languageID string) error {
	_, err := tx.Exec(
		`INSERT INTO movie_spoken_language (movie_id, language_id) VALUES (?, ?)`,
		movieID, languageID)
	if err != nil {
		return fmt.Errorf("link movie spoken language: %w", err)
	}
	return nil
}

// LinkMovieCountry links a movie to a country with a role qualifier.
func (db *DB) LinkMovieCountry(tx *sql.Tx, movieID, countryID, countryTypeID string) error {
	_, err := tx.Exec(
		`INSERT INTO movie_country (movie_id, country_id, country_type_id) VALUES (?, ?, ?)`,
		movieID, countryID, countryTypeID)
	if err != nil {
		return fmt.Errorf("link movie country: %w", err)
	}
	return nil
}

// LinkMovieProductionCompany links a movie to a production company.
func (db *DB) LinkMovieProductionCompany(tx *sql.Tx, movieID, companyID string) error {
	_, err := tx.Exec(
		`INSERT INTO movie_production_company (movie_id, production_company_id) VALUES (?, ?)`,
		movieID, companyID)
	if err != nil {
		return fmt.Errorf("link movie production company: %w", err)
	}
	return nil
}

// InsertMovieTitle inserts an alternate title. Titles are not unique; the
// same movie may carry several titles per region.
func (db *DB) InsertMovieTitle(tx *sql.Tx, movieID, countryID, title, titleType string) error {
	var country any
	if countryID != "" {
		country = countryID
	}
	_, err := tx.Exec(
		`INSERT INTO movie_title (id, movie_id, country_id, title, type) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), movieID, country, title, nullIfBlank(titleType))
	if err != nil {
		return fmt.Errorf("insert movie title: %w", err)
	}
	return nil
}

// InsertMovieCast inserts an acting credit.
func (db *DB) InsertMovieCast(tx *sql.Tx, movieID, personID, character string, billingOrder int) error {
	_, err := tx.Exec(
		`INSERT INTO movie_cast (id, movie_id, person_id, character, billing_order) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), movieID, personID, nullIfBlank(character), billingOrder)
	if err != nil {
		return fmt.Errorf("insert movie cast: %w", err)
	}
	return nil
}

// InsertMovieCrew inserts a production credit.
func (db *DB) InsertMovieCrew(tx *sql.Tx, movieID, personID, departmentID, jobID string) error {
	var dept, job any
	if departmentID != "" {
		dept = departmentID
	}
	if jobID != "" {
		job = jobID
	}
	_, err := tx.Exec(
		`INSERT INTO movie_crew (id, movie_id, person_id, department_id, job_id) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), movieID, personID, dept, job)
	if err != nil {
		return fmt.Errorf("insert movie crew: %w", err)
	}
	return nil
}

// UpsertMovieWatchProvider records a streaming offer. The same provider and
// offer type may surface from several regions in one payload; the latest
// region and link win.
func (db *DB) UpsertMovieWatchProvider(tx *sql.Tx, movieID, providerID, offerType, region, link string) error {
	_, err := tx.Exec(`
		INSERT INTO movie_watch_provider (id, movie_id, watch_provider_id, offer_type, region, link)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (movie_id, watch_provider_id, offer_type) DO UPDATE SET
			region = EXCLUDED.region,
			link = EXCLUDED.link`,
		uuid.New().String(), movieID, providerID, offerType, nullIfBlank(region), nullIfBlank(link))
	if err != nil {
		return fmt.Errorf("upsert movie watch provider: %w", err)
	}
	return nil
}

// MovieIDByTMDB returns the internal ID for a TMDB movie ID.
func (db *DB) MovieIDByTMDB(tx *sql.Tx, tmdbID int64) (string, error) {
	var id string
	if err := tx.QueryRow(`SELECT id::VARCHAR FROM movie WHERE tmdb_id = ?`, tmdbID).Scan(&id); err != nil {
		return "", fmt.Errorf("lookup movie %d: %w", tmdbID, err)
	}
	return id, nil
}
