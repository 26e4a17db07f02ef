// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	})
	return db
}

func countRows(t *testing.T, db *DB, table string) int64 {
	t.Helper()
	var n int64
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestUpsertMovieIsIdempotent(t *testing.T) {
	t.Parallel()
	db := testDB(t)
	ctx := context.Background()

	rec := MovieRecord{TMDBID: 603, Title: "The Matrix", ReleaseDate: "1999-03-31", Runtime: 136}

	var firstID, secondID string
	if err := db.WithTx(ctx, "test", func(tx *sql.Tx) error {
		id, err := db.UpsertMovie(tx, rec)
		firstID = id
		return err
	}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	rec.Title = "The Matrix (1999)"
	if err := db.WithTx(ctx, "test", func(tx *sql.Tx) error {
		id, err := db.UpsertMovie(tx, rec)
		secondID = id
		return err
	}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if firstID != secondID {
		t.Errorf("internal ID changed across upserts: %q vs %q", firstID, secondID)
	}
	if n := countRows(t, db, "movie"); n != 1 {
		t.Errorf("movie rows = %d, want 1", n)
	}

	var title string
	if err := db.conn.QueryRow("SELECT title FROM movie WHERE tmdb_id = 603").Scan(&title); err != nil {
		t.Fatal(err)
	}
	if title != "The Matrix (1999)" {
		t.Errorf("title = %q, want updated value", title)
	}
}

func TestBlankFieldsStoreNull(t *testing.T) {
	t.Parallel()
	db := testDB(t)
	ctx := context.Background()

	rec := MovieRecord{TMDBID: 42, Title: "X", IMDBID: "  ", Tagline: "", ReleaseDate: "not-a-date"}
	if err := db.WithTx(ctx, "test", func(tx *sql.Tx) error {
		_, err := db.UpsertMovie(tx, rec)
		return err
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var imdbID, tagline sql.NullString
	var releaseDate sql.NullTime
	err := db.conn.QueryRow(
		"SELECT imdb_id, tagline, release_date FROM movie WHERE tmdb_id = 42",
	).Scan(&imdbID, &tagline, &releaseDate)
	if err != nil {
		t.Fatal(err)
	}
	if imdbID.Valid || tagline.Valid {
		t.Errorf("blank strings stored as non-NULL: imdb=%v tagline=%v", imdbID, tagline)
	}
	if releaseDate.Valid {
		t.Errorf("malformed date stored as non-NULL: %v", releaseDate)
	}
}

func TestLanguageUpsertNeverErasesValues(t *testing.T) {
	t.Parallel()
	db := testDB(t)
	ctx := context.Background()

	if err := db.WithTx(ctx, "test", func(tx *sql.Tx) error {
		return db.UpsertLanguage(tx, "en", "English", "English")
	}); err != nil {
		t.Fatal(err)
	}

	// A later payload knowing only the code must not blank out the names.
	if err := db.WithTx(ctx, "test", func(tx *sql.Tx) error {
		return db.UpsertLanguage(tx, "en", "", "")
	}); err != nil {
		t.Fatal(err)
	}

	var name, englishName string
	if err := db.conn.QueryRow(
		"SELECT name, english_name FROM language WHERE iso_639_1 = 'en'",
	).Scan(&name, &englishName); err != nil {
		t.Fatal(err)
	}
	if name != "English" || englishName != "English" {
		t.Errorf("language degraded to (%q, %q)", name, englishName)
	}

	// A richer later payload fills values in.
	if err := db.WithTx(ctx, "test", func(tx *sql.Tx) error {
		return db.UpsertLanguage(tx, "fr", "", "")
	}); err != nil {
		t.Fatal(err)
	}
	if err := db.WithTx(ctx, "test", func(tx *sql.Tx) error {
		return db.UpsertLanguage(tx, "fr", "Français", "French")
	}); err != nil {
		t.Fatal(err)
	}
	if err := db.conn.QueryRow(
		"SELECT name, english_name FROM language WHERE iso_639_1 = 'fr'",
	).Scan(&name, &englishName); err != nil {
		t.Fatal(err)
	}
	if name != "Français" || englishName != "French" {
		t.Errorf("language not filled in: (%q, %q)", name, englishName)
	}
}

func TestLookupIDsRoundTripAsParameters(t *testing.T) {
	t.Parallel()
	db := testDB(t)
	ctx := context.Background()

	var genreID string
	if err := db.WithTx(ctx, "test", func(tx *sql.Tx) error {
		id, err := db.UpsertGenre(tx, 28, "Action")
		genreID = id
		return err
	}); err != nil {
		t.Fatal(err)
	}

	// The returned key must be canonical UUID text, not the column's raw
	// bytes, so it can be bound straight back into later statements.
	if _, err := uuid.Parse(genreID); err != nil {
		t.Fatalf("id %q is not canonical UUID text: %v", genreID, err)
	}

	var name string
	if err := db.conn.QueryRow(
		"SELECT name FROM genre WHERE id = ?", genreID,
	).Scan(&name); err != nil {
		t.Fatalf("bind id back as parameter: %v", err)
	}
	if name != "Action" {
		t.Errorf("name = %q, want Action", name)
	}
}

func TestGenreUpsertKeepsNameOnBlank(t *testing.T) {
	t.Parallel()
	db := testDB(t)
	ctx := context.Background()

	var first, second string
	if err := db.WithTx(ctx, "test", func(tx *sql.Tx) error {
		id, err := db.UpsertGenre(tx, 28, "Action")
		first = id
		return err
	}); err != nil {
		t.Fatal(err)
	}

	// A degraded payload carrying only the TMDB ID must not blank the name.
	if err := db.WithTx(ctx, "test", func(tx *sql.Tx) error {
		id, err := db.UpsertGenre(tx, 28, "")
		second = id
		return err
	}); err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("internal id changed: %q -> %q", first, second)
	}

	var name string
	if err := db.conn.QueryRow(
		"SELECT name FROM genre WHERE tmdb_id = 28",
	).Scan(&name); err != nil {
		t.Fatal(err)
	}
	if name != "Action" {
		t.Errorf("name = %q, want Action", name)
	}
}

func TestClearMovieRelationsShrinksLinkSet(t *testing.T) {
	t.Parallel()
	db := testDB(t)
	ctx := context.Background()

	if err := db.WithTx(ctx, "test", func(tx *sql.Tx) error {
		movieID, err := db.UpsertMovie(tx, MovieRecord{TMDBID: 1, Title: "A"})
		if err != nil {
			return err
		}
		g1, err := db.UpsertGenre(tx, 28, "Action")
		if err != nil {
			return err
		}
		g2, err := db.UpsertGenre(tx, 878, "Science Fiction")
		if err != nil {
			return err
		}
		if err := db.LinkMovieGenre(tx, movieID, g1); err != nil {
			return err
		}
		return db.LinkMovieGenre(tx, movieID, g2)
	}); err != nil {
		t.Fatal(err)
	}
	if n := countRows(t, db, "movie_genre"); n != 2 {
		t.Fatalf("movie_genre rows = %d, want 2", n)
	}

	// Re-import with one genre: stale link must vanish, genre rows stay.
	if err := db.WithTx(ctx, "test", func(tx *sql.Tx) error {
		movieID, err := db.MovieIDByTMDB(tx, 1)
		if err != nil {
			return err
		}
		if err := db.ClearMovieRelations(tx, movieID); err != nil {
			return err
		}
		g1, err := db.UpsertGenre(tx, 28, "Action")
		if err != nil {
			return err
		}
		return db.LinkMovieGenre(tx, movieID, g1)
	}); err != nil {
		t.Fatal(err)
	}

	if n := countRows(t, db, "movie_genre"); n != 1 {
		t.Errorf("movie_genre rows = %d, want 1 after shrink", n)
	}
	if n := countRows(t, db, "genre"); n != 2 {
		t.Errorf("genre rows = %d, want 2 (lookups are never deleted)", n)
	}
}

func TestGenreSharedAcrossMovies(t *testing.T) {
	t.Parallel()
	db := testDB(t)
	ctx := context.Background()

	var id1, id2 string
	if err := db.WithTx(ctx, "test", func(tx *sql.Tx) error {
		var err error
		if id1, err = db.UpsertGenre(tx, 28, "Action"); err != nil {
			return err
		}
		id2, err = db.UpsertGenre(tx, 28, "Action")
		return err
	}); err != nil {
		t.Fatal(err)
	}

	if id1 != id2 {
		t.Errorf("same genre produced two IDs: %q vs %q", id1, id2)
	}
	if n := countRows(t, db, "genre"); n != 1 {
		t.Errorf("genre rows = %d, want 1", n)
	}
}

func TestReplacePersonAliases(t *testing.T) {
	t.Parallel()
	db := testDB(t)
	ctx := context.Background()

	var personID string
	if err := db.WithTx(ctx, "test", func(tx *sql.Tx) error {
		var err error
		personID, err = db.UpsertPerson(tx, PersonRecord{TMDBID: 6384, Name: "Keanu Reeves"})
		if err != nil {
			return err
		}
		return db.ReplacePersonAliases(tx, personID, []string{"K. Reeves", "Кіану Рівз", "  "})
	}); err != nil {
		t.Fatal(err)
	}
	if n := countRows(t, db, "person_alias"); n != 2 {
		t.Fatalf("alias rows = %d, want 2 (blank dropped)", n)
	}

	// Full replace: the stored set converges to the new payload.
	if err := db.WithTx(ctx, "test", func(tx *sql.Tx) error {
		return db.ReplacePersonAliases(tx, personID, []string{"Neo"})
	}); err != nil {
		t.Fatal(err)
	}
	if n := countRows(t, db, "person_alias"); n != 1 {
		t.Errorf("alias rows = %d, want 1 after replace", n)
	}
}

func TestWatchProviderUniquePerRegion(t *testing.T) {
	t.Parallel()
	db := testDB(t)
	ctx := context.Background()

	var us1, us2, de string
	if err := db.WithTx(ctx, "test", func(tx *sql.Tx) error {
		var err error
		if us1, err = db.UpsertWatchProvider(tx, 8, "US", "Netflix", "", 1); err != nil {
			return err
		}
		if us2, err = db.UpsertWatchProvider(tx, 8, "US", "Netflix", "", 2); err != nil {
			return err
		}
		de, err = db.UpsertWatchProvider(tx, 8, "DE", "Netflix", "", 5)
		return err
	}); err != nil {
		t.Fatal(err)
	}

	if us1 != us2 {
		t.Errorf("same provider+region produced two IDs")
	}
	if de == us1 {
		t.Errorf("different regions share one ID")
	}
	if n := countRows(t, db, "watch_provider"); n != 2 {
		t.Errorf("watch_provider rows = %d, want 2", n)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()
	db := testDB(t)
	ctx := context.Background()

	sentinel := errors.New("unit failed")
	err := db.WithTx(ctx, "test", func(tx *sql.Tx) error {
		if _, err := db.UpsertMovie(tx, MovieRecord{TMDBID: 99, Title: "Doomed"}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("WithTx err = %v, want sentinel", err)
	}

	if n := countRows(t, db, "movie"); n != 0 {
		t.Errorf("movie rows = %d after rollback, want 0", n)
	}
}

func TestJobScopedToDepartment(t *testing.T) {
	t.Parallel()
	db := testDB(t)
	ctx := context.Background()

	if err := db.WithTx(ctx, "test", func(tx *sql.Tx) error {
		writing, err := db.UpsertDepartment(tx, "Writing")
		if err != nil {
			return err
		}
		directing, err := db.UpsertDepartment(tx, "Directing")
		if err != nil {
			return err
		}
		// The same job name may exist in two departments.
		if _, err := db.UpsertJob(tx, writing, "Screenplay"); err != nil {
			return err
		}
		if _, err := db.UpsertJob(tx, directing, "Screenplay"); err != nil {
			return err
		}
		// Re-upserting must not duplicate.
		_, err = db.UpsertJob(tx, writing, "Screenplay")
		return err
	}); err != nil {
		t.Fatal(err)
	}

	if n := countRows(t, db, "job"); n != 2 {
		t.Errorf("job rows = %d, want 2", n)
	}
}

func TestStatsCountsRows(t *testing.T) {
	t.Parallel()
	db := testDB(t)
	ctx := context.Background()

	if err := db.WithTx(ctx, "test", func(tx *sql.Tx) error {
		if _, err := db.UpsertMovie(tx, MovieRecord{TMDBID: 1, Title: "A"}); err != nil {
			return err
		}
		if _, err := db.UpsertGenre(tx, 28, "Action"); err != nil {
			return err
		}
		_, err := db.UpsertPerson(tx, PersonRecord{TMDBID: 2, Name: "B"})
		return err
	}); err != nil {
		t.Fatal(err)
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Movies != 1 || stats.Genres != 1 || stats.People != 1 {
		t.Errorf("stats = %+v", stats)
	}
}
