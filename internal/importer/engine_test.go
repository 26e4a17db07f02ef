// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package importer

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/catalogus/catalogus/internal/database"
	model "github.com/catalogus/catalogus/internal/models/tmdb"
	"github.com/catalogus/catalogus/internal/tmdb"
)

func testEngine(t *testing.T, f *fakeFetcher) (*Engine, *database.DB) {
	t.Helper()
	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewEngine(db, f, NewPersonCache()), db
}

func count(t *testing.T, db *database.DB, table string) int64 {
	t.Helper()
	var n int64
	if err := db.Conn().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func matrixPayload() *model.MovieDetails {
	return &model.MovieDetails{
		ID:               603,
		IMDBID:           "tt0133093",
		Title:            "The Matrix",
		OriginalTitle:    "The Matrix",
		OriginalLanguage: "en",
		ReleaseDate:      "1999-03-31",
		Runtime:          136,
		Genres: []model.Genre{
			{ID: 28, Name: "Action"},
			{ID: 878, Name: "Science Fiction"},
		},
		ProductionCompanies: []model.ProductionCompany{
			{ID: 79, Name: "Village Roadshow Pictures", OriginCountry: "US"},
		},
		ProductionCountries: []model.ProductionCountry{
			{ISO3166_1: "US", Name: "United States of America"},
		},
		SpokenLanguages: []model.SpokenLanguage{
			{ISO639_1: "en", Name: "English", EnglishName: "English"},
		},
		AlternativeTitles: &model.AlternativeTitles{Titles: []model.AlternativeTitle{
			{ISO3166_1: "DE", Title: "Die Matrix"},
		}},
		Credits: &model.Credits{
			Cast: []model.CastMember{
				{ID: 6384, Name: "Keanu Reeves", Character: "Neo", Order: 0},
				{ID: 2975, Name: "Laurence Fishburne", Character: "Morpheus", Order: 1},
				// Duplicate credit rows appear in real payloads.
				{ID: 6384, Name: "Keanu Reeves", Character: "Neo", Order: 0},
			},
			Crew: []model.CrewMember{
				{ID: 9339, Name: "Lilly Wachowski", Department: "Directing", Job: "Director"},
				{ID: 9339, Name: "Lilly Wachowski", Department: "Writing", Job: "Screenplay"},
			},
		},
		WatchProviders: &model.WatchProviders{Results: map[string]model.RegionOffers{
			"US": {
				Link:     "https://example.test/us/603",
				Flatrate: []model.ProviderOffer{{ProviderID: 8, ProviderName: "Netflix"}},
				Buy:      []model.ProviderOffer{{ProviderID: 2, ProviderName: "Apple TV"}},
			},
		}},
	}
}

func TestEnginePersistsFullPayload(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{}
	e, db := testEngine(t, f)

	if err := e.Persist(context.Background(), matrixPayload()); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	checks := map[string]int64{
		"movie":                    1,
		"genre":                    2,
		"movie_genre":              2,
		"language":                 1,
		"movie_spoken_language":    1,
		"country":                  2, // US from production, DE from titles
		"movie_country":            1,
		"production_company":       1,
		"movie_production_company": 1,
		"movie_title":              1,
		"person":                   3,
		"movie_cast":               2, // duplicate credit collapsed
		"movie_crew":               2,
		"department":               2,
		"job":                      2,
		"watch_provider":           2,
		"movie_watch_provider":     2,
	}
	for table, want := range checks {
		if got := count(t, db, table); got != want {
			t.Errorf("%s rows = %d, want %d", table, got, want)
		}
	}
}

func TestEngineDeduplicatesRepeatedPayloadEntries(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{}
	e, db := testEngine(t, f)

	payload := &model.MovieDetails{
		ID:    1,
		Title: "A",
		Genres: []model.Genre{
			{ID: 28, Name: "Action"},
			{ID: 28, Name: "Action"},
		},
		SpokenLanguages: []model.SpokenLanguage{
			{ISO639_1: "en", Name: "English"},
			{ISO639_1: "en", Name: "English"},
		},
		ProductionCountries: []model.ProductionCountry{
			{ISO3166_1: "US", Name: "United States of America"},
			{ISO3166_1: "US", Name: "United States of America"},
		},
		ProductionCompanies: []model.ProductionCompany{
			{ID: 79, Name: "Village Roadshow Pictures"},
			{ID: 79, Name: "Village Roadshow Pictures"},
		},
	}
	if err := e.Persist(context.Background(), payload); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	checks := map[string]int64{
		"movie_genre":              1,
		"movie_spoken_language":    1,
		"movie_country":            1,
		"movie_production_company": 1,
	}
	for table, want := range checks {
		if got := count(t, db, table); got != want {
			t.Errorf("%s rows = %d, want %d", table, got, want)
		}
	}
}

func TestEngineReimportConverges(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{}
	e, db := testEngine(t, f)
	ctx := context.Background()

	if err := e.Persist(ctx, matrixPayload()); err != nil {
		t.Fatalf("first Persist: %v", err)
	}

	// Upstream dropped a genre, a cast member, and all providers.
	shrunk := matrixPayload()
	shrunk.Genres = shrunk.Genres[:1]
	shrunk.Credits.Cast = shrunk.Credits.Cast[:1]
	shrunk.WatchProviders = nil
	if err := e.Persist(ctx, shrunk); err != nil {
		t.Fatalf("second Persist: %v", err)
	}

	if got := count(t, db, "movie"); got != 1 {
		t.Errorf("movie rows = %d, want 1", got)
	}
	if got := count(t, db, "movie_genre"); got != 1 {
		t.Errorf("movie_genre rows = %d, want 1 after shrink", got)
	}
	if got := count(t, db, "movie_cast"); got != 1 {
		t.Errorf("movie_cast rows = %d, want 1 after shrink", got)
	}
	if got := count(t, db, "movie_watch_provider"); got != 0 {
		t.Errorf("movie_watch_provider rows = %d, want 0 after shrink", got)
	}
	// Lookup rows survive; only links are replaced.
	if got := count(t, db, "genre"); got != 2 {
		t.Errorf("genre rows = %d, want 2", got)
	}
	if got := count(t, db, "person"); got != 3 {
		t.Errorf("person rows = %d, want 3", got)
	}
}

func TestEngineSharesLookupRowsAcrossMovies(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{}
	e, db := testEngine(t, f)
	ctx := context.Background()

	a := &model.MovieDetails{ID: 1, Title: "A", Genres: []model.Genre{{ID: 28, Name: "Action"}}}
	b := &model.MovieDetails{ID: 2, Title: "B", Genres: []model.Genre{{ID: 28, Name: "Action"}}}

	if err := e.Persist(ctx, a); err != nil {
		t.Fatalf("Persist A: %v", err)
	}
	if err := e.Persist(ctx, b); err != nil {
		t.Fatalf("Persist B: %v", err)
	}

	if got := count(t, db, "genre"); got != 1 {
		t.Errorf("genre rows = %d, want 1 shared row", got)
	}
	if got := count(t, db, "movie_genre"); got != 2 {
		t.Errorf("movie_genre rows = %d, want 2", got)
	}
}

func TestEngineFetchesPersonOncePerRun(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{}
	e, _ := testEngine(t, f)
	ctx := context.Background()

	shared := []model.CastMember{{ID: 6384, Name: "Keanu Reeves", Character: "Neo"}}
	a := &model.MovieDetails{ID: 1, Title: "A", Credits: &model.Credits{Cast: shared}}
	b := &model.MovieDetails{ID: 2, Title: "B", Credits: &model.Credits{Cast: shared}}

	if err := e.Persist(ctx, a); err != nil {
		t.Fatalf("Persist A: %v", err)
	}
	if err := e.Persist(ctx, b); err != nil {
		t.Fatalf("Persist B: %v", err)
	}

	if got := f.personCalls.Load(); got != 1 {
		t.Errorf("person detail fetches = %d, want 1", got)
	}
}

func TestEngineSkipsFetchForStoredPerson(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{}
	e, db := testEngine(t, f)
	ctx := context.Background()

	if err := db.WithTx(ctx, "seed", func(tx *sql.Tx) error {
		_, err := db.UpsertPerson(tx, database.PersonRecord{TMDBID: 6384, Name: "Keanu Reeves"})
		return err
	}); err != nil {
		t.Fatal(err)
	}

	payload := &model.MovieDetails{ID: 1, Title: "A", Credits: &model.Credits{
		Cast: []model.CastMember{{ID: 6384, Name: "Keanu Reeves", Character: "Neo"}},
	}}
	if err := e.Persist(ctx, payload); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	if got := f.personCalls.Load(); got != 0 {
		t.Errorf("person detail fetches = %d, want 0 for stored person", got)
	}
}

func TestEnginePersonNotFoundUsesCreditName(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{
		personFn: func(context.Context, int64) (*model.PersonDetails, error) {
			return nil, tmdb.ErrNotFound
		},
	}
	e, db := testEngine(t, f)

	payload := &model.MovieDetails{ID: 1, Title: "A", Credits: &model.Credits{
		Cast: []model.CastMember{
			{ID: 10, Name: "Credited Name", Character: "X"},
			{ID: 11, Name: "", Character: "Y"},
		},
	}}
	if err := e.Persist(context.Background(), payload); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	var name string
	if err := db.Conn().QueryRow("SELECT name FROM person WHERE tmdb_id = 10").Scan(&name); err != nil {
		t.Fatal(err)
	}
	if name != "Credited Name" {
		t.Errorf("name = %q, want credit fallback", name)
	}

	if err := db.Conn().QueryRow("SELECT name FROM person WHERE tmdb_id = 11").Scan(&name); err != nil {
		t.Fatal(err)
	}
	if name != "Unknown" {
		t.Errorf("name = %q, want Unknown fallback", name)
	}
}

func TestEnginePersonFetchFailureFailsUnit(t *testing.T) {
	t.Parallel()

	boom := errors.New("upstream exploded")
	f := &fakeFetcher{
		personFn: func(context.Context, int64) (*model.PersonDetails, error) {
			return nil, boom
		},
	}
	e, db := testEngine(t, f)

	payload := &model.MovieDetails{ID: 1, Title: "A", Credits: &model.Credits{
		Cast: []model.CastMember{{ID: 10, Name: "X", Character: "Y"}},
	}}
	err := e.Persist(context.Background(), payload)
	if !errors.Is(err, boom) {
		t.Fatalf("Persist err = %v, want wrapped fetch error", err)
	}

	// Resolution happens before the movie transaction; nothing was stored.
	if got := count(t, db, "movie"); got != 0 {
		t.Errorf("movie rows = %d, want 0", got)
	}
}

func TestEngineStoresPersonAliases(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{
		personFn: func(_ context.Context, id int64) (*model.PersonDetails, error) {
			return &model.PersonDetails{
				ID:          id,
				Name:        "Keanu Reeves",
				AlsoKnownAs: []string{"K. Reeves", "Кіану Рівз"},
			}, nil
		},
	}
	e, db := testEngine(t, f)

	payload := &model.MovieDetails{ID: 1, Title: "A", Credits: &model.Credits{
		Cast: []model.CastMember{{ID: 6384, Name: "Keanu Reeves", Character: "Neo"}},
	}}
	if err := e.Persist(context.Background(), payload); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	if got := count(t, db, "person_alias"); got != 2 {
		t.Errorf("person_alias rows = %d, want 2", got)
	}
}

func TestEngineSyncGenres(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{}
	e, db := testEngine(t, f)

	genres := []model.Genre{{ID: 28, Name: "Action"}, {ID: 18, Name: "Drama"}}
	e.fetcher = &genreListFetcher{fakeFetcher: f, genres: genres}

	if err := e.SyncGenres(context.Background()); err != nil {
		t.Fatalf("SyncGenres: %v", err)
	}
	if got := count(t, db, "genre"); got != 2 {
		t.Errorf("genre rows = %d, want 2", got)
	}
}

// genreListFetcher overrides the genre list of the embedded fake.
type genreListFetcher struct {
	*fakeFetcher
	genres []model.Genre
}

func (g *genreListFetcher) FetchGenreList(context.Context) (*model.GenreList, error) {
	return &model.GenreList{Genres: g.genres}, nil
}
