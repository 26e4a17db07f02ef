// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/catalogus/catalogus/internal/database"
	"github.com/catalogus/catalogus/internal/logging"
	model "github.com/catalogus/catalogus/internal/models/tmdb"
	"github.com/catalogus/catalogus/internal/tmdb"
)

// productionCountryRole qualifies movie-country links sourced from the
// production_countries payload field.
const productionCountryRole = "production"

// unknownPersonName is stored when neither the person record nor the credit
// carries a usable name.
const unknownPersonName = "Unknown"

// offerTypes enumerates the monetization categories of a region's offers.
var offerTypes = []string{"flatrate", "buy", "rent", "ads", "free"}

// Engine persists one movie payload into the catalog.
//
// Person resolution performs network fetches and commits in standalone
// transactions before the movie transaction opens, so a movie rollback
// never invalidates a cached person ID and relation rows always reference
// committed person rows. Everything else for the unit commits atomically.
type Engine struct {
	db      *database.DB
	fetcher tmdb.Fetcher
	people  *PersonCache
}

// NewEngine creates an engine sharing the given run-scoped person cache.
func NewEngine(db *database.DB, fetcher tmdb.Fetcher, people *PersonCache) *Engine {
	return &Engine{db: db, fetcher: fetcher, people: people}
}

// resolvedCast is a deduplicated acting credit with its internal person ID.
type resolvedCast struct {
	personID  string
	character string
	order     int
}

// resolvedCrew is a deduplicated production credit with its internal
// person ID.
type resolvedCrew struct {
	personID   string
	department string
	job        string
}

// Persist stores a movie payload. All storage writes for the unit happen in
// one transaction; an error leaves the previously stored state intact.
func (e *Engine) Persist(ctx context.Context, d *model.MovieDetails) error {
	cast, crew, err := e.resolveCredits(ctx, d)
	if err != nil {
		return err
	}

	return e.db.WithTx(ctx, "movie_import", func(tx *sql.Tx) error {
		genreIDs, err := e.upsertLookups(tx, d)
		if err != nil {
			return err
		}

		movieID, err := e.db.UpsertMovie(tx, movieRecord(d))
		if err != nil {
			return err
		}

		if err := e.db.ClearMovieRelations(tx, movieID); err != nil {
			return err
		}

		if err := e.linkRelations(tx, movieID, d, genreIDs); err != nil {
			return err
		}

		if err := e.insertCredits(tx, movieID, cast, crew); err != nil {
			return err
		}

		return nil
	})
}

// resolveCredits deduplicates the payload's credits in memory and resolves
// every referenced person to an internal ID before the movie transaction.
func (e *Engine) resolveCredits(ctx context.Context, d *model.MovieDetails) ([]resolvedCast, []resolvedCrew, error) {
	if d.Credits == nil {
		return nil, nil, nil
	}

	type castKey struct {
		tmdbID    int64
		character string
	}
	type crewKey struct {
		tmdbID     int64
		department string
		job        string
	}

	var cast []resolvedCast
	seenCast := make(map[castKey]struct{})
	for _, c := range d.Credits.Cast {
		key := castKey{c.ID, c.Character}
		if _, dup := seenCast[key]; dup {
			continue
		}
		seenCast[key] = struct{}{}

		personID, err := e.resolvePerson(ctx, c.ID, c.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve cast member %d: %w", c.ID, err)
		}
		cast = append(cast, resolvedCast{personID: personID, character: c.Character, order: c.Order})
	}

	var crew []resolvedCrew
	seenCrew := make(map[crewKey]struct{})
	for _, c := range d.Credits.Crew {
		key := crewKey{c.ID, c.Department, c.Job}
		if _, dup := seenCrew[key]; dup {
			continue
		}
		seenCrew[key] = struct{}{}

		personID, err := e.resolvePerson(ctx, c.ID, c.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve crew member %d: %w", c.ID, err)
		}
		crew = append(crew, resolvedCrew{personID: personID, department: c.Department, job: c.Job})
	}

	return cast, crew, nil
}

// resolvePerson returns the internal ID of a person, consulting the run
// cache first. On a miss the person is looked up in storage, fetched from
// the API when absent, and upserted in a standalone committed transaction.
// A 404 on the detail fetch falls back to a minimal record built from the
// credit.
func (e *Engine) resolvePerson(ctx context.Context, tmdbID int64, creditName string) (string, error) {
	return e.people.Resolve(ctx, tmdbID, func(ctx context.Context) (string, error) {
		if id, ok, err := e.db.PersonIDByTMDB(ctx, tmdbID); err != nil {
			return "", err
		} else if ok {
			return id, nil
		}

		details, err := e.fetcher.FetchPersonDetails(ctx, tmdbID)
		if err != nil && !errors.Is(err, tmdb.ErrNotFound) {
			return "", err
		}
		if errors.Is(err, tmdb.ErrNotFound) {
			logging.Ctx(ctx).Debug().Int64("person_tmdb_id", tmdbID).
				Msg("Person not found upstream, storing credit-derived record")
		}

		rec, aliases := personRecord(tmdbID, creditName, details)

		var personID string
		err = e.db.WithTx(ctx, "person_upsert", func(tx *sql.Tx) error {
			if details != nil && strings.TrimSpace(details.KnownForDepartment) != "" {
				deptID, err := e.db.UpsertDepartment(tx, details.KnownForDepartment)
				if err != nil {
					return err
				}
				rec.KnownForDepartmentID = deptID
			}

			id, err := e.db.UpsertPerson(tx, rec)
			if err != nil {
				return err
			}
			personID = id

			return e.db.ReplacePersonAliases(tx, personID, aliases)
		})
		if err != nil {
			return "", err
		}
		return personID, nil
	})
}

// personRecord builds the storable person from the detail payload, falling
// back to the credit name and finally to "Unknown".
func personRecord(tmdbID int64, creditName string, details *model.PersonDetails) (database.PersonRecord, []string) {
	name := strings.TrimSpace(creditName)
	rec := database.PersonRecord{TMDBID: tmdbID}
	var aliases []string

	if details != nil {
		if n := strings.TrimSpace(details.Name); n != "" {
			name = n
		}
		rec.IMDBID = details.IMDBID
		rec.Biography = details.Biography
		rec.Birthday = details.Birthday
		rec.Deathday = details.Deathday
		rec.Gender = details.Gender
		rec.Homepage = details.Homepage
		rec.PlaceOfBirth = details.PlaceOfBirth
		rec.Popularity = details.Popularity
		rec.ProfilePath = details.ProfilePath
		rec.Adult = details.Adult
		aliases = details.AlsoKnownAs
	}

	if name == "" {
		name = unknownPersonName
	}
	rec.Name = name
	return rec, aliases
}

// upsertLookups upserts every lookup row the movie references and returns
// the internal genre IDs in payload order.
func (e *Engine) upsertLookups(tx *sql.Tx, d *model.MovieDetails) ([]string, error) {
	if lang := strings.TrimSpace(d.OriginalLanguage); lang != "" {
		if err := e.db.UpsertLanguage(tx, lang, "", ""); err != nil {
			return nil, err
		}
	}

	genreIDs := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		id, err := e.db.UpsertGenre(tx, g.ID, g.Name)
		if err != nil {
			return nil, err
		}
		genreIDs = append(genreIDs, id)
	}

	for _, c := range d.ProductionCountries {
		if err := e.db.UpsertCountry(tx, c.ISO3166_1, c.Name); err != nil {
			return nil, err
		}
	}

	for _, l := range d.SpokenLanguages {
		if err := e.db.UpsertLanguage(tx, l.ISO639_1, l.Name, l.EnglishName); err != nil {
			return nil, err
		}
	}

	return genreIDs, nil
}

// linkRelations re-creates the movie's relation rows from the payload.
// ClearMovieRelations ran first, so the stored link set converges to the
// payload even when upstream removed entries. Upstream payloads may repeat
// entries, so each set is deduplicated in memory before writing.
func (e *Engine) linkRelations(tx *sql.Tx, movieID string, d *model.MovieDetails, genreIDs []string) error {
	linkedGenres := make(map[string]struct{}, len(genreIDs))
	for _, genreID := range genreIDs {
		if _, ok := linkedGenres[genreID]; ok {
			continue
		}
		linkedGenres[genreID] = struct{}{}
		if err := e.db.LinkMovieGenre(tx, movieID, genreID); err != nil {
			return err
		}
	}

	linkedLanguages := make(map[string]struct{}, len(d.SpokenLanguages))
	for _, l := range d.SpokenLanguages {
		code := strings.TrimSpace(l.ISO639_1)
		if code == "" {
			continue
		}
		if _, ok := linkedLanguages[code]; ok {
			continue
		}
		linkedLanguages[code] = struct{}{}
		if err := e.db.LinkMovieSpokenLanguage(tx, movieID, code); err != nil {
			return err
		}
	}

	if len(d.ProductionCountries) > 0 {
		roleID, err := e.db.UpsertCountryType(tx, productionCountryRole)
		if err != nil {
			return err
		}
		linkedCountries := make(map[string]struct{}, len(d.ProductionCountries))
		for _, c := range d.ProductionCountries {
			code := strings.TrimSpace(c.ISO3166_1)
			if code == "" {
				continue
			}
			if _, ok := linkedCountries[code]; ok {
				continue
			}
			linkedCountries[code] = struct{}{}
			if err := e.db.LinkMovieCountry(tx, movieID, code, roleID); err != nil {
				return err
			}
		}
	}

	linkedCompanies := make(map[int64]struct{}, len(d.ProductionCompanies))
	for _, pc := range d.ProductionCompanies {
		if _, ok := linkedCompanies[pc.ID]; ok {
			continue
		}
		linkedCompanies[pc.ID] = struct{}{}
		companyID, err := e.db.UpsertProductionCompany(tx, pc.ID, pc.Name, pc.OriginCountry, pc.LogoPath)
		if err != nil {
			return err
		}
		if err := e.db.LinkMovieProductionCompany(tx, movieID, companyID); err != nil {
			return err
		}
	}

	if d.AlternativeTitles != nil {
		for _, t := range d.AlternativeTitles.Titles {
			if strings.TrimSpace(t.Title) == "" {
				continue
			}
			countryID := strings.TrimSpace(t.ISO3166_1)
			if countryID != "" {
				if err := e.db.UpsertCountry(tx, countryID, ""); err != nil {
					return err
				}
			}
			if err := e.db.InsertMovieTitle(tx, movieID, countryID, t.Title, t.Type); err != nil {
				return err
			}
		}
	}

	return e.linkWatchProviders(tx, movieID, d.WatchProviders)
}

// linkWatchProviders flattens the per-region offer map into relation rows.
func (e *Engine) linkWatchProviders(tx *sql.Tx, movieID string, wp *model.WatchProviders) error {
	if wp == nil {
		return nil
	}

	for region, offers := range wp.Results {
		byType := map[string][]model.ProviderOffer{
			"flatrate": offers.Flatrate,
			"buy":      offers.Buy,
			"rent":     offers.Rent,
			"ads":      offers.Ads,
			"free":     offers.Free,
		}
		for _, offerType := range offerTypes {
			for _, offer := range byType[offerType] {
				providerID, err := e.db.UpsertWatchProvider(
					tx, offer.ProviderID, region, offer.ProviderName,
					offer.LogoPath, offer.DisplayPriority)
				if err != nil {
					return err
				}
				if err := e.db.UpsertMovieWatchProvider(
					tx, movieID, providerID, offerType, region, offers.Link); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// insertCredits writes the resolved cast and crew rows.
func (e *Engine) insertCredits(tx *sql.Tx, movieID string, cast []resolvedCast, crew []resolvedCrew) error {
	for _, c := range cast {
		if err := e.db.InsertMovieCast(tx, movieID, c.personID, c.character, c.order); err != nil {
			return err
		}
	}

	for _, c := range crew {
		var deptID, jobID string
		if dept := strings.TrimSpace(c.department); dept != "" {
			id, err := e.db.UpsertDepartment(tx, dept)
			if err != nil {
				return err
			}
			deptID = id

			if job := strings.TrimSpace(c.job); job != "" {
				id, err := e.db.UpsertJob(tx, deptID, job)
				if err != nil {
					return err
				}
				jobID = id
			}
		}
		if err := e.db.InsertMovieCrew(tx, movieID, c.personID, deptID, jobID); err != nil {
			return err
		}
	}
	return nil
}

// movieRecord maps the wire payload to the storable movie shape.
func movieRecord(d *model.MovieDetails) database.MovieRecord {
	return database.MovieRecord{
		TMDBID:             d.ID,
		IMDBID:             d.IMDBID,
		Title:              d.Title,
		OriginalTitle:      d.OriginalTitle,
		OriginalLanguageID: d.OriginalLanguage,
		Overview:           d.Overview,
		Tagline:            d.Tagline,
		Status:             d.Status,
		Homepage:           d.Homepage,
		ReleaseDate:        d.ReleaseDate,
		Runtime:            d.Runtime,
		Budget:             d.Budget,
		Revenue:            d.Revenue,
		Popularity:         d.Popularity,
		VoteAverage:        d.VoteAverage,
		VoteCount:          d.VoteCount,
		Adult:              d.Adult,
		Video:              d.Video,
		PosterPath:         d.PosterPath,
		BackdropPath:       d.BackdropPath,
	}
}

// SyncGenres refreshes the genre catalog from the API.
func (e *Engine) SyncGenres(ctx context.Context) error {
	list, err := e.fetcher.FetchGenreList(ctx)
	if err != nil {
		return err
	}

	return e.db.WithTx(ctx, "genre_sync", func(tx *sql.Tx) error {
		for _, g := range list.Genres {
			if _, err := e.db.UpsertGenre(tx, g.ID, g.Name); err != nil {
				return err
			}
		}
		return nil
	})
}
