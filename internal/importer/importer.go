// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

// Package importer orchestrates import runs against the TMDB API.
//
// A run turns a range of movie IDs (or release years resolved through the
// discover endpoint) into units of work, one goroutine per unit, with a
// weighted semaphore bounding how many execute fetch+persist at once. Unit
// failures are counted and logged, never propagated; one broken movie never
// aborts its siblings.
package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/catalogus/catalogus/internal/config"
	"github.com/catalogus/catalogus/internal/database"
	"github.com/catalogus/catalogus/internal/logging"
	"github.com/catalogus/catalogus/internal/metrics"
	model "github.com/catalogus/catalogus/internal/models/tmdb"
	"github.com/catalogus/catalogus/internal/tmdb"
)

// earliestReleaseYear is the first year with a theatrically released film.
const earliestReleaseYear = 1874

// persister stores one fetched movie payload.
type persister interface {
	Persist(ctx context.Context, d *model.MovieDetails) error
	SyncGenres(ctx context.Context) error
}

// Importer runs import jobs. Safe for concurrent runs; every run gets its
// own engine and person cache.
type Importer struct {
	fetcher     tmdb.Fetcher
	concurrency int64
	maxPages    int

	// newEngine builds the persister for one run. Tests substitute fakes.
	newEngine func() persister
}

// New creates an importer writing through db.
func New(db *database.DB, fetcher tmdb.Fetcher, cfg config.ImportConfig) *Importer {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 10
	}
	maxPages := cfg.MaxPagesPerYear
	if maxPages < 1 {
		maxPages = 500
	}

	return &Importer{
		fetcher:     fetcher,
		concurrency: concurrency,
		maxPages:    maxPages,
		newEngine: func() persister {
			return NewEngine(db, fetcher, NewPersonCache())
		},
	}
}

// run tracks the state shared by the units of one import run.
type run struct {
	engine   persister
	sem      *semaphore.Weighted
	wg       sync.WaitGroup
	imported atomic.Int64
	failed   atomic.Int64
	mode     string
}

// ImportIDRange imports every TMDB movie ID in [lo, hi]. The returned error
// covers only an invalid range; unit failures are counted in Stats.
func (imp *Importer) ImportIDRange(ctx context.Context, lo, hi int64) (Stats, error) {
	if hi < lo {
		return Stats{}, fmt.Errorf("invalid id range: end %d before start %d", hi, lo)
	}

	ctx = logging.ContextWithRunID(ctx, logging.GenerateRunID())
	start := time.Now()
	r := imp.startRun(ctx, "id_range")

	logging.Ctx(ctx).Info().Int64("start", lo).Int64("end", hi).Msg("Import run started")

	for id := lo; id <= hi; id++ {
		imp.dispatchUnit(ctx, r, id)
	}

	return imp.finishRun(ctx, r, start), nil
}

// ImportYearRange imports every movie first released in [loYear, hiYear].
// Years are clamped to [1874, current year]; a range left empty by the
// clamp is rejected.
func (imp *Importer) ImportYearRange(ctx context.Context, loYear, hiYear int) (Stats, error) {
	if hiYear < loYear {
		return Stats{}, fmt.Errorf("invalid year range: end %d before start %d", hiYear, loYear)
	}

	currentYear := time.Now().Year()
	if loYear < earliestReleaseYear {
		loYear = earliestReleaseYear
	}
	if hiYear > currentYear {
		hiYear = currentYear
	}
	if hiYear < loYear {
		return Stats{}, fmt.Errorf("year range outside [%d, %d]", earliestReleaseYear, currentYear)
	}

	ctx = logging.ContextWithRunID(ctx, logging.GenerateRunID())
	start := time.Now()
	r := imp.startRun(ctx, "year_range")

	logging.Ctx(ctx).Info().Int("start_year", loYear).Int("end_year", hiYear).Msg("Import run started")

	for year := loYear; year <= hiYear; year++ {
		imp.importYear(ctx, r, year)
	}

	return imp.finishRun(ctx, r, start), nil
}

// startRun performs the shared pre-steps: pacing calibration and genre
// catalog refresh. Neither failure is fatal to the run.
func (imp *Importer) startRun(ctx context.Context, mode string) *run {
	r := &run{
		engine: imp.newEngine(),
		sem:    semaphore.NewWeighted(imp.concurrency),
		mode:   mode,
	}

	if err := imp.fetcher.RefreshRateLimit(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Rate limit calibration failed, using default pacing")
	}
	if err := r.engine.SyncGenres(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Genre catalog refresh failed")
	}

	return r
}

// finishRun joins all units and assembles the run statistics.
func (imp *Importer) finishRun(ctx context.Context, r *run, start time.Time) Stats {
	r.wg.Wait()

	elapsed := time.Since(start)
	stats := Stats{
		Imported:       r.imported.Load(),
		Failed:         r.failed.Load(),
		DurationMillis: elapsed.Milliseconds(),
	}
	metrics.RecordImportRun(r.mode, elapsed)

	logging.Ctx(ctx).Info().
		Int64("imported", stats.Imported).
		Int64("failed", stats.Failed).
		Dur("elapsed", elapsed).
		Msg("Import run finished")
	return stats
}

// importYear pages the discover endpoint for one year and dispatches a unit
// per result. A page failure counts one failure and paging continues with
// the next page against the last reported page count; sibling pages, other
// years, and already dispatched units are unaffected.
func (imp *Importer) importYear(ctx context.Context, r *run, year int) {
	totalPages := 1
	for page := 1; page <= totalPages && page <= imp.maxPages; page++ {
		resp, err := imp.fetcher.DiscoverMoviesByYear(ctx, year, page)
		if err != nil {
			r.failed.Add(1)
			logging.Ctx(ctx).Error().Err(err).
				Int("year", year).Int("page", page).
				Msg("Discover page fetch failed")
			continue
		}
		totalPages = resp.TotalPages

		for _, hit := range resp.Results {
			imp.dispatchUnit(ctx, r, hit.ID)
		}
	}
}

// dispatchUnit spawns one unit goroutine. The semaphore bounds how many
// units run fetch+persist at once; the permit is released on every exit
// path.
func (imp *Importer) dispatchUnit(ctx context.Context, r *run, tmdbID int64) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		if err := r.sem.Acquire(ctx, 1); err != nil {
			r.failed.Add(1)
			logging.Ctx(ctx).Warn().Err(err).Int64("tmdb_id", tmdbID).
				Msg("Import unit cancelled while waiting for a slot")
			return
		}
		defer r.sem.Release(1)

		metrics.ImportUnitsInFlight.Inc()
		defer metrics.ImportUnitsInFlight.Dec()

		start := time.Now()
		err := imp.importMovie(ctx, r.engine, tmdbID)
		metrics.RecordImportUnit(r.mode, err == nil, time.Since(start))

		if err != nil {
			r.failed.Add(1)
			logging.Ctx(ctx).Error().Err(err).Int64("tmdb_id", tmdbID).
				Msg("Import unit failed")
			return
		}
		r.imported.Add(1)
	}()
}

// importMovie fetches and persists one movie. A 404 is a failed unit:
// gaps are expected in the TMDB ID space.
func (imp *Importer) importMovie(ctx context.Context, engine persister, tmdbID int64) error {
	details, err := imp.fetcher.FetchMovieDetails(ctx, tmdbID)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			return fmt.Errorf("movie %d: %w", tmdbID, err)
		}
		return fmt.Errorf("fetch movie %d: %w", tmdbID, err)
	}

	if err := engine.Persist(ctx, details); err != nil {
		return fmt.Errorf("persist movie %d: %w", tmdbID, err)
	}
	return nil
}
