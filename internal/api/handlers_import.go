// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/catalogus/catalogus/internal/importer"
	"github.com/catalogus/catalogus/internal/logging"
	"github.com/catalogus/catalogus/internal/validation"
)

// IDRangeRequest is the query shape of POST /api/v1/import/movies.
type IDRangeRequest struct {
	Start int64 `validate:"min=1"`
	End   int64 `validate:"min=1,gtefield=Start"`
}

// YearRangeRequest is the query shape of POST /api/v1/import/movies/years.
type YearRangeRequest struct {
	StartYear int `validate:"min=1"`
	EndYear   int `validate:"min=1,gtefield=StartYear"`
}

// ImportResponse echoes the requested range with the run outcome. Imports
// run synchronously; the response arrives when the run completes.
type ImportResponse struct {
	Start          int64  `json:"start,omitempty"`
	End            int64  `json:"end,omitempty"`
	StartYear      int    `json:"start_year,omitempty"`
	EndYear        int    `json:"end_year,omitempty"`
	Imported       int64  `json:"imported"`
	Failed         int64  `json:"failed"`
	DurationMillis int64  `json:"duration_millis"`
	Message        string `json:"message"`
}

// ImportMovies triggers an ID-range import run.
func (h *Handlers) ImportMovies(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	start, err := parseIntParam(r, "start")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	end, err := parseIntParam(r, "end")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	req := IDRangeRequest{Start: start, End: end}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr.Error(), verr.Errors())
		return
	}

	logging.Ctx(r.Context()).Info().Int64("start", start).Int64("end", end).
		Msg("ID-range import requested")

	stats, err := h.imp.ImportIDRange(r.Context(), start, end)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	rw.Success(ImportResponse{
		Start:          start,
		End:            end,
		Imported:       stats.Imported,
		Failed:         stats.Failed,
		DurationMillis: stats.DurationMillis,
		Message:        importMessage(stats),
	})
}

// ImportMovieYears triggers a release-year import run.
func (h *Handlers) ImportMovieYears(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	startYear, err := parseIntParam(r, "startYear")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	endYear, err := parseIntParam(r, "endYear")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	req := YearRangeRequest{StartYear: int(startYear), EndYear: int(endYear)}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr.Error(), verr.Errors())
		return
	}

	logging.Ctx(r.Context()).Info().Int("start_year", req.StartYear).Int("end_year", req.EndYear).
		Msg("Year-range import requested")

	stats, err := h.imp.ImportYearRange(r.Context(), req.StartYear, req.EndYear)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	rw.Success(ImportResponse{
		StartYear:      req.StartYear,
		EndYear:        req.EndYear,
		Imported:       stats.Imported,
		Failed:         stats.Failed,
		DurationMillis: stats.DurationMillis,
		Message:        importMessage(stats),
	})
}

// parseIntParam reads a required integer query parameter.
func parseIntParam(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing required parameter %q", name)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %q must be an integer", name)
	}
	return v, nil
}

func importMessage(stats importer.Stats) string {
	return fmt.Sprintf("Import completed: %d imported, %d failed", stats.Imported, stats.Failed)
}
