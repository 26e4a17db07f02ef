// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/catalogus/catalogus/internal/config"
	"github.com/catalogus/catalogus/internal/database"
	"github.com/catalogus/catalogus/internal/importer"
	"github.com/catalogus/catalogus/internal/tmdb"
)

// fakeTMDB serves the minimal endpoint set an import run touches.
func fakeTMDB(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/configuration", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"change_keys": []}`))
	})
	mux.HandleFunc("/genre/movie/list", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"genres": [{"id": 28, "name": "Action"}]}`))
	})
	mux.HandleFunc("/movie/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/movie/")
		_, _ = fmt.Fprintf(w, `{"id": %s, "title": "Movie %s", "genres": [{"id": 28, "name": "Action"}]}`, id, id)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testRouter(t *testing.T) (http.Handler, *database.DB) {
	t.Helper()

	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	upstream := fakeTMDB(t)
	client := tmdb.NewClient(config.TMDBConfig{
		APIToken:       "test-token",
		BaseURL:        upstream.URL,
		CallsPerSecond: 1000,
		RetryDeadline:  time.Second,
		RequestTimeout: 5 * time.Second,
	})
	imp := importer.New(db, client, config.ImportConfig{Concurrency: 4, MaxPagesPerYear: 500})

	serverCfg := config.ServerConfig{
		Host:      "127.0.0.1",
		Port:      0,
		RateLimit: 10000,
	}
	return NewRouter(serverCfg, NewHandlers(db, imp)), db
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestImportMoviesEndToEnd(t *testing.T) {
	t.Parallel()
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/movies?start=1&end=3", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("success = false: %s", rec.Body.String())
	}

	data, _ := json.Marshal(resp.Data)
	var result ImportResponse
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatal(err)
	}
	if result.Imported != 3 || result.Failed != 0 {
		t.Errorf("result = %+v, want 3 imported", result)
	}
}

func TestImportMoviesRejectsInvertedRange(t *testing.T) {
	t.Parallel()
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/movies?start=5&end=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Errorf("error = %+v, want %s", resp.Error, ErrCodeValidationFailed)
	}
}

func TestImportMoviesRequiresParams(t *testing.T) {
	t.Parallel()
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/movies", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestImportYearsRejectsFutureOnlyRange(t *testing.T) {
	t.Parallel()
	router, _ := testRouter(t)

	future := time.Now().Year() + 5
	url := fmt.Sprintf("/api/v1/import/movies/years?startYear=%d&endYear=%d", future, future+1)
	req := httptest.NewRequest(http.MethodPost, url, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	router, _ := testRouter(t)

	for _, path := range []string{"/api/v1/health/live", "/api/v1/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestCatalogStats(t *testing.T) {
	t.Parallel()
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Errorf("success = false: %s", rec.Body.String())
	}
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	t.Parallel()
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	t.Parallel()
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}
