// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/catalogus/catalogus/internal/config"
	"github.com/catalogus/catalogus/internal/database"
	"github.com/catalogus/catalogus/internal/importer"
)

// Handlers bundles the dependencies of the HTTP layer.
type Handlers struct {
	db  *database.DB
	imp *importer.Importer
}

// NewHandlers creates the handler set.
func NewHandlers(db *database.DB, imp *importer.Importer) *Handlers {
	return &Handlers{db: db, imp: imp}
}

// NewRouter assembles the chi router with the full middleware chain.
//
// Import endpoints additionally sit behind a per-client token bucket: runs
// are expensive and long-lived, so a single client cannot monopolize the
// orchestrator by hammering the trigger endpoints.
func NewRouter(cfg config.ServerConfig, h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))

	importLimiter := NewPerClientRateLimiter(cfg.RateLimit / 4)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/import", func(r chi.Router) {
			r.Use(importLimiter.Middleware)
			r.Post("/movies", h.ImportMovies)
			r.Post("/movies/years", h.ImportMovieYears)
		})

		r.Get("/catalog/stats", h.CatalogStats)

		r.Route("/health", func(r chi.Router) {
			r.Get("/live", h.HealthLive)
			r.Get("/ready", h.HealthReady)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).NotFound("Resource not found")
	})

	return r
}
