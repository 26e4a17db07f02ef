// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

// Catalogus pulls movie metadata from the TMDB API into an embedded DuckDB
// catalog. Imports are triggered over HTTP and run until the requested
// range converges with upstream.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/catalogus/catalogus/internal/api"
	"github.com/catalogus/catalogus/internal/config"
	"github.com/catalogus/catalogus/internal/database"
	"github.com/catalogus/catalogus/internal/importer"
	"github.com/catalogus/catalogus/internal/logging"
	"github.com/catalogus/catalogus/internal/supervisor"
	"github.com/catalogus/catalogus/internal/tmdb"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close database")
		}
	}()

	client := tmdb.NewClient(cfg.TMDB)
	var fetcher tmdb.Fetcher = client
	if cfg.TMDB.BreakerEnabled {
		fetcher = tmdb.NewBreakerClient(client)
	}

	imp := importer.New(db, fetcher, cfg.Import)
	handlers := api.NewHandlers(db, imp)
	router := api.NewRouter(cfg.Server, handlers)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.Add(supervisor.NewHTTPService(cfg.Server, router))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Catalogus starting")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor exited with error")
	}
	logging.Info().Msg("Catalogus stopped")
}
