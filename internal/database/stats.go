// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package database

import (
	"context"
	"fmt"
)

// CatalogStats holds row counts per entity for operator visibility.
type CatalogStats struct {
	Movies              int64 `json:"movies"`
	People              int64 `json:"people"`
	Genres              int64 `json:"genres"`
	Languages           int64 `json:"languages"`
	Countries           int64 `json:"countries"`
	ProductionCompanies int64 `json:"production_companies"`
	WatchProviders      int64 `json:"watch_providers"`
	CastCredits         int64 `json:"cast_credits"`
	CrewCredits         int64 `json:"crew_credits"`
	AlternateTitles     int64 `json:"alternate_titles"`
}

// Stats returns current row counts across the catalog.
func (db *DB) Stats(ctx context.Context) (*CatalogStats, error) {
	stats := &CatalogStats{}
	counts := []struct {
		table string
		dest  *int64
	}{
		{"movie", &stats.Movies},
		{"person", &stats.People},
		{"genre", &stats.Genres},
		{"language", &stats.Languages},
		{"country", &stats.Countries},
		{"production_company", &stats.ProductionCompanies},
		{"watch_provider", &stats.WatchProviders},
		{"movie_cast", &stats.CastCredits},
		{"movie_crew", &stats.CrewCredits},
		{"movie_title", &stats.AlternateTitles},
	}

	for _, c := range counts {
		query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, c.table)
		if err := db.conn.QueryRowContext(ctx, query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("count %s: %w", c.table, err)
		}
	}
	return stats, nil
}
