// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package tmdb

// DiscoverResponse is one page of /discover/movie results.
type DiscoverResponse struct {
	Page         int              `json:"page"`
	Results      []DiscoverResult `json:"results"`
	TotalPages   int              `json:"total_pages"`
	TotalResults int              `json:"total_results"`
}

// DiscoverResult carries the movie ID of a discover hit. The full record is
// always re-fetched via the detail endpoint, so only the ID matters here.
type DiscoverResult struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// GenreList is the response of /genre/movie/list.
type GenreList struct {
	Genres []Genre `json:"genres"`
}

// Configuration is the response of /configuration. The body is unused;
// the call exists to surface fresh rate-limit headers.
type Configuration struct {
	ChangeKeys []string `json:"change_keys"`
}
