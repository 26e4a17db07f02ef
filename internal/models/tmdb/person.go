// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package tmdb

// PersonDetails is the response of /person/{id}.
type PersonDetails struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	AlsoKnownAs        []string `json:"also_known_as"`
	Biography          string   `json:"biography"`
	Birthday           string   `json:"birthday"`
	Deathday           string   `json:"deathday"`
	Gender             int      `json:"gender"`
	Homepage           string   `json:"homepage"`
	IMDBID             string   `json:"imdb_id"`
	KnownForDepartment string   `json:"known_for_department"`
	PlaceOfBirth       string   `json:"place_of_birth"`
	Popularity         float64  `json:"popularity"`
	ProfilePath        string   `json:"profile_path"`
	Adult              bool     `json:"adult"`
}
