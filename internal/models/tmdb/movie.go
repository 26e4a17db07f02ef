// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

// Package tmdb defines the wire structures returned by the TMDB REST API.
//
// Structures cover only the fields Catalogus persists. TMDB returns many
// more fields; unknown fields are ignored during decoding.
package tmdb

// MovieDetails is the response of /movie/{id} with
// append_to_response=alternative_titles,credits,watch/providers.
type MovieDetails struct {
	ID               int64   `json:"id"`
	IMDBID           string  `json:"imdb_id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	OriginalLanguage string  `json:"original_language"`
	Overview         string  `json:"overview"`
	Tagline          string  `json:"tagline"`
	Status           string  `json:"status"`
	Homepage         string  `json:"homepage"`
	ReleaseDate      string  `json:"release_date"`
	Runtime          int     `json:"runtime"`
	Budget           int64   `json:"budget"`
	Revenue          int64   `json:"revenue"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int64   `json:"vote_count"`
	Adult            bool    `json:"adult"`
	Video            bool    `json:"video"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`

	Genres              []Genre             `json:"genres"`
	ProductionCompanies []ProductionCompany `json:"production_companies"`
	ProductionCountries []ProductionCountry `json:"production_countries"`
	SpokenLanguages     []SpokenLanguage    `json:"spoken_languages"`

	AlternativeTitles *AlternativeTitles `json:"alternative_titles"`
	Credits           *Credits           `json:"credits"`
	WatchProviders    *WatchProviders    `json:"watch/providers"`
}

// Genre is a TMDB genre reference.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductionCompany is a company credited on a movie.
type ProductionCompany struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	OriginCountry string `json:"origin_country"`
	LogoPath      string `json:"logo_path"`
}

// ProductionCountry is a country credited on a movie.
type ProductionCountry struct {
	ISO3166_1 string `json:"iso_3166_1"`
	Name      string `json:"name"`
}

// SpokenLanguage is a language spoken in a movie.
type SpokenLanguage struct {
	ISO639_1    string `json:"iso_639_1"`
	Name        string `json:"name"`
	EnglishName string `json:"english_name"`
}

// AlternativeTitles wraps the per-region alternate titles of a movie.
type AlternativeTitles struct {
	Titles []AlternativeTitle `json:"titles"`
}

// AlternativeTitle is a regional alternate title.
type AlternativeTitle struct {
	ISO3166_1 string `json:"iso_3166_1"`
	Title     string `json:"title"`
	Type      string `json:"type"`
}

// Credits holds the cast and crew of a movie.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// CastMember is an acting credit.
type CastMember struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

// CrewMember is a production credit.
type CrewMember struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Job        string `json:"job"`
}

// WatchProviders wraps streaming availability keyed by region code.
type WatchProviders struct {
	Results map[string]RegionOffers `json:"results"`
}

// RegionOffers lists the offers available in one region, grouped by
// monetization type. Link is the TMDB attribution URL for the region.
type RegionOffers struct {
	Link     string          `json:"link"`
	Flatrate []ProviderOffer `json:"flatrate"`
	Buy      []ProviderOffer `json:"buy"`
	Rent     []ProviderOffer `json:"rent"`
	Ads      []ProviderOffer `json:"ads"`
	Free     []ProviderOffer `json:"free"`
}

// ProviderOffer is a single provider entry within a region.
type ProviderOffer struct {
	ProviderID      int64  `json:"provider_id"`
	ProviderName    string `json:"provider_name"`
	LogoPath        string `json:"logo_path"`
	DisplayPriority int    `json:"display_priority"`
}
