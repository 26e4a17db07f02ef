// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package importer

// Stats summarizes one import run. Imported plus Failed equals the number
// of units the run attempted.
type Stats struct {
	Imported       int64 `json:"imported"`
	Failed         int64 `json:"failed"`
	DurationMillis int64 `json:"duration_millis"`
}
