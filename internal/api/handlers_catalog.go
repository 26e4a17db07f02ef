// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package api

import (
	"net/http"
)

// CatalogStats returns row counts per entity.
func (h *Handlers) CatalogStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	stats, err := h.db.Stats(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(stats)
}
