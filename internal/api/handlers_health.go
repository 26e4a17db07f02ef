// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package api

import (
	"net/http"
)

// HealthLive reports process liveness.
func (h *Handlers) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "ok"})
}

// HealthReady reports readiness; the store must answer a ping.
func (h *Handlers) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if err := h.db.Ping(r.Context()); err != nil {
		rw.ServiceUnavailable("Database not reachable")
		return
	}
	rw.Success(map[string]string{"status": "ready"})
}
