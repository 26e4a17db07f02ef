// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package importer

import (
	"context"
	"sync"

	"github.com/catalogus/catalogus/internal/metrics"
)

// personEntry is a single in-flight or completed resolution. The first
// resolver closes done; waiters read id and err afterwards.
type personEntry struct {
	done chan struct{}
	id   string
	err  error
}

// PersonCache deduplicates person resolutions within one import run.
// Concurrent units referencing the same person block on a single
// resolution instead of issuing duplicate detail fetches. Failed
// resolutions are evicted so a later unit can retry.
//
// The cache is scoped to a run on purpose: person records change upstream,
// and a process-lifetime cache would pin stale internal IDs across runs.
type PersonCache struct {
	mu      sync.Mutex
	entries map[int64]*personEntry
}

// NewPersonCache creates an empty cache for one run.
func NewPersonCache() *PersonCache {
	return &PersonCache{entries: make(map[int64]*personEntry)}
}

// Resolve returns the internal ID for a TMDB person ID, invoking resolve at
// most once per key while it keeps succeeding. The winning caller runs
// resolve; everyone else waits for its outcome or their own ctx.
func (c *PersonCache) Resolve(ctx context.Context, tmdbID int64, resolve func(context.Context) (string, error)) (string, error) {
	c.mu.Lock()
	if e, ok := c.entries[tmdbID]; ok {
		c.mu.Unlock()
		metrics.PersonCacheHits.Inc()
		select {
		case <-e.done:
			return e.id, e.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	e := &personEntry{done: make(chan struct{})}
	c.entries[tmdbID] = e
	c.mu.Unlock()
	metrics.PersonCacheMisses.Inc()

	e.id, e.err = resolve(ctx)
	close(e.done)

	if e.err != nil {
		c.mu.Lock()
		// Only evict our own entry; a retry may already have replaced it.
		if cur, ok := c.entries[tmdbID]; ok && cur == e {
			delete(c.entries, tmdbID)
		}
		c.mu.Unlock()
	}
	return e.id, e.err
}
