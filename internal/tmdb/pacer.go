// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package tmdb

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/catalogus/catalogus/internal/metrics"
)

// RateLimitHeader is the TMDB response header carrying the advertised
// requests-per-second budget.
const RateLimitHeader = "X-RateLimit-Limit"

// Pacer spaces outbound requests so that consecutive calls are at least one
// interval apart, across all goroutines sharing the pacer.
//
// Wait reserves the caller's issue slot under the mutex and sleeps outside
// it, so a slow sleeper never blocks other reservations. N calls therefore
// complete no earlier than (N-1) intervals after the first.
type Pacer struct {
	mu              sync.Mutex
	interval        time.Duration
	defaultInterval time.Duration
	next            time.Time
}

// NewPacer creates a pacer issuing at most callsPerSecond requests per
// second. Non-positive values fall back to 50.
func NewPacer(callsPerSecond int) *Pacer {
	if callsPerSecond <= 0 {
		callsPerSecond = 50
	}
	interval := time.Second / time.Duration(callsPerSecond)
	metrics.SetPacingInterval(interval)
	return &Pacer{
		interval:        interval,
		defaultInterval: interval,
	}
}

// Wait blocks until the caller's reserved slot arrives or ctx is done.
// The slot is consumed even when the wait is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	now := time.Now()
	if p.next.Before(now) {
		p.next = now
	}
	ready := p.next
	p.next = ready.Add(p.interval)
	p.mu.Unlock()

	delay := time.Until(ready)
	if delay <= 0 {
		return nil
	}
	metrics.RecordPacingWait(delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// UpdateFromHeader recalculates the interval from the X-RateLimit-Limit
// response header. Missing, malformed, or non-positive values leave the
// current interval unchanged.
func (p *Pacer) UpdateFromHeader(h http.Header) {
	raw := h.Get(RateLimitHeader)
	if raw == "" {
		return
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return
	}
	p.setInterval(time.Second / time.Duration(limit))
}

// Reset restores the configured default interval. Used when a calibration
// call fails and the adapted rate can no longer be trusted.
func (p *Pacer) Reset() {
	p.mu.Lock()
	interval := p.defaultInterval
	p.interval = interval
	p.mu.Unlock()
	metrics.SetPacingInterval(interval)
}

// Interval returns the current pacing interval.
func (p *Pacer) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

func (p *Pacer) setInterval(interval time.Duration) {
	if interval <= 0 {
		return
	}
	p.mu.Lock()
	p.interval = interval
	p.mu.Unlock()
	metrics.SetPacingInterval(interval)
}
