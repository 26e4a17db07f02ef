// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package tmdb

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"
)

func TestPacerSpacesConcurrentCallers(t *testing.T) {
	t.Parallel()

	// 20 calls/s -> 50ms interval.
	p := NewPacer(20)
	const callers = 5

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Wait(context.Background()); err != nil {
				t.Errorf("Wait returned error: %v", err)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	// N paced calls cannot all complete before (N-1) intervals.
	min := time.Duration(callers-1) * p.Interval()
	if elapsed < min {
		t.Errorf("%d calls completed in %v, want at least %v", callers, elapsed, min)
	}
}

func TestPacerUpdateFromHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{"valid limit", "4", 250 * time.Millisecond},
		{"missing header", "", 20 * time.Millisecond},
		{"malformed", "fast", 20 * time.Millisecond},
		{"zero", "0", 20 * time.Millisecond},
		{"negative", "-5", 20 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := NewPacer(50)
			h := http.Header{}
			if tt.header != "" {
				h.Set(RateLimitHeader, tt.header)
			}
			p.UpdateFromHeader(h)

			if got := p.Interval(); got != tt.want {
				t.Errorf("Interval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPacerReset(t *testing.T) {
	t.Parallel()

	p := NewPacer(50)
	h := http.Header{}
	h.Set(RateLimitHeader, "2")
	p.UpdateFromHeader(h)
	if got := p.Interval(); got != 500*time.Millisecond {
		t.Fatalf("Interval() after header = %v, want 500ms", got)
	}

	p.Reset()
	if got := p.Interval(); got != 20*time.Millisecond {
		t.Errorf("Interval() after Reset = %v, want 20ms", got)
	}
}

func TestPacerWaitCancellable(t *testing.T) {
	t.Parallel()

	// 1 call/s so the second caller must sleep.
	p := NewPacer(1)
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := p.Wait(ctx)
	if err == nil {
		t.Fatal("Wait with cancelled context returned nil")
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("cancelled Wait took %v, want immediate return", elapsed)
	}
}

func TestPacerDefaultsOnNonPositiveRate(t *testing.T) {
	t.Parallel()

	p := NewPacer(0)
	if got := p.Interval(); got != 20*time.Millisecond {
		t.Errorf("Interval() = %v, want 20ms default", got)
	}
}
