// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package tmdb

import (
	"context"
	"errors"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/catalogus/catalogus/internal/logging"
	"github.com/catalogus/catalogus/internal/metrics"
	model "github.com/catalogus/catalogus/internal/models/tmdb"
)

// BreakerClient wraps a Client with a circuit breaker so a broken upstream
// fails imports fast instead of burning the retry budget on every unit.
//
// ErrNotFound counts as success for tripping purposes: a missing movie is a
// valid answer from a healthy API.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[any]
}

var _ Fetcher = (*BreakerClient)(nil)

// NewBreakerClient wraps client in a circuit breaker.
// The circuit opens after a 60% failure rate across at least 10 requests,
// and probes recovery after 30 seconds.
func NewBreakerClient(client *Client) *BreakerClient {
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "tmdb-api",
		MaxRequests: 3,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},

		IsSuccessful: func(err error) bool {
			// A 404 is a healthy response.
			return err == nil || errors.Is(err, ErrNotFound)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state transition")
			metrics.BreakerState.Set(stateToFloat(to))
			metrics.BreakerTransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
		},
	})

	return &BreakerClient{client: client, cb: cb}
}

// Pacer exposes the wrapped client's pacer.
func (b *BreakerClient) Pacer() *Pacer {
	return b.client.Pacer()
}

func (b *BreakerClient) FetchMovieDetails(ctx context.Context, id int64) (*model.MovieDetails, error) {
	out, err := b.execute(func() (any, error) {
		return b.client.FetchMovieDetails(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return out.(*model.MovieDetails), nil
}

func (b *BreakerClient) FetchPersonDetails(ctx context.Context, id int64) (*model.PersonDetails, error) {
	out, err := b.execute(func() (any, error) {
		return b.client.FetchPersonDetails(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return out.(*model.PersonDetails), nil
}

func (b *BreakerClient) DiscoverMoviesByYear(ctx context.Context, year, page int) (*model.DiscoverResponse, error) {
	out, err := b.execute(func() (any, error) {
		return b.client.DiscoverMoviesByYear(ctx, year, page)
	})
	if err != nil {
		return nil, err
	}
	return out.(*model.DiscoverResponse), nil
}

func (b *BreakerClient) FetchGenreList(ctx context.Context) (*model.GenreList, error) {
	out, err := b.execute(func() (any, error) {
		return b.client.FetchGenreList(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out.(*model.GenreList), nil
}

func (b *BreakerClient) RefreshRateLimit(ctx context.Context) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.client.RefreshRateLimit(ctx)
	})
	return err
}

// execute runs fn under the breaker and records rejection metrics.
func (b *BreakerClient) execute(fn func() (any, error)) (any, error) {
	out, err := b.cb.Execute(fn)
	if err != nil && (errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)) {
		metrics.BreakerRejectionsTotal.Inc()
		logging.Warn().Err(err).Msg("TMDB request rejected by open circuit breaker")
	}
	return out, err
}

// stateToFloat maps breaker states to the gauge encoding 0/1/2.
func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
