// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

// Package tmdb implements the rate-limited, retrying TMDB API client.
//
// Every outbound call flows through getJSON: pace, issue, adapt pacing from
// response headers, classify the status. Transient failures (429 and 5xx
// gateway statuses, transport I/O errors) are retried with linear backoff
// while a wall-clock deadline measured from the first attempt has not
// elapsed. A 404 is a valid negative result, reported as ErrNotFound.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/catalogus/catalogus/internal/config"
	"github.com/catalogus/catalogus/internal/logging"
	"github.com/catalogus/catalogus/internal/metrics"
	model "github.com/catalogus/catalogus/internal/models/tmdb"
)

// ErrNotFound reports that the requested resource does not exist upstream
// (HTTP 404). It is a valid negative result, not a transport failure.
var ErrNotFound = errors.New("tmdb: resource not found")

// TransportError reports a request that failed permanently: a non-transient
// unexpected status, or a transient failure that outlived the retry deadline.
type TransportError struct {
	// StatusCode is the last HTTP status observed, or 0 when the failure
	// never produced a response.
	StatusCode int
	// URL is the request URL without query parameters.
	URL string
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("tmdb: request to %s failed without a response", e.URL)
	}
	return fmt.Sprintf("tmdb: request to %s failed with status %d", e.URL, e.StatusCode)
}

// transientStatus reports whether a response status is worth retrying.
func transientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Fetcher is the read surface of the TMDB client consumed by the importer.
type Fetcher interface {
	FetchMovieDetails(ctx context.Context, id int64) (*model.MovieDetails, error)
	FetchPersonDetails(ctx context.Context, id int64) (*model.PersonDetails, error)
	DiscoverMoviesByYear(ctx context.Context, year, page int) (*model.DiscoverResponse, error)
	FetchGenreList(ctx context.Context) (*model.GenreList, error)
	RefreshRateLimit(ctx context.Context) error
}

// Client is the concrete TMDB API client. Safe for concurrent use.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	token         string
	pacer         *Pacer
	retryDeadline time.Duration
}

// NewClient creates a TMDB client from configuration.
func NewClient(cfg config.TMDBConfig) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL:       cfg.BaseURL,
		token:         cfg.APIToken,
		pacer:         NewPacer(cfg.CallsPerSecond),
		retryDeadline: cfg.RetryDeadline,
	}
}

// Pacer exposes the client's pacer, mainly for tests and calibration.
func (c *Client) Pacer() *Pacer {
	return c.pacer
}

// FetchMovieDetails retrieves a movie with its alternate titles, credits,
// and streaming availability in a single call.
func (c *Client) FetchMovieDetails(ctx context.Context, id int64) (*model.MovieDetails, error) {
	q := url.Values{}
	q.Set("append_to_response", "alternative_titles,credits,watch/providers")

	var out model.MovieDetails
	if err := c.getJSON(ctx, "movie_details", fmt.Sprintf("/movie/%d", id), q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchPersonDetails retrieves a person record including aliases.
func (c *Client) FetchPersonDetails(ctx context.Context, id int64) (*model.PersonDetails, error) {
	var out model.PersonDetails
	if err := c.getJSON(ctx, "person_details", fmt.Sprintf("/person/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DiscoverMoviesByYear retrieves one page of movies first released in the
// given year, ordered deterministically by primary release date.
func (c *Client) DiscoverMoviesByYear(ctx context.Context, year, page int) (*model.DiscoverResponse, error) {
	q := url.Values{}
	q.Set("primary_release_year", strconv.Itoa(year))
	q.Set("sort_by", "primary_release_date.asc")
	q.Set("page", strconv.Itoa(page))

	var out model.DiscoverResponse
	if err := c.getJSON(ctx, "discover", "/discover/movie", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchGenreList retrieves the full movie genre catalog.
func (c *Client) FetchGenreList(ctx context.Context) (*model.GenreList, error) {
	var out model.GenreList
	if err := c.getJSON(ctx, "genre_list", "/genre/movie/list", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshRateLimit issues a cheap /configuration call so fresh rate-limit
// headers recalibrate the pacer before an import run. On failure the pacer
// falls back to its configured default interval.
func (c *Client) RefreshRateLimit(ctx context.Context) error {
	var out model.Configuration
	if err := c.getJSON(ctx, "configuration", "/configuration", nil, &out); err != nil {
		c.pacer.Reset()
		return err
	}
	return nil
}

// getJSON performs a paced GET with transient-failure retries and decodes
// the response body into out.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	reqURL := c.baseURL + path
	fullURL := reqURL
	if len(query) > 0 {
		fullURL = reqURL + "?" + query.Encode()
	}

	start := time.Now()
	deadline := start.Add(c.retryDeadline)
	lastStatus := 0

	for attempt := 0; ; attempt++ {
		if err := c.pacer.Wait(ctx); err != nil {
			metrics.RecordTMDBRequest(endpoint, "error", time.Since(start))
			return fmt.Errorf("tmdb: pacing wait: %w", err)
		}

		status, retryAfter, err := c.attempt(ctx, fullURL, out)
		switch {
		case err == nil:
			metrics.RecordTMDBRequest(endpoint, "success", time.Since(start))
			return nil
		case errors.Is(err, errNotFoundStatus):
			metrics.RecordTMDBRequest(endpoint, "not_found", time.Since(start))
			return fmt.Errorf("%w: %s", ErrNotFound, reqURL)
		case errors.Is(err, errPermanentStatus):
			metrics.RecordTMDBRequest(endpoint, "error", time.Since(start))
			return &TransportError{StatusCode: status, URL: reqURL}
		case ctx.Err() != nil:
			metrics.RecordTMDBRequest(endpoint, "error", time.Since(start))
			return fmt.Errorf("tmdb: request cancelled: %w", ctx.Err())
		}

		// Transient failure: retry while the deadline budget allows.
		if status != 0 {
			lastStatus = status
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			metrics.RecordTMDBRequest(endpoint, "error", time.Since(start))
			return &TransportError{StatusCode: lastStatus, URL: reqURL}
		}

		metrics.TMDBRetriesTotal.Inc()
		backoff := backoffFor(attempt)
		if retryAfter > 0 && retryAfter < remaining {
			backoff = retryAfter
		}
		if backoff > remaining {
			backoff = remaining
		}
		logging.Ctx(ctx).Debug().
			Str("endpoint", endpoint).
			Int("status", status).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("Retrying transient TMDB failure")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			metrics.RecordTMDBRequest(endpoint, "error", time.Since(start))
			return fmt.Errorf("tmdb: request cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// Status classification sentinels used between attempt and getJSON.
var (
	errNotFoundStatus  = errors.New("status 404")
	errPermanentStatus = errors.New("permanent status")
	errTransient       = errors.New("transient failure")
)

// attempt issues a single request. Returns the observed status (0 when no
// response arrived), a server-suggested retry delay, and a classification
// error, nil on success.
func (c *Client) attempt(ctx context.Context, fullURL string, out any) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", errPermanentStatus, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport-level failure, treated as transient.
		return 0, 0, fmt.Errorf("%w: %v", errTransient, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	c.pacer.UpdateFromHeader(resp.Header)

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, 0, fmt.Errorf("%w: decoding response: %v", errPermanentStatus, err)
		}
		return resp.StatusCode, 0, nil
	case resp.StatusCode == http.StatusNotFound:
		return resp.StatusCode, 0, errNotFoundStatus
	case transientStatus(resp.StatusCode):
		return resp.StatusCode, parseRetryAfter(resp.Header), errTransient
	default:
		return resp.StatusCode, 0, errPermanentStatus
	}
}

// backoffFor computes the linear backoff for a retry attempt, capped at
// attempt 5 (1.5s).
func backoffFor(attempt int) time.Duration {
	if attempt > 5 {
		attempt = 5
	}
	return 500*time.Millisecond + time.Duration(attempt)*200*time.Millisecond
}

// parseRetryAfter extracts a Retry-After delay in seconds, 0 when absent or
// malformed. HTTP-date forms are ignored; TMDB sends seconds.
func parseRetryAfter(h http.Header) time.Duration {
	raw := h.Get("Retry-After")
	if raw == "" {
		return 0
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
