// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the ingestion pipeline:
// - TMDB request latency, outcomes, and pacing behavior
// - Circuit breaker state
// - Import unit throughput and concurrency
// - Person resolution cache efficiency
// - DuckDB write performance

var (
	// TMDB Client Metrics
	TMDBRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tmdb_request_duration_seconds",
			Help:    "Duration of TMDB API requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	TMDBRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmdb_requests_total",
			Help: "Total number of TMDB API requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"}, // "success", "not_found", "transient", "error"
	)

	TMDBRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tmdb_retries_total",
			Help: "Total number of TMDB request retries after transient failures",
		},
	)

	TMDBPacingInterval = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tmdb_pacing_interval_seconds",
			Help: "Current minimum interval between TMDB requests in seconds",
		},
	)

	TMDBPacingWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tmdb_pacing_wait_seconds",
			Help:    "Time spent waiting for a TMDB request slot in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	// Circuit Breaker Metrics
	BreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tmdb_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	BreakerTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmdb_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"from", "to"},
	)

	BreakerRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tmdb_breaker_rejections_total",
			Help: "Total number of requests rejected by the open circuit breaker",
		},
	)

	// Import Metrics
	ImportUnitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_units_total",
			Help: "Total number of import units by outcome",
		},
		[]string{"mode", "outcome"}, // mode: "id_range", "year_range"; outcome: "imported", "failed"
	)

	ImportUnitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "import_unit_duration_seconds",
			Help:    "Duration of a single import unit (fetch + persist) in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"mode"},
	)

	ImportUnitsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "import_units_in_flight",
			Help: "Number of import units currently executing",
		},
	)

	ImportRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_runs_total",
			Help: "Total number of import runs by mode",
		},
		[]string{"mode"},
	)

	ImportRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "import_run_duration_seconds",
			Help:    "Duration of a complete import run in seconds",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
		},
		[]string{"mode"},
	)

	// Person Resolution Cache Metrics
	PersonCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "person_cache_hits_total",
			Help: "Total number of person resolutions served from the run cache",
		},
	)

	PersonCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "person_cache_misses_total",
			Help: "Total number of person resolutions requiring a detail fetch",
		},
	)

	// Database Metrics
	DBWriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_write_duration_seconds",
			Help:    "Duration of DuckDB write transactions in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_errors_total",
			Help: "Total number of DuckDB errors",
		},
		[]string{"operation"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being processed",
		},
	)
)

// RecordTMDBRequest records a completed TMDB API request.
func RecordTMDBRequest(endpoint, outcome string, duration time.Duration) {
	TMDBRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	TMDBRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordPacingWait records time spent waiting for a request slot.
func RecordPacingWait(duration time.Duration) {
	TMDBPacingWaitDuration.Observe(duration.Seconds())
}

// SetPacingInterval updates the pacing interval gauge.
func SetPacingInterval(interval time.Duration) {
	TMDBPacingInterval.Set(interval.Seconds())
}

// RecordImportUnit records the outcome of a single import unit.
func RecordImportUnit(mode string, imported bool, duration time.Duration) {
	outcome := "failed"
	if imported {
		outcome = "imported"
	}
	ImportUnitsTotal.WithLabelValues(mode, outcome).Inc()
	ImportUnitDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordImportRun records a completed import run.
func RecordImportRun(mode string, duration time.Duration) {
	ImportRunsTotal.WithLabelValues(mode).Inc()
	ImportRunDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordDBWrite records a database write operation.
func RecordDBWrite(operation string, duration time.Duration, err error) {
	DBWriteDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBErrorsTotal.WithLabelValues(operation).Inc()
	}
}

// RecordAPIRequest records an API request with its response code.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
