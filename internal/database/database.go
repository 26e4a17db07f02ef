// Catalogus - Movie Catalog Ingestion Service
// Copyright 2026 The Catalogus Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/catalogus/catalogus

// Package database provides the DuckDB persistence layer for the movie
// catalog. All writes go through WithTx, which serializes the write phase
// with an internal mutex since DuckDB allows a single writer at a time.
// Referential integrity is maintained by write ordering rather than foreign
// key constraints, because DuckDB restricts upserts on FK-referenced tables.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/catalogus/catalogus/internal/config"
	"github.com/catalogus/catalogus/internal/logging"
	"github.com/catalogus/catalogus/internal/metrics"
)

// DB wraps the DuckDB connection pool and schema.
type DB struct {
	conn *sql.DB

	// writeMu serializes write transactions. DuckDB permits a single
	// writer; concurrent upserts on the same keys otherwise abort with
	// transaction conflicts.
	writeMu sync.Mutex
}

// New opens (creating if necessary) the DuckDB store and initializes the
// schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure the parent directory exists for file-backed databases.
	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	// Disable extension auto-install/auto-load to prevent hangs in
	// restricted network environments.
	params := url.Values{}
	params.Set("access_mode", "read_write")
	params.Set("threads", strconv.Itoa(numThreads))
	params.Set("autoinstall_known_extensions", "false")
	params.Set("autoload_known_extensions", "false")
	if cfg.MemoryLimit != "" {
		params.Set("max_memory", cfg.MemoryLimit)
	}
	connStr := cfg.Path + "?" + params.Encode()

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// DuckDB is embedded; a small pool suffices and keeps memory bounded.
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.initialize(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Int("threads", numThreads).Msg("Database opened")
	return db, nil
}

// NewInMemory opens a fresh in-memory store. Used by tests.
func NewInMemory() (*DB, error) {
	return New(&config.DatabaseConfig{Path: ":memory:"})
}

// Conn exposes the underlying pool for read-only queries.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// initialize creates the schema if it does not exist.
func (db *DB) initialize() error {
	start := time.Now()
	err := db.createSchema()
	metrics.RecordDBWrite("schema_init", time.Since(start), err)
	return err
}

// WithTx runs fn inside a write transaction. The transaction commits when
// fn returns nil and rolls back otherwise. Write transactions are
// serialized process-wide.
func (db *DB) WithTx(ctx context.Context, operation string, fn func(tx *sql.Tx) error) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	start := time.Now()
	err := db.runTx(ctx, fn)
	metrics.RecordDBWrite(operation, time.Since(start), err)
	return err
}

func (db *DB) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Error().Err(rbErr).Msg("Transaction rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
