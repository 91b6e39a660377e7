// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package badger wraps a BadgerDB instance behind a small transactional
// surface. BadgerDB is embedded service infrastructure — no network call, no
// availability dependency — which is why it backs the escalation cache
// rather than an external store.
package badger

import (
	"context"
	"fmt"

	dgbadger "github.com/dgraph-io/badger/v4"
)

// Config holds BadgerDB open options.
type Config struct {
	// Path is the on-disk directory. Ignored when InMemory is true.
	Path string

	// InMemory opens an ephemeral DB (used by tests).
	InMemory bool

	// SyncWrites forces fsync on every write. Off by default: the stores
	// built on this DB are caches whose loss is recoverable.
	SyncWrites bool
}

// DefaultConfig returns the standard cache-store configuration.
func DefaultConfig() Config {
	return Config{SyncWrites: false}
}

// DB is an opened BadgerDB handle.
//
// # Thread Safety
//
// Safe for concurrent use. BadgerDB transactions are per-goroutine.
type DB struct {
	db *dgbadger.DB
}

// OpenDB opens (or creates) a BadgerDB at the configured path.
//
// # Inputs
//
//   - cfg: Open options. cfg.Path must be set unless cfg.InMemory is true.
//
// # Outputs
//
//   - *DB: The opened handle. Never nil on success.
//   - error: Non-nil if the directory cannot be opened.
func OpenDB(cfg Config) (*DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("badger: path must not be empty")
	}

	opts := dgbadger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(nil) // badger's default logger is noisy; callers use slog

	db, err := dgbadger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open %q: %w", cfg.Path, err)
	}
	return &DB{db: db}, nil
}

// WithTxn runs fn inside a read-write transaction.
//
// The context is checked before starting; Badger itself does not accept a
// context, so cancellation mid-transaction is not observed.
func (d *DB) WithTxn(ctx context.Context, fn func(txn *dgbadger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.db.Update(fn)
}

// WithReadTxn runs fn inside a read-only transaction.
func (d *DB) WithReadTxn(ctx context.Context, fn func(txn *dgbadger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.db.View(fn)
}

// Close releases the underlying BadgerDB.
func (d *DB) Close() error {
	return d.db.Close()
}
