// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/catalogqa/services/storage/badger"
)

// =============================================================================
// Escalation Cache Store (persistent tier)
// =============================================================================
//
// The in-process memo map in Escalator is authoritative for a single run; this
// store lets escalation verdicts survive restarts so a redeployed service
// does not re-pay model latency for questions it has already resolved.

const (
	// escalationKeyPrefix namespaces escalation entries within the shared
	// Badger database. Versioned so a prompt change can invalidate the tier
	// by bumping the suffix.
	escalationKeyPrefix = "classifier/esc/v1/"

	// escalationEntryTTL bounds staleness. Verdicts are cheap to recompute
	// relative to a week of reuse.
	escalationEntryTTL = 7 * 24 * time.Hour
)

// errCacheMiss distinguishes "not cached" from real storage failures.
var errCacheMiss = errors.New("escalation cache miss")

// EscalationCacheStore persists escalation verdicts across process restarts.
//
// Description:
//
//	Load returns (label, true, nil) on a hit and (_, false, nil) on a miss;
//	errors indicate storage failure, never absence. Save overwrites any
//	existing entry for the key.
//
// Thread Safety: Implementations must be safe for concurrent use.
type EscalationCacheStore interface {
	Load(ctx context.Context, key string) (Label, bool, error)
	Save(ctx context.Context, key string, label Label) error
}

// BadgerEscalationStore implements EscalationCacheStore on Badger.
//
// Description:
//
//	Keys are hashed before storage so arbitrary question text never appears
//	verbatim in the key space. Entries carry a TTL; Badger expires them
//	lazily. A nil *BadgerEscalationStore is a valid no-op store (always
//	misses, never errors), which lets callers skip nil checks when the
//	persistent tier is disabled.
//
// Thread Safety: Safe for concurrent use (Badger transactions).
type BadgerEscalationStore struct {
	db *badger.DB
}

// NewBadgerEscalationStore wraps an open Badger database.
//
// Inputs:
//
//	db - Open database handle. Must not be nil.
func NewBadgerEscalationStore(db *badger.DB) *BadgerEscalationStore {
	return &BadgerEscalationStore{db: db}
}

// escalationKey derives the storage key for a normalized question.
func escalationKey(key string) []byte {
	sum := sha256.Sum256([]byte(key))
	return []byte(escalationKeyPrefix + hex.EncodeToString(sum[:]))
}

// Load fetches a previously saved verdict.
func (s *BadgerEscalationStore) Load(ctx context.Context, key string) (Label, bool, error) {
	if s == nil {
		return "", false, nil
	}
	var label Label
	err := s.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		item, err := txn.Get(escalationKey(key))
		if errors.Is(err, dgbadger.ErrKeyNotFound) {
			return errCacheMiss
		}
		if err != nil {
			return fmt.Errorf("escalation cache get: %w", err)
		}
		return item.Value(func(val []byte) error {
			label = Label(val)
			return nil
		})
	})
	if errors.Is(err, errCacheMiss) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return label, true, nil
}

// Save writes a verdict with the standard TTL.
func (s *BadgerEscalationStore) Save(ctx context.Context, key string, label Label) error {
	if s == nil {
		return nil
	}
	return s.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		entry := dgbadger.NewEntry(escalationKey(key), []byte(label)).WithTTL(escalationEntryTTL)
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("escalation cache set: %w", err)
		}
		return nil
	})
}
