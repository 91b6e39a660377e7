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
	"testing"

	"github.com/AleutianAI/catalogqa/services/storage/badger"
)

func newInMemoryStore(t *testing.T) *BadgerEscalationStore {
	t.Helper()
	db, err := badger.OpenDB(badger.Config{InMemory: true})
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewBadgerEscalationStore(db)
}

func TestBadgerEscalationStoreRoundTrip(t *testing.T) {
	store := newInMemoryStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "brands in hyderabad", LabelSQL); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	label, ok, err := store.Load(ctx, "brands in hyderabad")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !ok {
		t.Fatal("Load miss, want hit")
	}
	if label != LabelSQL {
		t.Errorf("Load = %q, want %q", label, LabelSQL)
	}
}

func TestBadgerEscalationStoreMiss(t *testing.T) {
	store := newInMemoryStore(t)

	label, ok, err := store.Load(context.Background(), "never saved")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ok {
		t.Errorf("Load hit %q, want miss", label)
	}
}

func TestBadgerEscalationStoreOverwrite(t *testing.T) {
	store := newInMemoryStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "q", LabelSQL); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, "q", LabelSemantic); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	label, ok, err := store.Load(ctx, "q")
	if err != nil || !ok {
		t.Fatalf("Load = (%v, %v), want hit", ok, err)
	}
	if label != LabelSemantic {
		t.Errorf("Load = %q, want %q (last write wins)", label, LabelSemantic)
	}
}

// Distinct keys must not collide after hashing.
func TestBadgerEscalationStoreKeyIsolation(t *testing.T) {
	store := newInMemoryStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "question a", LabelSQL); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, "question b", LabelSemantic); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	a, _, _ := store.Load(ctx, "question a")
	b, _, _ := store.Load(ctx, "question b")
	if a != LabelSQL || b != LabelSemantic {
		t.Errorf("Load = (%q, %q), want (%q, %q)", a, b, LabelSQL, LabelSemantic)
	}
}

// A nil store is a valid no-op tier.
func TestNilBadgerEscalationStore(t *testing.T) {
	var store *BadgerEscalationStore
	ctx := context.Background()

	if err := store.Save(ctx, "q", LabelSQL); err != nil {
		t.Errorf("nil Save = %v, want nil", err)
	}
	_, ok, err := store.Load(ctx, "q")
	if err != nil || ok {
		t.Errorf("nil Load = (%v, %v), want miss with nil error", ok, err)
	}
}
