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
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogSinkRecord(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	sink.Record("how many shoes", LabelSQL, MethodKeywordOnly, 2, 0)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("record is not valid JSON: %v", err)
	}
	if entry["intent"] != "sql" {
		t.Errorf("intent = %v, want sql", entry["intent"])
	}
	if entry["method"] != "keyword_only" {
		t.Errorf("method = %v, want keyword_only", entry["method"])
	}
	if entry["sql_score"] != float64(2) {
		t.Errorf("sql_score = %v, want 2", entry["sql_score"])
	}
	if entry["question"] != "how many shoes" {
		t.Errorf("question = %v", entry["question"])
	}
}

func TestLogSinkRecordAmbiguous(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	sink.RecordAmbiguous("xyz", 0, 0)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("record is not valid JSON: %v", err)
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
	if entry["question"] != "xyz" {
		t.Errorf("question = %v", entry["question"])
	}
}

func TestNewFileSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classifier_log.jsonl")

	sink, f, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}
	sink.Record("q1", LabelSemantic, MethodDefaultFallback, 0, 0)
	if err := f.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// Reopening must append, not truncate.
	sink, f, err = NewFileSink(path)
	if err != nil {
		t.Fatalf("NewFileSink reopen failed: %v", err)
	}
	sink.Record("q2", LabelSQL, MethodKeywordOnly, 1, 0)
	if err := f.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("log lines = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "q1") || !strings.Contains(lines[1], "q2") {
		t.Errorf("unexpected log contents: %q", lines)
	}
}

func TestNewFileSinkBadPath(t *testing.T) {
	if _, _, err := NewFileSink(filepath.Join(t.TempDir(), "missing", "dir", "log")); err == nil {
		t.Error("NewFileSink succeeded, want error for missing directory")
	}
}
