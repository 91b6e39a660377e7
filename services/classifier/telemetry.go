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
	"fmt"
	"log/slog"
	"os"
)

// =============================================================================
// Telemetry Sink
// =============================================================================
//
// Every classification decision is logged; ambiguous queries are logged
// separately at warning level. This data drives offline tuning of the phrase
// lists. Logging is observability, not a correctness dependency: failures
// must never propagate into a classification failure.

// Sink records classification decisions to an append-only log.
//
// Description:
//
//	Both methods are fire-and-forget: implementations must swallow write
//	failures. No read/query contract — consumers read the log out-of-band.
//	Rotation and retention are external concerns.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Sink interface {
	// Record appends one decision record.
	Record(question string, label Label, method Method, sqlScore, semanticScore int)

	// RecordAmbiguous appends one warning-level record for an ambiguous query.
	RecordAmbiguous(question string, sqlScore, semanticScore int)
}

// LogSink implements Sink on a slog.Logger.
//
// Description:
//
//	slog handlers do not surface write errors to the call site, which gives
//	the fire-and-forget contract for free. Pair with NewFileSink for a
//	durable JSON-lines decision log, or with any logger for tests.
//
// Thread Safety: Safe for concurrent use (slog handlers serialize writes).
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a Sink writing through the given logger.
//
// Inputs:
//
//	logger - Destination logger. Nil uses slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// NewFileSink creates a Sink appending JSON records to path.
//
// Description:
//
//	Opens the file in append-only mode and wraps it in a JSON slog handler.
//	The returned file is owned by the caller; close it on shutdown. Open
//	failure is the only surfaced error — once open, writes are best-effort.
//
// Inputs:
//
//	path - Log file path. Created if absent.
//
// Outputs:
//
//	*LogSink - The sink. Nil on error.
//	*os.File - The open log file, for the caller to close.
//	error - Non-nil if the file cannot be opened.
func NewFileSink(path string) (*LogSink, *os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry sink: open %q: %w", path, err)
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return &LogSink{logger: logger}, f, nil
}

// Record appends one decision record.
func (s *LogSink) Record(question string, label Label, method Method, sqlScore, semanticScore int) {
	s.logger.Info("classification decision",
		slog.String("intent", string(label)),
		slog.String("method", string(method)),
		slog.Int("sql_score", sqlScore),
		slog.Int("semantic_score", semanticScore),
		slog.String("question", question),
	)
}

// RecordAmbiguous appends one warning-level record for an ambiguous query.
// Real deployments mine these to improve the phrase lists over time.
func (s *LogSink) RecordAmbiguous(question string, sqlScore, semanticScore int) {
	s.logger.Warn("ambiguous query",
		slog.Int("sql_score", sqlScore),
		slog.Int("semantic_score", semanticScore),
		slog.String("question", question),
	)
}
