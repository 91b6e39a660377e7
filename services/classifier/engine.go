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
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/catalogqa/services/classifier/config"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	decisionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalogqa",
		Subsystem: "classifier",
		Name:      "decisions_total",
		Help:      "Classification decisions by method and label",
	}, []string{"method", "label"})

	ambiguousTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "catalogqa",
		Subsystem: "classifier",
		Name:      "ambiguous_total",
		Help:      "Questions whose lexical scores tied (including double-zero)",
	})

	decisionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "catalogqa",
		Subsystem: "classifier",
		Name:      "decision_latency_seconds",
		Help:      "End-to-end classification latency, escalation included",
		Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1.0, 3.0, 5.0},
	})
)

var engineTracer = otel.Tracer("catalogqa.classifier.engine")

// =============================================================================
// Decision Engine
// =============================================================================

// Engine routes questions to the sql or semantic path.
//
// Description:
//
//	Priority order, first match wins:
//
//	 1. Product-name pattern, no override  → semantic
//	 2. Only SQL phrases matched           → sql
//	 3. Only semantic phrases matched      → semantic
//	 4. Higher score wins                  → winner
//	 5. Tie, escalation succeeds           → escalation verdict
//	 6. Tie, no/failed escalation          → default label
//
//	Classification is total: every input, the empty string included,
//	produces exactly one Result. Telemetry and metrics failures never
//	surface to the caller.
//
// Thread Safety: Read-only after construction except through the fallback
// and sink collaborators, which must themselves be concurrency-safe.
type Engine struct {
	scorer       *Scorer
	detector     *Detector
	fallback     Fallback
	sink         Sink
	defaultLabel Label
	logger       *slog.Logger
}

// NewEngine constructs an Engine from config.
//
// Inputs:
//
//	cfg - Phrase lists and defaults. Must not be nil (use
//	  config.GetIntentConfig).
//	fallback - Tie-break collaborator. May be nil: ties then resolve to
//	  the default label.
//	sink - Telemetry destination. May be nil: decisions go unrecorded.
//	logger - Structured logger. Nil uses slog.Default().
//
// Outputs:
//
//	*Engine - The constructed engine. Never nil.
func NewEngine(cfg *config.IntentConfig, fallback Fallback, sink Sink, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		scorer:       NewScorer(cfg.SQLPhrases, cfg.SemanticPhrases),
		detector:     NewDetector(cfg.MarketingSuffixes, cfg.OverridePhrases),
		fallback:     fallback,
		sink:         sink,
		defaultLabel: Label(cfg.DefaultLabel),
		logger:       logger,
	}
}

// Classify decides the routing label for a question.
//
// Description:
//
//	Pure with respect to the Engine: repeated calls with the same input
//	return identical Results (modulo escalation memoization, which only
//	affects latency, never the label of a previously resolved question).
//
// Inputs:
//
//	ctx - Context for the escalation hook. Must not be nil.
//	question - Raw user question. May be empty.
//
// Outputs:
//
//	*Result - The full decision breakdown. Never nil.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) Classify(ctx context.Context, question string) *Result {
	ctx, span := engineTracer.Start(ctx, "engine.classify")
	defer span.End()
	start := time.Now()

	q := strings.ToLower(strings.TrimSpace(question))

	res := &Result{
		Question:       question,
		ProductPattern: e.detector.LooksLikeProductName(q),
		SQLOverride:    e.detector.HasOverride(q),
	}

	// Rule 1: product-name short-circuit. Scoring never runs, so both
	// scores stay zero in the record.
	if res.ProductPattern && !res.SQLOverride {
		res.Label = LabelSemantic
		res.Method = MethodProductNamePattern
		e.finish(span, res, start)
		return res
	}

	res.SQLScore, res.SemanticScore = e.scorer.Score(q)

	switch {
	case res.SQLScore > 0 && res.SemanticScore == 0:
		res.Label = LabelSQL
		res.Method = MethodKeywordOnly
	case res.SemanticScore > 0 && res.SQLScore == 0:
		res.Label = LabelSemantic
		res.Method = MethodKeywordOnly
	case res.SQLScore > res.SemanticScore:
		res.Label = LabelSQL
		res.Method = MethodConfidenceWinner
	case res.SemanticScore > res.SQLScore:
		res.Label = LabelSemantic
		res.Method = MethodConfidenceWinner
	default:
		e.resolveTie(ctx, res)
	}

	e.finish(span, res, start)
	return res
}

// resolveTie handles equal scores (double-zero included): record the
// ambiguity, then ask the fallback. Any fallback failure lands on the
// configured default label.
func (e *Engine) resolveTie(ctx context.Context, res *Result) {
	ambiguousTotal.Inc()
	if e.sink != nil {
		e.sink.RecordAmbiguous(res.Question, res.SQLScore, res.SemanticScore)
	}

	if e.fallback != nil {
		label, err := e.fallback.Classify(ctx, res.Question)
		if err == nil {
			res.Label = label
			res.Method = MethodLLMFallback
			return
		}
		e.logger.Warn("escalation failed, using default label",
			"error", err,
			"default", string(e.defaultLabel),
		)
	}

	res.Label = e.defaultLabel
	res.Method = MethodDefaultFallback
}

// finish emits telemetry, metrics and span attributes for a decision.
func (e *Engine) finish(span trace.Span, res *Result, start time.Time) {
	if e.sink != nil {
		e.sink.Record(res.Question, res.Label, res.Method, res.SQLScore, res.SemanticScore)
	}
	decisionTotal.WithLabelValues(string(res.Method), string(res.Label)).Inc()
	decisionLatency.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.String("classifier.label", string(res.Label)),
		attribute.String("classifier.method", string(res.Method)),
		attribute.Int("classifier.sql_score", res.SQLScore),
		attribute.Int("classifier.semantic_score", res.SemanticScore),
	)
}
