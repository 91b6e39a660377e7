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
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/catalogqa/services/llm"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	escalationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalogqa",
		Subsystem: "classifier",
		Name:      "escalation_total",
		Help:      "Escalation events by outcome: memo_hit, store_hit, success, error",
	}, []string{"outcome"})

	escalationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "catalogqa",
		Subsystem: "classifier",
		Name:      "escalation_latency_seconds",
		Help:      "Latency of escalation model calls",
		Buckets:   []float64{0.1, 0.5, 1.0, 2.0, 3.0, 5.0},
	})
)

var escalationTracer = otel.Tracer("catalogqa.classifier.escalation")

// =============================================================================
// Escalation Hook
// =============================================================================

// escalationSystemPrompt anchors the model with worked examples covering the
// exact constructions the lexical rules get wrong. Output contract: one word.
const escalationSystemPrompt = "You are an intent classifier for a product store chatbot.\n" +
	"Output ONLY one word: sql OR semantic\n\n" +
	"sql      = counting, totals, averages, rankings, " +
	"comparisons, price filters, groupings, stock queries\n" +
	"semantic = specific product details, descriptions, " +
	"availability, price of a named product, attributes\n\n" +
	"Examples:\n" +
	"adidas products under 30000          → sql\n" +
	"good products for gifting            → semantic\n" +
	"products with highest product_score  → sql\n" +
	"which products accept COD            → sql\n" +
	"tell me about boat prime 291         → semantic\n" +
	"is redmi model 35 returnable         → semantic\n" +
	"brands available in hyderabad        → sql\n" +
	"products listed in 2023              → sql\n" +
	"popular color options                → semantic\n" +
	"adidas ultra 664 details             → semantic\n" +
	"top 5 cheapest nike                  → sql\n" +
	"out of stock products                → sql"

// Fallback decides a label when lexical scoring is tied.
//
// Description:
//
//	Called by the Engine only on ties (including double-zero). An error
//	return means the collaborator could not decide; the Engine then falls
//	back to its configured default label. Implementations must be safe for
//	concurrent use.
type Fallback interface {
	Classify(ctx context.Context, question string) (Label, error)
}

// Escalator resolves ambiguous questions through a chat model, memoizing
// verdicts so the same question never pays model latency twice.
//
// Description:
//
//	Two cache tiers: an in-process memo map (bounded, oldest-first eviction)
//	and an optional persistent store consulted on memo misses. Only
//	successful model calls populate either tier; errors and timeouts are
//	never cached, so a transient outage does not poison future lookups.
//	The memo key is the lowercased, whitespace-trimmed question.
//
// Thread Safety: Safe for concurrent use. The memo map is mutex-guarded;
// model calls happen outside the lock.
type Escalator struct {
	client  llm.ChatClient
	model   string
	timeout time.Duration
	store   EscalationCacheStore
	logger  *slog.Logger

	mu       sync.Mutex
	memo     map[string]Label
	order    []string
	capacity int
}

// EscalatorOption configures an Escalator.
type EscalatorOption func(*Escalator)

// WithEscalationStore attaches a persistent cache tier.
func WithEscalationStore(store EscalationCacheStore) EscalatorOption {
	return func(e *Escalator) { e.store = store }
}

// WithEscalationLogger overrides the default logger.
func WithEscalationLogger(logger *slog.Logger) EscalatorOption {
	return func(e *Escalator) { e.logger = logger }
}

// NewEscalator creates an Escalator.
//
// Inputs:
//
//	client - Chat collaborator. Must not be nil.
//	model - Model identifier passed through to the client. May be empty
//	  to use the client's default.
//	timeout - Per-call deadline. Non-positive values disable the deadline.
//	capacity - Memo map bound. Non-positive values use 256.
//	opts - Optional configuration.
//
// Outputs:
//
//	*Escalator - The constructed escalator. Never nil.
func NewEscalator(client llm.ChatClient, model string, timeout time.Duration, capacity int, opts ...EscalatorOption) *Escalator {
	if capacity <= 0 {
		capacity = 256
	}
	e := &Escalator{
		client:  client,
		model:   model,
		timeout: timeout,
		// A nil *BadgerEscalationStore is a no-op tier, so Classify never
		// needs a nil check on the store.
		store:    (*BadgerEscalationStore)(nil),
		logger:   slog.Default(),
		memo:     make(map[string]Label, capacity),
		capacity: capacity,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Classify resolves a tied question to a label via the chat model.
//
// Description:
//
//	Lookup order: memo map, persistent store, model call. The model's reply
//	is reduced to its first whitespace-separated token; a token containing
//	"sql" maps to LabelSQL, anything else (including empty or malformed
//	replies) maps to LabelSemantic. Only a transport/model error or an
//	expired deadline produces a non-nil error.
//
// Outputs:
//
//	Label - The verdict. Valid only when error is nil.
//	error - Non-nil when the collaborator could not be reached.
//
// Thread Safety: Safe for concurrent use.
func (e *Escalator) Classify(ctx context.Context, question string) (Label, error) {
	ctx, span := escalationTracer.Start(ctx, "escalator.classify")
	defer span.End()

	key := strings.ToLower(strings.TrimSpace(question))

	if label, ok := e.memoLookup(key); ok {
		escalationTotal.WithLabelValues("memo_hit").Inc()
		span.SetAttributes(attribute.String("escalation.source", "memo"))
		return label, nil
	}

	if label, ok, err := e.store.Load(ctx, key); err != nil {
		// Store failures degrade to a model call; they are not fatal.
		e.logger.Warn("escalation store lookup failed", "error", err)
	} else if ok {
		escalationTotal.WithLabelValues("store_hit").Inc()
		span.SetAttributes(attribute.String("escalation.source", "store"))
		e.memoInsert(key, label)
		return label, nil
	}

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := e.client.Chat(callCtx, []llm.Message{
		{Role: llm.RoleSystem, Content: escalationSystemPrompt},
		{Role: llm.RoleUser, Content: "Q: " + question},
	}, llm.ChatOptions{Model: e.model, Temperature: 0})
	escalationLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		escalationTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "escalation model call failed")
		return "", fmt.Errorf("escalation model call: %w", err)
	}

	label := parseVerdict(reply)
	escalationTotal.WithLabelValues("success").Inc()
	span.SetAttributes(
		attribute.String("escalation.source", "model"),
		attribute.String("escalation.label", string(label)),
	)

	e.memoInsert(key, label)
	if err := e.store.Save(ctx, key, label); err != nil {
		e.logger.Warn("escalation store save failed", "error", err)
	}
	return label, nil
}

// parseVerdict maps a raw model reply to a label. First token containing
// "sql" wins; everything else, malformed replies included, is semantic.
func parseVerdict(reply string) Label {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(reply)))
	if len(fields) > 0 && strings.Contains(fields[0], "sql") {
		return LabelSQL
	}
	return LabelSemantic
}

// memoLookup checks the in-process tier.
func (e *Escalator) memoLookup(key string) (Label, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	label, ok := e.memo[key]
	return label, ok
}

// memoInsert records a verdict, evicting the oldest entry at capacity.
func (e *Escalator) memoInsert(key string, label Label) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.memo[key]; exists {
		e.memo[key] = label
		return
	}
	if len(e.order) >= e.capacity {
		oldest := e.order[0]
		e.order = e.order[1:]
		delete(e.memo, oldest)
	}
	e.memo[key] = label
	e.order = append(e.order, key)
}
