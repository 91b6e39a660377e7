// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package qa wires the classifier, the structured answer path, and the
// semantic retrieval path into one question-answering service and exposes
// it over HTTP.
package qa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/catalogqa/services/classifier"
	"github.com/AleutianAI/catalogqa/services/llm"
	"github.com/AleutianAI/catalogqa/services/retrieval"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	askTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalogqa",
		Subsystem: "qa",
		Name:      "ask_total",
		Help:      "Answered questions by path: sql, semantic, semantic_empty",
	}, []string{"path"})

	askLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "catalogqa",
		Subsystem: "qa",
		Name:      "ask_latency_seconds",
		Help:      "End-to-end answer latency by path",
		Buckets:   []float64{0.01, 0.1, 0.5, 1.0, 3.0, 5.0, 10.0},
	}, []string{"path"})
)

var qaTracer = otel.Tracer("catalogqa.qa")

// retrievalTopK is how many product documents the semantic path retrieves.
const retrievalTopK = 5

// notFoundAnswer is returned when retrieval finds nothing relevant.
const notFoundAnswer = "This product is not available in our store."

// synthesisSystemPrompt constrains the answer model to the retrieved
// documents.
const synthesisSystemPrompt = "You are a helpful product assistant. " +
	"Answer using ONLY the provided documents. " +
	"Be concise and specific."

// Answer is the full response for one question.
type Answer struct {
	Question string            `json:"question"`
	Intent   classifier.Label  `json:"intent"`
	Method   classifier.Method `json:"method"`
	Text     string            `json:"answer"`

	// Sources holds the retrieved document texts on the semantic path.
	// Empty on the sql path.
	Sources []string `json:"sources,omitempty"`
}

// IntentClassifier routes a question to sql or semantic.
type IntentClassifier interface {
	Classify(ctx context.Context, question string) *classifier.Result
}

// StructuredAnswerer answers via the catalog's tabular data.
type StructuredAnswerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// QueryEmbedder embeds one question.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// Searcher returns the nearest product documents to a query vector.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]retrieval.SearchHit, error)
}

// Service answers catalog questions over both paths.
//
// Description:
//
//	Ask never calls the synthesis model on the sql path, and never touches
//	SQLite on the semantic path; the classifier's label fully determines
//	which backend runs. A synthesis model failure degrades to a plain
//	listing of the retrieved documents rather than failing the request.
//
// Thread Safety: Safe for concurrent use; all collaborators are.
type Service struct {
	classifier IntentClassifier
	structured StructuredAnswerer
	embedder   QueryEmbedder
	searcher   Searcher
	chat       llm.ChatClient
	chatModel  string
	logger     *slog.Logger
}

// NewService constructs a Service.
//
// Inputs:
//
//	intents - Intent classifier. Must not be nil.
//	structured - Structured answer path. Must not be nil.
//	embedder - Query embedder for the semantic path. Must not be nil.
//	searcher - Vector store search. Must not be nil.
//	chat - Synthesis model client. May be nil: the semantic path then
//	  always answers with a document listing.
//	chatModel - Model identifier for synthesis. May be empty.
//	logger - Structured logger. Nil uses slog.Default().
func NewService(
	intents IntentClassifier,
	structured StructuredAnswerer,
	embedder QueryEmbedder,
	searcher Searcher,
	chat llm.ChatClient,
	chatModel string,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		classifier: intents,
		structured: structured,
		embedder:   embedder,
		searcher:   searcher,
		chat:       chat,
		chatModel:  chatModel,
		logger:     logger,
	}
}

// Classify exposes the raw classification breakdown (for the /classify
// endpoint and debugging UIs).
func (s *Service) Classify(ctx context.Context, question string) *classifier.Result {
	return s.classifier.Classify(ctx, question)
}

// Ask answers one question.
//
// Outputs:
//
//	*Answer - The answer. Nil only when error is non-nil.
//	error - Non-nil when the chosen backend failed entirely.
func (s *Service) Ask(ctx context.Context, question string) (*Answer, error) {
	ctx, span := qaTracer.Start(ctx, "qa.ask")
	defer span.End()
	start := time.Now()

	res := s.classifier.Classify(ctx, question)
	span.SetAttributes(
		attribute.String("qa.intent", string(res.Label)),
		attribute.String("qa.method", string(res.Method)),
	)

	answer := &Answer{
		Question: question,
		Intent:   res.Label,
		Method:   res.Method,
	}

	switch res.Label {
	case classifier.LabelSQL:
		text, err := s.structured.Answer(ctx, question)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "structured path failed")
			return nil, fmt.Errorf("structured answer: %w", err)
		}
		answer.Text = text
		askTotal.WithLabelValues("sql").Inc()
		askLatency.WithLabelValues("sql").Observe(time.Since(start).Seconds())
		return answer, nil

	default:
		path, err := s.answerSemantic(ctx, question, answer)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "semantic path failed")
			return nil, err
		}
		askTotal.WithLabelValues(path).Inc()
		askLatency.WithLabelValues(path).Observe(time.Since(start).Seconds())
		return answer, nil
	}
}

// answerSemantic fills in the semantic-path answer and returns the metrics
// path label.
func (s *Service) answerSemantic(ctx context.Context, question string, answer *Answer) (string, error) {
	vector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	hits, err := s.searcher.Search(ctx, vector, retrievalTopK)
	if err != nil {
		return "", fmt.Errorf("vector search: %w", err)
	}
	if len(hits) == 0 {
		answer.Text = notFoundAnswer
		return "semantic_empty", nil
	}

	sources := make([]string, len(hits))
	for i, hit := range hits {
		sources[i] = hit.Text
	}
	answer.Sources = sources

	if s.chat == nil {
		answer.Text = listingAnswer(sources)
		return "semantic", nil
	}

	reply, err := s.chat.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: synthesisSystemPrompt},
		{Role: llm.RoleUser, Content: synthesisPrompt(question, sources)},
	}, llm.ChatOptions{Model: s.chatModel, Temperature: 0})
	if err != nil {
		// Retrieval already succeeded; show the documents instead of failing.
		s.logger.Warn("synthesis model failed, answering with document listing",
			"error", err,
		)
		answer.Text = listingAnswer(sources)
		return "semantic", nil
	}

	answer.Text = strings.TrimSpace(reply)
	return "semantic", nil
}

// synthesisPrompt builds the document-grounded user prompt.
func synthesisPrompt(question string, docs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Answer this question: %s\n\nDocuments:\n", question)
	for _, doc := range docs {
		fmt.Fprintf(&b, "- %s\n", doc)
	}
	b.WriteString("\nAnswer directly using only the documents above. " +
		"If the product is found, give specific details like price. " +
		"If not found, say \"" + notFoundAnswer + "\"\n")
	return b.String()
}

// listingAnswer renders retrieved documents directly when no synthesis
// model is available.
func listingAnswer(docs []string) string {
	var b strings.Builder
	b.WriteString("Closest matching products:\n")
	for i, doc := range docs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, doc)
	}
	return strings.TrimSpace(b.String())
}
