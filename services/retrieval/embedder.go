// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package retrieval implements the semantic answer path: product documents
// are embedded through a local Ollama endpoint and indexed in Weaviate, then
// questions are answered by nearest-neighbor search plus model synthesis.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
)

// embedBatchConcurrency is the number of parallel Ollama calls during bulk
// ingestion. 10 concurrent requests saturates Ollama without overwhelming it.
const embedBatchConcurrency = 10

// embedQueryTimeout is the per-query embedding call timeout. Query embedding
// sits on the request hot path; 3 seconds is ample for a local Ollama call.
const embedQueryTimeout = 3 * time.Second

// ollamaEmbedReq is the Ollama /api/embed request body.
type ollamaEmbedReq struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// ollamaEmbedResp is the Ollama /api/embed response body.
type ollamaEmbedResp struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embedder turns text into unit-normalized embedding vectors via Ollama's
// /api/embed endpoint.
//
// # Description
//
// Vectors are unit-normalized before they leave this package, so cosine
// similarity downstream reduces to a dot product and Weaviate's certainty
// scores stay meaningful.
//
// # Thread Safety
//
// Safe for concurrent use.
type Embedder struct {
	url    string
	model  string
	client *http.Client
	logger *slog.Logger
}

// NewEmbedder creates an Embedder.
//
// # Description
//
// Empty url/model fall back to the EMBEDDING_SERVICE_URL and EMBEDDING_MODEL
// environment variables, then to a local Ollama default.
//
// # Inputs
//
//   - url: Full /api/embed endpoint URL. May be empty.
//   - model: Embedding model name. May be empty.
//   - logger: Logger for warnings. Nil uses slog.Default().
//
// # Outputs
//
//   - *Embedder: The constructed embedder. Never nil.
func NewEmbedder(url, model string, logger *slog.Logger) *Embedder {
	if url == "" {
		url = os.Getenv("EMBEDDING_SERVICE_URL")
	}
	if url == "" {
		url = "http://localhost:11434/api/embed"
	}
	if model == "" {
		model = os.Getenv("EMBEDDING_MODEL")
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedder{
		url:   url,
		model: model,
		client: &http.Client{
			Timeout: 30 * time.Second, // bulk ingestion can be slow; query timeout set per-call
		},
		logger: logger,
	}
}

// Model returns the configured embedding model name.
func (e *Embedder) Model() string {
	return e.model
}

// EmbedQuery embeds one question under a tight deadline.
//
// # Outputs
//
//   - []float32: Unit-normalized vector.
//   - error: Non-nil on transport failure, non-200 status, or a zero vector.
func (e *Embedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, embedQueryTimeout)
	defer cancel()
	return e.Embed(ctx, query)
}

// Embed embeds one document.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(ollamaEmbedReq{Model: e.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed HTTP call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed service returned %d: %s", resp.StatusCode, string(body))
	}

	var embedResp ollamaEmbedResp
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("parse embed response: %w", err)
	}
	if len(embedResp.Embeddings) == 0 || len(embedResp.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("embed service returned empty vector")
	}

	vec := embedResp.Embeddings[0]
	norm := l2Norm(vec)
	if norm == 0 {
		return nil, fmt.Errorf("embed service returned zero vector")
	}
	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = v / float32(norm)
	}
	return normalized, nil
}

// EmbedBatch embeds documents in parallel, preserving input order.
//
// # Description
//
// Up to embedBatchConcurrency calls run concurrently. Any single failure
// aborts the batch: ingestion wants all-or-nothing so a partially indexed
// catalog never serves answers.
//
// # Inputs
//
//   - ctx: Cancellation aborts all pending embeds.
//   - texts: Documents to embed. Empty slice returns an empty result.
//
// # Outputs
//
//   - [][]float32: Unit-normalized vectors, texts[i] → result[i].
//   - error: Non-nil if any embed failed.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedBatchConcurrency)

	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			vec, err := e.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("embed document %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// l2Norm computes the L2 (Euclidean) norm of a float32 vector.
func l2Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
