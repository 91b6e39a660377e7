// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var retrievalTracer = otel.Tracer("catalogqa.retrieval")

// DefaultClassName is the Weaviate class holding product documents.
const DefaultClassName = "Product"

// Document is one embeddable unit: the rendered product text plus the raw
// fields kept for display and filtering.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]interface{}
}

// SearchHit is one nearest-neighbor result.
type SearchHit struct {
	Text      string
	Certainty float64
}

// VectorStore indexes and searches product documents in Weaviate.
//
// # Description
//
// The class is created with vectorizer "none": vectors always come from the
// Embedder, so search behavior is identical between ingestion and serving
// and no vectorizer module needs to run inside Weaviate.
//
// # Thread Safety
//
// Safe for concurrent use; the Weaviate client is stateless per call.
type VectorStore struct {
	client    *weaviate.Client
	className string
	logger    *slog.Logger
}

// NewVectorStore connects to a Weaviate instance.
//
// # Inputs
//
//   - scheme: "http" or "https".
//   - host: host:port of the Weaviate endpoint.
//   - className: Class name. Empty uses DefaultClassName.
//   - logger: Logger. Nil uses slog.Default().
//
// # Outputs
//
//   - *VectorStore: The store. Never nil on success.
//   - error: Non-nil if the client cannot be constructed.
func NewVectorStore(scheme, host, className string, logger *slog.Logger) (*VectorStore, error) {
	if className == "" {
		className = DefaultClassName
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := weaviate.NewClient(weaviate.Config{Scheme: scheme, Host: host})
	if err != nil {
		return nil, fmt.Errorf("weaviate client: %w", err)
	}
	return &VectorStore{client: client, className: className, logger: logger}, nil
}

// EnsureSchema creates the product class if it does not exist. Idempotent.
func (v *VectorStore) EnsureSchema(ctx context.Context) error {
	ctx, span := retrievalTracer.Start(ctx, "vectorstore.ensure_schema")
	defer span.End()

	exists, err := v.client.Schema().ClassExistenceChecker().
		WithClassName(v.className).Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate class check: %w", err)
	}
	if exists {
		return nil
	}

	class := &models.Class{
		Class:      v.className,
		Vectorizer: "none",
		VectorIndexConfig: map[string]interface{}{
			"distance": "cosine",
		},
		Properties: []*models.Property{
			{Name: "text", DataType: []string{"text"}},
			{Name: "product_id", DataType: []string{"text"}},
			{Name: "product_name", DataType: []string{"text"}},
			{Name: "brand", DataType: []string{"text"}},
			{Name: "category", DataType: []string{"text"}},
		},
	}
	if err := v.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("weaviate class create: %w", err)
	}
	v.logger.Info("created weaviate class", slog.String("class", v.className))
	return nil
}

// IndexDocuments batch-upserts documents with their vectors.
//
// # Description
//
// Object IDs are derived deterministically from the document ID (UUIDv5),
// so re-running ingestion updates objects in place instead of duplicating
// them.
//
// # Inputs
//
//   - ctx: Context for the batch call.
//   - docs: Documents to index.
//   - vectors: docs[i] pairs with vectors[i]. Lengths must match.
func (v *VectorStore) IndexDocuments(ctx context.Context, docs []Document, vectors [][]float32) error {
	ctx, span := retrievalTracer.Start(ctx, "vectorstore.index_documents")
	defer span.End()
	span.SetAttributes(attribute.Int("retrieval.documents", len(docs)))

	if len(docs) != len(vectors) {
		return fmt.Errorf("weaviate index: %d documents but %d vectors", len(docs), len(vectors))
	}
	if len(docs) == 0 {
		return nil
	}

	objects := make([]*models.Object, len(docs))
	for i, doc := range docs {
		props := map[string]interface{}{"text": doc.Text}
		for k, val := range doc.Metadata {
			props[k] = val
		}
		objects[i] = &models.Object{
			Class:      v.className,
			ID:         strfmt.UUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(doc.ID)).String()),
			Properties: props,
			Vector:     models.C11yVector(vectors[i]),
		}
	}

	resp, err := v.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate batch: %w", err)
	}
	for _, obj := range resp {
		if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
			return fmt.Errorf("weaviate batch object %s: %s", obj.ID, obj.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

// Search returns the k nearest documents to the query vector.
func (v *VectorStore) Search(ctx context.Context, vector []float32, k int) ([]SearchHit, error) {
	ctx, span := retrievalTracer.Start(ctx, "vectorstore.search")
	defer span.End()
	span.SetAttributes(attribute.Int("retrieval.k", k))

	nearVector := v.client.GraphQL().NearVectorArgBuilder().WithVector(vector)
	resp, err := v.client.GraphQL().Get().
		WithClassName(v.className).
		WithFields(
			graphql.Field{Name: "text"},
			graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
		).
		WithNearVector(nearVector).
		WithLimit(k).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate search: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate search: %s", resp.Errors[0].Message)
	}

	return parseSearchResponse(resp.Data, v.className)
}

// parseSearchResponse walks the GraphQL Get response shape.
func parseSearchResponse(data map[string]models.JSONObject, className string) ([]SearchHit, error) {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("weaviate search: malformed response: no Get block")
	}
	items, ok := get[className].([]interface{})
	if !ok {
		// A missing class key means zero results, not an error.
		return nil, nil
	}

	hits := make([]SearchHit, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		hit := SearchHit{}
		if text, ok := obj["text"].(string); ok {
			hit.Text = text
		}
		if add, ok := obj["_additional"].(map[string]interface{}); ok {
			if c, ok := add["certainty"].(float64); ok {
				hit.Certainty = c
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
