// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command ingest loads a product catalog CSV into both answer backends:
// the SQLite database for the structured path and Weaviate for the
// semantic path.
//
// Usage:
//
//	go run ./cmd/ingest --csv data/products.csv --db db/catalog.db
//
//	# Structured backend only (no embedding service required):
//	go run ./cmd/ingest --csv data/products.csv --db db/catalog.db --skip-vectors
//
//	# Custom Weaviate and embedding endpoints:
//	go run ./cmd/ingest --csv data/products.csv --db db/catalog.db \
//	  --weaviate-host weaviate.internal:8080 \
//	  --embed-url http://ollama.internal:11434/api/embed
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/catalogqa/services/catalog"
	"github.com/AleutianAI/catalogqa/services/retrieval"
)

var (
	csvPath      string
	dbPath       string
	weaviateHost string
	scheme       string
	className    string
	embedURL     string
	embedModel   string
	skipVectors  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load a product catalog CSV into SQLite and Weaviate",
		Long: "Reads the catalog CSV, rebuilds the SQLite products table, then embeds\n" +
			"each product document and indexes it in Weaviate. Pass --skip-vectors to\n" +
			"populate only the structured backend.",
		RunE: runIngest,
	}

	rootCmd.Flags().StringVar(&csvPath, "csv", "", "Path to the catalog CSV (required)")
	rootCmd.Flags().StringVar(&dbPath, "db", "db/catalog.db", "SQLite database path")
	rootCmd.Flags().StringVar(&weaviateHost, "weaviate-host", "localhost:8081", "Weaviate host:port")
	rootCmd.Flags().StringVar(&scheme, "scheme", "http", "Weaviate scheme")
	rootCmd.Flags().StringVar(&className, "class", retrieval.DefaultClassName, "Weaviate class name")
	rootCmd.Flags().StringVar(&embedURL, "embed-url", "", "Embedding endpoint (default: EMBEDDING_SERVICE_URL or local Ollama)")
	rootCmd.Flags().StringVar(&embedModel, "embed-model", "", "Embedding model (default: EMBEDDING_MODEL or nomic-embed-text)")
	rootCmd.Flags().BoolVar(&skipVectors, "skip-vectors", false, "Skip embedding and Weaviate indexing")
	_ = rootCmd.MarkFlagRequired("csv")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := slog.Default()

	products, err := catalog.LoadCSV(csvPath)
	if err != nil {
		return fmt.Errorf("load csv: %w", err)
	}
	if len(products) == 0 {
		return fmt.Errorf("no products found in %s", csvPath)
	}
	logger.Info("Catalog CSV loaded",
		slog.String("path", csvPath),
		slog.Int("products", len(products)))

	if err := ingestStructured(ctx, products, logger); err != nil {
		return err
	}
	if skipVectors {
		logger.Info("Skipping vector indexing (--skip-vectors)")
		return nil
	}
	return ingestVectors(ctx, products, logger)
}

// ingestStructured rebuilds the SQLite products table from the CSV rows.
func ingestStructured(ctx context.Context, products []catalog.Product, logger *slog.Logger) error {
	store, err := catalog.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open catalog db: %w", err)
	}
	defer store.Close()

	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("init catalog schema: %w", err)
	}
	if err := store.InsertProducts(ctx, products); err != nil {
		return fmt.Errorf("insert products: %w", err)
	}
	logger.Info("Structured backend populated",
		slog.String("db", dbPath),
		slog.Int("products", len(products)))
	return nil
}

// ingestVectors embeds each product document and indexes it in Weaviate.
func ingestVectors(ctx context.Context, products []catalog.Product, logger *slog.Logger) error {
	embedder := retrieval.NewEmbedder(embedURL, embedModel, logger)
	vectorStore, err := retrieval.NewVectorStore(scheme, weaviateHost, className, logger)
	if err != nil {
		return fmt.Errorf("connect weaviate: %w", err)
	}
	if err := vectorStore.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure weaviate schema: %w", err)
	}

	docs := make([]retrieval.Document, 0, len(products))
	texts := make([]string, 0, len(products))
	for _, p := range products {
		doc := retrieval.Document{
			ID:       p.ProductID,
			Text:     p.DocumentText(),
			Metadata: p.Metadata(),
		}
		docs = append(docs, doc)
		texts = append(texts, doc.Text)
	}

	logger.Info("Embedding product documents",
		slog.Int("documents", len(texts)),
		slog.String("model", embedder.Model()))
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}

	if err := vectorStore.IndexDocuments(ctx, docs, vectors); err != nil {
		return fmt.Errorf("index documents: %w", err)
	}
	logger.Info("Semantic backend populated",
		slog.String("weaviate", weaviateHost),
		slog.String("class", className),
		slog.Int("documents", len(docs)))
	return nil
}
