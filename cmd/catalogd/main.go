// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command catalogd starts the catalog question-answering API server.
//
// The server routes each question through the intent classifier: structured
// questions run parameterized SQL over the product catalog; everything else
// goes through embedding retrieval plus model synthesis.
//
// Usage:
//
//	go run ./cmd/catalogd
//	go run ./cmd/catalogd -port 9090 -debug
//
// With a local Ollama for escalation and answer synthesis:
//
//	OLLAMA_BASE_URL=http://localhost:11434 OLLAMA_MODEL=llama3.2:1b go run ./cmd/catalogd
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/v1/qa/health
//
//	# Ask a question
//	curl -X POST http://localhost:8080/v1/qa/ask \
//	  -H "Content-Type: application/json" \
//	  -d '{"question": "how many adidas products"}'
//
//	# Classification breakdown only
//	curl -X POST http://localhost:8080/v1/qa/classify \
//	  -H "Content-Type: application/json" \
//	  -d '{"question": "adidas ultra 664 details"}'
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AleutianAI/catalogqa/services/catalog"
	"github.com/AleutianAI/catalogqa/services/classifier"
	"github.com/AleutianAI/catalogqa/services/classifier/config"
	"github.com/AleutianAI/catalogqa/services/llm"
	"github.com/AleutianAI/catalogqa/services/qa"
	"github.com/AleutianAI/catalogqa/services/retrieval"
	badgerstore "github.com/AleutianAI/catalogqa/services/storage/badger"
	"github.com/AleutianAI/catalogqa/services/textsql"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	debug := flag.Bool("debug", false, "Enable debug mode")
	traceStdout := flag.Bool("trace", false, "Export OTel spans to stdout")
	flag.Parse()

	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// W3C TraceContext propagation: trace context flows from incoming HTTP
	// headers through all handlers and backends.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	var tracerProvider *sdktrace.TracerProvider
	if *traceStdout {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			slog.Error("Failed to create stdout trace exporter", slog.String("error", err.Error()))
			os.Exit(1)
		}
		tracerProvider = sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		otel.SetTracerProvider(tracerProvider)
	}

	ctx := context.Background()

	// Classifier: phrase config, telemetry sink, escalation collaborator.
	intentCfg, err := config.GetIntentConfig(ctx)
	if err != nil {
		slog.Error("Failed to load intent config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sink, sinkFile := setupTelemetrySink()
	escalator, escalationDB := setupEscalator(intentCfg)
	engine := classifier.NewEngine(intentCfg, escalator, sink, slog.Default())

	// Structured path: SQLite catalog.
	dbPath := os.Getenv("CATALOG_DB_PATH")
	if dbPath == "" {
		dbPath = "db/catalog.db"
	}
	store, err := catalog.Open(dbPath)
	if err != nil {
		slog.Error("Failed to open catalog database",
			slog.String("path", dbPath),
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	answerer := textsql.NewAnswerer(store)

	// Semantic path: Ollama embeddings + Weaviate search + synthesis model.
	embedder := retrieval.NewEmbedder("", "", slog.Default())
	vectorStore, err := setupVectorStore(ctx)
	if err != nil {
		slog.Error("Failed to connect to Weaviate", slog.String("error", err.Error()))
		os.Exit(1)
	}

	chatModel := os.Getenv("OLLAMA_MODEL")
	if chatModel == "" {
		chatModel = "llama3.2:1b"
	}
	chatClient, err := llm.NewOllamaChatClient(llm.ResolveOllamaURL(), chatModel)
	if err != nil {
		slog.Warn("Synthesis model unavailable, semantic answers will list documents",
			slog.String("error", err.Error()))
		chatClient = nil
	}

	service := qa.NewService(engine, answerer, embedder, vectorStore, orNilClient(chatClient), chatModel, slog.Default())
	handlers := qa.NewHandlers(service, slog.Default())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("catalogqa"))
	if *debug {
		router.Use(gin.Logger())
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	qa.RegisterRoutes(v1, handlers)

	// Graceful shutdown: flush spans and close stores.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		slog.Info("Shutting down catalogqa server")
		if tracerProvider != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = tracerProvider.Shutdown(shutdownCtx)
			cancel()
		}
		if escalationDB != nil {
			_ = escalationDB.Close()
		}
		_ = store.Close()
		if sinkFile != nil {
			_ = sinkFile.Close()
		}
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%d", *port)
	slog.Info("Starting catalogqa server",
		slog.String("address", addr),
		slog.String("catalog_db", dbPath),
		slog.String("chat_model", chatModel))
	if err := router.Run(addr); err != nil {
		slog.Error("Failed to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// setupTelemetrySink opens the decision log. CLASSIFIER_LOG selects the
// file; unset falls back to the process logger, open failure degrades the
// same way.
func setupTelemetrySink() (classifier.Sink, *os.File) {
	path := os.Getenv("CLASSIFIER_LOG")
	if path == "" {
		return classifier.NewLogSink(slog.Default()), nil
	}
	sink, f, err := classifier.NewFileSink(path)
	if err != nil {
		slog.Warn("Classifier log unavailable, decisions go to the process logger",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return classifier.NewLogSink(slog.Default()), nil
	}
	slog.Info("Classifier decision log opened", slog.String("path", path))
	return sink, f
}

// setupEscalator builds the tie-break collaborator.
//
// Graceful degradation at every layer: no Ollama means no escalator (ties
// resolve to the default label), no cache directory means memo-only
// caching.
func setupEscalator(cfg *config.IntentConfig) (classifier.Fallback, *badgerstore.DB) {
	model := os.Getenv("OLLAMA_MODEL")
	if model == "" {
		model = "llama3.2:1b"
	}
	client, err := llm.NewOllamaChatClient(llm.ResolveOllamaURL(), model)
	if err != nil {
		slog.Warn("Escalation model unavailable, ties use the default label",
			slog.String("error", err.Error()))
		return nil, nil
	}

	cacheDir := os.Getenv("ESCALATION_CACHE_DIR")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cacheDir = filepath.Join(home, ".catalogqa", "cache", "escalation")
		}
	}

	var db *badgerstore.DB
	var opts []classifier.EscalatorOption
	if cacheDir != "" {
		badgerCfg := badgerstore.DefaultConfig()
		badgerCfg.Path = cacheDir
		opened, err := badgerstore.OpenDB(badgerCfg)
		if err != nil {
			slog.Warn("Escalation cache BadgerDB unavailable, verdict persistence disabled",
				slog.String("path", cacheDir),
				slog.String("error", err.Error()))
		} else {
			db = opened
			opts = append(opts, classifier.WithEscalationStore(classifier.NewBadgerEscalationStore(db)))
			slog.Info("Escalation cache BadgerDB opened", slog.String("path", cacheDir))
		}
	}

	timeout := time.Duration(cfg.EscalationTimeoutSeconds) * time.Second
	return classifier.NewEscalator(client, model, timeout, cfg.EscalationCacheSize, opts...), db
}

// setupVectorStore connects to Weaviate from WEAVIATE_SCHEME/WEAVIATE_HOST.
func setupVectorStore(ctx context.Context) (*retrieval.VectorStore, error) {
	scheme := os.Getenv("WEAVIATE_SCHEME")
	if scheme == "" {
		scheme = "http"
	}
	host := os.Getenv("WEAVIATE_HOST")
	if host == "" {
		host = "localhost:8081"
	}
	store, err := retrieval.NewVectorStore(scheme, host, "", slog.Default())
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		// The server can still answer structured questions; semantic requests
		// will surface the failure per-request.
		slog.Warn("Weaviate schema check failed at startup",
			slog.String("error", err.Error()))
	}
	return store, nil
}

// orNilClient keeps a typed-nil *OllamaChatClient from masquerading as a
// non-nil llm.ChatClient interface.
func orNilClient(c *llm.OllamaChatClient) llm.ChatClient {
	if c == nil {
		return nil
	}
	return c
}
