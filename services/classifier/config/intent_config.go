// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the intent classification phrase lists.
//
// The phrase lists are plain data (embedded YAML), not branching code, so
// they can be extended without touching decision logic. They are read-only
// after load and safe to share across goroutines.
package config

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Embedded Default Phrase Lists
// =============================================================================

//go:embed intent_phrases.yaml
var defaultIntentPhrasesYAML []byte

// =============================================================================
// OTel Tracer
// =============================================================================

var intentConfigTracer = otel.Tracer("catalogqa.classifier.config")

// =============================================================================
// Intent Configuration Types
// =============================================================================

// IntentConfig holds the phrase lists and tunables for the intent classifier.
//
// Description:
//
//	SQLPhrases and SemanticPhrases are the two curated intent lists; a
//	question is scored by how many phrases from each list match as whole
//	words. OverridePhrases are the structured-intent phrases strong enough
//	to suppress product-name detection. MarketingSuffixes feed the
//	product-name pattern detector.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type IntentConfig struct {
	// SQLPhrases indicate structured aggregation/filtering intent.
	SQLPhrases []string `yaml:"sql_phrases"`

	// SemanticPhrases indicate specific-product / retrieval intent.
	SemanticPhrases []string `yaml:"semantic_phrases"`

	// OverridePhrases force the structured path even when a product-name
	// pattern is detected. Should be a subset of SQLPhrases.
	OverridePhrases []string `yaml:"override_phrases"`

	// MarketingSuffixes are whole words (e.g. "pro", "ultra") whose presence
	// marks a question as naming a specific catalog item.
	MarketingSuffixes []string `yaml:"marketing_suffixes"`

	// DefaultLabel is the label used for ambiguous questions when no
	// escalation collaborator is available. A policy choice, not a law —
	// kept as data so it can be tuned from telemetry.
	DefaultLabel string `yaml:"default_label"`

	// EscalationCacheSize bounds the escalation memo cache (entries).
	EscalationCacheSize int `yaml:"escalation_cache_size"`

	// EscalationTimeoutSeconds bounds the external escalation call.
	EscalationTimeoutSeconds int `yaml:"escalation_timeout_seconds"`
}

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultLabel is the fallback routing label for ambiguous questions.
	// An unrecognized query is more likely a "tell me about this item"
	// request than a structured aggregate.
	DefaultLabel = "semantic"

	// DefaultEscalationCacheSize is the default memo cache capacity.
	DefaultEscalationCacheSize = 256

	// DefaultEscalationTimeoutSeconds is the default escalation call timeout.
	DefaultEscalationTimeoutSeconds = 3

	// MaxYAMLFileSize caps accepted YAML input (SEC2).
	MaxYAMLFileSize = 1 << 20
)

// =============================================================================
// Singleton Intent Config
// =============================================================================

var (
	intentConfigMu      sync.RWMutex
	intentConfigOnce    sync.Once
	cachedIntentConfig  *IntentConfig
	intentConfigLoadErr error
)

// GetIntentConfig returns the cached intent configuration.
//
// Description:
//
//	Loads the embedded phrase lists on first call and caches for subsequent
//	calls. Uses sync.Once for thread-safe initialization.
//
// Inputs:
//
//	ctx - Context for tracing. Must not be nil.
//
// Outputs:
//
//	*IntentConfig - The loaded configuration. Never nil on success.
//	error - Non-nil if loading or validation failed.
//
// Thread Safety: Safe for concurrent use via sync.Once.
func GetIntentConfig(ctx context.Context) (*IntentConfig, error) {
	if ctx == nil {
		return nil, fmt.Errorf("GetIntentConfig: ctx must not be nil")
	}

	intentConfigMu.RLock()
	if cachedIntentConfig != nil || intentConfigLoadErr != nil {
		cfg, err := cachedIntentConfig, intentConfigLoadErr
		intentConfigMu.RUnlock()
		return cfg, err
	}
	intentConfigMu.RUnlock()

	intentConfigMu.Lock()
	defer intentConfigMu.Unlock()

	if cachedIntentConfig != nil || intentConfigLoadErr != nil {
		return cachedIntentConfig, intentConfigLoadErr
	}

	intentConfigOnce.Do(func() {
		cachedIntentConfig, intentConfigLoadErr = LoadIntentConfig(ctx, defaultIntentPhrasesYAML)
	})

	return cachedIntentConfig, intentConfigLoadErr
}

// ResetIntentConfig resets the cached config for testing.
//
// Thread Safety: Safe for concurrent use.
func ResetIntentConfig() {
	intentConfigMu.Lock()
	defer intentConfigMu.Unlock()
	cachedIntentConfig = nil
	intentConfigLoadErr = nil
	intentConfigOnce = sync.Once{}
}

// LoadIntentConfig loads and validates an IntentConfig from YAML bytes.
//
// Description:
//
//	Parses the YAML, applies defaults for missing tunables, and validates
//	the phrase lists for consistency (non-empty lists, known default label).
//
// Inputs:
//
//	ctx - Context for tracing.
//	data - Raw YAML bytes to parse.
//
// Outputs:
//
//	*IntentConfig - The validated configuration.
//	error - Non-nil if parsing or validation fails.
func LoadIntentConfig(ctx context.Context, data []byte) (*IntentConfig, error) {
	_, span := intentConfigTracer.Start(ctx, "config.LoadIntentConfig")
	defer span.End()

	if len(data) == 0 {
		return nil, fmt.Errorf("LoadIntentConfig: empty YAML data")
	}

	// SEC2: File size limit
	if len(data) > MaxYAMLFileSize {
		return nil, fmt.Errorf("LoadIntentConfig: YAML data exceeds maximum size (%d > %d)", len(data), MaxYAMLFileSize)
	}

	var cfg IntentConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("LoadIntentConfig: parsing YAML: %w", err)
	}

	// Apply defaults for missing tunables
	if cfg.DefaultLabel == "" {
		cfg.DefaultLabel = DefaultLabel
	}
	if cfg.EscalationCacheSize <= 0 {
		cfg.EscalationCacheSize = DefaultEscalationCacheSize
	}
	if cfg.EscalationTimeoutSeconds <= 0 {
		cfg.EscalationTimeoutSeconds = DefaultEscalationTimeoutSeconds
	}

	if err := validateIntentConfig(&cfg); err != nil {
		return nil, fmt.Errorf("LoadIntentConfig: validation: %w", err)
	}

	span.SetAttributes(
		attribute.Int("sql_phrases", len(cfg.SQLPhrases)),
		attribute.Int("semantic_phrases", len(cfg.SemanticPhrases)),
		attribute.Int("override_phrases", len(cfg.OverridePhrases)),
		attribute.Int("marketing_suffixes", len(cfg.MarketingSuffixes)),
		attribute.String("default_label", cfg.DefaultLabel),
	)

	slog.Info("intent config loaded",
		slog.Int("sql_phrases", len(cfg.SQLPhrases)),
		slog.Int("semantic_phrases", len(cfg.SemanticPhrases)),
		slog.Int("override_phrases", len(cfg.OverridePhrases)),
		slog.Int("marketing_suffixes", len(cfg.MarketingSuffixes)),
	)

	return &cfg, nil
}

// validateIntentConfig checks the phrase lists for consistency.
func validateIntentConfig(cfg *IntentConfig) error {
	if len(cfg.SQLPhrases) == 0 {
		return fmt.Errorf("sql_phrases must not be empty")
	}
	if len(cfg.SemanticPhrases) == 0 {
		return fmt.Errorf("semantic_phrases must not be empty")
	}
	if len(cfg.OverridePhrases) == 0 {
		return fmt.Errorf("override_phrases must not be empty")
	}
	if len(cfg.MarketingSuffixes) == 0 {
		return fmt.Errorf("marketing_suffixes must not be empty")
	}
	if cfg.DefaultLabel != "sql" && cfg.DefaultLabel != "semantic" {
		return fmt.Errorf("default_label must be 'sql' or 'semantic', got %q", cfg.DefaultLabel)
	}
	for i, p := range cfg.SQLPhrases {
		if p == "" {
			return fmt.Errorf("sql_phrases[%d]: phrase must not be empty", i)
		}
	}
	for i, p := range cfg.SemanticPhrases {
		if p == "" {
			return fmt.Errorf("semantic_phrases[%d]: phrase must not be empty", i)
		}
	}
	return nil
}
