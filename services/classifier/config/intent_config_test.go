// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"context"
	"strings"
	"testing"
)

func TestGetIntentConfig_LoadsEmbeddedDefaults(t *testing.T) {
	ResetIntentConfig()
	defer ResetIntentConfig()

	cfg, err := GetIntentConfig(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.SQLPhrases) == 0 {
		t.Error("expected non-empty sql_phrases")
	}
	if len(cfg.SemanticPhrases) == 0 {
		t.Error("expected non-empty semantic_phrases")
	}
	if cfg.DefaultLabel != "semantic" {
		t.Errorf("expected default_label semantic, got %q", cfg.DefaultLabel)
	}
	if cfg.EscalationCacheSize != 256 {
		t.Errorf("expected escalation_cache_size 256, got %d", cfg.EscalationCacheSize)
	}
}

func TestGetIntentConfig_CachedAcrossCalls(t *testing.T) {
	ResetIntentConfig()
	defer ResetIntentConfig()

	first, err := GetIntentConfig(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := GetIntentConfig(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Error("expected the same cached *IntentConfig instance")
	}
}

func TestGetIntentConfig_NilContext(t *testing.T) {
	//nolint:staticcheck // deliberately passing nil to exercise the guard
	if _, err := GetIntentConfig(nil); err == nil {
		t.Error("expected error for nil context")
	}
}

func TestLoadIntentConfig_EmbeddedListsContainRegressionPhrases(t *testing.T) {
	cfg, err := LoadIntentConfig(context.Background(), defaultIntentPhrasesYAML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mustContain := func(list []string, phrase, name string) {
		t.Helper()
		for _, p := range list {
			if p == phrase {
				return
			}
		}
		t.Errorf("expected %s to contain %q", name, phrase)
	}

	// Phrases the decision tests depend on.
	mustContain(cfg.SQLPhrases, "popular", "sql_phrases")
	mustContain(cfg.SQLPhrases, "avg", "sql_phrases")
	mustContain(cfg.SQLPhrases, "how many", "sql_phrases")
	mustContain(cfg.SemanticPhrases, "tell me about", "semantic_phrases")
	mustContain(cfg.OverridePhrases, "how many", "override_phrases")
	mustContain(cfg.MarketingSuffixes, "ultra", "marketing_suffixes")
}

func TestLoadIntentConfig_AppliesDefaults(t *testing.T) {
	yaml := `
sql_phrases: [count]
semantic_phrases: [price of]
override_phrases: [count]
marketing_suffixes: [pro]
`
	cfg, err := LoadIntentConfig(context.Background(), []byte(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultLabel != DefaultLabel {
		t.Errorf("expected default label %q, got %q", DefaultLabel, cfg.DefaultLabel)
	}
	if cfg.EscalationCacheSize != DefaultEscalationCacheSize {
		t.Errorf("expected cache size %d, got %d", DefaultEscalationCacheSize, cfg.EscalationCacheSize)
	}
	if cfg.EscalationTimeoutSeconds != DefaultEscalationTimeoutSeconds {
		t.Errorf("expected timeout %d, got %d", DefaultEscalationTimeoutSeconds, cfg.EscalationTimeoutSeconds)
	}
}

func TestLoadIntentConfig_ValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "empty sql phrases",
			yaml: "semantic_phrases: [price of]\noverride_phrases: [count]\nmarketing_suffixes: [pro]\n",
			want: "sql_phrases",
		},
		{
			name: "empty semantic phrases",
			yaml: "sql_phrases: [count]\noverride_phrases: [count]\nmarketing_suffixes: [pro]\n",
			want: "semantic_phrases",
		},
		{
			name: "bad default label",
			yaml: "sql_phrases: [count]\nsemantic_phrases: [price of]\noverride_phrases: [count]\nmarketing_suffixes: [pro]\ndefault_label: maybe\n",
			want: "default_label",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadIntentConfig(context.Background(), []byte(tc.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadIntentConfig_EmptyData(t *testing.T) {
	if _, err := LoadIntentConfig(context.Background(), nil); err == nil {
		t.Error("expected error for empty YAML data")
	}
}
