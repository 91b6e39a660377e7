// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package classifier decides, for an arbitrary free-text question about the
// product catalog, whether it needs exact structured computation (the "sql"
// path) or fuzzy semantic retrieval (the "semantic" path).
//
// Decision flow:
//
//  1. Product-name pattern check → semantic (unless a strong SQL override)
//  2. Confidence score comparison → clear winner picked
//  3. Tied or both zero → LLM fallback + ambiguous telemetry
//  4. No model available → configured default label
//
// The classifier never fails: every input, including the empty string,
// produces exactly one label. The only external I/O is the escalation hook;
// everything else is in-memory and O(number of phrases).
package classifier

// Label is a routing label: which path answers the question.
type Label string

const (
	// LabelSQL routes to deterministic aggregation/filtering over the
	// catalog's tabular data.
	LabelSQL Label = "sql"

	// LabelSemantic routes to nearest-neighbor retrieval over embedded
	// product documents.
	LabelSemantic Label = "semantic"
)

// Method tags how a classification decision was reached.
type Method string

const (
	// MethodProductNamePattern: a product-name pattern fired with no override.
	MethodProductNamePattern Method = "product_name_pattern"

	// MethodKeywordOnly: exactly one phrase list matched.
	MethodKeywordOnly Method = "keyword_only"

	// MethodConfidenceWinner: both lists matched; the higher score won.
	MethodConfidenceWinner Method = "confidence_winner"

	// MethodLLMFallback: the escalation collaborator decided a tie.
	MethodLLMFallback Method = "llm_fallback"

	// MethodDefaultFallback: tie with no (working) escalation; the
	// configured default label was used.
	MethodDefaultFallback Method = "default_fallback"
)

// Result is the full classification breakdown for one question.
//
// Description:
//
//	Created fresh per call and immutable after construction. Not persisted
//	beyond the telemetry log. SQLScore and SemanticScore are independent
//	non-negative match counts; when the product-name short-circuit fires,
//	both are zero because scoring never ran.
type Result struct {
	// Question is the raw input text.
	Question string `json:"question"`

	// Label is the final routing label.
	Label Label `json:"intent"`

	// SQLScore counts matching structured-intent phrases.
	SQLScore int `json:"sql_score"`

	// SemanticScore counts matching semantic-intent phrases.
	SemanticScore int `json:"semantic_score"`

	// Method tags which decision rule produced the label.
	Method Method `json:"method"`

	// ProductPattern reports whether a product-name pattern fired.
	ProductPattern bool `json:"product_pattern"`

	// SQLOverride reports whether an override phrase fired.
	SQLOverride bool `json:"sql_override"`
}
