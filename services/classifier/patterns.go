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
	"regexp"
	"strings"
)

// =============================================================================
// Product-Name Pattern Detector + Override Resolver
// =============================================================================
//
// Catches constructions that name a specific catalog item rather than
// requesting an aggregate: "Adidas Ultra 664", "Redmi Model 35",
// "Sony Edition 769".

// wordNumberPattern matches a letter-sequence token immediately followed by
// whitespace and a 2-to-4 digit number, e.g. "ultra 664" or "series 124".
var wordNumberPattern = regexp.MustCompile(`\b[a-z]+\s+\d{2,4}\b`)

// Detector recognizes product-name-like substrings and the strong SQL
// override phrases that suppress them.
//
// Description:
//
//	Two independent lexical patterns mark a question as product-name-like:
//	(a) a marketing-suffix word as a whole word, or (b) a word immediately
//	followed by a 2-4 digit number. Override phrases ("how many", "count",
//	...) always win over a detected pattern, so "how many adidas models"
//	is not routed to semantic lookup just because it contains "model".
//
// Thread Safety: Read-only after construction. Safe for concurrent use.
type Detector struct {
	suffixes  *regexp.Regexp
	overrides phraseSet
}

// NewDetector compiles the marketing-suffix alternation and the override
// phrase set.
//
// Inputs:
//
//	marketingSuffixes - Suffix words (e.g. "pro", "ultra"). Must not be empty.
//	overridePhrases - Strong structured-intent phrases. Must not be empty.
//
// Outputs:
//
//	*Detector - The constructed detector. Never nil.
func NewDetector(marketingSuffixes, overridePhrases []string) *Detector {
	quoted := make([]string, len(marketingSuffixes))
	for i, s := range marketingSuffixes {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(s))
	}
	return &Detector{
		suffixes:  regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`),
		overrides: compilePhraseSet(overridePhrases),
	}
}

// LooksLikeProductName reports whether the question appears to name a
// specific catalog item.
//
// Description:
//
//	The input must already be lowercased. Pure, no side effects.
//
//	"adidas ultra 664 details"  → true  (suffix word + word-number pattern)
//	"redmi model 35 price"      → true  ("model" suffix word)
//	"average price of shoes"    → false
//
// Thread Safety: Safe for concurrent use.
func (d *Detector) LooksLikeProductName(textLower string) bool {
	if d.suffixes.MatchString(textLower) {
		return true
	}
	return wordNumberPattern.MatchString(textLower)
}

// HasOverride reports whether a strong SQL phrase is present.
//
// Description:
//
//	Used exclusively to suppress the product-name short-circuit when the
//	question is unambiguously an aggregate/ranking/listing request. Matching
//	is whole-word via the Keyword Matcher. The input must already be
//	lowercased.
//
// Thread Safety: Safe for concurrent use.
func (d *Detector) HasOverride(textLower string) bool {
	return d.overrides.anyMatch(textLower)
}
