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
// Whole-Word Keyword Matcher
// =============================================================================
//
// Prevents substring false positives:
//
//	"popular color"  + "popular"  → match     (whole word)
//	"unpopular item" + "popular"  → no match  (substring blocked)
//	"avg price"      + "avg"      → match
//	"average"        + "avg"      → no match  (not the same word)

// MatchesWholeWord reports whether phrase occurs in text bounded by non-word
// characters on both sides.
//
// Description:
//
//	Matching is case-insensitive: both inputs are lowered before comparison.
//	Multi-word phrases match as contiguous word sequences. The phrase is
//	never allowed to be a proper substring of a larger token.
//
// Thread Safety: Stateless. Safe for concurrent use.
func MatchesWholeWord(text, phrase string) bool {
	return compileWholeWord(phrase).MatchString(strings.ToLower(text))
}

// compileWholeWord builds the boundary-anchored pattern for one phrase.
func compileWholeWord(phrase string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(phrase)) + `\b`)
}

// phraseSet holds a phrase list alongside its pre-compiled whole-word
// patterns. Compiling once at construction keeps Score() on the hot path
// free of regexp compilation.
type phraseSet struct {
	phrases  []string
	patterns []*regexp.Regexp
}

// compilePhraseSet pre-compiles whole-word patterns for every phrase.
func compilePhraseSet(phrases []string) phraseSet {
	ps := phraseSet{
		phrases:  phrases,
		patterns: make([]*regexp.Regexp, len(phrases)),
	}
	for i, p := range phrases {
		ps.patterns[i] = compileWholeWord(p)
	}
	return ps
}

// countMatches counts how many phrases in the set match textLower.
// Each phrase counts independently: "average price" and "average" both
// increment when both match. textLower must already be lowercased.
func (ps phraseSet) countMatches(textLower string) int {
	count := 0
	for _, re := range ps.patterns {
		if re.MatchString(textLower) {
			count++
		}
	}
	return count
}

// anyMatch reports whether any phrase in the set matches textLower.
func (ps phraseSet) anyMatch(textLower string) bool {
	for _, re := range ps.patterns {
		if re.MatchString(textLower) {
			return true
		}
	}
	return false
}
