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

// =============================================================================
// Confidence Scorer
// =============================================================================

// Scorer counts how many SQL vs semantic phrases match a question.
//
// Description:
//
//	Higher score = higher confidence in that path. Both scores are
//	independent non-negative integers bounded only by list size; a question
//	may match multiple phrases from the same list and each match counts.
//
// Thread Safety: Read-only after construction. Safe for concurrent use.
type Scorer struct {
	sql      phraseSet
	semantic phraseSet
}

// NewScorer pre-compiles both phrase lists into a Scorer.
//
// Inputs:
//
//	sqlPhrases - Structured-intent phrase list. Must not be empty.
//	semanticPhrases - Semantic-intent phrase list. Must not be empty.
//
// Outputs:
//
//	*Scorer - The constructed scorer. Never nil.
func NewScorer(sqlPhrases, semanticPhrases []string) *Scorer {
	return &Scorer{
		sql:      compilePhraseSet(sqlPhrases),
		semantic: compilePhraseSet(semanticPhrases),
	}
}

// Score returns (sqlScore, semanticScore) for the question.
//
// Description:
//
//	Pure function: no side effects, no I/O. The input must already be
//	lowercased and trimmed (the Engine normalizes once per question).
//
// Thread Safety: Safe for concurrent use.
func (s *Scorer) Score(textLower string) (sqlScore, semanticScore int) {
	return s.sql.countMatches(textLower), s.semantic.countMatches(textLower)
}
