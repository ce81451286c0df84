package service

import "strings"

// RefinementPolicy derives the next retrieval query from the prior query and
// the reviewer feedback that rejected the draft. Policies must be monotonic:
// the refined query carries at least the full signal of the prior one.
type RefinementPolicy interface {
	Refine(query, feedback string) string
}

// KeywordAppendPolicy extracts salient keywords from feedback and appends the
// ones not already present in the query. Prior terms are never discarded, so
// each retry query strictly accumulates feedback signal.
type KeywordAppendPolicy struct{}

// NewKeywordAppendPolicy returns the default refinement policy.
func NewKeywordAppendPolicy() KeywordAppendPolicy {
	return KeywordAppendPolicy{}
}

// Refine merges feedback keywords into the query.
func (KeywordAppendPolicy) Refine(query, feedback string) string {
	existing := make(map[string]struct{})
	for _, term := range tokenize(query) {
		existing[term] = struct{}{}
	}

	var added []string
	for _, term := range tokenize(feedback) {
		if _, seen := existing[term]; seen {
			continue
		}
		existing[term] = struct{}{}
		added = append(added, term)
	}

	if len(added) == 0 {
		return query
	}
	return query + " " + strings.Join(added, " ")
}

// stopwords excluded from feedback keyword extraction.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {},
	"not": {}, "are": {}, "was": {}, "but": {}, "does": {}, "from": {},
	"should": {}, "would": {}, "could": {}, "have": {}, "has": {}, "been": {},
	"draft": {}, "response": {}, "missing": {}, "needs": {}, "need": {},
	"please": {}, "include": {}, "mention": {}, "reference": {},
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if len(field) < 3 {
			continue
		}
		if _, skip := stopwords[field]; skip {
			continue
		}
		out = append(out, field)
	}
	return out
}
