package rag

import (
	"haetsal-ai/internal/corpus"
)

// SourceType identifies the corpus a result came from.
type SourceType string

const (
	SourceFAQ   SourceType = "faq"
	SourceTerms SourceType = "terms"
)

// SearchResult is a single retrieval hit. Exactly one of FAQ and Terms is set,
// matching SourceType.
type SearchResult struct {
	SourceType SourceType         `json:"source_type"`
	FAQ        *corpus.FAQEntry   `json:"faq,omitempty"`
	Terms      *corpus.TermsChunk `json:"terms,omitempty"`
	// RawScore is the negated squared L2 distance; higher is closer.
	RawScore float64 `json:"score"`
	// NormalizedScore is RawScore min-max scaled within its source list.
	NormalizedScore float64 `json:"normalized_score"`
	// WeightedScore is NormalizedScore multiplied by the source weight.
	WeightedScore float64 `json:"weighted_score"`
}

// Key identifies the underlying entry for deduplication across queries.
func (r SearchResult) Key() string {
	switch r.SourceType {
	case SourceFAQ:
		if r.FAQ != nil {
			return "faq_" + r.FAQ.Question
		}
	case SourceTerms:
		if r.Terms != nil {
			return "terms_" + r.Terms.ID
		}
	}
	return string(r.SourceType) + "_"
}

// Content returns the body text of the hit.
func (r SearchResult) Content() string {
	switch {
	case r.FAQ != nil:
		return r.FAQ.Content
	case r.Terms != nil:
		return r.Terms.Content
	}
	return ""
}

// SearchOptions bounds a hybrid search.
type SearchOptions struct {
	FAQTopN    int `json:"faq_top_k"`
	TermsTopN  int `json:"terms_top_k"`
	MaxResults int `json:"max_results"`
	// BaseQuery, when set, is searched in place of the message for the base
	// variant. Flow analysis and the other variants still use the message.
	BaseQuery string `json:"-"`
}

// DefaultSearchOptions returns 3 FAQ, 5 terms and 5 merged results.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{FAQTopN: 3, TermsTopN: 5, MaxResults: 5}
}

// Summary counts results per source.
type Summary struct {
	Total int `json:"total"`
	FAQ   int `json:"faq_count"`
	Terms int `json:"terms_count"`
}
