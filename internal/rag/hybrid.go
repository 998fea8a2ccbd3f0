package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_retriever.go -package=mocks haetsal-ai/internal/rag Retriever

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"haetsal-ai/internal/contextutil"
)

// Retriever performs per-corpus nearest-neighbour search. *Index implements it.
type Retriever interface {
	SearchFAQ(ctx context.Context, query string, topN int) ([]SearchResult, error)
	SearchTerms(ctx context.Context, query string, topN int) ([]SearchResult, error)
}

// Hybrid merges FAQ and terms results into one ranked list.
type Hybrid struct {
	retriever   Retriever
	faqWeight   float64
	termsWeight float64
}

// NewHybrid creates a hybrid searcher using the source weights from tuning.
func NewHybrid(retriever Retriever, tuning Tuning) *Hybrid {
	return &Hybrid{
		retriever:   retriever,
		faqWeight:   tuning.FAQWeight,
		termsWeight: tuning.TermsWeight,
	}
}

// Search queries both corpora and merges the hits. When one source fails the
// other source's results are still returned together with the error.
func (h *Hybrid) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	faq, faqErr := h.retriever.SearchFAQ(ctx, query, opts.FAQTopN)
	if faqErr != nil {
		logger.WarnContext(ctx, "faq retrieval failed", "error", faqErr)
		faq = nil
	}
	terms, termsErr := h.retriever.SearchTerms(ctx, query, opts.TermsTopN)
	if termsErr != nil {
		logger.WarnContext(ctx, "terms retrieval failed", "error", termsErr)
		terms = nil
	}

	merged := MergeAndRank(faq, terms, h.faqWeight, h.termsWeight, opts.MaxResults)

	if err := errors.Join(faqErr, termsErr); err != nil {
		return merged, fmt.Errorf("hybrid search partially failed: %w", err)
	}
	return merged, nil
}

// NormalizeScores min-max scales RawScore into NormalizedScore in place.
// A single result or a list of equal scores normalizes to 1.0.
func NormalizeScores(results []SearchResult) {
	if len(results) == 0 {
		return
	}

	lo, hi := results[0].RawScore, results[0].RawScore
	for _, r := range results[1:] {
		lo = min(lo, r.RawScore)
		hi = max(hi, r.RawScore)
	}

	span := hi - lo
	for i := range results {
		if span == 0 {
			results[i].NormalizedScore = 1.0
			continue
		}
		results[i].NormalizedScore = (results[i].RawScore - lo) / span
	}
}

// MergeAndRank normalizes each source independently, applies the source
// weights and returns at most maxResults results by descending WeightedScore.
// FAQ results precede terms results with equal scores. Inputs are not modified.
func MergeAndRank(faq, terms []SearchResult, faqWeight, termsWeight float64, maxResults int) []SearchResult {
	if maxResults <= 0 {
		return []SearchResult{}
	}

	f := append([]SearchResult(nil), faq...)
	t := append([]SearchResult(nil), terms...)
	NormalizeScores(f)
	NormalizeScores(t)

	merged := make([]SearchResult, 0, len(f)+len(t))
	for _, r := range f {
		r.WeightedScore = r.NormalizedScore * faqWeight
		merged = append(merged, r)
	}
	for _, r := range t {
		r.WeightedScore = r.NormalizedScore * termsWeight
		merged = append(merged, r)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].WeightedScore > merged[j].WeightedScore
	})

	if len(merged) > maxResults {
		merged = merged[:maxResults]
	}
	return merged
}

// Summarize counts results per source.
func Summarize(results []SearchResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.SourceType {
		case SourceFAQ:
			s.FAQ++
		case SourceTerms:
			s.Terms++
		}
	}
	return s
}
