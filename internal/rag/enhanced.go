package rag

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"haetsal-ai/internal/contextutil"
	"haetsal-ai/internal/conversation"
)

// QueryUsage records one executed query variant.
type QueryUsage struct {
	Query        string                   `json:"query"`
	Type         conversation.VariantType `json:"type"`
	Weight       float64                  `json:"weight"`
	ResultsCount int                      `json:"results_count"`
}

// Metadata describes how an enhanced search was carried out.
type Metadata struct {
	Strategy          conversation.Strategy    `json:"search_strategy"`
	FlowPattern       conversation.FlowPattern `json:"conversation_flow"`
	Stage             conversation.Stage       `json:"conversation_stage"`
	Queries           []QueryUsage             `json:"queries_used"`
	TotalCandidates   int                      `json:"total_candidates"`
	DeduplicatedCount int                      `json:"deduplicated_count"`
	FinalCount        int                      `json:"final_count"`
	SearchTime        time.Duration            `json:"search_time"`
	// Degraded is set when at least one retrieval failed.
	Degraded bool `json:"degraded"`
}

// EnhancedResult is the output of EnhancedSearcher.Search.
type EnhancedResult struct {
	Results  []RankedResult         `json:"results"`
	Metadata Metadata               `json:"search_metadata"`
	Plan     conversation.QueryPlan `json:"-"`
}

// EnhancedSearcher runs conversation-aware hybrid search: every query variant
// is searched, results are merged and deduplicated, then reranked for the
// conversation's strategy.
type EnhancedSearcher struct {
	hybrid  *Hybrid
	queries *conversation.QueryBuilder
	tuning  Tuning
}

// NewEnhancedSearcher creates a searcher. The query builder uses the variant
// weights from tuning.
func NewEnhancedSearcher(retriever Retriever, analyzer *conversation.Analyzer, tuning Tuning) *EnhancedSearcher {
	return &EnhancedSearcher{
		hybrid:  NewHybrid(retriever, tuning),
		queries: conversation.NewQueryBuilder(analyzer, tuning.VariantWeights),
		tuning:  tuning,
	}
}

// Search returns a usable result even when retrieval fails. The error is
// non-nil if any variant's retrieval failed; callers can treat an error with
// no results as a total failure.
func (s *EnhancedSearcher) Search(ctx context.Context, history []conversation.Turn, message string, opts SearchOptions) (*EnhancedResult, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	plan := s.queries.Build(history, message)
	if opts.BaseQuery != "" {
		for i := range plan.Variants {
			if plan.Variants[i].Type == conversation.VariantBase {
				plan.Variants[i].Query = opts.BaseQuery
			}
		}
	}

	var (
		candidates []RankedResult
		usages     []QueryUsage
		errs       []error
	)
	for _, v := range plan.Variants {
		variantOpts := opts
		if v.Type == conversation.VariantBase {
			variantOpts.FAQTopN += s.tuning.BaseVariantBonus.FAQTopN
			variantOpts.TermsTopN += s.tuning.BaseVariantBonus.TermsTopN
			variantOpts.MaxResults += s.tuning.BaseVariantBonus.MaxResults
		}

		results, err := s.hybrid.Search(ctx, v.Query, variantOpts)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s query: %w", v.Type, err))
		}

		for _, r := range results {
			ranked := RankedResult{
				SearchResult:  r,
				QueryType:     v.Type,
				QueryWeight:   v.Weight,
				OriginalScore: r.WeightedScore,
			}
			ranked.WeightedScore = r.WeightedScore * v.Weight
			candidates = append(candidates, ranked)
		}
		usages = append(usages, QueryUsage{
			Query:        v.Query,
			Type:         v.Type,
			Weight:       v.Weight,
			ResultsCount: len(results),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].WeightedScore > candidates[j].WeightedScore
	})
	unique := dedupeByKey(candidates)
	final := rerank(unique, plan, s.tuning)

	meta := Metadata{
		Strategy:          plan.Strategy,
		FlowPattern:       plan.Analysis.FlowPattern,
		Stage:             plan.Analysis.Stage,
		Queries:           usages,
		TotalCandidates:   len(candidates),
		DeduplicatedCount: len(unique),
		FinalCount:        len(final),
		SearchTime:        time.Since(start),
		Degraded:          len(errs) > 0,
	}

	logger.InfoContext(ctx, "enhanced search completed",
		"strategy", meta.Strategy,
		"flow", meta.FlowPattern,
		"variants", len(plan.Variants),
		"candidates", meta.TotalCandidates,
		"final", meta.FinalCount,
		"degraded", meta.Degraded,
		"duration_ms", meta.SearchTime.Milliseconds(),
	)

	result := &EnhancedResult{Results: final, Metadata: meta, Plan: plan}
	if len(errs) > 0 {
		return result, fmt.Errorf("enhanced search degraded: %w", errors.Join(errs...))
	}
	return result, nil
}
