package rag

import (
	"sort"
	"strings"
	"unicode"

	"haetsal-ai/internal/conversation"
)

// RankedResult is a search hit annotated with how it was reranked.
type RankedResult struct {
	SearchResult

	QueryType   conversation.VariantType `json:"query_type"`
	QueryWeight float64                  `json:"query_weight"`
	// OriginalScore is the hybrid WeightedScore before the variant weight was applied.
	OriginalScore float64 `json:"original_score"`

	SourceWeight      float64 `json:"source_weight"`
	ContextMultiplier float64 `json:"context_multiplier"`
	FlowBoost         float64 `json:"flow_boost"`
	FinalScore        float64 `json:"final_score"`
}

// dedupeByKey keeps the first result for every Key, preserving order.
func dedupeByKey(results []RankedResult) []RankedResult {
	seen := make(map[string]struct{}, len(results))
	out := make([]RankedResult, 0, len(results))
	for _, r := range results {
		key := r.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// rerank scores results for the plan's strategy and returns at most the
// strategy's max results ordered by FinalScore.
func rerank(results []RankedResult, plan conversation.QueryPlan, tuning Tuning) []RankedResult {
	params := tuning.strategy(plan.Strategy)
	analysis := plan.Analysis
	emotions := analysis.Context.Emotional.Current

	urgent := anyIn(emotions, tuning.UrgentEmotions)
	negative := anyIn(emotions, tuning.NegativeEmotions)

	out := make([]RankedResult, len(results))
	for i, r := range results {
		sourceWeight := params.TermsWeight
		if r.SourceType == SourceFAQ {
			sourceWeight = params.FAQWeight
		}

		contextMultiplier := 1.0
		if r.QueryType != conversation.VariantBase {
			contextMultiplier += params.ContextBoost
		}

		r.SourceWeight = sourceWeight
		r.ContextMultiplier = contextMultiplier
		r.FlowBoost = flowBoost(r, analysis.ContinuationTopics, urgent, negative, tuning)
		r.FinalScore = r.WeightedScore * sourceWeight * contextMultiplier * r.FlowBoost
		out[i] = r
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinalScore > out[j].FinalScore
	})

	if len(out) > params.MaxResults {
		out = out[:params.MaxResults]
	}
	return out
}

func flowBoost(r RankedResult, topics []string, urgent, negative bool, tuning Tuning) float64 {
	boost := 1.0

	text := strings.ToLower(boostText(r.SearchResult))
	for _, topic := range topics {
		if strings.Contains(text, strings.ToLower(topic)) {
			boost += tuning.ContinuationTopicBoost
		}
	}

	switch {
	case urgent && r.SourceType == SourceFAQ:
		boost += tuning.UrgentFAQBoost
	case negative && containsAnyWord(strings.ToLower(r.Content()), tuning.ResolutionKeywords):
		boost += tuning.NegativeResolutionBoost
	}
	return boost
}

// boostText is the text matched against continuation topics: question and
// answer for FAQ entries, the chunk body for terms.
func boostText(r SearchResult) string {
	if r.FAQ != nil {
		return r.FAQ.Question + " " + r.FAQ.Content
	}
	return r.Content()
}

func anyIn(values, set []string) bool {
	for _, v := range values {
		for _, s := range set {
			if v == s {
				return true
			}
		}
	}
	return false
}

func containsAnyWord(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// Tokenize lowercases text and splits it on anything that is not a letter or digit.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	tokens := strings.Fields(builder.String())
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// TokenOverlap counts the distinct tokens shared by a and b.
func TokenOverlap(a, b string) int {
	left := make(map[string]struct{})
	for _, tok := range Tokenize(a) {
		left[tok] = struct{}{}
	}

	var n int
	seen := make(map[string]struct{})
	for _, tok := range Tokenize(b) {
		if _, ok := left[tok]; !ok {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		n++
	}
	return n
}
