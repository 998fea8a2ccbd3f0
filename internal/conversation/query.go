package conversation

import (
	"strings"
	"unicode/utf8"
)

// VariantType identifies how a query variant was derived.
type VariantType string

const (
	VariantBase              VariantType = "base"
	VariantContextExpanded   VariantType = "context_expanded"
	VariantTopicContinuation VariantType = "topic_continuation"
	VariantUnresolvedIssues  VariantType = "unresolved_issues"
)

// VariantWeights are the score multipliers applied to each variant's results.
type VariantWeights map[VariantType]float64

// DefaultVariantWeights returns the standard weights.
func DefaultVariantWeights() VariantWeights {
	return VariantWeights{
		VariantBase:              1.0,
		VariantContextExpanded:   0.8,
		VariantTopicContinuation: 0.7,
		VariantUnresolvedIssues:  0.6,
	}
}

// QueryVariant is one search query derived from the conversation.
type QueryVariant struct {
	Query       string      `json:"query"`
	Type        VariantType `json:"type"`
	Weight      float64     `json:"weight"`
	Description string      `json:"description"`
}

// ContextWeights describes how much each context layer should count.
type ContextWeights struct {
	CurrentMessage   float64 `json:"current_message"`
	RecentContext    float64 `json:"recent_context"`
	OverallContext   float64 `json:"overall_context"`
	EmotionalContext float64 `json:"emotional_context"`
}

// QueryPlan is the output of QueryBuilder.Build.
type QueryPlan struct {
	BaseQuery      string         `json:"base_query"`
	Variants       []QueryVariant `json:"enhanced_queries"`
	Strategy       Strategy       `json:"search_strategy"`
	ContextWeights ContextWeights `json:"context_weights"`
	Analysis       Analysis       `json:"flow_analysis"`
}

const maxIssueKeywords = 5

// QueryBuilder turns a conversation into search query variants.
type QueryBuilder struct {
	analyzer *Analyzer
	weights  VariantWeights
}

// NewQueryBuilder creates a builder. Nil weights use DefaultVariantWeights.
func NewQueryBuilder(analyzer *Analyzer, weights VariantWeights) *QueryBuilder {
	if weights == nil {
		weights = DefaultVariantWeights()
	}
	return &QueryBuilder{analyzer: analyzer, weights: weights}
}

// Build analyses the conversation and produces one to four query variants.
// The base variant is always first.
func (b *QueryBuilder) Build(history []Turn, message string) QueryPlan {
	analysis := b.analyzer.Analyze(history, message)
	base := strings.TrimSpace(message)

	variants := []QueryVariant{{
		Query:       base,
		Type:        VariantBase,
		Weight:      b.weights[VariantBase],
		Description: "현재 메시지",
	}}

	if q := b.contextQuery(analysis, base); q != base {
		variants = append(variants, QueryVariant{
			Query:       q,
			Type:        VariantContextExpanded,
			Weight:      b.weights[VariantContextExpanded],
			Description: "대화 맥락 포함",
		})
	}

	if len(analysis.ContinuationTopics) > 0 {
		variants = append(variants, QueryVariant{
			Query:       base + " " + strings.Join(analysis.ContinuationTopics, " "),
			Type:        VariantTopicContinuation,
			Weight:      b.weights[VariantTopicContinuation],
			Description: "주제 연속성 반영",
		})
	}

	if q, ok := unresolvedQuery(analysis.UnresolvedIssues, base); ok {
		variants = append(variants, QueryVariant{
			Query:       q,
			Type:        VariantUnresolvedIssues,
			Weight:      b.weights[VariantUnresolvedIssues],
			Description: "미해결 이슈 관련",
		})
	}

	return QueryPlan{
		BaseQuery:      base,
		Variants:       variants,
		Strategy:       strategyFor(analysis),
		ContextWeights: contextWeightsFor(analysis),
		Analysis:       analysis,
	}
}

func (b *QueryBuilder) contextQuery(analysis Analysis, base string) string {
	categories := dedupe(append(append([]string{}, analysis.Context.DominantCategories...), analysis.Current.Categories...))
	intents := dedupe(append(append([]string{}, analysis.Context.RecurringIntents...), analysis.Current.Intents...))

	parts := []string{base}
	if len(categories) > 0 {
		parts = append(parts, strings.Join(categories, " "))
	}
	if len(intents) > 0 {
		expanded := make([]string, 0, len(intents))
		for _, intent := range intents {
			if phrase, ok := b.analyzer.lex.IntentExpansions[intent]; ok {
				expanded = append(expanded, phrase)
			} else {
				expanded = append(expanded, intent)
			}
		}
		parts = append(parts, strings.Join(expanded, " "))
	}
	return strings.Join(parts, " ")
}

func unresolvedQuery(issues []string, base string) (string, bool) {
	var words []string
	for _, issue := range issues {
		for _, w := range strings.Fields(issue) {
			if utf8.RuneCountInString(w) > 1 {
				words = append(words, w)
			}
		}
	}
	words = dedupe(words)
	if len(words) == 0 {
		return "", false
	}
	if len(words) > maxIssueKeywords {
		words = words[:maxIssueKeywords]
	}
	return base + " " + strings.Join(words, " "), true
}

func strategyFor(a Analysis) Strategy {
	switch {
	case a.FlowPattern == FlowFollowUpQuestion:
		return StrategyContextHeavy
	case a.FlowPattern == FlowDetailInquiry:
		return StrategyPrecisionFocused
	case a.FlowPattern == FlowProblemSolving:
		return StrategySolutionOriented
	case a.FlowPattern == FlowTopicChange:
		return StrategyBroadSearch
	case a.Stage == StageExtendedConsultation:
		return StrategyComprehensive
	default:
		return StrategyBalanced
	}
}

func contextWeightsFor(a Analysis) ContextWeights {
	w := ContextWeights{
		CurrentMessage:   1.0,
		RecentContext:    0.5,
		OverallContext:   0.3,
		EmotionalContext: 0.2,
	}

	switch a.FlowPattern {
	case FlowFollowUpQuestion:
		w.RecentContext = 0.8
		w.OverallContext = 0.6
	case FlowTopicChange:
		w.RecentContext = 0.2
		w.OverallContext = 0.1
	}

	if a.Stage == StageExtendedConsultation {
		w.OverallContext = 0.7
		w.EmotionalContext = 0.4
	}
	return w
}
