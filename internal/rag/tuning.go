package rag

import (
	"encoding/json"
	"fmt"
	"os"

	"haetsal-ai/internal/conversation"
)

// StrategyParams are the rerank parameters for one search strategy.
type StrategyParams struct {
	FAQWeight    float64 `json:"faq_weight"`
	TermsWeight  float64 `json:"terms_weight"`
	ContextBoost float64 `json:"context_boost"`
	MaxResults   int     `json:"max_results"`
}

// Tuning holds every ranking constant used by hybrid and enhanced search.
type Tuning struct {
	FAQWeight   float64 `json:"faq_weight"`
	TermsWeight float64 `json:"terms_weight"`

	Strategies map[conversation.Strategy]StrategyParams `json:"strategies"`

	// BaseVariantBonus widens the base query's search over the default options.
	BaseVariantBonus SearchOptions `json:"base_variant_bonus"`

	VariantWeights conversation.VariantWeights `json:"variant_weights"`

	ContinuationTopicBoost  float64  `json:"continuation_topic_boost"`
	UrgentFAQBoost          float64  `json:"urgent_faq_boost"`
	NegativeResolutionBoost float64  `json:"negative_resolution_boost"`
	ResolutionKeywords      []string `json:"resolution_keywords"`
	UrgentEmotions          []string `json:"urgent_emotions"`
	NegativeEmotions        []string `json:"negative_emotions"`
}

// DefaultTuning returns the production ranking constants.
func DefaultTuning() Tuning {
	return Tuning{
		FAQWeight:   1.2,
		TermsWeight: 1.0,
		Strategies: map[conversation.Strategy]StrategyParams{
			conversation.StrategyContextHeavy:     {FAQWeight: 1.2, TermsWeight: 1.0, ContextBoost: 0.8, MaxResults: 7},
			conversation.StrategyPrecisionFocused: {FAQWeight: 1.5, TermsWeight: 0.8, ContextBoost: 0.3, MaxResults: 5},
			conversation.StrategySolutionOriented: {FAQWeight: 1.4, TermsWeight: 1.2, ContextBoost: 0.6, MaxResults: 6},
			conversation.StrategyBroadSearch:      {FAQWeight: 1.0, TermsWeight: 1.0, ContextBoost: 0.2, MaxResults: 8},
			conversation.StrategyComprehensive:    {FAQWeight: 1.3, TermsWeight: 1.1, ContextBoost: 0.9, MaxResults: 10},
			conversation.StrategyBalanced:         {FAQWeight: 1.2, TermsWeight: 1.0, ContextBoost: 0.5, MaxResults: 5},
		},
		BaseVariantBonus:        SearchOptions{FAQTopN: 2, TermsTopN: 2, MaxResults: 3},
		VariantWeights:          conversation.DefaultVariantWeights(),
		ContinuationTopicBoost:  0.2,
		UrgentFAQBoost:          0.3,
		NegativeResolutionBoost: 0.25,
		ResolutionKeywords:      []string{"해결", "처리", "방법", "절차"},
		UrgentEmotions:          []string{"긴급"},
		NegativeEmotions:        []string{"불만", "불안"},
	}
}

// LoadTuning reads JSON overrides from path on top of DefaultTuning.
// Strategies and variant weights present in the file replace the defaults
// key by key.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("failed to read tuning file: %w", err)
	}

	var override Tuning
	if err := json.Unmarshal(data, &override); err != nil {
		return t, fmt.Errorf("failed to parse tuning file: %w", err)
	}

	if override.FAQWeight > 0 {
		t.FAQWeight = override.FAQWeight
	}
	if override.TermsWeight > 0 {
		t.TermsWeight = override.TermsWeight
	}
	for name, params := range override.Strategies {
		t.Strategies[name] = params
	}
	if override.BaseVariantBonus != (SearchOptions{}) {
		t.BaseVariantBonus = override.BaseVariantBonus
	}
	for vt, w := range override.VariantWeights {
		t.VariantWeights[vt] = w
	}
	if override.ContinuationTopicBoost > 0 {
		t.ContinuationTopicBoost = override.ContinuationTopicBoost
	}
	if override.UrgentFAQBoost > 0 {
		t.UrgentFAQBoost = override.UrgentFAQBoost
	}
	if override.NegativeResolutionBoost > 0 {
		t.NegativeResolutionBoost = override.NegativeResolutionBoost
	}
	if len(override.ResolutionKeywords) > 0 {
		t.ResolutionKeywords = override.ResolutionKeywords
	}
	if len(override.UrgentEmotions) > 0 {
		t.UrgentEmotions = override.UrgentEmotions
	}
	if len(override.NegativeEmotions) > 0 {
		t.NegativeEmotions = override.NegativeEmotions
	}

	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// Validate checks that weights are positive and every strategy keeps at least one result.
func (t Tuning) Validate() error {
	if t.FAQWeight <= 0 || t.TermsWeight <= 0 {
		return fmt.Errorf("source weights must be positive")
	}
	if _, ok := t.Strategies[conversation.StrategyBalanced]; !ok {
		return fmt.Errorf("tuning must define the %q strategy", conversation.StrategyBalanced)
	}
	for name, p := range t.Strategies {
		if p.MaxResults <= 0 {
			return fmt.Errorf("strategy %q: max_results must be positive", name)
		}
	}
	return nil
}

// strategy returns the parameters for s, falling back to balanced.
func (t Tuning) strategy(s conversation.Strategy) StrategyParams {
	if p, ok := t.Strategies[s]; ok {
		return p
	}
	return t.Strategies[conversation.StrategyBalanced]
}
