package conversation

import (
	"regexp"
	"strings"
)

var (
	moneyPattern   = regexp.MustCompile(`(\d+(?:,\d{3})*(?:\.\d+)?)\s*(?:원|만원|억원|천원)`)
	datePattern    = regexp.MustCompile(`\d{4}년\s*\d{1,2}월\s*\d{1,2}일|\d{1,2}월\s*\d{1,2}일|\d{4}-\d{1,2}-\d{1,2}`)
	phonePattern   = regexp.MustCompile(`\d{3}-\d{4}-\d{4}|\d{4}-\d{4}`)
	keywordPattern = regexp.MustCompile(`[가-힣]{2,}(?:보험|상품|서비스|계약|담보|특약|할인|혜택)`)
)

const (
	flowWindow         = 3
	continuationWindow = 5
	issuePreviewRunes  = 50
	maxDominant        = 3
)

// Analyzer derives flow signals from a conversation. It holds no state
// besides its lexicon and is safe for concurrent use.
type Analyzer struct {
	lex *Lexicon
}

// NewAnalyzer creates an analyzer. A nil lexicon uses DefaultLexicon.
func NewAnalyzer(lex *Lexicon) *Analyzer {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &Analyzer{lex: lex}
}

// Lexicon returns the keyword tables in use.
func (a *Analyzer) Lexicon() *Lexicon { return a.lex }

// Analyze classifies message in the light of history. history is not modified.
func (a *Analyzer) Analyze(history []Turn, message string) Analysis {
	current := a.AnalyzeMessage(message)

	if len(history) == 0 {
		return Analysis{
			Context:            HistoryContext{Emotional: EmotionalProgression{Trend: TrendNeutral}},
			Current:            current,
			FlowPattern:        FlowInitialInquiry,
			ContinuationTopics: []string{},
			UnresolvedIssues:   []string{},
			Stage:              StageGreeting,
		}
	}

	return Analysis{
		Context:            a.historyContext(history),
		Current:            current,
		FlowPattern:        a.flowPattern(history, message, current.Categories),
		ContinuationTopics: a.continuationTopics(history, current.Categories),
		UnresolvedIssues:   a.unresolvedIssues(history),
		Stage:              stageFor(len(history)),
	}
}

// AnalyzeMessage extracts categories, intents, emotions, entities and keywords from text.
func (a *Analyzer) AnalyzeMessage(text string) MessageAnalysis {
	return MessageAnalysis{
		Categories: matchGroups(a.lex.Categories, text),
		Intents:    matchGroups(a.lex.Intents, text),
		Emotions:   matchGroups(a.lex.Emotions, text),
		Entities:   extractEntities(text),
		Keywords:   extractKeywords(text),
	}
}

func (a *Analyzer) historyContext(history []Turn) HistoryContext {
	var all, users []string
	for _, turn := range history {
		if turn.Role == RoleUser {
			users = append(users, turn.Content)
		}
		all = append(all, turn.Content)
	}
	combined := strings.Join(all, " ")

	var topics []string
	for _, msg := range all {
		topics = append(topics, matchGroups(a.lex.Categories, msg)...)
		topics = append(topics, extractKeywords(msg)...)
	}

	return HistoryContext{
		DominantCategories: a.dominantCategories(combined),
		RecurringIntents:   a.recurringIntents(users),
		Topics:             dedupe(topics),
		MentionedEntities:  extractEntities(combined),
		Emotional:          a.emotionalProgression(users),
	}
}

// flowPattern checks follow-up, detail and problem markers in that order, then
// falls back to comparing categories with recent user messages.
func (a *Analyzer) flowPattern(history []Turn, message string, current []string) FlowPattern {
	if len(history) < 2 {
		return FlowInitialInquiry
	}

	switch {
	case containsAny(message, a.lex.FollowUpMarkers):
		return FlowFollowUpQuestion
	case containsAny(message, a.lex.DetailMarkers):
		return FlowDetailInquiry
	case containsAny(message, a.lex.ProblemMarkers):
		return FlowProblemSolving
	}

	recent := make(map[string]bool)
	for _, turn := range tail(history, flowWindow) {
		if turn.Role != RoleUser {
			continue
		}
		for _, c := range matchGroups(a.lex.Categories, turn.Content) {
			recent[c] = true
		}
	}
	for _, c := range current {
		if recent[c] {
			return FlowTopicContinuation
		}
	}
	return FlowTopicChange
}

func (a *Analyzer) continuationTopics(history []Turn, current []string) []string {
	cur := make(map[string]bool, len(current))
	for _, c := range current {
		cur[c] = true
	}

	var topics []string
	for _, turn := range tail(history, continuationWindow) {
		if turn.Role != RoleUser {
			continue
		}
		for _, c := range matchGroups(a.lex.Categories, turn.Content) {
			if cur[c] {
				topics = append(topics, c)
			}
		}
	}
	return dedupe(topics)
}

// unresolvedIssues finds user turns that report a problem and are answered by
// an assistant turn without any resolution marker.
func (a *Analyzer) unresolvedIssues(history []Turn) []string {
	issues := []string{}
	for i, turn := range history {
		if turn.Role != RoleUser || !containsAny(turn.Content, a.lex.UnresolvedMarkers) {
			continue
		}
		if i+1 >= len(history) {
			continue
		}
		next := history[i+1]
		if next.Role == RoleAssistant && !containsAny(next.Content, a.lex.ResolvedMarkers) {
			issues = append(issues, truncateRunes(turn.Content, issuePreviewRunes)+"...")
		}
	}
	return issues
}

func stageFor(n int) Stage {
	switch {
	case n == 0:
		return StageGreeting
	case n <= 2:
		return StageInitialInquiry
	case n <= 6:
		return StageInformationGathering
	case n <= 10:
		return StageDetailedDiscussion
	default:
		return StageExtendedConsultation
	}
}

// dominantCategories ranks categories by how many of their keywords occur in text.
func (a *Analyzer) dominantCategories(text string) []string {
	lower := strings.ToLower(text)

	type hit struct {
		label string
		count int
	}
	var hits []hit
	for _, g := range a.lex.Categories {
		n := 0
		for _, kw := range g.Keywords {
			if strings.Contains(lower, kw) {
				n++
			}
		}
		if n > 0 {
			hits = append(hits, hit{g.Label, n})
		}
	}

	// insertion sort keeps lexicon order among equal counts
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].count > hits[j-1].count; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	out := make([]string, 0, maxDominant)
	for i := 0; i < len(hits) && i < maxDominant; i++ {
		out = append(out, hits[i].label)
	}
	return out
}

// recurringIntents returns intents present in at least two user messages, in first-seen order.
func (a *Analyzer) recurringIntents(users []string) []string {
	counts := make(map[string]int)
	var order []string
	for _, msg := range users {
		for _, intent := range matchGroups(a.lex.Intents, msg) {
			if counts[intent] == 0 {
				order = append(order, intent)
			}
			counts[intent]++
		}
	}

	out := []string{}
	for _, intent := range order {
		if counts[intent] >= 2 {
			out = append(out, intent)
		}
	}
	return out
}

func (a *Analyzer) emotionalProgression(users []string) EmotionalProgression {
	progression := make([][]string, 0, len(users))
	for _, msg := range users {
		progression = append(progression, matchGroups(a.lex.Emotions, msg))
	}

	current := []string{}
	if len(progression) > 0 {
		current = progression[len(progression)-1]
	}

	return EmotionalProgression{
		Progression: progression,
		Current:     current,
		Trend:       a.emotionalTrend(progression),
	}
}

func (a *Analyzer) emotionalTrend(progression [][]string) EmotionalTrend {
	if len(progression) == 0 {
		return TrendNeutral
	}
	recent := progression
	if len(recent) > 2 {
		recent = recent[len(recent)-2:]
	}

	var negative, positive bool
	for _, emotions := range recent {
		for _, e := range emotions {
			if contains(a.lex.NegativeEmotions, e) {
				negative = true
			}
			if contains(a.lex.PositiveEmotions, e) {
				positive = true
			}
		}
	}

	switch {
	case negative && !positive:
		return TrendDeteriorating
	case positive && !negative:
		return TrendImproving
	case negative && positive:
		return TrendMixed
	default:
		return TrendStable
	}
}

// matchGroups returns the labels of groups with at least one keyword in text, in group order.
func matchGroups(groups []KeywordGroup, text string) []string {
	lower := strings.ToLower(text)
	found := []string{}
	for _, g := range groups {
		if containsAny(lower, g.Keywords) {
			found = append(found, g.Label)
		}
	}
	return found
}

func extractEntities(text string) []string {
	entities := []string{}
	for _, m := range moneyPattern.FindAllStringSubmatch(text, -1) {
		entities = append(entities, m[1]+"원")
	}
	entities = append(entities, datePattern.FindAllString(text, -1)...)
	entities = append(entities, phonePattern.FindAllString(text, -1)...)
	return entities
}

func extractKeywords(text string) []string {
	return dedupe(keywordPattern.FindAllString(text, -1))
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// dedupe removes repeats while keeping first occurrences in order.
func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func tail(history []Turn, n int) []Turn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
