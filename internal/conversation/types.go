package conversation

// Role identifies the speaker of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// FlowPattern classifies how the current message relates to the conversation so far.
type FlowPattern string

const (
	FlowInitialInquiry    FlowPattern = "initial_inquiry"
	FlowFollowUpQuestion  FlowPattern = "follow_up_question"
	FlowDetailInquiry     FlowPattern = "detail_inquiry"
	FlowProblemSolving    FlowPattern = "problem_solving"
	FlowTopicChange       FlowPattern = "topic_change"
	FlowTopicContinuation FlowPattern = "topic_continuation"
)

// Stage is the phase of the conversation derived from its length.
type Stage string

const (
	StageGreeting             Stage = "greeting"
	StageInitialInquiry       Stage = "initial_inquiry"
	StageInformationGathering Stage = "information_gathering"
	StageDetailedDiscussion   Stage = "detailed_discussion"
	StageExtendedConsultation Stage = "extended_consultation"
)

// Strategy selects retrieval and rerank behaviour.
type Strategy string

const (
	StrategyContextHeavy     Strategy = "context_heavy"
	StrategyPrecisionFocused Strategy = "precision_focused"
	StrategySolutionOriented Strategy = "solution_oriented"
	StrategyBroadSearch      Strategy = "broad_search"
	StrategyComprehensive    Strategy = "comprehensive"
	StrategyBalanced         Strategy = "balanced"
)

// EmotionalTrend summarises the emotions of the last two user messages.
type EmotionalTrend string

const (
	TrendNeutral       EmotionalTrend = "neutral"
	TrendDeteriorating EmotionalTrend = "deteriorating"
	TrendImproving     EmotionalTrend = "improving"
	TrendMixed         EmotionalTrend = "mixed"
	TrendStable        EmotionalTrend = "stable"
)

// MessageAnalysis is the keyword analysis of a single message.
type MessageAnalysis struct {
	Categories []string `json:"categories"`
	Intents    []string `json:"intents"`
	Emotions   []string `json:"emotions"`
	Entities   []string `json:"entities"`
	Keywords   []string `json:"keywords"`
}

// EmotionalProgression tracks keyword emotions across user messages.
type EmotionalProgression struct {
	Progression [][]string     `json:"progression"`
	Current     []string       `json:"current_emotions"`
	Trend       EmotionalTrend `json:"emotional_trend"`
}

// HistoryContext aggregates signals from the whole history.
type HistoryContext struct {
	DominantCategories []string             `json:"dominant_categories"`
	RecurringIntents   []string             `json:"recurring_intents"`
	Topics             []string             `json:"conversation_topics"`
	MentionedEntities  []string             `json:"mentioned_entities"`
	Emotional          EmotionalProgression `json:"emotional_progression"`
}

// Analysis is the result of analysing a message against its history.
type Analysis struct {
	Context            HistoryContext  `json:"context"`
	Current            MessageAnalysis `json:"current"`
	FlowPattern        FlowPattern     `json:"flow_pattern"`
	ContinuationTopics []string        `json:"continuation_topics"`
	UnresolvedIssues   []string        `json:"unresolved_issues"`
	Stage              Stage           `json:"conversation_stage"`
}
