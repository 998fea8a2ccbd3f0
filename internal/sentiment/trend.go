package sentiment

import "strings"

// Recommendation is the suggested handling for a conversation's emotional state.
type Recommendation string

const (
	RecommendImmediateAgent Recommendation = "immediate_agent"
	RecommendSuggestAgent   Recommendation = "suggest_agent"
	RecommendEmpathetic     Recommendation = "empathetic_response"
	RecommendNormal         Recommendation = "normal_response"
)

// Direction of the negative-emotion share over the window.
type Direction string

const (
	DirectionIncreasing Direction = "increasing"
	DirectionStable     Direction = "stable"
	DirectionDecreasing Direction = "decreasing"
)

// DefaultTrendWindow is the number of recent emotions considered by AnalyzeTrend.
const DefaultTrendWindow = 5

// Trend summarises recent emotions.
type Trend struct {
	Direction      Direction      `json:"trend"`
	NegativeRatio  float64        `json:"negative_ratio"`
	AvgIntensity   float64        `json:"avg_intensity"`
	Recommendation Recommendation `json:"recommendation"`
}

// AnalyzeTrend looks at the last window emotions, oldest first.
func AnalyzeTrend(history []Emotion, window int) Trend {
	if len(history) < 2 {
		return Trend{Direction: DirectionStable, Recommendation: RecommendNormal}
	}
	if window <= 0 {
		window = DefaultTrendWindow
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}

	var negative, intensity int
	for _, e := range history {
		if e.IsNegative() {
			negative++
		}
		intensity += e.Intensity
	}
	n := float64(len(history))
	ratio := float64(negative) / n
	avg := float64(intensity) / n

	t := Trend{NegativeRatio: ratio, AvgIntensity: avg}
	switch {
	case ratio > 0.6:
		t.Direction = DirectionIncreasing
	case ratio > 0.3:
		t.Direction = DirectionStable
	default:
		t.Direction = DirectionDecreasing
	}

	switch {
	case ratio > 0.7 || avg > 4:
		t.Recommendation = RecommendImmediateAgent
	case ratio > 0.5:
		t.Recommendation = RecommendSuggestAgent
	case ratio > 0.3:
		t.Recommendation = RecommendEmpathetic
	default:
		t.Recommendation = RecommendNormal
	}
	return t
}

// NeedsAgent reports whether the trend calls for a human agent.
func (t Trend) NeedsAgent() bool {
	return t.Recommendation == RecommendImmediateAgent || t.Recommendation == RecommendSuggestAgent
}

// EscalationSuggestion returns the text appended to a reply for r, or "".
func EscalationSuggestion(r Recommendation) string {
	switch r {
	case RecommendImmediateAgent:
		return "\n\n🚨 **긴급 상담사 연결이 필요합니다.**\n상담사가 즉시 도와드리겠습니다."
	case RecommendSuggestAgent:
		return "\n\n💬 **상담사 연결을 권장드립니다.**\n더 전문적인 도움을 받으실 수 있습니다."
	case RecommendEmpathetic:
		return "\n\n💙 **더 자세한 상담이 필요하시면 상담사 연결을 고려해보세요.**"
	}
	return ""
}

var escalationKeywords = []string{"소송", "법적", "피해보상", "불만", "항의", "취소", "환불", "담당자"}

// KeywordEscalation reports whether a single message warrants escalation,
// either from a confident angry or complaining emotion or from its wording.
func KeywordEscalation(e Emotion, message string) bool {
	if (e.Label == LabelAnger || e.Label == LabelComplaint) && e.Confidence > 0.7 {
		return true
	}
	for _, kw := range escalationKeywords {
		if strings.Contains(message, kw) {
			return true
		}
	}
	return false
}

// Summary describes the emotions of a whole conversation.
type Summary struct {
	TotalMessages int            `json:"total_messages"`
	Dominant      string         `json:"dominant_emotion"`
	Distribution  map[string]int `json:"emotion_distribution"`
	Trend         Trend          `json:"current_trend"`
}

// Summarize counts labels and picks the most frequent one. Ties go to the
// label seen first.
func Summarize(history []Emotion) Summary {
	s := Summary{
		Dominant:     LabelNeutral,
		Distribution: map[string]int{},
		Trend:        AnalyzeTrend(history, DefaultTrendWindow),
	}
	s.TotalMessages = len(history)

	var order []string
	for _, e := range history {
		if s.Distribution[e.Label] == 0 {
			order = append(order, e.Label)
		}
		s.Distribution[e.Label]++
	}
	best := 0
	for _, label := range order {
		if c := s.Distribution[label]; c > best {
			best = c
			s.Dominant = label
		}
	}
	return s
}
