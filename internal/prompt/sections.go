package prompt

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"haetsal-ai/internal/conversation"
	"haetsal-ai/internal/persona"
	"haetsal-ai/internal/rag"
	"haetsal-ai/internal/sentiment"
)

var core = struct {
	identity, role, tone, style string
}{
	identity: "현대해상 AI 상담 챗봇 '햇살봇'",
	role:     "고객의 마음을 비추는 따뜻한 보험 안내자",
	tone:     "공감적, 긍정적, 전문적",
	style:    "결론 우선, 구조화된 설명, 대화형 유도",
}

func corePersona(mode Mode) string {
	switch mode {
	case ModeCompact:
		return "# 햇살봇 (현대해상 AI)\n" +
			"역할: " + core.role + "\n" +
			"원칙: " + core.style
	case ModeComprehensive:
		return "# 페르소나\n" +
			"당신은 " + core.identity + "입니다.\n" +
			core.role + "로서 보험이라는 복잡한 길에서 고객의 불안을 걷어내고 따뜻한 햇살로 길을 밝혀주세요.\n" +
			"\n" +
			"## 핵심 정체성\n" +
			"- 성격: 다정다감하고 평온함을 잃지 않는 공감 능력\n" +
			"- 어조: " + core.tone + "하게 부드러운 존댓말 사용\n" +
			"\n" +
			"## 행동 지침\n" +
			"- 감정 우선 공감: \"많이 걱정되셨겠어요\" 같은 감정 보듬기\n" +
			"- 햇살처럼 쉬운 설명: \"쉽게 말씀드리면~\"으로 고객 눈높이 설명\n" +
			"- " + core.style
	default:
		return "# 페르소나\n" +
			"당신은 " + core.identity + "입니다.\n" +
			"\n" +
			"## 핵심 원칙\n" +
			"- 감정 우선 공감: 고객 감정을 먼저 인정하고 보듬기\n" +
			"- 결론 우선 제시: 핵심 답변부터 간결하게 시작\n" +
			"- 구조화된 설명: 불릿(•), 번호로 가독성 높이기\n" +
			"- 긍정적 어조: 햇살(☀️), 미소(😊) 이모지로 친근함 표현"
	}
}

var (
	essentialFields = []string{persona.FieldGender, persona.FieldAgeGroup, persona.FieldOccupation, persona.FieldFamily}
	importantFields = []string{persona.FieldIncome, persona.FieldInterest, persona.FieldDecisionStyle}
)

const maxPersonaExtras = 2

func personaLine(fields map[string]string) string {
	var essentials, extras []string
	for _, f := range essentialFields {
		if v := fields[f]; v != "" {
			essentials = append(essentials, v)
		}
	}
	for _, f := range importantFields {
		if v := fields[f]; v != "" {
			extras = append(extras, f+": "+v)
		}
	}
	if len(essentials) == 0 && len(extras) == 0 {
		return ""
	}

	line := "고객: " + strings.Join(essentials, ", ")
	if len(extras) > maxPersonaExtras {
		extras = extras[:maxPersonaExtras]
	}
	if len(extras) > 0 {
		line += " | " + strings.Join(extras, ", ")
	}
	return line
}

type emotionGuide struct {
	approach, tone, action string
}

var emotionGuides = map[string]emotionGuide{
	"불만": {"해결책 우선", "차분하고 사과적", "즉시 대안 제시"},
	"분노": {"즉시 공감", "진정성 있게", "빠른 해결 방안"},
	"불안": {"안심 우선", "따뜻하고 확신", "단계별 상세 설명"},
	"긍정": {"활기찬 대응", "밝고 적극적", "더 많은 정보 제공"},
	"슬픔": {"위로 우선", "부드럽고 공감적", "따뜻한 격려"},
	"중립": {"균형 있는", "친근하고 전문적", "명확한 정보 전달"},
	"기쁨": {"함께 기뻐", "활기차고 긍정적", "추가 혜택 안내"},
	"놀람": {"차분한 설명", "이해하기 쉽게", "명확한 정보 정리"},
	"실망": {"공감과 대안", "이해하고 지지", "개선된 옵션 제시"},
}

func emotionLine(e sentiment.Emotion) string {
	label := e.Label
	if label == "" {
		label = sentiment.LabelNeutral
	}
	intensity := e.Intensity
	if intensity == 0 {
		intensity = 3
	}
	guide, ok := emotionGuides[label]
	if !ok {
		guide = emotionGuides[sentiment.LabelNeutral]
	}
	return fmt.Sprintf("감정 상태: %s(강도 %d) → %s, %s, %s", label, intensity, guide.approach, guide.tone, guide.action)
}

const (
	alwaysKeepTurns    = 3
	recentTurns        = 2
	maxRelevantTurns   = 3
	relevanceThreshold = 1.5
)

// relevantHistory keeps short histories whole. Longer ones are reduced to the
// earlier turns that share enough words with message plus the most recent turns,
// in their original order.
func relevantHistory(history []conversation.Turn, message string) []conversation.Turn {
	if len(history) <= alwaysKeepTurns {
		return history
	}

	type scored struct {
		pos   int
		score float64
	}
	older := history[:len(history)-recentTurns]
	var candidates []scored
	for i, turn := range older {
		content := strings.ToLower(turn.Content)
		overlap := rag.TokenOverlap(message, content)
		lengthFactor := min(float64(utf8.RuneCountInString(content))/100, 1.0)
		if score := float64(overlap) * lengthFactor; score >= relevanceThreshold {
			candidates = append(candidates, scored{i, score})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > maxRelevantTurns {
		candidates = candidates[:maxRelevantTurns]
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].pos < candidates[j].pos
	})

	selected := make([]conversation.Turn, 0, len(candidates)+recentTurns)
	for _, c := range candidates {
		selected = append(selected, older[c.pos])
	}
	return append(selected, history[len(history)-recentTurns:]...)
}

func historyLines(turns []conversation.Turn, limit int) []string {
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		content := truncate(turn.Content, limit)
		if turn.Role == "" || content == "" {
			continue
		}
		lines = append(lines, roleLabel(turn.Role)+": "+content)
	}
	return lines
}

func roleLabel(r conversation.Role) string {
	switch r {
	case conversation.RoleUser:
		return "User"
	case conversation.RoleAssistant:
		return "Assistant"
	}
	s := string(r)
	first, size := utf8.DecodeRuneInString(s)
	return strings.ToUpper(string(first)) + strings.ToLower(s[size:])
}

func ragLines(results []rag.SearchResult, maxResults, limit int) []string {
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	lines := make([]string, 0, len(results))
	for _, r := range results {
		switch {
		case r.FAQ != nil:
			lines = append(lines, fmt.Sprintf("FAQ: %s - %s", truncate(r.FAQ.Question, 100), truncate(r.FAQ.Content, limit)))
		case r.Terms != nil:
			lines = append(lines, fmt.Sprintf("약관: %s - %s", truncate(r.Terms.Filename, 100), truncate(r.Terms.Content, limit)))
		}
	}
	return lines
}

type example struct {
	user, assistant string
}

var (
	exampleSignup = example{
		user:      "보험 가입하고 싶어",
		assistant: "보험으로 든든한 미래를 준비하시는군요! 😊 가입 방법은 두 가지가 있어요:\n1. 온라인 다이렉트 가입\n2. 전문 컨설턴트 상담\n어떤 방식을 선호하시나요?",
	}
	exampleClaim = example{
		user:      "보험금은 언제 받을 수 있나요?",
		assistant: "보험금 지급은 보통 7-14일 소요됩니다. ☀️ 현재 진행 상황을 확인해드릴까요?\n• 서류 심사: 3-5일\n• 최종 승인: 2-3일\n더 궁금한 점이 있으시면 말씀해주세요!",
	}
	exampleComplaint = example{
		user:      "처리가 너무 늦어요. 답답해 죽겠네",
		assistant: "많이 답답하셨겠어요. 😔 처리 지연으로 불편을 드려 정말 죄송합니다. 지금 즉시 담당자에게 확인해서 빠른 처리가 가능하도록 도와드릴게요. 조금만 기다려주시겠어요?",
	}
)

const maxExamples = 2

func selectExamples(mode Mode, message string, emotion *sentiment.Emotion) []example {
	if mode == ModeCompact {
		return nil
	}

	var out []example
	if emotion != nil {
		switch emotion.Label {
		case sentiment.LabelComplaint, sentiment.LabelAnger, sentiment.LabelDisappointed:
			out = append(out, exampleComplaint)
		}
	}
	switch {
	case containsAny(message, "가입", "신청", "계약"):
		out = append(out, exampleSignup)
	case containsAny(message, "보험금", "보상", "청구"):
		out = append(out, exampleClaim)
	}
	if len(out) > maxExamples {
		out = out[:maxExamples]
	}
	return out
}

func examplesSection(examples []example) string {
	if len(examples) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n# 응답 예시")
	for _, ex := range examples {
		fmt.Fprintf(&b, "\nUser: %s\nAssistant: %s\n", ex.user, ex.assistant)
	}
	return b.String()
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
