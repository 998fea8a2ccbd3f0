package prompt

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"haetsal-ai/internal/conversation"
	"haetsal-ai/internal/corpus"
	"haetsal-ai/internal/rag"
	"haetsal-ai/internal/sentiment"
)

func user(s string) conversation.Turn      { return conversation.Turn{Role: conversation.RoleUser, Content: s} }
func assistant(s string) conversation.Turn { return conversation.Turn{Role: conversation.RoleAssistant, Content: s} }

func TestBuild_Minimal(t *testing.T) {
	m := NewManager(DefaultConfig())

	got := m.Build(Input{UserMessage: "안녕하세요"})
	want := corePersona(ModeStandard) + "\n\nUser: 안녕하세요\nAssistant:"
	if got != want {
		t.Errorf("Build() =\n%s\nwant\n%s", got, want)
	}
}

func TestBuild_CorePersonaModes(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeCompact, "# 햇살봇 (현대해상 AI)\n역할: 고객의 마음을 비추는 따뜻한 보험 안내자\n원칙: 결론 우선, 구조화된 설명, 대화형 유도"},
		{ModeStandard, "당신은 현대해상 AI 상담 챗봇 '햇살봇'입니다.\n\n## 핵심 원칙"},
		{ModeComprehensive, "- 어조: 공감적, 긍정적, 전문적하게 부드러운 존댓말 사용"},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got := NewManager(Config{Mode: tt.mode}).Build(Input{UserMessage: "질문"})
			if !strings.Contains(got, tt.want) {
				t.Errorf("prompt does not contain %q:\n%s", tt.want, got)
			}
		})
	}
}

func TestBuild_SectionOrder(t *testing.T) {
	emotion := sentiment.Emotion{Label: "불안", Intensity: 4}
	in := Input{
		UserMessage: "보험금 청구 절차 알려주세요",
		History:     []conversation.Turn{user("사고가 났어요"), assistant("많이 놀라셨겠어요")},
		RAGResults: []rag.SearchResult{{
			SourceType: rag.SourceFAQ,
			FAQ:        &corpus.FAQEntry{Question: "보험금 청구 방법", Content: "앱에서 청구하세요"},
		}},
		Emotion: &emotion,
		Persona: map[string]string{"성별": "여성", "연령대": "30대"},
	}

	got := NewManager(DefaultConfig()).Build(in)

	markers := []string{
		"# 페르소나",
		"고객: 여성, 30대",
		"감정 상태: 불안(강도 4) → 안심 우선, 따뜻하고 확신, 단계별 상세 설명",
		"# 대화 맥락\nUser: 사고가 났어요\nAssistant: 많이 놀라셨겠어요",
		"# 참고 정보\nFAQ: 보험금 청구 방법 - 앱에서 청구하세요",
		"# 응답 예시\nUser: 보험금은 언제 받을 수 있나요?",
		"\nUser: 보험금 청구 절차 알려주세요\nAssistant:",
	}
	last := -1
	for _, mk := range markers {
		i := strings.Index(got, mk)
		if i < 0 {
			t.Fatalf("prompt missing %q:\n%s", mk, got)
		}
		if i <= last {
			t.Errorf("%q is out of order", mk)
		}
		last = i
	}
	if !strings.HasSuffix(got, "Assistant:") {
		t.Errorf("prompt does not end with the cue")
	}
}

func TestEmotionLine(t *testing.T) {
	tests := []struct {
		name    string
		emotion sentiment.Emotion
		want    string
	}{
		{"anger", sentiment.Emotion{Label: "분노", Intensity: 5}, "감정 상태: 분노(강도 5) → 즉시 공감, 진정성 있게, 빠른 해결 방안"},
		{"defaults", sentiment.Emotion{}, "감정 상태: 중립(강도 3) → 균형 있는, 친근하고 전문적, 명확한 정보 전달"},
		{"unknown label", sentiment.Emotion{Label: "당황", Intensity: 2}, "감정 상태: 당황(강도 2) → 균형 있는, 친근하고 전문적, 명확한 정보 전달"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := emotionLine(tt.emotion); got != tt.want {
				t.Errorf("emotionLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPersonaLine(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   string
	}{
		{
			name: "essentials and two extras",
			fields: map[string]string{
				"성별": "여성", "연령대": "30대", "직업": "회사원", "가족구성": "기혼",
				"소득수준": "중간", "보험관심사": "건강", "의사결정스타일": "신중",
			},
			want: "고객: 여성, 30대, 회사원, 기혼 | 소득수준: 중간, 보험관심사: 건강",
		},
		{
			name:   "missing fields skipped",
			fields: map[string]string{"연령대": "50대", "의사결정스타일": "신중", "ID": "P001"},
			want:   "고객: 50대 | 의사결정스타일: 신중",
		},
		{
			name:   "nothing relevant",
			fields: map[string]string{"ID": "P001"},
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := personaLine(tt.fields); got != tt.want {
				t.Errorf("personaLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectExamples(t *testing.T) {
	complaint := &sentiment.Emotion{Label: "불만", Intensity: 4}

	tests := []struct {
		name    string
		mode    Mode
		message string
		emotion *sentiment.Emotion
		want    []example
	}{
		{"compact has none", ModeCompact, "가입하고 싶어요", complaint, nil},
		{"complaint and signup", ModeStandard, "가입 처리가 느려요", complaint, []example{exampleComplaint, exampleSignup}},
		{"signup wins over claim", ModeStandard, "계약하고 보험금 청구도 하려고요", nil, []example{exampleSignup}},
		{"claim", ModeComprehensive, "보상 받을 수 있나요", nil, []example{exampleClaim}},
		{"nothing", ModeStandard, "안녕하세요", &sentiment.Emotion{Label: "기쁨"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectExamples(tt.mode, tt.message, tt.emotion)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("selectExamples() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRelevantHistory(t *testing.T) {
	short := []conversation.Turn{user("a"), assistant("b"), user("c")}
	if got := relevantHistory(short, "무엇이든"); !reflect.DeepEqual(got, short) {
		t.Errorf("short history changed: %v", got)
	}

	relevant := user("자동차 사고 접수 " + strings.Repeat("가", 100))
	history := []conversation.Turn{
		relevant,
		assistant("네"),
		user("날씨가 좋네요"),
		assistant("최근 답변"),
		user("최근 질문"),
	}
	got := relevantHistory(history, "자동차 사고 접수")
	want := []conversation.Turn{relevant, assistant("최근 답변"), user("최근 질문")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("relevantHistory() = %v, want %v", got, want)
	}
}

func TestBuild_HistoryLimits(t *testing.T) {
	long := strings.Repeat("나", 300)
	in := Input{
		UserMessage: "질문",
		History:     []conversation.Turn{user(long), assistant(""), user("두번째")},
	}

	got := NewManager(DefaultConfig()).Build(in)
	if !strings.Contains(got, "User: "+strings.Repeat("나", 200)+"\n") {
		t.Errorf("history content not truncated to 200 runes")
	}
	if strings.Contains(got, "Assistant: \n") {
		t.Errorf("empty turn rendered")
	}
}

func TestBuild_RAGLimits(t *testing.T) {
	var results []rag.SearchResult
	for i := 0; i < 4; i++ {
		results = append(results, rag.SearchResult{
			SourceType: rag.SourceTerms,
			Terms:      &corpus.TermsChunk{ID: "t", Filename: "자동차약관", Content: strings.Repeat("다", 400)},
		})
	}

	got := NewManager(DefaultConfig()).Build(Input{UserMessage: "질문", RAGResults: results})
	if n := strings.Count(got, "\n약관: 자동차약관 - "); n != 3 {
		t.Errorf("rendered %d terms lines, want 3", n)
	}
	if strings.Contains(got, strings.Repeat("다", 301)) {
		t.Errorf("terms content not truncated to 300 runes")
	}
}

func compressionInput() Input {
	complaint := sentiment.Emotion{Label: "불만", Intensity: 5}
	var history []conversation.Turn
	for i := 0; i < 3; i++ {
		history = append(history, user("질문    "+strings.Repeat("라", 150)), assistant("답변    "+strings.Repeat("마", 150)))
	}
	return Input{
		UserMessage: "가입 처리가 너무 느려요",
		History:     history,
		Emotion:     &complaint,
	}
}

func TestBuildWithReport_Stages(t *testing.T) {
	in := compressionInput()
	full := NewManager(Config{MaxLength: 1 << 20}).Build(in)

	probe := NewManager(DefaultConfig())
	doc := probe.document(in)
	doc.examples = ""
	withoutExamples := utf8.RuneCountInString(collapseWhitespace(doc.render()))

	tests := []struct {
		name       string
		maxLength  int
		wantStages []Stage
	}{
		{"fits", utf8.RuneCountInString(full), []Stage{}},
		{"whitespace", utf8.RuneCountInString(collapseWhitespace(full)), []Stage{StageWhitespace}},
		{"examples", withoutExamples, []Stage{StageWhitespace, StageExamples}},
		{"history", 10, []Stage{StageWhitespace, StageExamples, StageHistory}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(Config{MaxLength: tt.maxLength})
			got, report := m.BuildWithReport(in)

			if !reflect.DeepEqual(report.Stages, tt.wantStages) {
				t.Fatalf("Stages = %v, want %v", report.Stages, tt.wantStages)
			}
			if report.FinalLength != utf8.RuneCountInString(got) {
				t.Errorf("FinalLength = %d, prompt has %d runes", report.FinalLength, utf8.RuneCountInString(got))
			}
			if len(tt.wantStages) < 3 && report.FinalLength > tt.maxLength {
				t.Errorf("prompt of %d runes exceeds %d", report.FinalLength, tt.maxLength)
			}
			if len(tt.wantStages) >= 2 && strings.Contains(got, "# 응답 예시") {
				t.Errorf("examples not removed")
			}
		})
	}
}

func TestBuildWithReport_HistoryStageKeepsLastTwo(t *testing.T) {
	got, _ := NewManager(Config{MaxLength: 10}).BuildWithReport(compressionInput())

	if n := strings.Count(got, "\nUser: 질문") + strings.Count(got, "\nAssistant: 답변"); n != 2 {
		t.Errorf("kept %d history lines, want 2:\n%s", n, got)
	}
	if strings.Contains(got, "  ") || strings.Contains(got, "\n\n") {
		t.Errorf("whitespace not collapsed")
	}
	if !strings.HasSuffix(got, "User: 가입 처리가 너무 느려요\nAssistant:") {
		t.Errorf("cue lost during compression")
	}
}

func TestStats(t *testing.T) {
	m := NewManager(DefaultConfig())

	prompt := "기본줄\n# 대화 맥락\nUser: 안녕\n# 참고 정보"
	got := m.Stats(prompt)
	if got.TotalLines != 4 {
		t.Errorf("TotalLines = %d, want 4", got.TotalLines)
	}
	want := map[string]int{"기본": 3, "대화 맥락": 8, "참고 정보": 0}
	if !reflect.DeepEqual(got.Sections, want) {
		t.Errorf("Sections = %v, want %v", got.Sections, want)
	}

	if r := m.Stats(strings.Repeat("가", 800)).CompressionRatio; r != 10 {
		t.Errorf("CompressionRatio = %v, want 10", r)
	}
}
