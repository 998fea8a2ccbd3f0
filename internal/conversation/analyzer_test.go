package conversation

import (
	"reflect"
	"testing"
)

func user(content string) Turn      { return Turn{Role: RoleUser, Content: content} }
func assistant(content string) Turn { return Turn{Role: RoleAssistant, Content: content} }

func TestAnalyze_EmptyHistory(t *testing.T) {
	got := NewAnalyzer(nil).Analyze(nil, "자동차 사고 보험금 청구")

	if got.FlowPattern != FlowInitialInquiry {
		t.Errorf("FlowPattern = %v, want %v", got.FlowPattern, FlowInitialInquiry)
	}
	if got.Stage != StageGreeting {
		t.Errorf("Stage = %v, want %v", got.Stage, StageGreeting)
	}
	if !reflect.DeepEqual(got.Current.Categories, []string{"자동차보험"}) {
		t.Errorf("Current.Categories = %v", got.Current.Categories)
	}
	if !reflect.DeepEqual(got.Current.Intents, []string{"보상문의"}) {
		t.Errorf("Current.Intents = %v", got.Current.Intents)
	}
	if len(got.Context.DominantCategories) != 0 || got.Context.Emotional.Trend != TrendNeutral {
		t.Errorf("Context = %+v, want empty", got.Context)
	}
}

func TestAnalyze_FlowPattern(t *testing.T) {
	tests := []struct {
		name    string
		history []Turn
		message string
		want    FlowPattern
	}{
		{
			name:    "single turn history is initial inquiry",
			history: []Turn{user("자동차 사고가 났어요")},
			message: "그럼 어떻게 하나요",
			want:    FlowInitialInquiry,
		},
		{
			name:    "follow-up marker",
			history: []Turn{user("자동차 사고가 났어요"), assistant("접수 도와드릴게요")},
			message: "그럼 보험료는요?",
			want:    FlowFollowUpQuestion,
		},
		{
			name:    "detail marker",
			history: []Turn{user("가입하고 싶어요"), assistant("네")},
			message: "가입 절차를 자세히 알려주세요",
			want:    FlowDetailInquiry,
		},
		{
			name:    "problem marker",
			history: []Turn{user("앱으로 청구하려고요"), assistant("네")},
			message: "앱 로그인이 안됨",
			want:    FlowProblemSolving,
		},
		{
			name:    "category change",
			history: []Turn{user("자동차 사고 처리"), assistant("네")},
			message: "암 진단비 알려주세요",
			want:    FlowTopicChange,
		},
		{
			name:    "no categories in current message",
			history: []Turn{user("자동차 사고 처리"), assistant("네")},
			message: "안녕하세요",
			want:    FlowTopicChange,
		},
		{
			name:    "category continues",
			history: []Turn{user("자동차 사고가 났어요"), assistant("네 접수해드릴게요")},
			message: "차량 수리비 보상 범위",
			want:    FlowTopicContinuation,
		},
		{
			name: "only last three turns are compared",
			history: []Turn{
				user("자동차 사고가 났어요"), assistant("네"),
				user("안녕하세요"), assistant("네"), user("감사합니다"),
			},
			message: "차량 수리비 보상 범위",
			want:    FlowTopicChange,
		},
	}

	a := NewAnalyzer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Analyze(tt.history, tt.message).FlowPattern; got != tt.want {
				t.Errorf("FlowPattern = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStageFor(t *testing.T) {
	tests := []struct {
		n    int
		want Stage
	}{
		{0, StageGreeting},
		{1, StageInitialInquiry},
		{2, StageInitialInquiry},
		{3, StageInformationGathering},
		{6, StageInformationGathering},
		{7, StageDetailedDiscussion},
		{10, StageDetailedDiscussion},
		{11, StageExtendedConsultation},
	}
	for _, tt := range tests {
		if got := stageFor(tt.n); got != tt.want {
			t.Errorf("stageFor(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestAnalyze_ContinuationTopics(t *testing.T) {
	history := []Turn{
		user("자동차 사고가 났어요"),
		assistant("네"),
		user("입원 치료도 받았어요"),
		assistant("네"),
	}
	got := NewAnalyzer(nil).Analyze(history, "차량 수리와 병원비")

	want := []string{"자동차보험", "건강보험"}
	if !reflect.DeepEqual(got.ContinuationTopics, want) {
		t.Errorf("ContinuationTopics = %v, want %v", got.ContinuationTopics, want)
	}
}

func TestAnalyze_UnresolvedIssues(t *testing.T) {
	tests := []struct {
		name    string
		history []Turn
		want    []string
	}{
		{
			name:    "unanswered problem",
			history: []Turn{user("결제 오류가 계속 나요"), assistant("확인해보겠습니다")},
			want:    []string{"결제 오류가 계속 나요..."},
		},
		{
			name:    "resolved problem",
			history: []Turn{user("결제 오류가 계속 나요"), assistant("처리 완료했습니다")},
			want:    []string{},
		},
		{
			name:    "problem is last turn",
			history: []Turn{assistant("무엇을 도와드릴까요"), user("결제 오류가 계속 나요")},
			want:    []string{},
		},
	}

	a := NewAnalyzer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.history, "다시 문의드려요").UnresolvedIssues
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("UnresolvedIssues = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnalyze_UnresolvedIssueTruncated(t *testing.T) {
	long := "오류 가나다라마바사아자차카타파하가나다라마바사아자차카타파하가나다라마바사아자차카타파하가나다라마바사"
	history := []Turn{user(long), assistant("확인 중입니다")}

	got := NewAnalyzer(nil).Analyze(history, "네").UnresolvedIssues
	if len(got) != 1 {
		t.Fatalf("UnresolvedIssues = %v", got)
	}
	if n := len([]rune(got[0])); n != 53 {
		t.Errorf("issue has %d runes, want 50 + ellipsis", n)
	}
}

func TestAnalyzeMessage_EntitiesAndKeywords(t *testing.T) {
	a := NewAnalyzer(nil)

	got := a.AnalyzeMessage("보상금 1,500,000원과 3만원, 2024년 3월 5일, 010-1234-5678")
	wantEntities := []string{"1,500,000원", "3원", "2024년 3월 5일", "010-1234-5678"}
	if !reflect.DeepEqual(got.Entities, wantEntities) {
		t.Errorf("Entities = %v, want %v", got.Entities, wantEntities)
	}

	kw := a.AnalyzeMessage("자동차보험 상품과 운전자보험 특약, 자동차보험 할인").Keywords
	wantKeywords := []string{"자동차보험", "운전자보험"}
	if !reflect.DeepEqual(kw, wantKeywords) {
		t.Errorf("Keywords = %v, want %v", kw, wantKeywords)
	}
}

func TestAnalyze_HistoryContext(t *testing.T) {
	history := []Turn{
		user("자동차 사고로 입원했어요. 보험금 청구하려고요"),
		assistant("차량 사고 접수 도와드릴게요"),
		user("보험금 지급은 언제 되나요? 걱정이에요"),
		assistant("보통 일주일 걸립니다"),
	}
	got := NewAnalyzer(nil).Analyze(history, "네").Context

	if !reflect.DeepEqual(got.DominantCategories, []string{"자동차보험", "건강보험"}) {
		t.Errorf("DominantCategories = %v", got.DominantCategories)
	}
	if !reflect.DeepEqual(got.RecurringIntents, []string{"보상문의"}) {
		t.Errorf("RecurringIntents = %v", got.RecurringIntents)
	}
	if !reflect.DeepEqual(got.Emotional.Current, []string{"불안"}) {
		t.Errorf("Emotional.Current = %v", got.Emotional.Current)
	}
	if got.Emotional.Trend != TrendDeteriorating {
		t.Errorf("Emotional.Trend = %v, want %v", got.Emotional.Trend, TrendDeteriorating)
	}
}

func TestEmotionalTrend(t *testing.T) {
	tests := []struct {
		name        string
		progression [][]string
		want        EmotionalTrend
	}{
		{"empty", nil, TrendNeutral},
		{"negative", [][]string{{"불만"}}, TrendDeteriorating},
		{"positive", [][]string{{}, {"만족"}}, TrendImproving},
		{"mixed", [][]string{{"불안"}, {"만족"}}, TrendMixed},
		{"only last two count", [][]string{{"불만"}, {}, {"긴급"}}, TrendStable},
	}

	a := NewAnalyzer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.emotionalTrend(tt.progression); got != tt.want {
				t.Errorf("emotionalTrend() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnalyze_DoesNotMutateHistory(t *testing.T) {
	history := []Turn{user("자동차 사고"), assistant("네")}
	snapshot := append([]Turn(nil), history...)

	NewAnalyzer(nil).Analyze(history, "차량 수리")
	if !reflect.DeepEqual(history, snapshot) {
		t.Errorf("history mutated: %v", history)
	}
}
