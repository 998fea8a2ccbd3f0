package conversation

import (
	"reflect"
	"testing"
)

func variantTypes(plan QueryPlan) []VariantType {
	out := make([]VariantType, len(plan.Variants))
	for i, v := range plan.Variants {
		out[i] = v.Type
	}
	return out
}

func TestQueryBuilder_Build(t *testing.T) {
	repeat := func(n int) []Turn {
		var h []Turn
		for i := 0; i < n; i++ {
			if i%2 == 0 {
				h = append(h, user("자동차 보험료 문의"))
			} else {
				h = append(h, assistant("네"))
			}
		}
		return h
	}

	tests := []struct {
		name         string
		history      []Turn
		message      string
		wantTypes    []VariantType
		wantQueries  []string
		wantStrategy Strategy
		wantWeights  ContextWeights
	}{
		{
			name:         "greeting only has base",
			message:      "  안녕하세요  ",
			wantTypes:    []VariantType{VariantBase},
			wantQueries:  []string{"안녕하세요"},
			wantStrategy: StrategyBalanced,
			wantWeights:  ContextWeights{1.0, 0.5, 0.3, 0.2},
		},
		{
			name:         "intent adds context variant",
			message:      "보험 가입하고 싶어",
			wantTypes:    []VariantType{VariantBase, VariantContextExpanded},
			wantQueries:  []string{"보험 가입하고 싶어", "보험 가입하고 싶어 가입 신청"},
			wantStrategy: StrategyBalanced,
			wantWeights:  ContextWeights{1.0, 0.5, 0.3, 0.2},
		},
		{
			name:         "follow-up with continuing topic",
			history:      []Turn{user("자동차 사고 접수하려고요"), assistant("네 도와드릴게요")},
			message:      "그럼 차량 수리비는요?",
			wantTypes:    []VariantType{VariantBase, VariantContextExpanded, VariantTopicContinuation},
			wantQueries:  []string{"그럼 차량 수리비는요?", "그럼 차량 수리비는요? 자동차보험", "그럼 차량 수리비는요? 자동차보험"},
			wantStrategy: StrategyContextHeavy,
			wantWeights:  ContextWeights{1.0, 0.8, 0.6, 0.2},
		},
		{
			name:         "unresolved issue",
			history:      []Turn{user("카드 결제 오류 발생"), assistant("확인해보겠습니다")},
			message:      "아직 안되네요",
			wantTypes:    []VariantType{VariantBase, VariantContextExpanded, VariantUnresolvedIssues},
			wantQueries:  []string{"아직 안되네요", "아직 안되네요 문제 해결", "아직 안되네요 카드 결제 오류 발생..."},
			wantStrategy: StrategyBroadSearch,
			wantWeights:  ContextWeights{1.0, 0.2, 0.1, 0.2},
		},
		{
			name:         "extended consultation",
			history:      repeat(11),
			message:      "자동차 보험료 할증",
			wantTypes:    []VariantType{VariantBase, VariantContextExpanded, VariantTopicContinuation},
			wantStrategy: StrategyComprehensive,
			wantWeights:  ContextWeights{1.0, 0.5, 0.7, 0.4},
		},
	}

	b := NewQueryBuilder(NewAnalyzer(nil), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := b.Build(tt.history, tt.message)

			if got := variantTypes(plan); !reflect.DeepEqual(got, tt.wantTypes) {
				t.Fatalf("variant types = %v, want %v", got, tt.wantTypes)
			}
			for i, q := range tt.wantQueries {
				if plan.Variants[i].Query != q {
					t.Errorf("variant %d query = %q, want %q", i, plan.Variants[i].Query, q)
				}
			}
			if plan.Strategy != tt.wantStrategy {
				t.Errorf("Strategy = %v, want %v", plan.Strategy, tt.wantStrategy)
			}
			if plan.ContextWeights != tt.wantWeights {
				t.Errorf("ContextWeights = %+v, want %+v", plan.ContextWeights, tt.wantWeights)
			}
		})
	}
}

func TestQueryBuilder_VariantWeights(t *testing.T) {
	history := []Turn{user("자동차 사고 오류"), assistant("확인 중입니다")}
	plan := NewQueryBuilder(NewAnalyzer(nil), nil).Build(history, "자동차 사고 접수")

	want := map[VariantType]float64{
		VariantBase:              1.0,
		VariantContextExpanded:   0.8,
		VariantTopicContinuation: 0.7,
		VariantUnresolvedIssues:  0.6,
	}
	if len(plan.Variants) != 4 {
		t.Fatalf("got %d variants, want 4: %+v", len(plan.Variants), plan.Variants)
	}
	for _, v := range plan.Variants {
		if v.Weight != want[v.Type] {
			t.Errorf("%s weight = %v, want %v", v.Type, v.Weight, want[v.Type])
		}
	}
}

func TestUnresolvedQuery_LimitsKeywords(t *testing.T) {
	issues := []string{"가입 오류 결제 오류 조회 실패 로그인 문제..."}
	got, ok := unresolvedQuery(issues, "도와주세요")
	if !ok {
		t.Fatal("unresolvedQuery() returned no query")
	}
	want := "도와주세요 가입 오류 결제 조회 실패"
	if got != want {
		t.Errorf("unresolvedQuery() = %q, want %q", got, want)
	}
}
