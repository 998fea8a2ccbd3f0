package rag

import (
	"strings"

	"haetsal-ai/internal/conversation"
)

var strategyDescriptions = map[conversation.Strategy]string{
	conversation.StrategyContextHeavy:     "이전 대화 내용을 중점적으로 고려하여",
	conversation.StrategyPrecisionFocused: "정확한 정보에 집중하여",
	conversation.StrategySolutionOriented: "문제 해결에 특화하여",
	conversation.StrategyBroadSearch:      "폭넓은 관점에서",
	conversation.StrategyComprehensive:    "종합적인 관점에서",
	conversation.StrategyBalanced:         "균형잡힌 방식으로",
}

var flowDescriptions = map[conversation.FlowPattern]string{
	conversation.FlowFollowUpQuestion:  "이전 질문의 연장선에서",
	conversation.FlowDetailInquiry:     "상세한 정보 요청에 대해",
	conversation.FlowProblemSolving:    "문제 해결을 위해",
	conversation.FlowTopicChange:       "새로운 주제에 대해",
	conversation.FlowTopicContinuation: "기존 주제를 이어서",
}

// Explain describes in Korean how a search was performed.
func Explain(meta Metadata) string {
	parts := make([]string, 0, 3)
	if d, ok := strategyDescriptions[meta.Strategy]; ok {
		parts = append(parts, d)
	}
	if d, ok := flowDescriptions[meta.FlowPattern]; ok {
		parts = append(parts, d)
	}
	parts = append(parts, "검색했습니다.")
	return strings.Join(parts, " ")
}
