package service

import (
	"haetsal-ai/internal/conversation"
	"haetsal-ai/internal/rag"
	"haetsal-ai/internal/sentiment"
)

var fallbackOpeners = map[string]string{
	sentiment.LabelComplaint: "불편을 끼쳐드려 죄송합니다. 전문 상담원과 연결해드릴까요? 📞",
	sentiment.LabelAnger:     "화가 나셨을 상황을 이해합니다. 즉시 해결방안을 찾아보겠습니다. 😔",
	sentiment.LabelAnxiety:   "걱정이 많으시군요. 차근차근 도움을 드리겠습니다. 안심하세요. 🤝",
	sentiment.LabelSadness:   "마음이 무거우시군요. 따뜻하게 도와드리겠습니다. 💙",
	sentiment.LabelJoy:       "기분이 좋으시네요! 더 도움이 되는 정보를 알려드릴게요. 😊",
	sentiment.LabelNeutral:   "질문을 좀 더 구체적으로 말씀해주시면 더 정확한 안내를 드릴 수 있어요. 🙂",
}

const fallbackNotice = "\n\n죄송하지만 일시적인 시스템 문제로 정확한 답변을 드리기 어렵습니다. 잠시 후 다시 시도해주세요."

// fallbackResponse is the reply used when the LLM is unavailable.
func fallbackResponse(e sentiment.Emotion) string {
	opener, ok := fallbackOpeners[e.Label]
	if !ok {
		opener = fallbackOpeners[sentiment.LabelNeutral]
	}
	return opener + fallbackNotice
}

func recommendFAQs(results []rag.SearchResult) []RecommendedFAQ {
	out := []RecommendedFAQ{}
	for _, r := range results {
		if len(out) == maxRecommended {
			break
		}
		if r.FAQ == nil || r.NormalizedScore <= recommendMinScore {
			continue
		}
		category := r.FAQ.Subject
		if category == "" {
			category = "일반"
		}
		out = append(out, RecommendedFAQ{Question: r.FAQ.Question, Score: r.NormalizedScore, Category: category})
	}
	return out
}

func nextActions(current conversation.MessageAnalysis, e sentiment.Emotion) []string {
	var actions []string
	if len(current.Categories) > 0 {
		actions = append(actions, "상품 상세 정보 조회", "보험료 계산")
	}
	if e.Label == sentiment.LabelAnxiety {
		actions = append(actions, "전문 상담원 연결")
	}
	if len(actions) == 0 {
		return []string{"FAQ 확인", "추가 질문"}
	}
	return actions
}
