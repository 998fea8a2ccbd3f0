package sentiment

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm.go -package=mocks haetsal-ai/internal/sentiment LLMClient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"haetsal-ai/internal/contextutil"
	"haetsal-ai/internal/llm"
)

// Emotion labels produced by the classifier.
const (
	LabelPositive     = "긍정"
	LabelNegative     = "부정"
	LabelComplaint    = "불만"
	LabelAnger        = "분노"
	LabelAnxiety      = "불안"
	LabelNeutral      = "중립"
	LabelJoy          = "기쁨"
	LabelSadness      = "슬픔"
	LabelSurprise     = "놀람"
	LabelDisappointed = "실망"
)

// Emotion is the classified emotion of a single message.
type Emotion struct {
	Label      string  `json:"emotion"`
	Intensity  int     `json:"intensity"`
	Confidence float64 `json:"confidence"`
}

// Neutral is the default emotion used when classification is unavailable.
func Neutral() Emotion {
	return Emotion{Label: LabelNeutral, Intensity: 3, Confidence: 0.5}
}

// IsNegative reports whether the label counts toward negative trends.
func (e Emotion) IsNegative() bool {
	switch e.Label {
	case LabelNegative, LabelComplaint, LabelAnger, LabelAnxiety, LabelSadness:
		return true
	}
	return false
}

// negativeWords force an anger classification regardless of the model's answer.
var negativeWords = []string{
	"짜증", "화나", "빡쳐", "개같", "씨발", "좆", "미친", "죽겠", "엿같", "지랄",
	"존나", "개새", "병신", "꺼져", "싫어", "실망", "불만", "불안", "분노", "짜증나",
	"답답", "최악", "실수", "에러", "오류", "망했", "화났", "빡침", "짜증남", "화가",
}

const classifyPrompt = `다음 문장의 감정을 분석해주세요.
감정 유형: 긍정/부정/불만/분노/불안/중립/기쁨/슬픔/놀람
감정 강도: 1-5 (1: 매우 약함, 5: 매우 강함)

JSON 형태로 답변해주세요:
{"emotion": "감정유형", "intensity": 강도, "confidence": 신뢰도}

문장: %s`

// LLMClient is the completion API used for classification.
type LLMClient interface {
	Chat(ctx context.Context, prompt string, params llm.ChatParams) (string, error)
}

// Analyzer classifies message emotions with an LLM and a negative-word lexicon.
type Analyzer struct {
	llm   LLMClient
	model string
}

// NewAnalyzer creates an analyzer. With a nil client only the lexicon is used.
func NewAnalyzer(client LLMClient, model string) *Analyzer {
	return &Analyzer{llm: client, model: model}
}

// Analyze never fails: classifier errors fall back to Neutral before the
// lexicon override and intensity floor are applied.
func (a *Analyzer) Analyze(ctx context.Context, text string) Emotion {
	logger := contextutil.LoggerFromContext(ctx)

	emotion := Neutral()
	if a.llm != nil {
		answer, err := a.llm.Chat(ctx, fmt.Sprintf(classifyPrompt, text), llm.ChatParams{
			Model:       a.model,
			MaxTokens:   100,
			Temperature: 0.1,
		})
		if err != nil {
			logger.WarnContext(ctx, "emotion classification failed", "error", err)
		} else if parsed, err := parseEmotion(answer); err != nil {
			logger.WarnContext(ctx, "failed to parse emotion answer", "error", err, "answer", answer)
		} else {
			emotion = parsed
		}
	}

	return adjust(emotion, text)
}

// parseEmotion decodes the first JSON object in answer.
func parseEmotion(answer string) (Emotion, error) {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start < 0 || end <= start {
		return Emotion{}, fmt.Errorf("no json object in answer")
	}

	var raw struct {
		Emotion    string   `json:"emotion"`
		Intensity  *float64 `json:"intensity"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(answer[start:end+1]), &raw); err != nil {
		return Emotion{}, fmt.Errorf("failed to decode emotion: %w", err)
	}

	e := Neutral()
	if label := strings.TrimSpace(raw.Emotion); label != "" {
		e.Label = label
	}
	if raw.Intensity != nil {
		e.Intensity = clampIntensity(int(*raw.Intensity + 0.5))
	}
	if raw.Confidence != nil {
		e.Confidence = *raw.Confidence
	}
	return e, nil
}

func adjust(e Emotion, text string) Emotion {
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			e = Emotion{Label: LabelAnger, Intensity: 5, Confidence: 0.99}
			break
		}
	}
	if e.IsNegative() && e.Intensity < 4 {
		e.Intensity = 4
	}
	return e
}

func clampIntensity(i int) int {
	switch {
	case i < 1:
		return 1
	case i > 5:
		return 5
	}
	return i
}
