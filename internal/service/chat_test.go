package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"haetsal-ai/internal/contextutil"
	"haetsal-ai/internal/conversation"
	"haetsal-ai/internal/corpus"
	"haetsal-ai/internal/llm"
	"haetsal-ai/internal/persona"
	"haetsal-ai/internal/prompt"
	"haetsal-ai/internal/rag"
	ragmocks "haetsal-ai/internal/rag/mocks"
	"haetsal-ai/internal/sentiment"
	"haetsal-ai/internal/service"
	"haetsal-ai/internal/service/mocks"
	"haetsal-ai/internal/storage"
	storagemocks "haetsal-ai/internal/storage/mocks"
)

func init() {
	// Set default logger to discard output for cleaner test output
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const defaultModel = "default-model"

type fixture struct {
	llm      *mocks.MockLLMClient
	searcher *mocks.MockSearcher
	faq      *mocks.MockFAQSearcher
	emotions *mocks.MockEmotionAnalyzer
	personas *mocks.MockPersonaFinder
	sessions *storagemocks.MockSessionStore
	messages *storagemocks.MockMessageStore
	feedback *storagemocks.MockFeedbackStore
	svc      service.ChatService
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		llm:      mocks.NewMockLLMClient(ctrl),
		searcher: mocks.NewMockSearcher(ctrl),
		faq:      mocks.NewMockFAQSearcher(ctrl),
		emotions: mocks.NewMockEmotionAnalyzer(ctrl),
		personas: mocks.NewMockPersonaFinder(ctrl),
		sessions: storagemocks.NewMockSessionStore(ctrl),
		messages: storagemocks.NewMockMessageStore(ctrl),
		feedback: storagemocks.NewMockFeedbackStore(ctrl),
	}
	f.svc = service.NewChatService(service.Deps{
		LLM:      f.llm,
		Searcher: f.searcher,
		FAQ:      f.faq,
		Emotions: f.emotions,
		Personas: f.personas,
		Sessions: f.sessions,
		Messages: f.messages,
		Feedback: f.feedback,
	}, service.Options{
		DefaultModel:  defaultModel,
		AllowedModels: []string{defaultModel, "other-model"},
	})
	return f
}

// expectPersist records the session and both messages, returning them for inspection.
func (f *fixture) expectPersist(sessionID any, personaID string) *[]storage.Message {
	saved := &[]storage.Message{}
	f.sessions.EXPECT().GetOrCreate(gomock.Any(), sessionID, defaultModel, personaID).Return(&storage.Session{}, nil)
	f.messages.EXPECT().Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m *storage.Message) error {
			*saved = append(*saved, *m)
			return nil
		}).Times(2)
	f.sessions.EXPECT().AddMessages(gomock.Any(), sessionID, 2).Return(nil)
	return saved
}

func faqHit(question, subject string, normalized float64) rag.SearchResult {
	return rag.SearchResult{
		SourceType:      rag.SourceFAQ,
		FAQ:             &corpus.FAQEntry{Question: question, Content: question + " 안내", Subject: subject},
		NormalizedScore: normalized,
	}
}

func TestChatService_ProcessMessage_NewSession(t *testing.T) {
	f := newFixture(t)
	const message = "자동차 사고 처리 방법"

	f.emotions.EXPECT().Analyze(gomock.Any(), message).Return(sentiment.Neutral())
	f.searcher.EXPECT().Search(gomock.Any(), nil, message, rag.DefaultSearchOptions()).
		Return(&rag.EnhancedResult{
			Results: []rag.RankedResult{
				{SearchResult: faqHit("사고 접수", "자동차", 0.9)},
				{SearchResult: faqHit("보험금 청구", "", 0.2)},
			},
			Metadata: rag.Metadata{Strategy: conversation.StrategyBalanced},
		}, nil)
	f.llm.EXPECT().Chat(gomock.Any(), gomock.Any(), llm.ChatParams{Model: defaultModel}).
		DoAndReturn(func(_ context.Context, prompt string, _ llm.ChatParams) (string, error) {
			if !strings.Contains(prompt, "# 참고 정보\nFAQ: 사고 접수 - 사고 접수 안내") {
				t.Errorf("prompt missing RAG section:\n%s", prompt)
			}
			if !strings.HasSuffix(prompt, "User: "+message+"\nAssistant:") {
				t.Errorf("prompt does not end with the message")
			}
			return "사고 접수는 앱에서 가능합니다.", nil
		})
	saved := f.expectPersist(gomock.Any(), "")

	resp, err := f.svc.ProcessMessage(context.Background(), service.ChatRequest{Message: "  " + message + "  "})
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}

	if resp.Answer != "사고 접수는 앱에서 가능합니다." {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if len(resp.SessionID) != 36 {
		t.Errorf("SessionID = %q, want generated UUID", resp.SessionID)
	}
	if resp.SearchStrategy != service.StrategyHybrid || resp.SearchMetadata == nil {
		t.Errorf("strategy = %q, metadata = %v", resp.SearchStrategy, resp.SearchMetadata)
	}
	if resp.EscalationNeeded {
		t.Error("EscalationNeeded = true for a neutral first message")
	}
	wantFAQ := []service.RecommendedFAQ{{Question: "사고 접수", Score: 0.9, Category: "자동차"}}
	if len(resp.RecommendedFAQs) != 1 || resp.RecommendedFAQs[0] != wantFAQ[0] {
		t.Errorf("RecommendedFAQs = %+v, want %+v", resp.RecommendedFAQs, wantFAQ)
	}
	if resp.Flow.Stage != conversation.StageGreeting {
		t.Errorf("Stage = %s, want greeting", resp.Flow.Stage)
	}
	if strings.Join(resp.Flow.NextActions, ",") != "상품 상세 정보 조회,보험료 계산" {
		t.Errorf("NextActions = %v", resp.Flow.NextActions)
	}

	if len(*saved) != 2 {
		t.Fatalf("saved %d messages, want 2", len(*saved))
	}
	user, bot := (*saved)[0], (*saved)[1]
	if user.Role != storage.RoleUser || user.Content != message || user.Emotion != sentiment.LabelNeutral {
		t.Errorf("user message = %+v", user)
	}
	if bot.Role != storage.RoleAssistant || bot.SearchStrategy != service.StrategyHybrid || bot.SessionID != resp.SessionID {
		t.Errorf("assistant message = %+v", bot)
	}
}

func TestChatService_ProcessMessage_Validation(t *testing.T) {
	tests := []struct {
		name      string
		req       service.ChatRequest
		wantField string
	}{
		{"empty message", service.ChatRequest{Message: "   "}, "message"},
		{"message too long", service.ChatRequest{Message: strings.Repeat("가", 1001)}, "message"},
		{"unknown model", service.ChatRequest{Message: "안녕", Model: "gpt-x"}, "model"},
		{"short session id", service.ChatRequest{Message: "안녕", SessionID: "abc"}, "session_id"},
		{"long session id", service.ChatRequest{Message: "안녕", SessionID: strings.Repeat("s", 101)}, "session_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.svc.ProcessMessage(context.Background(), tt.req)

			var validationErr *service.ValidationError
			if !errors.As(err, &validationErr) || validationErr.Field != tt.wantField {
				t.Fatalf("error = %v, want validation error on %s", err, tt.wantField)
			}
			if !errors.Is(err, service.ErrInvalidInput) {
				t.Errorf("error does not match ErrInvalidInput")
			}
		})
	}
}

func TestChatService_ProcessMessage_EverythingFails(t *testing.T) {
	f := newFixture(t)
	const (
		sessionID = "session-0001"
		message   = "아이 보험 상품 추천해주세요"
	)
	anxious := sentiment.Emotion{Label: sentiment.LabelAnxiety, Intensity: 4, Confidence: 0.8}
	history := []conversation.Turn{
		{Role: conversation.RoleUser, Content: "안녕"},
		{Role: conversation.RoleAssistant, Content: "안녕하세요"},
	}

	f.sessions.EXPECT().GetByID(gomock.Any(), sessionID).Return(&storage.Session{ID: sessionID, PersonaID: "P001"}, nil)
	f.personas.EXPECT().Get("P001").Return(persona.Persona{
		ID:     "P001",
		Fields: map[string]string{"ID": "P001", "연령대": "30대", "직업": "회사원"},
	}, nil)
	f.emotions.EXPECT().Analyze(gomock.Any(), message).Return(anxious)
	f.messages.EXPECT().ListRecent(gomock.Any(), sessionID, 10).Return([]storage.Message{
		{Role: storage.RoleUser, Content: "안녕"},
		{Role: storage.RoleAssistant, Content: "안녕하세요"},
	}, nil)
	wantOpts := rag.DefaultSearchOptions()
	wantOpts.BaseQuery = "30대 회사원에게 적합한 보험 상품 추천"
	f.searcher.EXPECT().Search(gomock.Any(), history, message, wantOpts).
		Return(&rag.EnhancedResult{Results: []rag.RankedResult{}}, rag.ErrIndexNotReady)
	f.faq.EXPECT().SearchFAQ(gomock.Any(), message, 3).Return(nil, errors.New("embedding service down"))
	f.llm.EXPECT().Chat(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, prompt string, _ llm.ChatParams) (string, error) {
			for _, want := range []string{"고객: 30대, 회사원", "감정 상태: 불안(강도 4)", "# 대화 맥락\nUser: 안녕\nAssistant: 안녕하세요"} {
				if !strings.Contains(prompt, want) {
					t.Errorf("prompt missing %q", want)
				}
			}
			return "", errors.New("timeout")
		})
	f.messages.EXPECT().RecentEmotions(gomock.Any(), sessionID, 4).
		Return([]storage.EmotionSample{{Label: sentiment.LabelAnxiety, Intensity: 4}}, nil)
	saved := f.expectPersist(sessionID, "P001")

	resp, err := f.svc.ProcessMessage(context.Background(), service.ChatRequest{Message: message, SessionID: sessionID})
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}

	if !strings.HasPrefix(resp.Answer, "걱정이 많으시군요.") || !strings.Contains(resp.Answer, "일시적인 시스템 문제") {
		t.Errorf("Answer is not the anxiety fallback: %q", resp.Answer)
	}
	if !strings.HasSuffix(resp.Answer, sentiment.EscalationSuggestion(sentiment.RecommendImmediateAgent)) {
		t.Errorf("Answer lacks the escalation suggestion: %q", resp.Answer)
	}
	if !resp.EscalationNeeded || resp.Trend.Recommendation != sentiment.RecommendImmediateAgent {
		t.Errorf("escalation = %v, trend = %+v", resp.EscalationNeeded, resp.Trend)
	}
	if resp.SearchStrategy != service.StrategyFailed || resp.SearchMetadata != nil {
		t.Errorf("strategy = %q, metadata = %v", resp.SearchStrategy, resp.SearchMetadata)
	}
	if len(resp.RecommendedFAQs) != 0 {
		t.Errorf("RecommendedFAQs = %v, want none", resp.RecommendedFAQs)
	}
	if strings.Join(resp.Flow.NextActions, ",") != "전문 상담원 연결" {
		t.Errorf("NextActions = %v", resp.Flow.NextActions)
	}
	if (*saved)[1].SearchStrategy != service.StrategyFailed || (*saved)[0].EmotionIntensity != 4 {
		t.Errorf("saved = %+v", *saved)
	}
}

func TestChatService_ProcessMessage_PersonaQueryKeepsFlow(t *testing.T) {
	f := newFixture(t)
	const (
		sessionID = "session-0001"
		message   = "그럼 추천 상품은?"
		personaQ  = "30대 회사원 기혼에게 적합한 보험 상품 추천"
	)
	history := []conversation.Turn{
		{Role: conversation.RoleUser, Content: "자동차보험 보장 내용 알려주세요"},
		{Role: conversation.RoleAssistant, Content: "대인, 대물 배상이 기본입니다."},
	}

	var queries []string
	retriever := ragmocks.NewMockRetriever(gomock.NewController(t))
	retriever.EXPECT().SearchFAQ(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q string, _ int) ([]rag.SearchResult, error) {
			queries = append(queries, q)
			return nil, nil
		}).AnyTimes()
	retriever.EXPECT().SearchTerms(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	analyzer := conversation.NewAnalyzer(nil)
	svc := service.NewChatService(service.Deps{
		LLM:      f.llm,
		Searcher: rag.NewEnhancedSearcher(retriever, analyzer, rag.DefaultTuning()),
		FAQ:      f.faq,
		Emotions: f.emotions,
		Personas: f.personas,
		Analyzer: analyzer,
		Sessions: f.sessions,
		Messages: f.messages,
		Feedback: f.feedback,
	}, service.Options{DefaultModel: defaultModel})

	f.personas.EXPECT().Get("P001").Return(persona.Persona{
		ID:     "P001",
		Fields: map[string]string{"ID": "P001", "연령대": "30대", "직업": "회사원", "가족구성": "기혼"},
	}, nil)
	f.emotions.EXPECT().Analyze(gomock.Any(), message).Return(sentiment.Neutral())
	f.llm.EXPECT().Chat(gomock.Any(), gomock.Any(), gomock.Any()).Return("30대 직장인께는 종신보험을 권해 드립니다.", nil)
	f.messages.EXPECT().RecentEmotions(gomock.Any(), sessionID, 4).Return(nil, nil)
	f.expectPersist(sessionID, "P001")

	resp, err := svc.ProcessMessage(context.Background(), service.ChatRequest{
		Message:   message,
		SessionID: sessionID,
		PersonaID: "P001",
		History:   history,
	})
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}

	if resp.Flow.Pattern != conversation.FlowFollowUpQuestion {
		t.Errorf("Flow.Pattern = %s, want %s", resp.Flow.Pattern, conversation.FlowFollowUpQuestion)
	}
	meta := resp.SearchMetadata
	if meta == nil {
		t.Fatal("SearchMetadata = nil")
	}
	if meta.FlowPattern != resp.Flow.Pattern || meta.Strategy != conversation.StrategyContextHeavy {
		t.Errorf("metadata flow/strategy = %s/%s, want %s/%s",
			meta.FlowPattern, meta.Strategy, resp.Flow.Pattern, conversation.StrategyContextHeavy)
	}
	if resp.SearchStrategy != service.StrategyPersonaHybrid {
		t.Errorf("SearchStrategy = %q", resp.SearchStrategy)
	}
	if len(queries) < 2 || queries[0] != personaQ {
		t.Fatalf("queries = %q, want persona query first", queries)
	}
	for _, q := range queries[1:] {
		if !strings.HasPrefix(q, message) {
			t.Errorf("variant query %q does not build on the message", q)
		}
	}
}

func TestChatService_ProcessMessage_LogsPromptStats(t *testing.T) {
	f := newFixture(t)
	cfg := prompt.DefaultConfig()
	cfg.MaxLength = 50
	svc := service.NewChatService(service.Deps{
		LLM:      f.llm,
		Searcher: f.searcher,
		FAQ:      f.faq,
		Emotions: f.emotions,
		Prompts:  prompt.NewManager(cfg),
		Sessions: f.sessions,
		Messages: f.messages,
		Feedback: f.feedback,
	}, service.Options{DefaultModel: defaultModel})

	f.emotions.EXPECT().Analyze(gomock.Any(), gomock.Any()).Return(sentiment.Neutral())
	f.searcher.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(&rag.EnhancedResult{}, nil)
	f.llm.EXPECT().Chat(gomock.Any(), gomock.Any(), gomock.Any()).Return("안내해 드리겠습니다.", nil)
	f.expectPersist(gomock.Any(), "")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := contextutil.WithLogger(context.Background(), logger)

	if _, err := svc.ProcessMessage(ctx, service.ChatRequest{Message: "보험료 납입 방법"}); err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}

	var line map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			t.Fatalf("invalid log line %q: %v", raw, err)
		}
		if entry["msg"] == "prompt compressed" {
			line = entry
		}
	}
	if line == nil {
		t.Fatalf("no prompt compressed log line in:\n%s", buf.String())
	}
	for _, key := range []string{"stages", "lines", "sections", "compression_ratio"} {
		if _, ok := line[key]; !ok {
			t.Errorf("prompt compressed log lacks %q: %v", key, line)
		}
	}
}

func TestChatService_ProcessMessage_SearchFallbacks(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(f *fixture)
		wantStrategy string
		wantFAQs     []string
	}{
		{
			name: "faq only",
			setup: func(f *fixture) {
				f.searcher.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(&rag.EnhancedResult{}, errors.New("terms index down"))
				f.faq.EXPECT().SearchFAQ(gomock.Any(), "보험료 문의", 3).Return([]rag.SearchResult{
					{SourceType: rag.SourceFAQ, FAQ: &corpus.FAQEntry{Question: "보험료 납부"}, RawScore: -1},
					{SourceType: rag.SourceFAQ, FAQ: &corpus.FAQEntry{Question: "보험료 환급"}, RawScore: -3},
				}, nil)
			},
			wantStrategy: service.StrategyFAQOnly,
			wantFAQs:     []string{"보험료 납부"},
		},
		{
			name: "partial results are kept",
			setup: func(f *fixture) {
				f.searcher.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(&rag.EnhancedResult{Results: []rag.RankedResult{{SearchResult: faqHit("보험료 조회", "", 1)}}}, errors.New("terms index down"))
			},
			wantStrategy: service.StrategyHybrid,
			wantFAQs:     []string{"보험료 조회"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.emotions.EXPECT().Analyze(gomock.Any(), gomock.Any()).Return(sentiment.Neutral())
			tt.setup(f)
			f.llm.EXPECT().Chat(gomock.Any(), gomock.Any(), gomock.Any()).Return("답변", nil)
			f.expectPersist(gomock.Any(), "")

			resp, err := f.svc.ProcessMessage(context.Background(), service.ChatRequest{Message: "보험료 문의"})
			if err != nil {
				t.Fatalf("ProcessMessage() error = %v", err)
			}
			if resp.SearchStrategy != tt.wantStrategy {
				t.Errorf("SearchStrategy = %q, want %q", resp.SearchStrategy, tt.wantStrategy)
			}
			var questions []string
			for _, faq := range resp.RecommendedFAQs {
				questions = append(questions, faq.Question)
			}
			if strings.Join(questions, ",") != strings.Join(tt.wantFAQs, ",") {
				t.Errorf("RecommendedFAQs = %v, want %v", questions, tt.wantFAQs)
			}
		})
	}
}

func TestChatService_ProcessMessage_PersistenceFailureIgnored(t *testing.T) {
	f := newFixture(t)
	f.emotions.EXPECT().Analyze(gomock.Any(), gomock.Any()).Return(sentiment.Neutral())
	f.searcher.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(&rag.EnhancedResult{}, nil)
	f.llm.EXPECT().Chat(gomock.Any(), gomock.Any(), gomock.Any()).Return("답변", nil)
	f.sessions.EXPECT().GetOrCreate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("disk full"))

	resp, err := f.svc.ProcessMessage(context.Background(), service.ChatRequest{Message: "안녕하세요"})
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}
	if resp.Answer != "답변" {
		t.Errorf("Answer = %q", resp.Answer)
	}
}

func TestChatService_StreamMessage(t *testing.T) {
	tests := []struct {
		name       string
		stream     func(callback func(string) error) error
		failSend   bool
		wantChunks []string
		wantErr    error
		persisted  bool
	}{
		{
			name: "chunks forwarded",
			stream: func(callback func(string) error) error {
				for _, c := range []string{"안녕", "하세요"} {
					if err := callback(c); err != nil {
						return err
					}
				}
				return nil
			},
			wantChunks: []string{"안녕", "하세요"},
			persisted:  true,
		},
		{
			name:       "fallback when nothing was streamed",
			stream:     func(func(string) error) error { return errors.New("connection refused") },
			wantChunks: []string{"질문을 좀 더 구체적으로 말씀해주시면 더 정확한 안내를 드릴 수 있어요. 🙂\n\n죄송하지만 일시적인 시스템 문제로 정확한 답변을 드리기 어렵습니다. 잠시 후 다시 시도해주세요."},
			persisted:  true,
		},
		{
			name: "interrupted stream",
			stream: func(callback func(string) error) error {
				_ = callback("안녕")
				return errors.New("connection reset")
			},
			wantChunks: []string{"안녕"},
			wantErr:    service.ErrExternalService,
		},
		{
			name: "client gone",
			stream: func(callback func(string) error) error {
				return callback("안녕")
			},
			failSend: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.emotions.EXPECT().Analyze(gomock.Any(), gomock.Any()).Return(sentiment.Neutral())
			f.searcher.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(&rag.EnhancedResult{}, nil)
			f.llm.EXPECT().StreamChat(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, _ string, _ llm.ChatParams, callback func(string) error) error {
					return tt.stream(callback)
				})
			if tt.persisted {
				f.expectPersist(gomock.Any(), "")
			}

			var chunks []string
			sendErr := errors.New("client disconnected")
			resp, err := f.svc.StreamMessage(context.Background(), service.ChatRequest{Message: "안녕"}, func(chunk string) error {
				if tt.failSend {
					return sendErr
				}
				chunks = append(chunks, chunk)
				return nil
			})

			switch {
			case tt.failSend:
				if !errors.Is(err, sendErr) || errors.Is(err, service.ErrExternalService) {
					t.Fatalf("error = %v, want the send error", err)
				}
				return
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
			case err != nil:
				t.Fatalf("StreamMessage() error = %v", err)
			default:
				if resp.Answer != strings.Join(tt.wantChunks, "") {
					t.Errorf("Answer = %q, want concatenated chunks", resp.Answer)
				}
			}
			if strings.Join(chunks, "|") != strings.Join(tt.wantChunks, "|") {
				t.Errorf("chunks = %q, want %q", chunks, tt.wantChunks)
			}
		})
	}
}
