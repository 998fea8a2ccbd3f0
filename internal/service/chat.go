package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_dependencies.go -package=mocks haetsal-ai/internal/service LLMClient,Searcher,FAQSearcher,EmotionAnalyzer,PersonaFinder
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService haetsal-ai/internal/service ChatService

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"haetsal-ai/internal/contextutil"
	"haetsal-ai/internal/conversation"
	"haetsal-ai/internal/llm"
	"haetsal-ai/internal/persona"
	"haetsal-ai/internal/prompt"
	"haetsal-ai/internal/rag"
	"haetsal-ai/internal/sentiment"
	"haetsal-ai/internal/storage"
)

// LLMClient is an interface for interacting with an LLM API.
// This interface is defined from the service layer's perspective (consumer-first).
type LLMClient interface {
	// Chat sends a prompt to the LLM and returns the reply.
	Chat(ctx context.Context, prompt string, params llm.ChatParams) (string, error)
	// StreamChat sends a prompt to the LLM and streams the reply via callback.
	StreamChat(ctx context.Context, prompt string, params llm.ChatParams, callback func(chunk string) error) error
}

// Searcher runs conversation-aware retrieval over FAQ and policy terms.
type Searcher interface {
	Search(ctx context.Context, history []conversation.Turn, message string, opts rag.SearchOptions) (*rag.EnhancedResult, error)
}

// FAQSearcher is the FAQ-only retrieval used when Searcher fails.
type FAQSearcher interface {
	SearchFAQ(ctx context.Context, query string, topN int) ([]rag.SearchResult, error)
}

// EmotionAnalyzer classifies the emotion of a message. It never fails.
type EmotionAnalyzer interface {
	Analyze(ctx context.Context, text string) sentiment.Emotion
}

// PersonaFinder looks up customer personas by ID.
type PersonaFinder interface {
	Get(id string) (persona.Persona, error)
}

// Search strategies reported in ChatResponse.SearchStrategy.
const (
	StrategyHybrid        = "hybrid"
	StrategyPersonaHybrid = "persona_hybrid"
	StrategyFAQOnly       = "faq_only"
	StrategyFailed        = "failed"
)

const (
	maxMessageRunes   = 1000
	minSessionIDLen   = 10
	maxSessionIDLen   = 100
	historyLimit      = 10
	fallbackFAQTopN   = 3
	maxRecommended    = 3
	recommendMinScore = 0.3
)

// ChatRequest represents a chat request in the domain layer.
type ChatRequest struct {
	Message   string
	Model     string // empty selects the default model
	SessionID string // empty starts a new session
	PersonaID string
	// History overrides the stored conversation when non-nil.
	History []conversation.Turn
}

// RecommendedFAQ is an FAQ suggested alongside an answer.
type RecommendedFAQ struct {
	Question string
	Score    float64
	Category string
}

// ConversationFlow describes where the conversation stands.
type ConversationFlow struct {
	Stage       conversation.Stage
	Pattern     conversation.FlowPattern
	NextActions []string
}

// ChatResponse represents a chat response in the domain layer.
type ChatResponse struct {
	SessionID        string
	Answer           string
	Emotion          sentiment.Emotion
	Entities         conversation.MessageAnalysis
	Trend            sentiment.Trend
	EscalationNeeded bool
	RecommendedFAQs  []RecommendedFAQ
	Flow             ConversationFlow
	SearchStrategy   string
	// SearchMetadata is nil unless the enhanced search produced the results.
	SearchMetadata *rag.Metadata
	ProcessingTime time.Duration
}

// ChatService provides chat functionality.
type ChatService interface {
	// ProcessMessage answers a message and records it in the session.
	ProcessMessage(ctx context.Context, req ChatRequest) (ChatResponse, error)
	// StreamMessage is ProcessMessage with the answer streamed via callback.
	// The returned response carries the complete answer.
	StreamMessage(ctx context.Context, req ChatRequest, callback func(chunk string) error) (ChatResponse, error)
	// EndSession closes a session and returns the farewell message with an
	// emotion summary of the conversation.
	EndSession(ctx context.Context, sessionID string) (SessionSummary, error)
	// SubmitRating stores a session rating and returns the thank-you message.
	SubmitRating(ctx context.Context, req RatingRequest) (RatingResponse, error)
}

// Deps are the collaborators of the chat service. Personas may be nil.
type Deps struct {
	LLM      LLMClient
	Searcher Searcher
	FAQ      FAQSearcher
	Emotions EmotionAnalyzer
	Personas PersonaFinder
	Prompts  *prompt.Manager
	Analyzer *conversation.Analyzer
	Sessions storage.SessionStore
	Messages storage.MessageStore
	Feedback storage.FeedbackStore
}

// Options configure request handling.
type Options struct {
	DefaultModel  string
	AllowedModels []string
	Search        rag.SearchOptions
}

// chatService implements ChatService.
type chatService struct {
	Deps
	opts Options
}

// NewChatService creates a new ChatService. Nil Prompts and Analyzer get defaults.
func NewChatService(deps Deps, opts Options) ChatService {
	if deps.Prompts == nil {
		deps.Prompts = prompt.NewManager(prompt.DefaultConfig())
	}
	if deps.Analyzer == nil {
		deps.Analyzer = conversation.NewAnalyzer(nil)
	}
	if opts.Search == (rag.SearchOptions{}) {
		opts.Search = rag.DefaultSearchOptions()
	}
	return &chatService{Deps: deps, opts: opts}
}

// exchange carries one message through the pipeline.
type exchange struct {
	start      time.Time
	req        ChatRequest
	newSession bool
	persona    *persona.Persona
	emotion    sentiment.Emotion
	history    []conversation.Turn
	analysis   conversation.Analysis
	results    []rag.SearchResult
	metadata   *rag.Metadata
	strategy   string
	prompt     string
}

// ProcessMessage processes a chat request.
func (s *chatService) ProcessMessage(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	ex, err := s.prepare(ctx, req)
	if err != nil {
		return ChatResponse{}, err
	}

	answer, err := s.LLM.Chat(ctx, ex.prompt, llm.ChatParams{Model: ex.req.Model})
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response, using fallback", "error", err)
		answer = fallbackResponse(ex.emotion)
	}

	trend := s.trend(ctx, ex)
	resp := s.finish(ctx, ex, answer+sentiment.EscalationSuggestion(trend.Recommendation), trend)
	logger.InfoContext(ctx, "chat request processed successfully",
		"session_id", resp.SessionID,
		"search_strategy", resp.SearchStrategy,
		"reply_length", utf8.RuneCountInString(resp.Answer),
		"duration", resp.ProcessingTime)
	return resp, nil
}

// StreamMessage processes a chat request and streams the answer.
func (s *chatService) StreamMessage(ctx context.Context, req ChatRequest, callback func(chunk string) error) (ChatResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	ex, err := s.prepare(ctx, req)
	if err != nil {
		return ChatResponse{}, err
	}

	var (
		answer  strings.Builder
		sendErr error
	)
	send := func(chunk string) error {
		if err := callback(chunk); err != nil {
			sendErr = err
			return err
		}
		answer.WriteString(chunk)
		return nil
	}

	err = s.LLM.StreamChat(ctx, ex.prompt, llm.ChatParams{Model: ex.req.Model}, send)
	switch {
	case sendErr != nil:
		return ChatResponse{}, fmt.Errorf("failed to send chunk: %w", sendErr)
	case err != nil && answer.Len() > 0:
		logger.ErrorContext(ctx, "LLM stream interrupted", "error", err)
		return ChatResponse{}, externalError(err, "failed to stream LLM response")
	case err != nil:
		logger.ErrorContext(ctx, "failed to stream LLM response, using fallback", "error", err)
		if err := send(fallbackResponse(ex.emotion)); err != nil {
			return ChatResponse{}, fmt.Errorf("failed to send fallback: %w", err)
		}
	}

	trend := s.trend(ctx, ex)
	if suggestion := sentiment.EscalationSuggestion(trend.Recommendation); suggestion != "" {
		if err := send(suggestion); err != nil {
			return ChatResponse{}, fmt.Errorf("failed to send suggestion: %w", err)
		}
	}

	resp := s.finish(ctx, ex, answer.String(), trend)
	logger.InfoContext(ctx, "streaming chat request processed successfully",
		"session_id", resp.SessionID,
		"search_strategy", resp.SearchStrategy,
		"duration", resp.ProcessingTime)
	return resp, nil
}

func (s *chatService) validate(req ChatRequest) (ChatRequest, bool, error) {
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return req, false, &ValidationError{Field: "message", Message: "메시지가 비어있습니다."}
	}
	if utf8.RuneCountInString(req.Message) > maxMessageRunes {
		return req, false, &ValidationError{Field: "message", Message: fmt.Sprintf("메시지가 너무 깁니다. (최대 %d자)", maxMessageRunes)}
	}

	if req.Model == "" {
		req.Model = s.opts.DefaultModel
	}
	if len(s.opts.AllowedModels) > 0 && !slices.Contains(s.opts.AllowedModels, req.Model) {
		return req, false, &ValidationError{Field: "model", Message: "지원하지 않는 모델입니다: " + req.Model}
	}

	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
		return req, true, nil
	}
	if n := len(req.SessionID); n < minSessionIDLen || n > maxSessionIDLen {
		return req, false, &ValidationError{Field: "session_id", Message: "세션 ID 형식이 올바르지 않습니다."}
	}
	return req, false, nil
}

// prepare runs everything up to the LLM call.
func (s *chatService) prepare(ctx context.Context, req ChatRequest) (*exchange, error) {
	logger := contextutil.LoggerFromContext(ctx)

	req, generated, err := s.validate(req)
	if err != nil {
		logger.WarnContext(ctx, "invalid chat request", "error", err)
		return nil, err
	}

	ex := &exchange{start: time.Now(), req: req, newSession: generated}
	ex.persona = s.lookupPersona(ctx, ex)
	ex.emotion = s.Emotions.Analyze(ctx, req.Message)

	ex.history = req.History
	if ex.history == nil && !ex.newSession {
		ex.history = s.loadHistory(ctx, req.SessionID)
	}
	ex.analysis = s.Analyzer.Analyze(ex.history, req.Message)

	s.retrieve(ctx, ex)

	in := prompt.Input{
		UserMessage: req.Message,
		History:     ex.history,
		RAGResults:  ex.results,
		Emotion:     &ex.emotion,
	}
	if ex.persona != nil {
		in.Persona = ex.persona.Map()
	}
	var report prompt.Report
	ex.prompt, report = s.Prompts.BuildWithReport(in)
	if len(report.Stages) > 0 {
		stats := s.Prompts.Stats(ex.prompt)
		logger.DebugContext(ctx, "prompt compressed",
			"original_length", report.OriginalLength,
			"final_length", report.FinalLength,
			"stages", report.Stages,
			"lines", stats.TotalLines,
			"sections", stats.Sections,
			"compression_ratio", stats.CompressionRatio)
	}

	return ex, nil
}

func (s *chatService) lookupPersona(ctx context.Context, ex *exchange) *persona.Persona {
	logger := contextutil.LoggerFromContext(ctx)

	id := ex.req.PersonaID
	if id == "" && !ex.newSession {
		session, err := s.Sessions.GetByID(ctx, ex.req.SessionID)
		switch {
		case err == nil:
			id = session.PersonaID
		case !errors.Is(err, storage.ErrNotFound):
			logger.WarnContext(ctx, "failed to load session", "session_id", ex.req.SessionID, "error", err)
		}
	}
	if id == "" || s.Personas == nil {
		return nil
	}

	p, err := s.Personas.Get(id)
	if err != nil {
		logger.WarnContext(ctx, "failed to load persona", "persona_id", id, "error", err)
		return nil
	}
	return &p
}

func (s *chatService) loadHistory(ctx context.Context, sessionID string) []conversation.Turn {
	msgs, err := s.Messages.ListRecent(ctx, sessionID, historyLimit)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to load history", "session_id", sessionID, "error", err)
		return nil
	}
	turns := make([]conversation.Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, conversation.Turn{Role: conversation.Role(m.Role), Content: m.Content})
	}
	return turns
}

// retrieve fills the RAG results, falling back to FAQ-only search and then to
// none at all.
func (s *chatService) retrieve(ctx context.Context, ex *exchange) {
	logger := contextutil.LoggerFromContext(ctx)

	opts := s.opts.Search
	if query := searchQuery(ex.req.Message, ex.persona); query != ex.req.Message {
		opts.BaseQuery = query
	}
	res, err := s.Searcher.Search(ctx, ex.history, ex.req.Message, opts)
	if res != nil && (err == nil || len(res.Results) > 0) {
		if err != nil {
			logger.WarnContext(ctx, "search partially failed", "error", err)
		}
		ex.strategy = StrategyHybrid
		if ex.persona != nil {
			ex.strategy = StrategyPersonaHybrid
		}
		ex.results = make([]rag.SearchResult, len(res.Results))
		for i, r := range res.Results {
			ex.results[i] = r.SearchResult
		}
		meta := res.Metadata
		ex.metadata = &meta
		return
	}

	logger.WarnContext(ctx, "search failed, falling back to FAQ search", "error", err)
	faq, err := s.FAQ.SearchFAQ(ctx, ex.req.Message, fallbackFAQTopN)
	if err != nil {
		logger.ErrorContext(ctx, "fallback FAQ search failed", "error", err)
		ex.strategy = StrategyFailed
		return
	}
	rag.NormalizeScores(faq)
	ex.results = faq
	ex.strategy = StrategyFAQOnly
}

// searchQuery adds the persona's profile to the message.
func searchQuery(message string, p *persona.Persona) string {
	if p == nil {
		return message
	}

	var parts []string
	for _, field := range []string{persona.FieldAgeGroup, persona.FieldOccupation, persona.FieldFamily} {
		if v := p.Value(field); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return message
	}
	keywords := strings.Join(parts, " ")

	if strings.Contains(message, "추천") || strings.Contains(message, "상품") {
		return keywords + "에게 적합한 보험 상품 추천"
	}
	return message + " (" + keywords + " 관련)"
}

// trend combines stored emotions with the current one.
func (s *chatService) trend(ctx context.Context, ex *exchange) sentiment.Trend {
	var emotions []sentiment.Emotion
	if !ex.newSession {
		samples, err := s.Messages.RecentEmotions(ctx, ex.req.SessionID, sentiment.DefaultTrendWindow-1)
		if err != nil {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to load emotions", "session_id", ex.req.SessionID, "error", err)
		}
		for _, smp := range samples {
			emotions = append(emotions, sentiment.Emotion{Label: smp.Label, Intensity: smp.Intensity})
		}
	}
	emotions = append(emotions, ex.emotion)
	return sentiment.AnalyzeTrend(emotions, sentiment.DefaultTrendWindow)
}

func (s *chatService) finish(ctx context.Context, ex *exchange, answer string, trend sentiment.Trend) ChatResponse {
	resp := ChatResponse{
		SessionID:        ex.req.SessionID,
		Answer:           answer,
		Emotion:          ex.emotion,
		Entities:         ex.analysis.Current,
		Trend:            trend,
		EscalationNeeded: trend.NeedsAgent() || sentiment.KeywordEscalation(ex.emotion, ex.req.Message),
		RecommendedFAQs:  recommendFAQs(ex.results),
		Flow: ConversationFlow{
			Stage:       ex.analysis.Stage,
			Pattern:     ex.analysis.FlowPattern,
			NextActions: nextActions(ex.analysis.Current, ex.emotion),
		},
		SearchStrategy: ex.strategy,
		SearchMetadata: ex.metadata,
		ProcessingTime: time.Since(ex.start),
	}
	if resp.EscalationNeeded {
		contextutil.LoggerFromContext(ctx).InfoContext(ctx, "escalation suggested",
			"session_id", resp.SessionID,
			"emotion", ex.emotion.Label,
			"recommendation", trend.Recommendation)
	}
	s.persist(ctx, ex, resp)
	return resp
}

// persist records the exchange. Failures are logged and do not affect the reply.
func (s *chatService) persist(ctx context.Context, ex *exchange, resp ChatResponse) {
	logger := contextutil.LoggerFromContext(ctx)

	personaID := ex.req.PersonaID
	if ex.persona != nil {
		personaID = ex.persona.ID
	}
	if _, err := s.Sessions.GetOrCreate(ctx, resp.SessionID, ex.req.Model, personaID); err != nil {
		logger.WarnContext(ctx, "failed to save session", "session_id", resp.SessionID, "error", err)
		return
	}

	msgs := []*storage.Message{
		{
			SessionID:        resp.SessionID,
			Role:             storage.RoleUser,
			Content:          ex.req.Message,
			Emotion:          ex.emotion.Label,
			EmotionIntensity: ex.emotion.Intensity,
		},
		{
			SessionID:      resp.SessionID,
			Role:           storage.RoleAssistant,
			Content:        resp.Answer,
			SearchStrategy: resp.SearchStrategy,
			ProcessingMS:   resp.ProcessingTime.Milliseconds(),
		},
	}
	for _, m := range msgs {
		if err := s.Messages.Insert(ctx, m); err != nil {
			logger.WarnContext(ctx, "failed to save message", "session_id", resp.SessionID, "role", m.Role, "error", err)
			return
		}
	}
	if err := s.Sessions.AddMessages(ctx, resp.SessionID, len(msgs)); err != nil {
		logger.WarnContext(ctx, "failed to update session", "session_id", resp.SessionID, "error", err)
	}
}
