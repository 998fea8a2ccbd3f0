package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"haetsal-ai/internal/contextutil"
	"haetsal-ai/internal/conversation"
	"haetsal-ai/internal/rag"
	"haetsal-ai/internal/sentiment"
	"haetsal-ai/internal/service"
)

// ChatHandler handles HTTP requests for chat sessions.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// HistoryTurn is a prior message supplied by the client.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents the HTTP request payload for chat.
//
// swagger:model ChatRequest
type ChatRequest struct {
	Message   string `json:"message"`
	Model     string `json:"model,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	PersonaID string `json:"persona_id,omitempty"`
	// History replaces the stored conversation when present.
	History []HistoryTurn `json:"history,omitempty"`
}

// RecommendedFAQ is an FAQ suggested next to the answer.
type RecommendedFAQ struct {
	Question string  `json:"question"`
	Score    float64 `json:"score"`
	Category string  `json:"category"`
}

// ConversationFlow describes the state of the conversation.
type ConversationFlow struct {
	Stage       conversation.Stage       `json:"stage"`
	Pattern     conversation.FlowPattern `json:"pattern"`
	NextActions []string                 `json:"next_actions"`
}

// ChatResponse represents the HTTP response payload for chat.
//
// swagger:model ChatResponse
type ChatResponse struct {
	SessionID        string                       `json:"session_id"`
	Answer           string                       `json:"answer"`
	Emotion          sentiment.Emotion            `json:"emotion"`
	Entities         conversation.MessageAnalysis `json:"entities"`
	EmotionTrend     sentiment.Trend              `json:"emotion_trend"`
	EscalationNeeded bool                         `json:"escalation_needed"`
	RecommendedFAQs  []RecommendedFAQ             `json:"recommended_faqs"`
	ConversationFlow ConversationFlow             `json:"conversation_flow"`
	SearchStrategy   string                       `json:"search_strategy"`
	SearchMetadata   *rag.Metadata                `json:"search_metadata,omitempty"`
	// ProcessingTime is in seconds.
	ProcessingTime float64 `json:"processing_time"`
}

// StreamEvent is the payload of one SSE data line.
type StreamEvent struct {
	Chunk    string        `json:"chunk,omitempty"`
	Response *ChatResponse `json:"response,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// EndSessionRequest identifies the session to close.
type EndSessionRequest struct {
	SessionID string `json:"session_id"`
}

// RatingRequest is a satisfaction rating for a session.
//
// swagger:model RatingRequest
type RatingRequest struct {
	SessionID string `json:"session_id"`
	Rating    int    `json:"rating"`
	Feedback  string `json:"feedback"`
}

// StatusResponse acknowledges session operations.
type StatusResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	FeedbackID string `json:"feedback_id,omitempty"`
	// EmotionSummary is set when a session ends.
	EmotionSummary *sentiment.Summary `json:"emotion_summary,omitempty"`
}

// ServeHTTP handles POST /api/chat/message.
//
// With ?stream=true the answer is sent as Server-Sent Events: one event per
// chunk, then an event carrying the full response, then [DONE].
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if r.URL.Query().Get("stream") == "true" {
		h.handleStreamingChat(w, r, req)
		return
	}

	svcResp, err := h.chatService.ProcessMessage(ctx, toServiceRequest(req))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process chat request")
		return
	}

	writeJSON(w, ctx, fromServiceResponse(svcResp))
}

// handleStreamingChat handles streaming chat requests using Server-Sent Events.
func (h *ChatHandler) handleStreamingChat(w http.ResponseWriter, r *http.Request, req ChatRequest) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func(ev StreamEvent) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	svcResp, err := h.chatService.StreamMessage(ctx, toServiceRequest(req), func(chunk string) error {
		return send(StreamEvent{Chunk: chunk})
	})
	if err != nil {
		logger.ErrorContext(ctx, "error streaming chat", "error", err)
		_ = send(StreamEvent{Error: err.Error()})
		return
	}

	resp := fromServiceResponse(svcResp)
	if err := send(StreamEvent{Response: &resp}); err != nil {
		logger.WarnContext(ctx, "failed to send final stream event", "error", err)
		return
	}

	_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// EndSession handles POST /api/chat/end-session.
func (h *ChatHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req EndSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	summary, err := h.chatService.EndSession(ctx, req.SessionID)
	if err != nil {
		handleServiceError(w, ctx, err, "세션 종료 중 오류가 발생했습니다.")
		return
	}

	writeJSON(w, ctx, StatusResponse{Success: true, Message: summary.Message, EmotionSummary: &summary.Emotions})
}

// SubmitRating handles POST /api/chat/submit-rating.
func (h *ChatHandler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RatingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.chatService.SubmitRating(ctx, service.RatingRequest{
		SessionID: req.SessionID,
		Rating:    req.Rating,
		Feedback:  req.Feedback,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "평점 제출 중 오류가 발생했습니다.")
		return
	}

	writeJSON(w, ctx, StatusResponse{Success: true, Message: resp.Message, FeedbackID: resp.FeedbackID})
}

func toServiceRequest(req ChatRequest) service.ChatRequest {
	svcReq := service.ChatRequest{
		Message:   req.Message,
		Model:     req.Model,
		SessionID: req.SessionID,
		PersonaID: req.PersonaID,
	}
	if req.History != nil {
		svcReq.History = toTurns(req.History)
	}
	return svcReq
}

// toTurns converts client history. The web client labels its own answers "bot".
func toTurns(history []HistoryTurn) []conversation.Turn {
	turns := make([]conversation.Turn, 0, len(history))
	for _, t := range history {
		role := conversation.Role(strings.ToLower(strings.TrimSpace(t.Role)))
		if role == "bot" {
			role = conversation.RoleAssistant
		}
		turns = append(turns, conversation.Turn{Role: role, Content: t.Content})
	}
	return turns
}

func fromServiceResponse(resp service.ChatResponse) ChatResponse {
	faqs := make([]RecommendedFAQ, 0, len(resp.RecommendedFAQs))
	for _, f := range resp.RecommendedFAQs {
		faqs = append(faqs, RecommendedFAQ{Question: f.Question, Score: f.Score, Category: f.Category})
	}
	return ChatResponse{
		SessionID:        resp.SessionID,
		Answer:           resp.Answer,
		Emotion:          resp.Emotion,
		Entities:         resp.Entities,
		EmotionTrend:     resp.Trend,
		EscalationNeeded: resp.EscalationNeeded,
		RecommendedFAQs:  faqs,
		ConversationFlow: ConversationFlow{
			Stage:       resp.Flow.Stage,
			Pattern:     resp.Flow.Pattern,
			NextActions: resp.Flow.NextActions,
		},
		SearchStrategy: resp.SearchStrategy,
		SearchMetadata: resp.SearchMetadata,
		ProcessingTime: resp.ProcessingTime.Seconds(),
	}
}
