package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"haetsal-ai/internal/contextutil"
	"haetsal-ai/internal/sentiment"
	"haetsal-ai/internal/storage"
)

const (
	maxFeedbackRunes    = 500
	summaryEmotionLimit = 100
)

// SessionEndedMessage is returned by EndSession.
const SessionEndedMessage = "채팅 세션이 종료되었습니다. 이용해주셔서 감사합니다! 😊"

// SessionSummary is returned when a session ends.
type SessionSummary struct {
	Message  string
	Emotions sentiment.Summary
}

// RatingRequest is a satisfaction rating for a session.
type RatingRequest struct {
	SessionID string
	Rating    int
	Feedback  string
}

// RatingResponse acknowledges a rating.
type RatingResponse struct {
	Message    string
	FeedbackID string
}

// EndSession marks a session ended and summarizes the emotions of its user
// messages. A failed emotion lookup yields an empty summary.
func (s *chatService) EndSession(ctx context.Context, sessionID string) (SessionSummary, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(sessionID) < minSessionIDLen || len(sessionID) > maxSessionIDLen {
		return SessionSummary{}, &ValidationError{Field: "session_id", Message: "세션 ID 형식이 올바르지 않습니다."}
	}

	if err := s.Sessions.End(ctx, sessionID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return SessionSummary{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		logger.ErrorContext(ctx, "failed to end session", "session_id", sessionID, "error", err)
		return SessionSummary{}, WrapError(err, "failed to end session")
	}

	samples, err := s.Messages.RecentEmotions(ctx, sessionID, summaryEmotionLimit)
	if err != nil {
		logger.WarnContext(ctx, "failed to load emotions", "session_id", sessionID, "error", err)
	}
	emotions := make([]sentiment.Emotion, 0, len(samples))
	for _, smp := range samples {
		emotions = append(emotions, sentiment.Emotion{Label: smp.Label, Intensity: smp.Intensity})
	}
	summary := sentiment.Summarize(emotions)

	logger.InfoContext(ctx, "session ended",
		"session_id", sessionID,
		"messages", summary.TotalMessages,
		"dominant_emotion", summary.Dominant)
	return SessionSummary{Message: SessionEndedMessage, Emotions: summary}, nil
}

// SubmitRating validates and stores a rating.
func (s *chatService) SubmitRating(ctx context.Context, req RatingRequest) (RatingResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	req.Feedback = strings.TrimSpace(req.Feedback)
	switch {
	case len(req.SessionID) < minSessionIDLen:
		return RatingResponse{}, &ValidationError{Field: "session_id", Message: "올바른 세션 ID가 필요합니다."}
	case req.Rating < 1 || req.Rating > 5:
		return RatingResponse{}, &ValidationError{Field: "rating", Message: "평점은 1-5 사이의 값이어야 합니다."}
	case utf8.RuneCountInString(req.Feedback) > maxFeedbackRunes:
		return RatingResponse{}, &ValidationError{Field: "feedback", Message: fmt.Sprintf("피드백은 %d자를 초과할 수 없습니다.", maxFeedbackRunes)}
	}

	if _, err := s.Sessions.GetByID(ctx, req.SessionID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return RatingResponse{}, fmt.Errorf("session %s: %w", req.SessionID, ErrNotFound)
		}
		return RatingResponse{}, WrapError(err, "failed to load session")
	}

	fb := &storage.Feedback{SessionID: req.SessionID, Rating: req.Rating, Feedback: req.Feedback}
	if err := s.Feedback.Insert(ctx, fb); err != nil {
		logger.ErrorContext(ctx, "failed to save rating", "session_id", req.SessionID, "error", err)
		return RatingResponse{}, WrapError(err, "failed to save rating")
	}

	logger.InfoContext(ctx, "rating submitted", "session_id", req.SessionID, "rating", req.Rating)
	return RatingResponse{Message: ratingMessage(req.Rating), FeedbackID: fb.ID}, nil
}

func ratingMessage(rating int) string {
	switch {
	case rating >= 4:
		return "소중한 평가를 해주셔서 감사합니다! 😊 앞으로도 더 나은 서비스로 보답하겠습니다."
	case rating >= 3:
		return "평가해주셔서 감사합니다. 더 나은 서비스를 위해 노력하겠습니다. 💪"
	default:
		return "아쉬운 평가를 주신 점 죄송합니다. 서비스 개선을 위해 더욱 노력하겠습니다. 🙏"
	}
}
