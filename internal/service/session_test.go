package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"haetsal-ai/internal/sentiment"
	"haetsal-ai/internal/service"
	"haetsal-ai/internal/storage"
)

func TestChatService_EndSession(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		endErr    error
		callsEnd  bool
		wantErr   error
	}{
		{name: "ended", sessionID: "session-0001", callsEnd: true},
		{name: "ended without emotions", sessionID: "session-0002", callsEnd: true},
		{name: "invalid id", sessionID: "short", wantErr: service.ErrInvalidInput},
		{name: "unknown session", sessionID: "session-0404", callsEnd: true, endErr: storage.ErrNotFound, wantErr: service.ErrNotFound},
		{name: "database error", sessionID: "session-0500", callsEnd: true, endErr: errors.New("database is locked")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.callsEnd {
				f.sessions.EXPECT().End(gomock.Any(), tt.sessionID).Return(tt.endErr)
			}
			switch tt.sessionID {
			case "session-0001":
				f.messages.EXPECT().RecentEmotions(gomock.Any(), tt.sessionID, 100).Return([]storage.EmotionSample{
					{Label: sentiment.LabelComplaint, Intensity: 3},
					{Label: sentiment.LabelNeutral, Intensity: 1},
					{Label: sentiment.LabelComplaint, Intensity: 4},
				}, nil)
			case "session-0002":
				f.messages.EXPECT().RecentEmotions(gomock.Any(), tt.sessionID, 100).Return(nil, errors.New("database is locked"))
			}

			got, err := f.svc.EndSession(context.Background(), tt.sessionID)

			if tt.endErr == nil && tt.wantErr == nil {
				if err != nil || got.Message != service.SessionEndedMessage {
					t.Fatalf("EndSession() = %+v, %v", got, err)
				}
				wantTotal, wantDominant := 0, sentiment.LabelNeutral
				if tt.sessionID == "session-0001" {
					wantTotal, wantDominant = 3, sentiment.LabelComplaint
				}
				if got.Emotions.TotalMessages != wantTotal || got.Emotions.Dominant != wantDominant {
					t.Errorf("EndSession() emotions = %+v, want %d messages dominated by %s", got.Emotions, wantTotal, wantDominant)
				}
				return
			}
			if err == nil {
				t.Fatal("EndSession() expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("EndSession() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestChatService_SubmitRating(t *testing.T) {
	const sessionID = "session-0001"

	tests := []struct {
		name        string
		req         service.RatingRequest
		setup       func(f *fixture)
		wantErr     error
		wantMessage string
	}{
		{
			name:    "rating out of range",
			req:     service.RatingRequest{SessionID: sessionID, Rating: 0},
			wantErr: service.ErrInvalidInput,
		},
		{
			name:    "feedback too long",
			req:     service.RatingRequest{SessionID: sessionID, Rating: 3, Feedback: strings.Repeat("좋", 501)},
			wantErr: service.ErrInvalidInput,
		},
		{
			name:    "missing session id",
			req:     service.RatingRequest{Rating: 3},
			wantErr: service.ErrInvalidInput,
		},
		{
			name: "unknown session",
			req:  service.RatingRequest{SessionID: sessionID, Rating: 4},
			setup: func(f *fixture) {
				f.sessions.EXPECT().GetByID(gomock.Any(), sessionID).Return(nil, storage.ErrNotFound)
			},
			wantErr: service.ErrNotFound,
		},
		{
			name: "high rating",
			req:  service.RatingRequest{SessionID: sessionID, Rating: 5, Feedback: "  친절했어요  "},
			setup: func(f *fixture) {
				f.sessions.EXPECT().GetByID(gomock.Any(), sessionID).Return(&storage.Session{ID: sessionID}, nil)
				f.feedback.EXPECT().Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fb *storage.Feedback) error {
						if fb.Feedback != "친절했어요" || fb.Rating != 5 {
							t.Errorf("feedback = %+v", fb)
						}
						fb.ID = "fb-1"
						return nil
					})
			},
			wantMessage: "소중한 평가를 해주셔서 감사합니다!",
		},
		{
			name: "low rating",
			req:  service.RatingRequest{SessionID: sessionID, Rating: 2},
			setup: func(f *fixture) {
				f.sessions.EXPECT().GetByID(gomock.Any(), sessionID).Return(&storage.Session{ID: sessionID}, nil)
				f.feedback.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantMessage: "아쉬운 평가를 주신 점 죄송합니다.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			resp, err := f.svc.SubmitRating(context.Background(), tt.req)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("SubmitRating() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SubmitRating() error = %v", err)
			}
			if !strings.HasPrefix(resp.Message, tt.wantMessage) {
				t.Errorf("Message = %q, want prefix %q", resp.Message, tt.wantMessage)
			}
		})
	}
}
