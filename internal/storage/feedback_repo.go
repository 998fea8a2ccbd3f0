package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_feedback_store.go -package=mocks haetsal-ai/internal/storage FeedbackStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FeedbackStore defines the interface for feedback storage operations.
type FeedbackStore interface {
	Insert(ctx context.Context, fb *Feedback) error
}

// FeedbackRepo implements FeedbackStore.
type FeedbackRepo struct {
	db *sql.DB
}

// NewFeedbackRepo creates a new FeedbackRepo.
func NewFeedbackRepo(db *sql.DB) *FeedbackRepo {
	return &FeedbackRepo{db: db}
}

func (r *FeedbackRepo) Insert(ctx context.Context, fb *Feedback) error {
	if fb.ID == "" {
		fb.ID = uuid.New().String()
	}
	if fb.SubmittedAt.IsZero() {
		fb.SubmittedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO feedback (id, session_id, rating, feedback, submitted_at) VALUES (?, ?, ?, ?, ?)",
		fb.ID, fb.SessionID, fb.Rating, nullString(fb.Feedback), fb.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}
