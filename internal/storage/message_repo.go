package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_message_store.go -package=mocks haetsal-ai/internal/storage MessageStore

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// MessageStore defines the interface for message storage operations.
type MessageStore interface {
	// Insert stores msg, assigning an ID and timestamp when they are empty.
	Insert(ctx context.Context, msg *Message) error
	// ListRecent returns up to limit of the newest messages of a session,
	// oldest first.
	ListRecent(ctx context.Context, sessionID string, limit int) ([]Message, error)
	// RecentEmotions returns up to limit of the newest user-message emotions,
	// oldest first.
	RecentEmotions(ctx context.Context, sessionID string, limit int) ([]EmotionSample, error)
}

// MessageRepo provides methods for message operations.
// It implements the MessageStore interface.
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo creates a new MessageRepo.
func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) Insert(ctx context.Context, msg *Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	var intensity sql.NullInt64
	if msg.Emotion != "" {
		intensity = sql.NullInt64{Int64: int64(msg.EmotionIntensity), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, role, content, emotion, emotion_intensity, search_strategy, processing_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SessionID, msg.Role, msg.Content, nullString(msg.Emotion), intensity,
		nullString(msg.SearchStrategy), msg.ProcessingMS, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListRecent orders by rowid, since created_at can tie within a request.
func (r *MessageRepo) ListRecent(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, emotion, emotion_intensity, search_strategy, processing_ms, created_at
		 FROM messages WHERE session_id = ? ORDER BY rowid DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var (
			m         Message
			emotion   sql.NullString
			intensity sql.NullInt64
			strategy  sql.NullString
			elapsed   sql.NullInt64
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &emotion, &intensity, &strategy, &elapsed, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Emotion = emotion.String
		m.EmotionIntensity = int(intensity.Int64)
		m.SearchStrategy = strategy.String
		m.ProcessingMS = elapsed.Int64
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	slices.Reverse(messages)
	return messages, nil
}

func (r *MessageRepo) RecentEmotions(ctx context.Context, sessionID string, limit int) ([]EmotionSample, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT emotion, emotion_intensity FROM messages
		 WHERE session_id = ? AND role = ? AND emotion IS NOT NULL
		 ORDER BY rowid DESC LIMIT ?`,
		sessionID, RoleUser, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query emotions: %w", err)
	}
	defer rows.Close()

	samples := []EmotionSample{}
	for rows.Next() {
		var (
			s         EmotionSample
			intensity sql.NullInt64
		)
		if err := rows.Scan(&s.Label, &intensity); err != nil {
			return nil, fmt.Errorf("failed to scan emotion: %w", err)
		}
		s.Intensity = int(intensity.Int64)
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate emotions: %w", err)
	}

	slices.Reverse(samples)
	return samples, nil
}
