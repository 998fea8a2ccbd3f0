package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_session_store.go -package=mocks haetsal-ai/internal/storage SessionStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// SessionStore defines the interface for chat session storage operations.
type SessionStore interface {
	// GetOrCreate returns the session with id, creating an active one if it
	// does not exist yet.
	GetOrCreate(ctx context.Context, id, modelName, personaID string) (*Session, error)
	// GetByID returns ErrNotFound if the session does not exist.
	GetByID(ctx context.Context, id string) (*Session, error)
	// AddMessages increments the session's message counter.
	AddMessages(ctx context.Context, id string, n int) error
	// End marks the session ended. Returns ErrNotFound if it does not exist.
	End(ctx context.Context, id string) error
}

// SessionRepo provides methods for session operations.
// It implements the SessionStore interface.
type SessionRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepo creates a new SessionRepo.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db, now: time.Now}
}

const sessionColumns = "id, model_name, persona_id, status, started_at, ended_at, total_messages"

func (r *SessionRepo) GetByID(ctx context.Context, id string) (*Session, error) {
	var (
		s         Session
		personaID sql.NullString
		endedAt   sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id,
	).Scan(&s.ID, &s.ModelName, &personaID, &s.Status, &s.StartedAt, &endedAt, &s.TotalMessages)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	s.PersonaID = personaID.String
	if endedAt.Valid {
		t := endedAt.Time
		s.EndedAt = &t
	}
	return &s, nil
}

// GetOrCreate gets an existing session by id, or creates it if it doesn't exist.
// The model and persona of an existing session are left unchanged.
func (r *SessionRepo) GetOrCreate(ctx context.Context, id, modelName, personaID string) (*Session, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, model_name, persona_id, status, started_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		id, modelName, nullString(personaID), SessionActive, r.now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *SessionRepo) AddMessages(ctx context.Context, id string, n int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET total_messages = total_messages + ? WHERE id = ?", n, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return requireRow(res)
}

func (r *SessionRepo) End(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET status = ?, ended_at = ? WHERE id = ?",
		SessionEnded, r.now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
