package storage

import "time"

// Session statuses.
const (
	SessionActive = "active"
	SessionEnded  = "ended"
)

// Message roles as stored.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is one chat conversation.
type Session struct {
	ID            string
	ModelName     string
	PersonaID     string
	Status        string
	StartedAt     time.Time
	EndedAt       *time.Time // nil while active
	TotalMessages int
}

// Message is a single turn of a session. Emotion fields are only set on user
// messages.
type Message struct {
	ID               string // UUID
	SessionID        string
	Role             string
	Content          string
	Emotion          string
	EmotionIntensity int
	SearchStrategy   string
	ProcessingMS     int64
	CreatedAt        time.Time
}

// EmotionSample is the stored emotion of one user message.
type EmotionSample struct {
	Label     string
	Intensity int
}

// Feedback is a rating submitted at the end of a session.
type Feedback struct {
	ID          string // UUID
	SessionID   string
	Rating      int
	Feedback    string
	SubmittedAt time.Time
}
