package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
)

// Event types
const (
	TypeSessionStarted   = "session_started"
	TypeQuestionAnswered = "question_answered"
	TypeFlashcardStudied = "flashcard_studied"
	TypeSessionCompleted = "session_completed"
)

// Event is something that happened in a review session.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	SessionID uuid.UUID       `json:"session_id"`
	Username  string          `json:"username"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewEvent creates an event with payload serialized as JSON.
func NewEvent(eventType string, sessionID uuid.UUID, username string, payload any) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		SessionID: sessionID,
		Username:  username,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// UnmarshalPayload decodes the event payload into v.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// SessionStarted is the payload of TypeSessionStarted.
type SessionStarted struct {
	Mode         domain.Mode `json:"mode"`
	Topics       []string    `json:"topics"`
	Items        int         `json:"items"`
	MaxQuestions int         `json:"max_questions"`
}

// QuestionAnswered is the payload of TypeQuestionAnswered.
// Difficulty is the level the question was asked at.
type QuestionAnswered struct {
	Topic           string            `json:"topic"`
	Subtopic        string            `json:"subtopic,omitempty"`
	Difficulty      domain.Difficulty `json:"difficulty"`
	Question        string            `json:"question"`
	ReferenceAnswer string            `json:"reference_answer,omitempty"`
	Correct         bool              `json:"correct"`
	Score           float64           `json:"score"`
}

// FlashcardStudied is the payload of TypeFlashcardStudied.
type FlashcardStudied struct {
	CardID       uuid.UUID `json:"card_id"`
	Topic        string    `json:"topic"`
	Subtopic     string    `json:"subtopic,omitempty"`
	Quality      int       `json:"quality"`
	Correct      bool      `json:"correct"`
	IntervalDays int       `json:"interval_days"`
	NextReviewAt time.Time `json:"next_review_at"`
}

// TopicAccuracy counts answers for one (topic, subtopic) pair.
type TopicAccuracy struct {
	Topic    string `json:"topic"`
	Subtopic string `json:"subtopic,omitempty"`
	Attempts int    `json:"attempts"`
	Correct  int    `json:"correct"`
}

// Accuracy returns Correct / Attempts, or 0 when nothing was attempted.
func (t TopicAccuracy) Accuracy() float64 {
	if t.Attempts == 0 {
		return 0
	}
	return float64(t.Correct) / float64(t.Attempts)
}

// SessionCompleted is the payload of TypeSessionCompleted.
type SessionCompleted struct {
	Record domain.SessionRecord `json:"record"`
	Topics []TopicAccuracy      `json:"topics"`
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event. Handlers ignore event types
	// they are not interested in.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}
