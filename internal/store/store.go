package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/scry-tutor/internal/domain"
)

// DBTX is implemented by both *sql.DB and *sql.Tx, so store code can run
// against a connection or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DeckStore persists flashcards keyed by (username, topic, card id).
type DeckStore interface {
	// LoadCards returns every card of the (username, topic) deck in creation
	// order. An unknown deck yields an empty slice, not an error.
	LoadCards(ctx context.Context, username, topic string) ([]*domain.Flashcard, error)

	// SaveCard inserts the card or replaces its content and schedule fields.
	// The deck is identified by username and card.Topic.
	SaveCard(ctx context.Context, username string, card *domain.Flashcard) error

	// ListTopics returns the topics for which the user has at least one card.
	ListTopics(ctx context.Context, username string) ([]string, error)

	// WithTx returns a DeckStore bound to the given transaction.
	WithTx(tx *sql.Tx) DeckStore
}

// WeaknessStore persists the weak areas of each user.
type WeaknessStore interface {
	// GetWeakAreas returns the user's weak areas, highest priority first.
	GetWeakAreas(ctx context.Context, username string) ([]domain.WeakArea, error)

	// UpsertWeakArea inserts the area or replaces its priority score.
	UpsertWeakArea(ctx context.Context, username string, area domain.WeakArea) error

	// RemoveWeakArea deletes the area. Returns ErrWeakAreaNotFound if absent.
	RemoveWeakArea(ctx context.Context, username, topic, subtopic string) error

	// WithTx returns a WeaknessStore bound to the given transaction.
	WithTx(tx *sql.Tx) WeaknessStore
}

// HistoryStore persists summaries of completed review sessions.
type HistoryStore interface {
	// RecordSession stores a completed session. Returns ErrSessionRecordExists
	// if the session id was already recorded.
	RecordSession(ctx context.Context, record *domain.SessionRecord) error

	// ListSessions returns the user's most recent sessions, newest first.
	ListSessions(ctx context.Context, username string, limit int) ([]*domain.SessionRecord, error)

	// WithTx returns a HistoryStore bound to the given transaction.
	WithTx(tx *sql.Tx) HistoryStore
}
