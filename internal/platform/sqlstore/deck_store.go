package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/store"
)

// DeckStore implements store.DeckStore on top of the flashcards table.
type DeckStore struct {
	db      store.DBTX
	dialect Dialect
	logger  *slog.Logger
}

// NewDeckStore creates a DeckStore. It accepts a connection or a transaction
// that is managed by the caller. If logger is nil, a default logger is used.
func NewDeckStore(db store.DBTX, dialect Dialect, logger *slog.Logger) *DeckStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &DeckStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "deck_store")),
	}
}

// Ensure DeckStore implements store.DeckStore interface
var _ store.DeckStore = (*DeckStore)(nil)

const selectCardColumns = `
	SELECT card_id, topic, subtopic, front, back, repetition_count, easiness_factor,
	       interval_days, last_reviewed_at, next_review_at, created_at
	FROM flashcards`

// LoadCards implements store.DeckStore.LoadCards
func (s *DeckStore) LoadCards(ctx context.Context, username, topic string) ([]*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := s.dialect.Rebind(selectCardColumns + `
	WHERE username = ? AND topic = ?
	ORDER BY created_at, card_id`)

	rows, err := s.db.QueryContext(ctx, query, username, topic)
	if err != nil {
		log.Error("failed to query flashcards",
			slog.String("error", err.Error()),
			slog.String("username", username),
			slog.String("topic", topic))
		return nil, store.NewStoreError("flashcard", "load", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	cards := make([]*domain.Flashcard, 0)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			log.Error("failed to scan flashcard", slog.String("error", err.Error()))
			return nil, store.NewStoreError("flashcard", "load", "scan failed", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("flashcard", "load", "row iteration failed", MapError(err))
	}

	log.Debug("flashcards loaded",
		slog.String("username", username),
		slog.String("topic", topic),
		slog.Int("count", len(cards)))
	return cards, nil
}

// SaveCard implements store.DeckStore.SaveCard
// It inserts the card or, when the id already exists in the deck, replaces
// its content and schedule.
func (s *DeckStore) SaveCard(ctx context.Context, username string, card *domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if card == nil {
		return fmt.Errorf("%w: nil flashcard", store.ErrInvalidEntity)
	}
	if err := card.Validate(); err != nil {
		log.Warn("flashcard validation failed during save",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := s.dialect.Rebind(`
	INSERT INTO flashcards (
		username, topic, card_id, subtopic, front, back, repetition_count,
		easiness_factor, interval_days, last_reviewed_at, next_review_at, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (username, topic, card_id) DO UPDATE SET
		subtopic = excluded.subtopic,
		front = excluded.front,
		back = excluded.back,
		repetition_count = excluded.repetition_count,
		easiness_factor = excluded.easiness_factor,
		interval_days = excluded.interval_days,
		last_reviewed_at = excluded.last_reviewed_at,
		next_review_at = excluded.next_review_at`)

	_, err := s.db.ExecContext(ctx, query,
		username,
		card.Topic,
		card.ID,
		card.Subtopic,
		card.Front,
		card.Back,
		card.RepetitionCount,
		card.EasinessFactor,
		card.IntervalDays,
		nullTime(card.LastReviewedAt),
		card.NextReviewAt.UTC(),
		card.CreatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to save flashcard",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()),
			slog.String("username", username))
		return store.NewStoreError("flashcard", "save", "upsert failed", MapError(err))
	}

	log.Debug("flashcard saved",
		slog.String("card_id", card.ID.String()),
		slog.String("topic", card.Topic),
		slog.Int("interval_days", card.IntervalDays))
	return nil
}

// ListTopics implements store.DeckStore.ListTopics
func (s *DeckStore) ListTopics(ctx context.Context, username string) ([]string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := s.dialect.Rebind(`
	SELECT DISTINCT topic FROM flashcards
	WHERE username = ?
	ORDER BY topic`)

	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		log.Error("failed to list topics",
			slog.String("error", err.Error()),
			slog.String("username", username))
		return nil, store.NewStoreError("flashcard", "list_topics", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	topics := make([]string, 0)
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return nil, store.NewStoreError("flashcard", "list_topics", "scan failed", err)
		}
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("flashcard", "list_topics", "row iteration failed", MapError(err))
	}
	return topics, nil
}

// WithTx implements store.DeckStore.WithTx
func (s *DeckStore) WithTx(tx *sql.Tx) store.DeckStore {
	return &DeckStore{
		db:      tx,
		dialect: s.dialect,
		logger:  s.logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.Flashcard, error) {
	var (
		card         domain.Flashcard
		lastReviewed sql.NullTime
	)
	err := row.Scan(
		&card.ID,
		&card.Topic,
		&card.Subtopic,
		&card.Front,
		&card.Back,
		&card.RepetitionCount,
		&card.EasinessFactor,
		&card.IntervalDays,
		&lastReviewed,
		&card.NextReviewAt,
		&card.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastReviewed.Valid {
		card.LastReviewedAt = lastReviewed.Time.UTC()
	}
	card.NextReviewAt = card.NextReviewAt.UTC()
	card.CreatedAt = card.CreatedAt.UTC()
	return &card, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
