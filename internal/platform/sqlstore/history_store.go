package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/store"
)

// DefaultHistoryLimit bounds ListSessions when the caller passes no limit.
const DefaultHistoryLimit = 50

// HistoryStore implements store.HistoryStore on top of the review_sessions table.
type HistoryStore struct {
	db      store.DBTX
	dialect Dialect
	logger  *slog.Logger
}

// NewHistoryStore creates a HistoryStore. If logger is nil, a default logger
// is used.
func NewHistoryStore(db store.DBTX, dialect Dialect, logger *slog.Logger) *HistoryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HistoryStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "history_store")),
	}
}

// Ensure HistoryStore implements store.HistoryStore interface
var _ store.HistoryStore = (*HistoryStore)(nil)

// RecordSession implements store.HistoryStore.RecordSession
func (s *HistoryStore) RecordSession(ctx context.Context, record *domain.SessionRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if record == nil || record.Username == "" {
		return fmt.Errorf("%w: session record needs a username", store.ErrInvalidEntity)
	}

	// Topics are stored as a JSON array so both backends share one schema.
	topics, err := json.Marshal(record.Topics)
	if err != nil {
		return fmt.Errorf("%w: encoding topics: %v", store.ErrInvalidEntity, err)
	}

	query := s.dialect.Rebind(`
	INSERT INTO review_sessions (
		session_id, username, mode, topics, total_questions, total_correct,
		final_score, mastery_level, final_difficulty, started_at, ended_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = s.db.ExecContext(ctx, query,
		record.SessionID,
		record.Username,
		string(record.Mode),
		string(topics),
		record.TotalQuestions,
		record.TotalCorrect,
		record.FinalScore,
		string(record.Mastery),
		string(record.FinalLevel),
		record.StartedAt.UTC(),
		record.EndedAt.UTC(),
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrDuplicate) {
			log.Warn("session already recorded",
				slog.String("session_id", record.SessionID.String()))
			return store.ErrSessionRecordExists
		}
		log.Error("failed to record session",
			slog.String("error", err.Error()),
			slog.String("session_id", record.SessionID.String()))
		return store.NewStoreError("review_session", "record", "insert failed", mapped)
	}

	log.Info("session recorded",
		slog.String("session_id", record.SessionID.String()),
		slog.String("username", record.Username),
		slog.Float64("final_score", record.FinalScore))
	return nil
}

// ListSessions implements store.HistoryStore.ListSessions
func (s *HistoryStore) ListSessions(ctx context.Context, username string, limit int) ([]*domain.SessionRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := s.dialect.Rebind(`
	SELECT session_id, username, mode, topics, total_questions, total_correct,
	       final_score, mastery_level, final_difficulty, started_at, ended_at
	FROM review_sessions
	WHERE username = ?
	ORDER BY ended_at DESC, session_id
	LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, username, limit)
	if err != nil {
		log.Error("failed to list sessions",
			slog.String("error", err.Error()),
			slog.String("username", username))
		return nil, store.NewStoreError("review_session", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	records := make([]*domain.SessionRecord, 0)
	for rows.Next() {
		var (
			rec                      domain.SessionRecord
			mode, mastery, level, tp string
		)
		err := rows.Scan(
			&rec.SessionID,
			&rec.Username,
			&mode,
			&tp,
			&rec.TotalQuestions,
			&rec.TotalCorrect,
			&rec.FinalScore,
			&mastery,
			&level,
			&rec.StartedAt,
			&rec.EndedAt,
		)
		if err != nil {
			return nil, store.NewStoreError("review_session", "list", "scan failed", err)
		}
		if err := json.Unmarshal([]byte(tp), &rec.Topics); err != nil {
			return nil, store.NewStoreError("review_session", "list", "decoding topics failed", err)
		}
		rec.Mode = domain.Mode(mode)
		rec.Mastery = domain.MasteryLevel(mastery)
		rec.FinalLevel = domain.Difficulty(level)
		rec.StartedAt = rec.StartedAt.UTC()
		rec.EndedAt = rec.EndedAt.UTC()
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("review_session", "list", "row iteration failed", MapError(err))
	}
	return records, nil
}

// WithTx implements store.HistoryStore.WithTx
func (s *HistoryStore) WithTx(tx *sql.Tx) store.HistoryStore {
	return &HistoryStore{
		db:      tx,
		dialect: s.dialect,
		logger:  s.logger,
	}
}
