package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/store"
)

// WeaknessStore implements store.WeaknessStore on top of the weak_areas table.
type WeaknessStore struct {
	db      store.DBTX
	dialect Dialect
	logger  *slog.Logger
}

// NewWeaknessStore creates a WeaknessStore. If logger is nil, a default
// logger is used.
func NewWeaknessStore(db store.DBTX, dialect Dialect, logger *slog.Logger) *WeaknessStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &WeaknessStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "weakness_store")),
	}
}

// Ensure WeaknessStore implements store.WeaknessStore interface
var _ store.WeaknessStore = (*WeaknessStore)(nil)

// GetWeakAreas implements store.WeaknessStore.GetWeakAreas
func (s *WeaknessStore) GetWeakAreas(ctx context.Context, username string) ([]domain.WeakArea, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := s.dialect.Rebind(`
	SELECT topic, subtopic, priority_score, updated_at
	FROM weak_areas
	WHERE username = ?
	ORDER BY priority_score DESC, topic, subtopic`)

	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		log.Error("failed to query weak areas",
			slog.String("error", err.Error()),
			slog.String("username", username))
		return nil, store.NewStoreError("weak_area", "get", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	areas := make([]domain.WeakArea, 0)
	for rows.Next() {
		var area domain.WeakArea
		if err := rows.Scan(&area.Topic, &area.Subtopic, &area.PriorityScore, &area.UpdatedAt); err != nil {
			return nil, store.NewStoreError("weak_area", "get", "scan failed", err)
		}
		area.UpdatedAt = area.UpdatedAt.UTC()
		areas = append(areas, area)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("weak_area", "get", "row iteration failed", MapError(err))
	}
	return areas, nil
}

// UpsertWeakArea implements store.WeaknessStore.UpsertWeakArea
func (s *WeaknessStore) UpsertWeakArea(ctx context.Context, username string, area domain.WeakArea) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if strings.TrimSpace(area.Topic) == "" {
		return fmt.Errorf("%w: weak area topic is empty", store.ErrInvalidEntity)
	}

	query := s.dialect.Rebind(`
	INSERT INTO weak_areas (username, topic, subtopic, priority_score, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (username, topic, subtopic) DO UPDATE SET
		priority_score = excluded.priority_score,
		updated_at = excluded.updated_at`)

	_, err := s.db.ExecContext(ctx, query,
		username,
		area.Topic,
		area.Subtopic,
		area.PriorityScore,
		area.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to upsert weak area",
			slog.String("error", err.Error()),
			slog.String("username", username),
			slog.String("topic", area.Topic))
		return store.NewStoreError("weak_area", "upsert", "upsert failed", MapError(err))
	}

	log.Debug("weak area stored",
		slog.String("topic", area.Topic),
		slog.String("subtopic", area.Subtopic),
		slog.Float64("priority", area.PriorityScore))
	return nil
}

// RemoveWeakArea implements store.WeaknessStore.RemoveWeakArea
func (s *WeaknessStore) RemoveWeakArea(ctx context.Context, username, topic, subtopic string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := s.dialect.Rebind(`
	DELETE FROM weak_areas
	WHERE username = ? AND topic = ? AND subtopic = ?`)

	result, err := s.db.ExecContext(ctx, query, username, topic, subtopic)
	if err != nil {
		log.Error("failed to remove weak area",
			slog.String("error", err.Error()),
			slog.String("username", username),
			slog.String("topic", topic))
		return store.NewStoreError("weak_area", "remove", "delete failed", MapError(err))
	}

	return CheckRowsAffected(result, store.ErrWeakAreaNotFound)
}

// WithTx implements store.WeaknessStore.WithTx
func (s *WeaknessStore) WithTx(tx *sql.Tx) store.WeaknessStore {
	return &WeaknessStore{
		db:      tx,
		dialect: s.dialect,
		logger:  s.logger,
	}
}
