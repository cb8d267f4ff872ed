package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/events"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/store"
)

// Accuracy thresholds for weak-area feedback.
const (
	// WeakBelow is the accuracy under which a subtopic becomes a weak area.
	WeakBelow = 0.6
	// MasteredFrom is the accuracy from which a weak area is cleared.
	MasteredFrom = 0.8
)

// errAlreadyRecorded aborts the transaction for a session seen before.
var errAlreadyRecorded = errors.New("session already recorded")

// HistoryRecorder handles session_completed events: it stores the session
// record and updates the learner's weak areas in one transaction.
// Redelivered events are ignored.
type HistoryRecorder struct {
	db       *sql.DB
	history  store.HistoryStore
	weakness store.WeaknessStore
	logger   *slog.Logger
	now      func() time.Time
}

var _ events.EventHandler = (*HistoryRecorder)(nil)

// NewHistoryRecorder creates a HistoryRecorder. It panics if any store is nil.
func NewHistoryRecorder(
	db *sql.DB,
	history store.HistoryStore,
	weakness store.WeaknessStore,
	log *slog.Logger,
) *HistoryRecorder {
	if db == nil {
		panic("db cannot be nil")
	}
	if history == nil {
		panic("history store cannot be nil")
	}
	if weakness == nil {
		panic("weakness store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &HistoryRecorder{
		db:       db,
		history:  history,
		weakness: weakness,
		logger:   log.With(slog.String("component", "history_recorder")),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// HandleEvent implements events.EventHandler.
func (h *HistoryRecorder) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeSessionCompleted {
		return nil
	}
	log := logger.FromContextOrDefault(ctx, h.logger).With(
		slog.String("session_id", event.SessionID.String()),
		slog.String("username", event.Username))

	var payload events.SessionCompleted
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
	}

	var raised, cleared int
	err := store.RunInTransaction(ctx, h.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := h.history.WithTx(tx).RecordSession(ctx, &payload.Record); err != nil {
			if errors.Is(err, store.ErrSessionRecordExists) {
				return errAlreadyRecorded
			}
			return err
		}

		var err error
		raised, cleared, err = h.applyFeedback(ctx, h.weakness.WithTx(tx), payload.Record.Username, payload.Topics)
		return err
	})
	switch {
	case errors.Is(err, errAlreadyRecorded):
		log.Debug("session already recorded, skipping")
		return nil
	case err != nil:
		log.Error("failed to record session", slog.String("error", err.Error()))
		return fmt.Errorf("failed to record session: %w", err)
	}

	log.Info("session recorded",
		slog.Float64("final_score", payload.Record.FinalScore),
		slog.Int("weak_areas_raised", raised),
		slog.Int("weak_areas_cleared", cleared))
	return nil
}

// applyFeedback raises weak areas for low accuracy subtopics and clears them
// for mastered ones.
func (h *HistoryRecorder) applyFeedback(
	ctx context.Context,
	weakness store.WeaknessStore,
	username string,
	topics []events.TopicAccuracy,
) (raised, cleared int, err error) {
	now := h.now()
	for _, t := range topics {
		if t.Attempts == 0 {
			continue
		}
		accuracy := t.Accuracy()
		switch {
		case accuracy < WeakBelow:
			err := weakness.UpsertWeakArea(ctx, username, domain.WeakArea{
				Topic:         t.Topic,
				Subtopic:      t.Subtopic,
				PriorityScore: 1 - accuracy,
				UpdatedAt:     now,
			})
			if err != nil {
				return raised, cleared, err
			}
			raised++
		case accuracy >= MasteredFrom:
			err := weakness.RemoveWeakArea(ctx, username, t.Topic, t.Subtopic)
			switch {
			case errors.Is(err, store.ErrWeakAreaNotFound):
			case err != nil:
				return raised, cleared, err
			default:
				cleared++
			}
		}
	}
	return raised, cleared, nil
}
