package progress

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/scry-tutor/internal/deck"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/store"
	"golang.org/x/sync/errgroup"
)

// History limits
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// TopicDue is the review load of one deck.
type TopicDue struct {
	Topic      string `json:"topic"`
	TotalCards int    `json:"total_cards"`
	DueNow     int    `json:"due_now"`
}

// Insights combine a learner's weak areas with the due load of each deck.
type Insights struct {
	WeakAreas []domain.WeakArea `json:"weak_areas"`
	Decks     []TopicDue        `json:"decks"`
	TotalDue  int               `json:"total_due"`
}

// Service answers progress queries.
type Service interface {
	// History returns the most recent completed sessions, newest first.
	// A limit of 0 selects DefaultHistoryLimit.
	History(ctx context.Context, username string, limit int) ([]*domain.SessionRecord, error)

	// Insights returns weak areas and per-deck due counts.
	Insights(ctx context.Context, username string) (Insights, error)
}

type progressService struct {
	history  store.HistoryStore
	weakness store.WeaknessStore
	decks    deck.Service
	logger   *slog.Logger
}

var _ Service = (*progressService)(nil)

// NewService creates a progress Service. It panics if a dependency is nil.
func NewService(
	history store.HistoryStore,
	weakness store.WeaknessStore,
	decks deck.Service,
	log *slog.Logger,
) Service {
	if history == nil {
		panic("history store cannot be nil")
	}
	if weakness == nil {
		panic("weakness store cannot be nil")
	}
	if decks == nil {
		panic("deck service cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &progressService{
		history:  history,
		weakness: weakness,
		decks:    decks,
		logger:   log.With(slog.String("component", "progress_service")),
	}
}

func (s *progressService) History(ctx context.Context, username string, limit int) ([]*domain.SessionRecord, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrValidation)
	}
	switch {
	case limit < 0:
		return nil, fmt.Errorf("%w: limit must not be negative", domain.ErrValidation)
	case limit == 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	records, err := s.history.ListSessions(ctx, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return records, nil
}

func (s *progressService) Insights(ctx context.Context, username string) (Insights, error) {
	if strings.TrimSpace(username) == "" {
		return Insights{}, fmt.Errorf("%w: username is required", domain.ErrValidation)
	}

	var (
		weak   []domain.WeakArea
		topics []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		weak, err = s.weakness.GetWeakAreas(gctx, username)
		if err != nil {
			return fmt.Errorf("failed to load weak areas: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		topics, err = s.decks.Topics(gctx, username)
		return err
	})
	if err := g.Wait(); err != nil {
		return Insights{}, err
	}

	out := Insights{
		WeakAreas: weak,
		Decks:     make([]TopicDue, 0, len(topics)),
	}
	if out.WeakAreas == nil {
		out.WeakAreas = []domain.WeakArea{}
	}
	for _, topic := range topics {
		stats, err := s.decks.Stats(ctx, username, topic)
		if err != nil {
			return Insights{}, fmt.Errorf("failed to load stats for %q: %w", topic, err)
		}
		out.Decks = append(out.Decks, TopicDue{
			Topic:      topic,
			TotalCards: stats.TotalCards,
			DueNow:     stats.DueNow,
		})
		out.TotalDue += stats.DueNow
	}
	return out, nil
}
