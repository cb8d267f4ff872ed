package deck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/domain/srs"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/store"
	"golang.org/x/sync/errgroup"
)

// Service errors
var (
	// ErrInvalidDays is returned for a negative planning window.
	ErrInvalidDays = errors.New("days must not be negative")

	// ErrTopicRequired is returned when a deck operation names no topic.
	ErrTopicRequired = errors.New("topic is required")
)

// maxParallelLoads bounds concurrent deck loads for cross-topic queries.
const maxParallelLoads = 4

// NewCard is the input for Service.AddCard.
type NewCard struct {
	Front    string
	Back     string
	Subtopic string
}

// Service works with stored decks by (username, topic).
type Service interface {
	// Open returns the shared deck for (username, topic).
	Open(ctx context.Context, username, topic string) (*Deck, error)

	// AddCard adds a card to the deck. created is false when a card with
	// the same front already existed and was returned instead.
	AddCard(ctx context.Context, username, topic string, card NewCard) (*domain.Flashcard, bool, error)

	// DueCards lists the deck's due cards, most overdue first.
	DueCards(ctx context.Context, username, topic string) ([]*domain.Flashcard, error)

	// Stats summarizes the deck.
	Stats(ctx context.Context, username, topic string) (Stats, error)

	// Upcoming lists reviews due within days across all of the user's decks.
	Upcoming(ctx context.Context, username string, days int) ([]Upcoming, error)

	// Topics lists the user's decks.
	Topics(ctx context.Context, username string) ([]string, error)
}

type deckService struct {
	store     store.DeckStore
	scheduler srs.Service
	decks     *Cache
	logger    *slog.Logger
	now       func() time.Time
}

var _ Service = (*deckService)(nil)

// Option configures a Service.
type Option func(*deckService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *deckService) { s.now = now }
}

// WithCache makes the service share decks with other users of c, such as
// the review registry.
func WithCache(c *Cache) Option {
	return func(s *deckService) { s.decks = c }
}

// NewService creates a deck Service backed by st. Without WithCache it keeps
// a Cache of its own.
func NewService(st store.DeckStore, scheduler srs.Service, log *slog.Logger, opts ...Option) Service {
	if st == nil {
		panic("deck store cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &deckService{
		store:     st,
		scheduler: scheduler,
		logger:    log.With(slog.String("component", "deck_service")),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.decks == nil {
		s.decks = NewCache(st, scheduler)
	}
	return s
}

func (s *deckService) Open(ctx context.Context, username, topic string) (*Deck, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrTopicRequired
	}
	return s.decks.Get(ctx, username, topic)
}

func (s *deckService) AddCard(
	ctx context.Context,
	username, topic string,
	card NewCard,
) (*domain.Flashcard, bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	d, err := s.Open(ctx, username, topic)
	if err != nil {
		return nil, false, err
	}

	added, created, err := d.AddCard(ctx, card.Front, card.Back, card.Subtopic, s.now())
	if err != nil {
		return nil, false, err
	}

	if created {
		log.Info("flashcard added",
			slog.String("topic", d.Topic()),
			slog.String("card_id", added.ID.String()))
	} else {
		log.Debug("duplicate flashcard front, returning existing card",
			slog.String("topic", d.Topic()),
			slog.String("card_id", added.ID.String()))
	}
	return added, created, nil
}

func (s *deckService) DueCards(ctx context.Context, username, topic string) ([]*domain.Flashcard, error) {
	d, err := s.Open(ctx, username, topic)
	if err != nil {
		return nil, err
	}
	return d.GetDueCards(s.now()), nil
}

func (s *deckService) Stats(ctx context.Context, username, topic string) (Stats, error) {
	d, err := s.Open(ctx, username, topic)
	if err != nil {
		return Stats{}, err
	}
	return d.Stats(s.now()), nil
}

func (s *deckService) Topics(ctx context.Context, username string) ([]string, error) {
	topics, err := s.store.ListTopics(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	return topics, nil
}

func (s *deckService) Upcoming(ctx context.Context, username string, days int) ([]Upcoming, error) {
	if days < 0 {
		return nil, ErrInvalidDays
	}

	topics, err := s.Topics(ctx, username)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var (
		mu  sync.Mutex
		all []Upcoming
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for _, topic := range topics {
		g.Go(func() error {
			d, err := s.decks.Get(gctx, username, topic)
			if err != nil {
				return err
			}
			upcoming := d.CardsDueWithin(days, now)

			mu.Lock()
			all = append(all, upcoming...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	SortUpcoming(all)
	return all, nil
}
