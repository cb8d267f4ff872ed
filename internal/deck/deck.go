package deck

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/domain/srs"
	"github.com/phrazzld/scry-tutor/internal/store"
)

// Deck is the ordered set of flashcards for one (username, topic).
// It is safe for concurrent use.
type Deck struct {
	mu        sync.Mutex
	username  string
	topic     string
	cards     []*domain.Flashcard
	scheduler srs.Service
	store     store.DeckStore
}

// New creates an empty deck. st may be nil, in which case changes are kept
// in memory only.
func New(username, topic string, scheduler srs.Service, st store.DeckStore) *Deck {
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	return &Deck{
		username:  username,
		topic:     topic,
		scheduler: scheduler,
		store:     st,
	}
}

// Load reads the deck for (username, topic) from st. A deck with no stored
// cards loads as empty.
func Load(
	ctx context.Context,
	st store.DeckStore,
	scheduler srs.Service,
	username, topic string,
) (*Deck, error) {
	cards, err := st.LoadCards(ctx, username, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to load deck %q: %w", topic, err)
	}
	d := New(username, topic, scheduler, st)
	d.cards = cards
	return d, nil
}

// Username returns the owner of the deck.
func (d *Deck) Username() string { return d.username }

// Topic returns the deck's topic.
func (d *Deck) Topic() string { return d.topic }

// Len returns the number of cards.
func (d *Deck) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cards)
}

// AddCard creates a new card that is due immediately. If a card with the
// same front already exists (ignoring case and surrounding whitespace) that
// card is returned instead and created is false.
func (d *Deck) AddCard(
	ctx context.Context,
	front, back, subtopic string,
	now time.Time,
) (card *domain.Flashcard, created bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.cards {
		if domain.SameFront(existing.Front, front) {
			return existing.Clone(), false, nil
		}
	}

	card, err = domain.NewFlashcard(d.topic, subtopic, front, back, now)
	if err != nil {
		return nil, false, err
	}

	if d.store != nil {
		if err := d.store.SaveCard(ctx, d.username, card); err != nil {
			return nil, false, fmt.Errorf("failed to save card: %w", err)
		}
	}

	d.cards = append(d.cards, card)
	return card.Clone(), true, nil
}

// Card returns a copy of the card with the given id.
func (d *Deck) Card(id uuid.UUID) (*domain.Flashcard, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if i := d.indexOf(id); i >= 0 {
		return d.cards[i].Clone(), true
	}
	return nil, false
}

// GetDueCards returns copies of the cards whose next review is at or before
// asOf, most overdue first. Ties are broken by subtopic and then card id.
func (d *Deck) GetDueCards(asOf time.Time) []*domain.Flashcard {
	d.mu.Lock()
	defer d.mu.Unlock()

	due := make([]*domain.Flashcard, 0, len(d.cards))
	for _, c := range d.cards {
		if c.IsDue(asOf) {
			due = append(due, c.Clone())
		}
	}

	slices.SortFunc(due, func(a, b *domain.Flashcard) int {
		return cmp.Or(
			a.NextReviewAt.Compare(b.NextReviewAt),
			strings.Compare(a.Subtopic, b.Subtopic),
			strings.Compare(a.ID.String(), b.ID.String()),
		)
	})
	return due
}

// StudyCard records a review of quality q for the card with the given id
// and returns the updated card. This is the only way a card's schedule
// changes. When the deck has a store the update is persisted first; if that
// fails the deck is left unchanged.
func (d *Deck) StudyCard(
	ctx context.Context,
	id uuid.UUID,
	q domain.Quality,
	now time.Time,
) (*domain.Flashcard, error) {
	if !q.Valid() {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidQuality, q)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrCardNotFound, id)
	}

	updated, err := d.scheduler.Schedule(d.cards[i], q, now)
	if err != nil {
		return nil, err
	}

	if d.store != nil {
		if err := d.store.SaveCard(ctx, d.username, updated); err != nil {
			return nil, fmt.Errorf("failed to save card schedule: %w", err)
		}
	}

	d.cards[i] = updated
	return updated.Clone(), nil
}

func (d *Deck) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(d.cards, func(c *domain.Flashcard) bool { return c.ID == id })
}
