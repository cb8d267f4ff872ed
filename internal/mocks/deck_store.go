package mocks

import (
	"context"
	"database/sql"
	"slices"
	"sync"

	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/store"
)

// MockDeckStore implements store.DeckStore. Without function overrides it
// behaves as an in-memory store.
type MockDeckStore struct {
	LoadCardsFn  func(ctx context.Context, username, topic string) ([]*domain.Flashcard, error)
	SaveCardFn   func(ctx context.Context, username string, card *domain.Flashcard) error
	ListTopicsFn func(ctx context.Context, username string) ([]string, error)

	mu        sync.Mutex
	decks     map[deckKey][]*domain.Flashcard
	saveCalls int
}

type deckKey struct{ username, topic string }

var _ store.DeckStore = (*MockDeckStore)(nil)

// NewMockDeckStore returns an empty in-memory deck store.
func NewMockDeckStore() *MockDeckStore {
	return &MockDeckStore{decks: make(map[deckKey][]*domain.Flashcard)}
}

// Seed stores copies of cards under username without counting as saves.
func (m *MockDeckStore) Seed(username string, cards ...*domain.Flashcard) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure()
	for _, c := range cards {
		m.put(username, c.Clone())
	}
}

// SaveCalls returns how many times SaveCard was called.
func (m *MockDeckStore) SaveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCalls
}

// Stored returns a copy of the stored card with the given front, if any.
func (m *MockDeckStore) Stored(username, topic, front string) (*domain.Flashcard, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.decks[deckKey{username, topic}] {
		if c.Front == front {
			return c.Clone(), true
		}
	}
	return nil, false
}

// LoadCards implements store.DeckStore.
func (m *MockDeckStore) LoadCards(ctx context.Context, username, topic string) ([]*domain.Flashcard, error) {
	if m.LoadCardsFn != nil {
		return m.LoadCardsFn(ctx, username, topic)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	cards := m.decks[deckKey{username, topic}]
	out := make([]*domain.Flashcard, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Clone())
	}
	return out, nil
}

// SaveCard implements store.DeckStore.
func (m *MockDeckStore) SaveCard(ctx context.Context, username string, card *domain.Flashcard) error {
	m.mu.Lock()
	m.saveCalls++
	m.mu.Unlock()

	if m.SaveCardFn != nil {
		return m.SaveCardFn(ctx, username, card)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure()
	m.put(username, card.Clone())
	return nil
}

// ListTopics implements store.DeckStore.
func (m *MockDeckStore) ListTopics(ctx context.Context, username string) ([]string, error) {
	if m.ListTopicsFn != nil {
		return m.ListTopicsFn(ctx, username)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var topics []string
	for k, cards := range m.decks {
		if k.username == username && len(cards) > 0 {
			topics = append(topics, k.topic)
		}
	}
	slices.Sort(topics)
	return topics, nil
}

// WithTx implements store.DeckStore.
func (m *MockDeckStore) WithTx(*sql.Tx) store.DeckStore {
	return m
}

func (m *MockDeckStore) ensure() {
	if m.decks == nil {
		m.decks = make(map[deckKey][]*domain.Flashcard)
	}
}

func (m *MockDeckStore) put(username string, card *domain.Flashcard) {
	k := deckKey{username, card.Topic}
	cards := m.decks[k]
	for i, c := range cards {
		if c.ID == card.ID {
			cards[i] = card
			return
		}
	}
	m.decks[k] = append(cards, card)
}
