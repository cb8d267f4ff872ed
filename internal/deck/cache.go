package deck

import (
	"context"
	"sync"

	"github.com/phrazzld/scry-tutor/internal/domain/srs"
	"github.com/phrazzld/scry-tutor/internal/store"
	"golang.org/x/sync/singleflight"
)

// Cache owns the one live Deck of every (username, topic) in the process.
// Sessions, card creation and deck queries all work on the Deck it returns,
// so reviews and additions are serialized on that deck's lock instead of
// racing on separate copies.
type Cache struct {
	store     store.DeckStore
	scheduler srs.Service

	mu    sync.Mutex
	decks map[deckKey]*Deck
	loads singleflight.Group
}

type deckKey struct{ username, topic string }

func (k deckKey) String() string { return k.username + "\x00" + k.topic }

// NewCache creates an empty Cache that loads decks from st on first use.
func NewCache(st store.DeckStore, scheduler srs.Service) *Cache {
	if st == nil {
		panic("deck store cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	return &Cache{
		store:     st,
		scheduler: scheduler,
		decks:     make(map[deckKey]*Deck),
	}
}

// Get returns the deck for (username, topic), loading it from the store the
// first time it is asked for. Concurrent first calls share one load.
// A failed load is not cached.
func (c *Cache) Get(ctx context.Context, username, topic string) (*Deck, error) {
	key := deckKey{username: username, topic: topic}
	if d, ok := c.lookup(key); ok {
		return d, nil
	}

	v, err, _ := c.loads.Do(key.String(), func() (any, error) {
		if d, ok := c.lookup(key); ok {
			return d, nil
		}
		d, err := Load(ctx, c.store, c.scheduler, username, topic)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.decks[key] = d
		c.mu.Unlock()
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Deck), nil
}

// Len returns the number of decks held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.decks)
}

func (c *Cache) lookup(key deckKey) (*Deck, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.decks[key]
	return d, ok
}
