package deck

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/domain/srs"
	"github.com/phrazzld/scry-tutor/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheGetSharesDeck(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := mocks.NewMockDeckStore()
	st.Seed("alice", newCard(t, "go", "", "What is a goroutine?", testNow))

	var loads atomic.Int32
	counting := &mocks.MockDeckStore{
		LoadCardsFn: func(ctx context.Context, username, topic string) ([]*domain.Flashcard, error) {
			loads.Add(1)
			return st.LoadCards(ctx, username, topic)
		},
	}
	c := NewCache(counting, srs.NewDefaultService())

	const callers = 8
	got := make([]*Deck, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := c.Get(ctx, "alice", "go")
			assert.NoError(t, err)
			got[i] = d
		}()
	}
	wg.Wait()

	require.NotNil(t, got[0])
	for _, d := range got[1:] {
		assert.Same(t, got[0], d)
	}
	assert.Equal(t, 1, got[0].Len())
	assert.Equal(t, int32(1), loads.Load())

	other, err := c.Get(ctx, "bob", "go")
	require.NoError(t, err)
	assert.NotSame(t, got[0], other)
	assert.Equal(t, 2, c.Len())
}

func TestCacheDoesNotKeepFailedLoads(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	loadErr := errors.New("database unavailable")

	fail := true
	st := &mocks.MockDeckStore{
		LoadCardsFn: func(ctx context.Context, username, topic string) ([]*domain.Flashcard, error) {
			if fail {
				return nil, loadErr
			}
			return nil, nil
		},
	}
	c := NewCache(st, srs.NewDefaultService())

	_, err := c.Get(ctx, "alice", "go")
	assert.ErrorIs(t, err, loadErr)
	assert.Zero(t, c.Len())

	fail = false
	d, err := c.Get(ctx, "alice", "go")
	require.NoError(t, err)
	assert.Zero(t, d.Len())
}

func TestCacheReviewsAccumulateAcrossHolders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := mocks.NewMockDeckStore()
	card := newCard(t, "go", "", "What is a channel?", testNow)
	st.Seed("alice", card)
	c := NewCache(st, srs.NewDefaultService())

	first, err := c.Get(ctx, "alice", "go")
	require.NoError(t, err)
	second, err := c.Get(ctx, "alice", "go")
	require.NoError(t, err)

	_, err = first.StudyCard(ctx, card.ID, 5, testNow)
	require.NoError(t, err)
	updated, err := second.StudyCard(ctx, card.ID, 5, testNow)
	require.NoError(t, err)

	assert.Equal(t, 2, updated.RepetitionCount)
	assert.Equal(t, 6, updated.IntervalDays)

	stored, ok := st.Stored("alice", "go", card.Front)
	require.True(t, ok)
	assert.Equal(t, 2, stored.RepetitionCount)
}

func TestNewCachePanicsOnMissingDeps(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewCache(nil, srs.NewDefaultService()) })
	assert.Panics(t, func() { NewCache(mocks.NewMockDeckStore(), nil) })
}
