package deck

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/domain/srs"
	"github.com/phrazzld/scry-tutor/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)

func newCard(t *testing.T, topic, subtopic, front string, nextReview time.Time) *domain.Flashcard {
	t.Helper()
	c, err := domain.NewFlashcard(topic, subtopic, front, "answer to "+front, testNow.AddDate(0, 0, -30))
	require.NoError(t, err)
	c.NextReviewAt = nextReview
	return c
}

func TestDeckAddCard(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := mocks.NewMockDeckStore()
	d := New("alice", "go", srs.NewDefaultService(), st)

	card, created, err := d.AddCard(ctx, "What is a goroutine?", "A lightweight thread", "concurrency", testNow)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "go", card.Topic)
	assert.Equal(t, 0, card.IntervalDays)
	assert.True(t, card.NextReviewAt.Equal(testNow))
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, 1, st.SaveCalls())

	t.Run("duplicate front returns existing card", func(t *testing.T) {
		dup, created, err := d.AddCard(ctx, "  what is a GOROUTINE?", "Different", "", testNow)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, card.ID, dup.ID)
		assert.Equal(t, 1, d.Len())
		assert.Equal(t, 1, st.SaveCalls())
	})

	t.Run("invalid card", func(t *testing.T) {
		_, _, err := d.AddCard(ctx, "", "back", "", testNow)
		assert.ErrorIs(t, err, domain.ErrCardFrontEmpty)
	})

	t.Run("store failure leaves deck unchanged", func(t *testing.T) {
		failing := &mocks.MockDeckStore{
			SaveCardFn: func(context.Context, string, *domain.Flashcard) error {
				return errors.New("disk full")
			},
		}
		fd := New("alice", "go", srs.NewDefaultService(), failing)
		_, _, err := fd.AddCard(ctx, "q", "a", "", testNow)
		require.Error(t, err)
		assert.Equal(t, 0, fd.Len())
	})
}

func TestDeckGetDueCards(t *testing.T) {
	t.Parallel()
	d := New("alice", "go", srs.NewDefaultService(), nil)

	overdue := newCard(t, "go", "b", "overdue", testNow.AddDate(0, 0, -3))
	dueNowB := newCard(t, "go", "b", "due now b", testNow)
	dueNowA := newCard(t, "go", "a", "due now a", testNow)
	future := newCard(t, "go", "a", "future", testNow.Add(time.Minute))
	d.cards = []*domain.Flashcard{future, dueNowB, overdue, dueNowA}

	due := d.GetDueCards(testNow)

	require.Len(t, due, 3)
	assert.Equal(t, overdue.ID, due[0].ID)
	assert.Equal(t, dueNowA.ID, due[1].ID)
	assert.Equal(t, dueNowB.ID, due[2].ID)

	t.Run("ties on subtopic break by id", func(t *testing.T) {
		x := newCard(t, "go", "same", "x", testNow)
		y := newCard(t, "go", "same", "y", testNow)
		td := New("alice", "go", srs.NewDefaultService(), nil)
		td.cards = []*domain.Flashcard{x, y}

		got := td.GetDueCards(testNow)
		require.Len(t, got, 2)
		assert.LessOrEqual(t, got[0].ID.String(), got[1].ID.String())
	})

	t.Run("returned cards are copies", func(t *testing.T) {
		due[0].Front = "mutated"
		c, ok := d.Card(overdue.ID)
		require.True(t, ok)
		assert.Equal(t, "overdue", c.Front)
	})
}

func TestDeckStudyCard(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("updates schedule and persists", func(t *testing.T) {
		st := mocks.NewMockDeckStore()
		d := New("alice", "go", srs.NewDefaultService(), st)
		card := newCard(t, "go", "", "q", testNow)
		d.cards = []*domain.Flashcard{card}

		updated, err := d.StudyCard(ctx, card.ID, 4, testNow)
		require.NoError(t, err)
		assert.Equal(t, 1, updated.RepetitionCount)
		assert.Equal(t, 1, updated.IntervalDays)
		assert.True(t, updated.NextReviewAt.Equal(testNow.AddDate(0, 0, 1)))
		assert.Empty(t, d.GetDueCards(testNow))

		stored, ok := st.Stored("alice", "go", "q")
		require.True(t, ok)
		assert.Equal(t, 1, stored.RepetitionCount)
	})

	t.Run("unknown card", func(t *testing.T) {
		d := New("alice", "go", srs.NewDefaultService(), nil)
		_, err := d.StudyCard(ctx, uuid.New(), 4, testNow)
		assert.ErrorIs(t, err, domain.ErrCardNotFound)
	})

	t.Run("invalid quality", func(t *testing.T) {
		d := New("alice", "go", srs.NewDefaultService(), nil)
		card := newCard(t, "go", "", "q", testNow)
		d.cards = []*domain.Flashcard{card}
		_, err := d.StudyCard(ctx, card.ID, 7, testNow)
		assert.ErrorIs(t, err, domain.ErrInvalidQuality)
	})

	t.Run("store failure leaves schedule unchanged", func(t *testing.T) {
		st := &mocks.MockDeckStore{
			SaveCardFn: func(context.Context, string, *domain.Flashcard) error {
				return errors.New("connection reset")
			},
		}
		d := New("alice", "go", srs.NewDefaultService(), st)
		card := newCard(t, "go", "", "q", testNow)
		d.cards = []*domain.Flashcard{card}

		_, err := d.StudyCard(ctx, card.ID, 5, testNow)
		require.Error(t, err)

		c, ok := d.Card(card.ID)
		require.True(t, ok)
		assert.Equal(t, 0, c.RepetitionCount)
		assert.True(t, c.IsDue(testNow))
	})
}

func TestDeckCardsDueWithinAndStats(t *testing.T) {
	t.Parallel()
	d := New("alice", "go", srs.NewDefaultService(), nil)

	overdue := newCard(t, "go", "", "overdue", testNow.AddDate(0, 0, -1))
	soon := newCard(t, "go", "", "soon", testNow.AddDate(0, 0, 2))
	later := newCard(t, "go", "", "later", testNow.AddDate(0, 0, 5))
	outside := newCard(t, "go", "", "outside", testNow.AddDate(0, 0, 10))
	outside.IntervalDays = 30
	outside.LastReviewedAt = testNow.AddDate(0, 0, -20)
	d.cards = []*domain.Flashcard{later, outside, soon, overdue}

	upcoming := d.CardsDueWithin(7, testNow)
	require.Len(t, upcoming, 3)
	assert.Equal(t, overdue.ID, upcoming[0].CardID)
	assert.Equal(t, PriorityHigh, upcoming[0].Priority)
	assert.Equal(t, -1, upcoming[0].DaysUntilReview)
	assert.Equal(t, PriorityMedium, upcoming[1].Priority)
	assert.Equal(t, 2, upcoming[1].DaysUntilReview)
	assert.Equal(t, PriorityLow, upcoming[2].Priority)

	stats := d.Stats(testNow)
	assert.Equal(t, "go", stats.Topic)
	assert.Equal(t, 4, stats.TotalCards)
	assert.Equal(t, 1, stats.DueNow)
	assert.Equal(t, 3, stats.NewCards)
	assert.Equal(t, 1, stats.MatureCards)
	assert.Equal(t, 30, stats.LongestInterval)
	assert.InDelta(t, domain.DefaultEaseFactor, stats.AverageEase, 1e-9)

	empty := New("alice", "empty", srs.NewDefaultService(), nil).Stats(testNow)
	assert.Equal(t, 0, empty.TotalCards)
}

func TestPriorityFor(t *testing.T) {
	t.Parallel()
	assert.Equal(t, PriorityHigh, PriorityFor(-4))
	assert.Equal(t, PriorityHigh, PriorityFor(0))
	assert.Equal(t, PriorityMedium, PriorityFor(1))
	assert.Equal(t, PriorityMedium, PriorityFor(2))
	assert.Equal(t, PriorityLow, PriorityFor(3))
}
