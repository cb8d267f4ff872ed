package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/deck"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testCard(t *testing.T, topic, front, back string) *domain.Flashcard {
	t.Helper()
	card, err := domain.NewFlashcard(topic, "", front, back, time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return card
}

func TestAddCard(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		ts := newTestServer(t)
		card := testCard(t, "go", "What is a goroutine?", "A lightweight thread")
		ts.decks.On("AddCard", mock.Anything, testUser, "go", deck.NewCard{
			Front:    "What is a goroutine?",
			Back:     "A lightweight thread",
			Subtopic: "concurrency",
		}).Return(card, true, nil).Once()

		rec := ts.do(http.MethodPost, "/api/decks/go/cards",
			`{"front":"What is a goroutine?","back":"A lightweight thread","subtopic":"concurrency"}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		got := decodeBody[AddCardResponse](t, rec.Body.Bytes())
		assert.True(t, got.Created)
		assert.Equal(t, card.ID, got.Card.ID)
		assert.Equal(t, domain.DefaultEaseFactor, got.Card.EasinessFactor)
	})

	t.Run("duplicate returns existing card", func(t *testing.T) {
		ts := newTestServer(t)
		card := testCard(t, "go", "What is a goroutine?", "A lightweight thread")
		ts.decks.On("AddCard", mock.Anything, testUser, "go", mock.Anything).Return(card, false, nil).Once()

		rec := ts.do(http.MethodPost, "/api/decks/go/cards", `{"front":"what is a  goroutine?","back":"x"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, decodeBody[AddCardResponse](t, rec.Body.Bytes()).Created)
	})

	t.Run("escaped topic", func(t *testing.T) {
		ts := newTestServer(t)
		card := testCard(t, "machine learning", "f", "b")
		ts.decks.On("AddCard", mock.Anything, testUser, "machine learning", mock.Anything).Return(card, true, nil).Once()

		rec := ts.do(http.MethodPost, "/api/decks/machine%20learning/cards", `{"front":"f","back":"b"}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("missing back", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(http.MethodPost, "/api/decks/go/cards", `{"front":"f"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid back")
	})

	t.Run("blank topic", func(t *testing.T) {
		ts := newTestServer(t)
		ts.decks.On("AddCard", mock.Anything, testUser, "", mock.Anything).Return(nil, false, deck.ErrTopicRequired).Once()

		rec := ts.do(http.MethodPost, "/api/decks/%20/cards", `{"front":"f","back":"b"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Topic is required")
	})
}

func TestDueCards(t *testing.T) {
	ts := newTestServer(t)
	cards := []*domain.Flashcard{
		testCard(t, "go", "defer order?", "LIFO"),
		testCard(t, "go", "zero value of a map?", "nil"),
	}
	ts.decks.On("DueCards", mock.Anything, testUser, "go").Return(cards, nil).Once()

	rec := ts.do(http.MethodGet, "/api/decks/go/due", "")

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[DueCardsResponse](t, rec.Body.Bytes())
	assert.Equal(t, "go", got.Topic)
	require.Len(t, got.Cards, 2)
	assert.Equal(t, "defer order?", got.Cards[0].Front)
}

func TestDueCardsEmptyDeck(t *testing.T) {
	ts := newTestServer(t)
	ts.decks.On("DueCards", mock.Anything, testUser, "rust").Return(nil, nil).Once()

	rec := ts.do(http.MethodGet, "/api/decks/rust/due", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"topic":"rust","cards":[]}`, rec.Body.String())
}

func TestDeckStats(t *testing.T) {
	ts := newTestServer(t)
	stats := deck.Stats{Topic: "go", TotalCards: 3, DueNow: 1, NewCards: 1, AverageEase: 2.5}
	ts.decks.On("Stats", mock.Anything, testUser, "go").Return(stats, nil).Once()

	rec := ts.do(http.MethodGet, "/api/decks/go/stats", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, stats, decodeBody[deck.Stats](t, rec.Body.Bytes()))
}

func TestSchedule(t *testing.T) {
	now := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)

	t.Run("default window", func(t *testing.T) {
		ts := newTestServer(t)
		upcoming := []deck.Upcoming{{
			CardID:          uuid.New(),
			Topic:           "go",
			Front:           "defer order?",
			NextReviewAt:    now.AddDate(0, 0, 1),
			DaysUntilReview: 1,
			Priority:        deck.PriorityMedium,
		}}
		ts.decks.On("Upcoming", mock.Anything, testUser, DefaultScheduleDays).Return(upcoming, nil).Once()

		rec := ts.do(http.MethodGet, "/api/review/schedule", "")

		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[ScheduleResponse](t, rec.Body.Bytes())
		assert.Equal(t, DefaultScheduleDays, got.Days)
		require.Len(t, got.Upcoming, 1)
		assert.Equal(t, deck.PriorityMedium, got.Upcoming[0].Priority)
	})

	t.Run("explicit window", func(t *testing.T) {
		ts := newTestServer(t)
		ts.decks.On("Upcoming", mock.Anything, testUser, 30).Return(nil, nil).Once()

		rec := ts.do(http.MethodGet, "/api/review/schedule?days=30", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"days":30,"upcoming":[]}`, rec.Body.String())
	})

	t.Run("not a number", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(http.MethodGet, "/api/review/schedule?days=soon", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("negative", func(t *testing.T) {
		ts := newTestServer(t)
		ts.decks.On("Upcoming", mock.Anything, testUser, -1).Return(nil, deck.ErrInvalidDays).Once()

		rec := ts.do(http.MethodGet, "/api/review/schedule?days=-1", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "days must not be negative")
	})
}
