package progress_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/deck"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/domain/srs"
	"github.com/phrazzld/scry-tutor/internal/mocks"
	"github.com/phrazzld/scry-tutor/internal/service/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCard(t *testing.T, topic, front string, due time.Time) *domain.Flashcard {
	t.Helper()
	card, err := domain.NewFlashcard(topic, "", front, "back of "+front, testNow.Add(-24*time.Hour))
	require.NoError(t, err)
	card.NextReviewAt = due
	return card
}

func TestService_Insights(t *testing.T) {
	decks := mocks.NewMockDeckStore()
	decks.Seed(testUser,
		newCard(t, "go", "a?", testNow.Add(-time.Hour)),
		newCard(t, "go", "b?", testNow.Add(72*time.Hour)),
		newCard(t, "sql", "c?", testNow.Add(-time.Minute)),
	)
	weakness := mocks.NewMockWeaknessStore(testUser,
		domain.WeakArea{Topic: "go", Subtopic: "generics", PriorityScore: 0.4},
		domain.WeakArea{Topic: "sql", Subtopic: "joins", PriorityScore: 0.9},
	)
	deckService := deck.NewService(decks, srs.NewDefaultService(), nil, deck.WithClock(func() time.Time { return testNow }))
	svc := progress.NewService(&mocks.MockHistoryStore{}, weakness, deckService, nil)

	insights, err := svc.Insights(context.Background(), testUser)
	require.NoError(t, err)

	want := progress.Insights{
		WeakAreas: []domain.WeakArea{
			{Topic: "sql", Subtopic: "joins", PriorityScore: 0.9},
			{Topic: "go", Subtopic: "generics", PriorityScore: 0.4},
		},
		Decks: []progress.TopicDue{
			{Topic: "go", TotalCards: 2, DueNow: 1},
			{Topic: "sql", TotalCards: 1, DueNow: 1},
		},
		TotalDue: 2,
	}
	if diff := cmp.Diff(want, insights); diff != "" {
		t.Errorf("Insights mismatch (-want +got):\n%s", diff)
	}
}

func TestService_InsightsEmpty(t *testing.T) {
	svc := progress.NewService(
		&mocks.MockHistoryStore{},
		mocks.NewMockWeaknessStore(testUser),
		deck.NewService(mocks.NewMockDeckStore(), srs.NewDefaultService(), nil),
		nil,
	)

	insights, err := svc.Insights(context.Background(), testUser)
	require.NoError(t, err)
	assert.NotNil(t, insights.WeakAreas)
	assert.Empty(t, insights.Decks)
	assert.Zero(t, insights.TotalDue)

	_, err = svc.Insights(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_InsightsWeaknessFailure(t *testing.T) {
	weakness := mocks.NewMockWeaknessStore(testUser)
	weakness.GetWeakAreasFn = func(ctx context.Context, username string) ([]domain.WeakArea, error) {
		return nil, errors.New("timeout")
	}
	svc := progress.NewService(
		&mocks.MockHistoryStore{},
		weakness,
		deck.NewService(mocks.NewMockDeckStore(), srs.NewDefaultService(), nil),
		nil,
	)

	_, err := svc.Insights(context.Background(), testUser)
	assert.ErrorContains(t, err, "failed to load weak areas")
}

func TestService_History(t *testing.T) {
	var gotLimit int
	history := &mocks.MockHistoryStore{
		ListSessionsFn: func(ctx context.Context, username string, limit int) ([]*domain.SessionRecord, error) {
			gotLimit = limit
			return []*domain.SessionRecord{{SessionID: uuid.New(), Username: username}}, nil
		},
	}
	svc := progress.NewService(
		history,
		mocks.NewMockWeaknessStore(testUser),
		deck.NewService(mocks.NewMockDeckStore(), srs.NewDefaultService(), nil),
		nil,
	)
	ctx := context.Background()

	testCases := []struct {
		name      string
		limit     int
		wantLimit int
		wantErr   error
	}{
		{name: "default limit", limit: 0, wantLimit: progress.DefaultHistoryLimit},
		{name: "explicit limit", limit: 5, wantLimit: 5},
		{name: "limit is capped", limit: 1000, wantLimit: progress.MaxHistoryLimit},
		{name: "negative limit", limit: -1, wantErr: domain.ErrValidation},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gotLimit = 0
			records, err := svc.History(ctx, testUser, tc.limit)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, records, 1)
			assert.Equal(t, tc.wantLimit, gotLimit)
		})
	}
}
