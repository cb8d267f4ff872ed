package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/deck"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/mocks"
	"github.com/phrazzld/scry-tutor/internal/service/auth"
	"github.com/phrazzld/scry-tutor/internal/service/progress"
	"github.com/phrazzld/scry-tutor/internal/service/review"
	"github.com/stretchr/testify/mock"
)

const (
	testUser  = "alice"
	testToken = "valid-token"
)

type mockSessionService struct {
	mock.Mock
}

var _ SessionService = (*mockSessionService)(nil)

func (m *mockSessionService) Create(ctx context.Context, req review.CreateRequest) (review.Snapshot, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(review.Snapshot), args.Error(1)
}

func (m *mockSessionService) Get(ctx context.Context, username string, id uuid.UUID) (review.Snapshot, error) {
	args := m.Called(ctx, username, id)
	return args.Get(0).(review.Snapshot), args.Error(1)
}

func (m *mockSessionService) Next(ctx context.Context, username string, id uuid.UUID) (review.DueItem, error) {
	args := m.Called(ctx, username, id)
	return args.Get(0).(review.DueItem), args.Error(1)
}

func (m *mockSessionService) SubmitAnswer(
	ctx context.Context,
	username string,
	id uuid.UUID,
	answer string,
) (review.AnswerResult, error) {
	args := m.Called(ctx, username, id, answer)
	return args.Get(0).(review.AnswerResult), args.Error(1)
}

func (m *mockSessionService) SubmitFlashcardAnswer(
	ctx context.Context,
	username string,
	id uuid.UUID,
	quality domain.Quality,
) (review.AnswerResult, error) {
	args := m.Called(ctx, username, id, quality)
	return args.Get(0).(review.AnswerResult), args.Error(1)
}

func (m *mockSessionService) Requeue(ctx context.Context, username string, id uuid.UUID) error {
	return m.Called(ctx, username, id).Error(0)
}

func (m *mockSessionService) Pause(ctx context.Context, username string, id uuid.UUID) (review.Snapshot, error) {
	args := m.Called(ctx, username, id)
	return args.Get(0).(review.Snapshot), args.Error(1)
}

func (m *mockSessionService) Resume(ctx context.Context, username string, id uuid.UUID) (review.Snapshot, error) {
	args := m.Called(ctx, username, id)
	return args.Get(0).(review.Snapshot), args.Error(1)
}

func (m *mockSessionService) End(ctx context.Context, username string, id uuid.UUID) (review.Summary, error) {
	args := m.Called(ctx, username, id)
	return args.Get(0).(review.Summary), args.Error(1)
}

type mockDeckService struct {
	mock.Mock
}

var _ deck.Service = (*mockDeckService)(nil)

func (m *mockDeckService) Open(ctx context.Context, username, topic string) (*deck.Deck, error) {
	args := m.Called(ctx, username, topic)
	d, _ := args.Get(0).(*deck.Deck)
	return d, args.Error(1)
}

func (m *mockDeckService) AddCard(
	ctx context.Context,
	username, topic string,
	card deck.NewCard,
) (*domain.Flashcard, bool, error) {
	args := m.Called(ctx, username, topic, card)
	c, _ := args.Get(0).(*domain.Flashcard)
	return c, args.Bool(1), args.Error(2)
}

func (m *mockDeckService) DueCards(ctx context.Context, username, topic string) ([]*domain.Flashcard, error) {
	args := m.Called(ctx, username, topic)
	cards, _ := args.Get(0).([]*domain.Flashcard)
	return cards, args.Error(1)
}

func (m *mockDeckService) Stats(ctx context.Context, username, topic string) (deck.Stats, error) {
	args := m.Called(ctx, username, topic)
	return args.Get(0).(deck.Stats), args.Error(1)
}

func (m *mockDeckService) Upcoming(ctx context.Context, username string, days int) ([]deck.Upcoming, error) {
	args := m.Called(ctx, username, days)
	u, _ := args.Get(0).([]deck.Upcoming)
	return u, args.Error(1)
}

func (m *mockDeckService) Topics(ctx context.Context, username string) ([]string, error) {
	args := m.Called(ctx, username)
	topics, _ := args.Get(0).([]string)
	return topics, args.Error(1)
}

type mockProgressService struct {
	mock.Mock
}

var _ progress.Service = (*mockProgressService)(nil)

func (m *mockProgressService) History(ctx context.Context, username string, limit int) ([]*domain.SessionRecord, error) {
	args := m.Called(ctx, username, limit)
	records, _ := args.Get(0).([]*domain.SessionRecord)
	return records, args.Error(1)
}

func (m *mockProgressService) Insights(ctx context.Context, username string) (progress.Insights, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(progress.Insights), args.Error(1)
}

// testServer is the full router over mocked services. Requests carrying
// testToken authenticate as testUser.
type testServer struct {
	sessions *mockSessionService
	decks    *mockDeckService
	progress *mockProgressService
	handler  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		sessions: &mockSessionService{},
		decks:    &mockDeckService{},
		progress: &mockProgressService{},
	}
	jwt := &mocks.MockJWTService{
		ValidateTokenFn: func(_ context.Context, token string) (*auth.Claims, error) {
			if token != testToken {
				return nil, auth.ErrInvalidToken
			}
			return &auth.Claims{Username: testUser, TokenType: "access"}, nil
		},
	}
	ts.handler = NewRouter(RouterDeps{
		Sessions: ts.sessions,
		Decks:    ts.decks,
		Progress: ts.progress,
		JWT:      jwt,
	})

	t.Cleanup(func() {
		ts.sessions.AssertExpectations(t)
		ts.decks.AssertExpectations(t)
		ts.progress.AssertExpectations(t)
	})
	return ts
}

// do sends an authenticated request. An empty body sends none.
func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+testToken)

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}
