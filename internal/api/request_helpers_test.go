package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/api/shared"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestGetPathUUID(t *testing.T) {
	id := uuid.New()

	got, err := getPathUUID(withURLParams(httptest.NewRequest(http.MethodGet, "/", nil),
		map[string]string{"id": id.String()}), "id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = getPathUUID(withURLParams(httptest.NewRequest(http.MethodGet, "/", nil),
		map[string]string{"id": "nope"}), "id")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = getPathUUID(httptest.NewRequest(http.MethodGet, "/", nil), "id")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestGetPathTopic(t *testing.T) {
	tests := map[string]string{
		"go":                 "go",
		"machine%20learning": "machine learning",
		"  padded  ":         "padded",
		"bad%zzescape":       "bad%zzescape",
		"c%2B%2B":            "c++",
	}
	for raw, want := range tests {
		req := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"topic": raw})
		assert.Equal(t, want, getPathTopic(req), raw)
	}
}

func TestGetUsername(t *testing.T) {
	_, log := logger.NewTestLogger(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	_, ok := getUsername(rec, req, log)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = req.WithContext(shared.WithUsername(req.Context(), "alice"))
	rec = httptest.NewRecorder()
	username, ok := getUsername(rec, req, log)
	assert.True(t, ok)
	assert.Equal(t, "alice", username)
}

func TestQueryInt(t *testing.T) {
	n, err := queryInt(httptest.NewRequest(http.MethodGet, "/?days=3", nil), "days", 7)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = queryInt(httptest.NewRequest(http.MethodGet, "/", nil), "days", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = queryInt(httptest.NewRequest(http.MethodGet, "/?days=x", nil), "days", 7)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDecodeAndValidate(t *testing.T) {
	_, log := logger.NewTestLogger(t)

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"answer":"42"}`))
		rec := httptest.NewRecorder()

		var body AnswerRequest
		assert.True(t, decodeAndValidate(rec, req, &body, log))
		assert.Equal(t, "42", body.Answer)
	})

	t.Run("too long", func(t *testing.T) {
		long := strings.Repeat("a", 4001)
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"answer":"`+long+`"}`))
		rec := httptest.NewRecorder()

		var body AnswerRequest
		assert.False(t, decodeAndValidate(rec, req, &body, log))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid answer: too long")
	})
}
