package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/api/middleware"
	"github.com/phrazzld/scry-tutor/internal/mocks"
	"github.com/stretchr/testify/assert"
)

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.New().String()

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/review/sessions"},
		{http.MethodGet, "/api/review/sessions/" + id},
		{http.MethodPost, "/api/review/sessions/" + id + "/next"},
		{http.MethodDelete, "/api/review/sessions/" + id},
		{http.MethodGet, "/api/review/schedule"},
		{http.MethodGet, "/api/review/insights"},
		{http.MethodGet, "/api/review/history"},
		{http.MethodPost, "/api/decks/go/cards"},
		{http.MethodGet, "/api/decks/go/due"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ts.handler.ServeHTTP(rec, httptest.NewRequest(rt.method, rt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			req := httptest.NewRequest(rt.method, rt.path, nil)
			req.Header.Set("Authorization", "Bearer forged")
			rec = httptest.NewRecorder()
			ts.handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "Invalid token")
		})
	}
}

func TestRouterSetsTraceHeader(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/health", "")

	assert.Len(t, rec.Header().Get(middleware.TraceIDHeader), 32)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/api/review/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		ping       func(context.Context) error
		wantStatus int
	}{
		{name: "no ping", wantStatus: http.StatusOK},
		{name: "healthy", ping: func(context.Context) error { return nil }, wantStatus: http.StatusOK},
		{
			name:       "database down",
			ping:       func(context.Context) error { return errors.New("connection refused") },
			wantStatus: http.StatusServiceUnavailable,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewRouter(RouterDeps{
				Sessions: &mockSessionService{},
				Decks:    &mockDeckService{},
				Progress: &mockProgressService{},
				JWT:      &mocks.MockJWTService{},
				Ping:     tc.ping,
			})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
			}
		})
	}
}

func TestNewRouterPanicsWithoutServices(t *testing.T) {
	assert.Panics(t, func() { NewRouter(RouterDeps{}) })
}
