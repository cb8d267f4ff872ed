package mocks

import (
	"context"
	"database/sql"
	"sync"

	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/store"
)

// MockHistoryStore implements store.HistoryStore and records every session.
type MockHistoryStore struct {
	RecordSessionFn func(ctx context.Context, record *domain.SessionRecord) error
	ListSessionsFn  func(ctx context.Context, username string, limit int) ([]*domain.SessionRecord, error)

	mu      sync.Mutex
	Records []*domain.SessionRecord
}

var _ store.HistoryStore = (*MockHistoryStore)(nil)

// RecordSession implements store.HistoryStore.
func (m *MockHistoryStore) RecordSession(ctx context.Context, record *domain.SessionRecord) error {
	if m.RecordSessionFn != nil {
		return m.RecordSessionFn(ctx, record)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.Records {
		if r.SessionID == record.SessionID {
			return store.ErrSessionRecordExists
		}
	}
	cp := *record
	m.Records = append(m.Records, &cp)
	return nil
}

// ListSessions implements store.HistoryStore.
func (m *MockHistoryStore) ListSessions(ctx context.Context, username string, limit int) ([]*domain.SessionRecord, error) {
	if m.ListSessionsFn != nil {
		return m.ListSessionsFn(ctx, username, limit)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.SessionRecord
	for i := len(m.Records) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if m.Records[i].Username == username {
			cp := *m.Records[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// RecordCount returns how many sessions were recorded.
func (m *MockHistoryStore) RecordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Records)
}

// WithTx implements store.HistoryStore.
func (m *MockHistoryStore) WithTx(*sql.Tx) store.HistoryStore {
	return m
}
