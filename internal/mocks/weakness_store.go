package mocks

import (
	"cmp"
	"context"
	"database/sql"
	"slices"
	"sync"

	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/store"
)

// MockWeaknessStore implements store.WeaknessStore. Without function
// overrides it behaves as an in-memory store.
type MockWeaknessStore struct {
	GetWeakAreasFn   func(ctx context.Context, username string) ([]domain.WeakArea, error)
	UpsertWeakAreaFn func(ctx context.Context, username string, area domain.WeakArea) error
	RemoveWeakAreaFn func(ctx context.Context, username, topic, subtopic string) error

	mu    sync.Mutex
	areas map[string][]domain.WeakArea
}

var _ store.WeaknessStore = (*MockWeaknessStore)(nil)

// NewMockWeaknessStore returns an in-memory weakness store seeded with areas
// for username.
func NewMockWeaknessStore(username string, areas ...domain.WeakArea) *MockWeaknessStore {
	m := &MockWeaknessStore{areas: make(map[string][]domain.WeakArea)}
	m.areas[username] = append([]domain.WeakArea(nil), areas...)
	return m
}

// GetWeakAreas implements store.WeaknessStore.
func (m *MockWeaknessStore) GetWeakAreas(ctx context.Context, username string) ([]domain.WeakArea, error) {
	if m.GetWeakAreasFn != nil {
		return m.GetWeakAreasFn(ctx, username)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]domain.WeakArea(nil), m.areas[username]...)
	slices.SortStableFunc(out, func(a, b domain.WeakArea) int {
		return cmp.Compare(b.PriorityScore, a.PriorityScore)
	})
	return out, nil
}

// UpsertWeakArea implements store.WeaknessStore.
func (m *MockWeaknessStore) UpsertWeakArea(ctx context.Context, username string, area domain.WeakArea) error {
	if m.UpsertWeakAreaFn != nil {
		return m.UpsertWeakAreaFn(ctx, username, area)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.areas == nil {
		m.areas = make(map[string][]domain.WeakArea)
	}
	areas := m.areas[username]
	for i, a := range areas {
		if a.Topic == area.Topic && a.Subtopic == area.Subtopic {
			areas[i] = area
			return nil
		}
	}
	m.areas[username] = append(areas, area)
	return nil
}

// RemoveWeakArea implements store.WeaknessStore.
func (m *MockWeaknessStore) RemoveWeakArea(ctx context.Context, username, topic, subtopic string) error {
	if m.RemoveWeakAreaFn != nil {
		return m.RemoveWeakAreaFn(ctx, username, topic, subtopic)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	areas := m.areas[username]
	for i, a := range areas {
		if a.Topic == topic && a.Subtopic == subtopic {
			m.areas[username] = slices.Delete(areas, i, i+1)
			return nil
		}
	}
	return store.ErrWeakAreaNotFound
}

// WithTx implements store.WeaknessStore.
func (m *MockWeaknessStore) WithTx(*sql.Tx) store.WeaknessStore {
	return m
}
