package storage

import (
	"context"
	"sync"

	"github.com/Adda-Baaj/hot-promos/internal/domain"
)

// MemoryStore keeps records in process memory. Used for dry runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []string
	records map[string]domain.Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(seed ...domain.Promo) *MemoryStore {
	m := &MemoryStore{records: make(map[string]domain.Record)}
	for _, p := range seed {
		m.insert(domain.RecordFromPromo(p))
	}
	return m
}

func (m *MemoryStore) insert(rec domain.Record) {
	if _, exists := m.records[rec.ID]; exists {
		return
	}
	m.records[rec.ID] = rec
	m.order = append(m.order, rec.ID)
}

// ScanAll returns every record in insertion order.
func (m *MemoryStore) ScanAll(ctx context.Context) ([]domain.Promo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Promo, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.records[id].Promo())
	}
	return out, nil
}

// Put stores the promo unless its id is already present.
func (m *MemoryStore) Put(ctx context.Context, p domain.Promo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkPutable(p); err != nil {
		return err
	}
	m.mu.Lock()
	m.insert(domain.RecordFromPromo(p))
	m.mu.Unlock()
	return nil
}

// Len reports how many records are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

func (m *MemoryStore) Close() error { return nil }
