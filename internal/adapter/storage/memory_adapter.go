package storage

import (
	"context"
	"sync"
	"time"

	"github.com/rl1809/pantry/internal/core/domain"
)

// MemoryAdapter keeps records in a map. Useful for tests and throwaway sessions.
type MemoryAdapter struct {
	mu      sync.RWMutex
	records map[string]domain.Record
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{records: make(map[string]domain.Record)}
}

func (m *MemoryAdapter) ListAll(ctx context.Context) ([]domain.InventoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]domain.InventoryItem, 0, len(m.records))
	for name, r := range m.records {
		items = append(items, r.Item(name))
	}
	return items, nil
}

func (m *MemoryAdapter) GetOne(ctx context.Context, name string) (domain.Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[name]
	return r, ok, nil
}

func (m *MemoryAdapter) Upsert(ctx context.Context, name string, record domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[name] = record
	return nil
}

func (m *MemoryAdapter) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, name)
	return nil
}

func (m *MemoryAdapter) MergeAdd(ctx context.Context, name string, quantity int, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.records[name]; ok {
		total, err := domain.AddQuantity(r.Quantity, quantity)
		if err != nil {
			return err
		}
		r.Quantity = total
		m.records[name] = r
		return nil
	}
	m.records[name] = domain.Record{Quantity: quantity, Description: description}
	return nil
}

// MemoryIdempotency remembers claimed keys until they expire.
type MemoryIdempotency struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	keys map[string]time.Time
}

func NewMemoryIdempotency(ttl time.Duration) *MemoryIdempotency {
	return &MemoryIdempotency{
		ttl:  ttl,
		now:  time.Now,
		keys: make(map[string]time.Time),
	}
}

func (m *MemoryIdempotency) Claim(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if exp, ok := m.keys[key]; ok && now.Before(exp) {
		return false, nil
	}
	m.keys[key] = now.Add(m.ttl)
	return true, nil
}

func (m *MemoryIdempotency) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.keys, key)
	return nil
}
