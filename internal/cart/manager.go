package cart

import (
	"context"
	"sync"
)

// Manager hands out one Store per cart key. The first access for a key loads
// its persisted snapshot, so carts survive process restarts.
type Manager struct {
	persist Persister

	mu     sync.Mutex
	stores map[string]*Store
}

func NewManager(persist Persister) *Manager {
	return &Manager{
		persist: persist,
		stores:  make(map[string]*Store),
	}
}

func (m *Manager) Get(ctx context.Context, key string) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if store, ok := m.stores[key]; ok {
		return store, nil
	}

	store := NewStore(key, m.persist)
	if err := store.Load(ctx); err != nil {
		return nil, err
	}

	m.stores[key] = store
	return store, nil
}
