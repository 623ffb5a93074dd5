package checkpoint

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps threads in process memory. Threads are lost on exit.
type MemoryStore struct {
	threads map[string]Thread
	mu      sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: make(map[string]Thread)}
}

func (m *MemoryStore) Save(_ context.Context, thread Thread) error {
	if thread.ID == "" {
		return ErrEmptyID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.threads[thread.ID] = thread.Clone()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	thread, exists := m.threads[id]
	if !exists {
		return Thread{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return thread.Clone(), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.threads, id)
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.threads))
	for id := range m.threads {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
