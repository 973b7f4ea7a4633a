package worker

import (
	"context"
	"sync"
)

// MockStore records increments in memory.
type MockStore struct {
	mu      sync.Mutex
	Counts  map[string]int64
	Calls   int
	FailFor map[string]error
}

func NewMockStore() *MockStore {
	return &MockStore{
		Counts:  make(map[string]int64),
		FailFor: make(map[string]error),
	}
}

func (m *MockStore) Increment(ctx context.Context, player string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if err := m.FailFor[player]; err != nil {
		return err
	}
	m.Counts[player] += delta
	return nil
}

func (m *MockStore) snapshot() (map[string]int64, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.Counts))
	for k, v := range m.Counts {
		out[k] = v
	}
	return out, m.Calls
}
