package store

import (
	"context"
	"sync"
)

// Memory is an in-process ScoreStore. Counts are lost on restart.
type Memory struct {
	mu     sync.RWMutex
	counts map[string]int64
}

func NewMemory() *Memory {
	return &Memory{counts: make(map[string]int64)}
}

func (m *Memory) Snapshot(ctx context.Context) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]int64, len(m.counts))
	for name, count := range m.counts {
		out[name] = count
	}
	return out, nil
}

func (m *Memory) Increment(ctx context.Context, player string, delta int64) error {
	if err := validateIncrement(player, delta); err != nil {
		return err
	}
	m.mu.Lock()
	m.counts[player] += delta
	m.mu.Unlock()
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
func (m *Memory) Close() error                   { return nil }
