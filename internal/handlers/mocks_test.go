package handlers

import (
	"context"

	"github.com/headdrop/leaderboard-web/internal/models"
)

// MockRanker
type MockRanker struct {
	RankedFunc func(ctx context.Context) (models.Snapshot, error)
}

func (m *MockRanker) Ranked(ctx context.Context) (models.Snapshot, error) {
	if m.RankedFunc != nil {
		return m.RankedFunc(ctx)
	}
	return models.Snapshot{}, nil
}

// MockPinger
type MockPinger struct {
	Err error
}

func (m *MockPinger) Ping(ctx context.Context) error { return m.Err }
