package logic

import (
	"context"

	"github.com/headdrop/leaderboard-web/internal/models"
)

// ScoreSource is the read path into the score store. Snapshot must return a
// copy that is safe to iterate while the store keeps changing.
type ScoreSource interface {
	Snapshot(ctx context.Context) (map[string]int64, error)
}

// Ranker produces the ranked leaderboard for one request.
type Ranker interface {
	Ranked(ctx context.Context) (models.Snapshot, error)
}
