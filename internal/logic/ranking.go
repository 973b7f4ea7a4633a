package logic

import (
	"sort"

	"github.com/headdrop/leaderboard-web/internal/models"
)

// Rank orders scores by count descending. Equal counts are ordered by player
// name ascending so repeated calls over the same scores agree.
func Rank(scores map[string]int64) models.Snapshot {
	snapshot := make(models.Snapshot, 0, len(scores))
	for name, count := range scores {
		snapshot = append(snapshot, models.ScoreEntry{PlayerName: name, Count: count})
	}

	sort.Slice(snapshot, func(i, j int) bool {
		if snapshot[i].Count != snapshot[j].Count {
			return snapshot[i].Count > snapshot[j].Count
		}
		return snapshot[i].PlayerName < snapshot[j].PlayerName
	})
	return snapshot
}
