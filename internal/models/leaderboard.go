package models

// PageSize is the number of leaderboard rows shown per page.
const PageSize = 10

// ScoreEntry is a player's collected head count.
type ScoreEntry struct {
	PlayerName string `json:"player_name"`
	Count      int64  `json:"count"`
}

// Snapshot is a ranked view of the score store, ordered by count descending.
// It is built per request (or per cache refresh) and must not be mutated
// once handed out.
type Snapshot []ScoreEntry

// PageWindow is the half-open index range [Start, End) of a Snapshot shown
// for Page. A window past the end of the snapshot has Start == End == len.
type PageWindow struct {
	Page  int `json:"page"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of rows in the window.
func (w PageWindow) Len() int {
	return w.End - w.Start
}

// Empty reports whether the window renders no rows.
func (w PageWindow) Empty() bool {
	return w.End <= w.Start
}

// RankedRow is a snapshot entry annotated with its global rank.
type RankedRow struct {
	Rank       int    `json:"rank"`
	PlayerName string `json:"player_name"`
	Count      int64  `json:"count"`
}

// Rows returns the entries of s inside w with their global ranks.
func (s Snapshot) Rows(w PageWindow) []RankedRow {
	if w.Empty() || w.Start < 0 || w.End > len(s) {
		return nil
	}
	rows := make([]RankedRow, 0, w.Len())
	for i := w.Start; i < w.End; i++ {
		rows = append(rows, RankedRow{
			Rank:       i + 1,
			PlayerName: s[i].PlayerName,
			Count:      s[i].Count,
		})
	}
	return rows
}
