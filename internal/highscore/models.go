package highscore

import "time"

// Snapshot is one player's scores at one feed publication instant.
type Snapshot struct {
	PlayerID            int       `json:"player_id"`
	CreatedAt           time.Time `json:"created_at"`
	TotalPoints         int64     `json:"total_points"`
	TotalRank           int       `json:"total_rank"`
	MilitaryPoints      int64     `json:"military_points"`
	MilitaryRank        int       `json:"military_rank"`
	MilitaryBuiltPoints int64     `json:"military_built_points"`
}

// Entry is the per-player score data one highscore feed pass yields.
type Entry struct {
	TotalPoints         int64
	TotalRank           int
	MilitaryPoints      int64
	MilitaryRank        int
	MilitaryBuiltPoints int64
}

// snapshotSlack ignores feed publications closer together than this; the
// upstream republishes the same board with slightly moving timestamps.
const snapshotSlack = 5 * time.Minute

// shouldSnapshot decides whether a feed publication at feedTime is new enough
// to store, given the newest stored snapshot time.
func shouldSnapshot(feedTime time.Time, latest *time.Time) bool {
	if latest == nil {
		return true
	}
	if !feedTime.After(*latest) {
		return false
	}
	return feedTime.Sub(*latest) >= snapshotSlack
}
