package model

// RankingEntry is one leaderboard row.
type RankingEntry struct {
	Rank         int     `json:"rank"`
	UserID       int     `json:"user_id"`
	AverageScore float64 `json:"average_score"`
	TotalTests   int     `json:"total_tests"`
}

// RankingEvent is queued after every recorded result so the leaderboard can be updated.
type RankingEvent struct {
	UserID int     `json:"user_id"`
	Score  float64 `json:"score"`
}

// RankingUpdate is published on the updates channel after the board changes.
type RankingUpdate struct {
	UserIDs   []int `json:"user_ids"`
	UpdatedAt int64 `json:"updated_at"`
}
