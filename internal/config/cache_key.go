package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// QuestionSetPayloadKey returns the cache key for the student-facing payload of a question set.
// The payload never contains correct answers.
func (r *CacheKeyStruct) QuestionSetPayloadKey(subjectID, semester, setNumber int) string {
	return fmt.Sprintf("qset:%d:%d:%d:payload", subjectID, semester, setNumber)
}

// RevokedTokenKey returns the cache key marking a token ID as logged out.
func (r *CacheKeyStruct) RevokedTokenKey(jti string) string {
	return fmt.Sprintf("revoked:%s", jti)
}

// UserRankingStatsKey returns the hash holding a user's accumulated score and test count.
func (r *CacheKeyStruct) UserRankingStatsKey(userID int) string {
	return fmt.Sprintf("ranking:user:%d", userID)
}

// RankingBoardKey returns the sorted set of users ordered by average score.
func (r *CacheKeyStruct) RankingBoardKey() string {
	return "ranking:board"
}

// RankingBuiltKey marks the board as fully rebuilt from PostgreSQL.
// Incremental updates are only applied while this marker exists.
func (r *CacheKeyStruct) RankingBuiltKey() string {
	return "ranking:built"
}

// RankingUpdatesChannel returns the Redis PubSub channel announcing leaderboard changes.
func (r *CacheKeyStruct) RankingUpdatesChannel() string {
	return "rankings:updates"
}

// RateLimitKey returns the counter for one caller in one fixed rate-limit window.
func (r *CacheKeyStruct) RateLimitKey(scope, caller string, window int64) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", scope, caller, window)
}

var CacheKey = NewCacheKeyStruct()
