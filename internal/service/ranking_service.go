package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stemsi/exquiz-backend/internal/config"
	"github.com/stemsi/exquiz-backend/internal/model"
	"github.com/stemsi/exquiz-backend/internal/repository"
	"golang.org/x/sync/singleflight"
)

const (
	statsFieldTotal = "total_score"
	statsFieldTests = "tests"
)

// RankingService maintains the leaderboard: users ordered by average score per test,
// ties broken by number of tests taken. The board lives in a Redis sorted set and is
// rebuilt from PostgreSQL when cold.
type RankingService struct {
	results ScoreAggregator
	rdb     *redis.Client
	limit   int
	sf      singleflight.Group
	log     zerolog.Logger
}

// NewRankingService creates a new RankingService.
func NewRankingService(results ScoreAggregator, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *RankingService {
	return &RankingService{
		results: results,
		rdb:     rdb,
		limit:   cfg.RankingLimit,
		log:     log.With().Str("component", "ranking_service").Logger(),
	}
}

// Enqueue queues a recorded result for the ranking worker.
func (s *RankingService) Enqueue(ctx context.Context, ev model.RankingEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.rdb.RPush(ctx, config.WorkerKey.PersistRankingsQueue, raw).Err()
}

// Top returns the first limit entries of the leaderboard. limit <= 0 uses the configured default.
func (s *RankingService) Top(ctx context.Context, limit int) ([]model.RankingEntry, error) {
	if limit <= 0 {
		limit = s.limit
	}

	built, err := s.rdb.Exists(ctx, config.CacheKey.RankingBuiltKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("check ranking board: %w", err)
	}
	if built == 0 {
		if _, err, _ := s.sf.Do("rebuild", func() (interface{}, error) {
			return nil, s.Rebuild(ctx)
		}); err != nil {
			return nil, err
		}
	}

	boardKey := config.CacheKey.RankingBoardKey()
	head, err := s.rdb.ZRevRangeWithScores(ctx, boardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read ranking board: %w", err)
	}
	if len(head) == 0 {
		return []model.RankingEntry{}, nil
	}

	// Users tied with the last entry may sit just past the cut-off.
	cut := strconv.FormatFloat(head[len(head)-1].Score, 'f', -1, 64)
	members, err := s.rdb.ZRevRangeByScoreWithScores(ctx, boardKey, &redis.ZRangeBy{Max: "+inf", Min: cut}).Result()
	if err != nil {
		return nil, fmt.Errorf("read ranking board: %w", err)
	}

	pipe := s.rdb.Pipeline()
	testCmds := make([]*redis.StringCmd, len(members))
	for i, m := range members {
		userID, _ := strconv.Atoi(m.Member.(string))
		testCmds[i] = pipe.HGet(ctx, config.CacheKey.UserRankingStatsKey(userID), statsFieldTests)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read ranking stats: %w", err)
	}

	entries := make([]model.RankingEntry, 0, len(members))
	for i, m := range members {
		userID, err := strconv.Atoi(m.Member.(string))
		if err != nil {
			s.log.Warn().Str("member", m.Member.(string)).Msg("Skipping malformed ranking member")
			continue
		}
		tests, _ := testCmds[i].Int()
		entries = append(entries, model.RankingEntry{
			UserID:       userID,
			AverageScore: m.Score,
			TotalTests:   tests,
		})
	}

	slices.SortStableFunc(entries, func(a, b model.RankingEntry) int {
		switch {
		case a.AverageScore != b.AverageScore:
			if a.AverageScore > b.AverageScore {
				return -1
			}
			return 1
		case a.TotalTests != b.TotalTests:
			return b.TotalTests - a.TotalTests
		default:
			return a.UserID - b.UserID
		}
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// Rebuild recomputes the whole board from PostgreSQL and marks it as built.
func (s *RankingService) Rebuild(ctx context.Context) error {
	totals, err := s.results.AggregateByUser(ctx)
	if err != nil {
		return fmt.Errorf("aggregate scores: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, config.CacheKey.RankingBoardKey())
	queueTotals(ctx, pipe, totals)
	pipe.Set(ctx, config.CacheKey.RankingBuiltKey(), time.Now().Unix(), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store ranking board: %w", err)
	}

	s.log.Info().Int("users", len(totals)).Msg("Ranking board rebuilt")
	return nil
}

// ApplyTotals overwrites the board entries of the given users. It is a no-op while the
// board is cold, since the next read rebuilds everything.
func (s *RankingService) ApplyTotals(ctx context.Context, totals []repository.UserScoreTotals) error {
	if len(totals) == 0 {
		return nil
	}

	built, err := s.rdb.Exists(ctx, config.CacheKey.RankingBuiltKey()).Result()
	if err != nil {
		return err
	}
	if built == 0 {
		return nil
	}

	pipe := s.rdb.TxPipeline()
	queueTotals(ctx, pipe, totals)
	_, err = pipe.Exec(ctx)
	return err
}

// PublishUpdate announces that the given users' standings changed.
func (s *RankingService) PublishUpdate(ctx context.Context, userIDs []int) error {
	raw, err := json.Marshal(model.RankingUpdate{UserIDs: userIDs, UpdatedAt: time.Now().Unix()})
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, config.CacheKey.RankingUpdatesChannel(), raw).Err()
}

// Subscribe opens a subscription to board updates. The caller must close it.
func (s *RankingService) Subscribe(ctx context.Context) *redis.PubSub {
	return s.rdb.Subscribe(ctx, config.CacheKey.RankingUpdatesChannel())
}

func queueTotals(ctx context.Context, pipe redis.Pipeliner, totals []repository.UserScoreTotals) {
	for _, t := range totals {
		if t.TotalTests <= 0 {
			continue
		}
		avg := decimal.NewFromFloat(t.TotalScore).
			Div(decimal.NewFromInt(int64(t.TotalTests))).
			Round(4).
			InexactFloat64()

		statsKey := config.CacheKey.UserRankingStatsKey(t.UserID)
		pipe.HSet(ctx, statsKey, statsFieldTotal, t.TotalScore, statsFieldTests, t.TotalTests)
		pipe.ZAdd(ctx, config.CacheKey.RankingBoardKey(), redis.Z{Score: avg, Member: strconv.Itoa(t.UserID)})
	}
}
