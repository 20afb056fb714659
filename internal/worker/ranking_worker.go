package worker

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exquiz-backend/internal/config"
	"github.com/stemsi/exquiz-backend/internal/model"
	"github.com/stemsi/exquiz-backend/internal/repository"
)

const (
	RankingBatchSize    = 50
	RankingBatchTimeout = 2 * time.Second
	RankingPollTimeout  = 1 * time.Second
)

// TotalsSource recomputes per-user score totals from the durable store.
type TotalsSource interface {
	AggregateForUsers(ctx context.Context, userIDs []int) ([]repository.UserScoreTotals, error)
}

// BoardWriter applies recomputed totals to the leaderboard and announces the change.
type BoardWriter interface {
	ApplyTotals(ctx context.Context, totals []repository.UserScoreTotals) error
	PublishUpdate(ctx context.Context, userIDs []int) error
}

// RankingWorker drains the ranking queue in batches. For every user seen in a batch it
// reloads the totals from PostgreSQL and overwrites that user's board entry, so replaying
// an event is harmless.
type RankingWorker struct {
	source TotalsSource
	board  BoardWriter
	rdb    *redis.Client
	log    zerolog.Logger
}

func NewRankingWorker(source TotalsSource, board BoardWriter, rdb *redis.Client, log zerolog.Logger) *RankingWorker {
	return &RankingWorker{
		source: source,
		board:  board,
		rdb:    rdb,
		log:    log.With().Str("component", "ranking_worker").Logger(),
	}
}

// Start runs the worker loop until ctx is cancelled, then flushes what it holds.
func (w *RankingWorker) Start(ctx context.Context) {
	w.log.Info().Msg("RankingWorker started")

	batch := make([]model.RankingEvent, 0, RankingBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= RankingBatchSize || time.Since(lastFlush) >= RankingBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, RankingPollTimeout, config.WorkerKey.PersistRankingsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var ev model.RankingEvent
			if err := json.Unmarshal([]byte(item[1]), &ev); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, ev)
		}
	}
}

// flushSafe applies a batch, falling back to one user at a time and requeueing failures.
func (w *RankingWorker) flushSafe(ctx context.Context, batch []model.RankingEvent) {
	if len(batch) == 0 {
		return
	}

	userIDs := distinctUsers(batch)
	if len(userIDs) == 0 {
		return
	}

	if err := w.apply(ctx, userIDs); err != nil {
		w.log.Warn().Err(err).Msg("bulk ranking update failed, using fallback")

		for _, id := range userIDs {
			if err := w.apply(ctx, []int{id}); err != nil {
				w.log.Error().Err(err).Int("user_id", id).Msg("ranking update failed, requeueing")
				raw, _ := json.Marshal(model.RankingEvent{UserID: id})
				w.rdb.RPush(ctx, config.WorkerKey.PersistRankingsQueue, raw)
			}
		}
	}

	if err := w.board.PublishUpdate(ctx, userIDs); err != nil {
		w.log.Warn().Err(err).Msg("Failed to publish ranking update")
	}
}

func (w *RankingWorker) apply(ctx context.Context, userIDs []int) error {
	totals, err := w.source.AggregateForUsers(ctx, userIDs)
	if err != nil {
		return err
	}
	return w.board.ApplyTotals(ctx, totals)
}

func distinctUsers(batch []model.RankingEvent) []int {
	ids := make([]int, 0, len(batch))
	for _, ev := range batch {
		if ev.UserID > 0 {
			ids = append(ids, ev.UserID)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}
