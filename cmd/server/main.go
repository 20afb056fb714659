package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exquiz-backend/internal/config"
	"github.com/stemsi/exquiz-backend/internal/database"
	"github.com/stemsi/exquiz-backend/internal/handler"
	"github.com/stemsi/exquiz-backend/internal/logger"
	"github.com/stemsi/exquiz-backend/internal/repository"
	"github.com/stemsi/exquiz-backend/internal/router"
	"github.com/stemsi/exquiz-backend/internal/service"
	"github.com/stemsi/exquiz-backend/internal/validator"
	"github.com/stemsi/exquiz-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting ExQuiz Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	classRepo := repository.NewClassRepository(pool)
	subjectRepo := repository.NewSubjectRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	resultRepo := repository.NewTestResultRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	classService := service.NewClassService(classRepo)
	subjectService := service.NewSubjectService(subjectRepo, classService, log)
	questionService := service.NewQuestionService(questionRepo, subjectService, rdb, cfg, log)
	rankingService := service.NewRankingService(resultRepo, rdb, cfg, log)
	submissionService := service.NewSubmissionService(subjectService, questionService, resultRepo, rankingService, cfg, log)
	historyService := service.NewHistoryService(resultRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Class:    handler.NewClassHandler(classService, subjectService),
		Subject:  handler.NewSubjectHandler(subjectService),
		Question: handler.NewQuestionHandler(questionService),
		Test:     handler.NewTestHandler(submissionService, historyService),
		Ranking:  handler.NewRankingHandler(rankingService),
		WS:       handler.NewWSHandler(rankingService, log, cfg.AllowedOrigins),
		System:   handler.NewSystemHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	rankingWorker := worker.NewRankingWorker(resultRepo, rankingService, rdb, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		rankingWorker.Start(workerCtx)
	}()

	// ─── Prewarm Ranking Board ────────────────────────────────────────
	if err := rankingService.Rebuild(ctx); err != nil {
		log.Warn().Err(err).Msg("Ranking board prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, rdb, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the last batch to flush.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
