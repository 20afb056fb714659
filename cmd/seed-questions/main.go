package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/stemsi/exquiz-backend/internal/config"
	"github.com/stemsi/exquiz-backend/internal/database"
	"github.com/stemsi/exquiz-backend/internal/logger"
	"github.com/stemsi/exquiz-backend/internal/model"
	"github.com/stemsi/exquiz-backend/internal/repository"
	"github.com/stemsi/exquiz-backend/internal/seed"
	"github.com/stemsi/exquiz-backend/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		file      string
		dryRun    bool
		skipCache bool
	)

	cmd := &cobra.Command{
		Use:          "seed-questions",
		Short:        "Load a YAML question bank into PostgreSQL",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), file, dryRun, skipCache)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "seeds/sample_bank.yaml", "question bank file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without writing")
	cmd.Flags().BoolVar(&skipCache, "skip-cache", false, "do not invalidate cached question sets in Redis")
	return cmd
}

func run(parent context.Context, file string, dryRun, skipCache bool) error {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	bank, err := seed.Load(f)
	if err != nil {
		return err
	}
	if err := bank.Validate(); err != nil {
		return fmt.Errorf("invalid question bank:\n%w", err)
	}
	if dryRun {
		fmt.Println("Question bank is valid")
		return nil
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	defer pool.Close()

	w := &repoWriter{
		classes:   repository.NewClassRepository(pool),
		subjects:  repository.NewSubjectRepository(pool),
		questions: repository.NewQuestionRepository(pool),
	}

	var onSet seed.SetWritten
	if !skipCache {
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("connect to Redis (use --skip-cache to seed without it): %w", err)
		}
		defer rdb.Close()

		subjectService := service.NewSubjectService(w.subjects, service.NewClassService(w.classes), log)
		questionService := service.NewQuestionService(w.questions, subjectService, rdb, cfg, log)
		onSet = func(ctx context.Context, subjectID int, semester model.Semester, setNumber int) {
			if err := questionService.InvalidateSet(ctx, subjectID, semester, setNumber); err != nil {
				log.Warn().Err(err).Int("subject_id", subjectID).Msg("Failed to invalidate cached set")
			}
		}
	}

	fmt.Println("=== Seeding question bank ===")
	st, err := seed.Apply(ctx, bank, w, onSet, log)
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d classes, %d subjects, %d sets, %d questions\n", st.Classes, st.Subjects, st.Sets, st.Questions)
	return nil
}

type repoWriter struct {
	classes   *repository.ClassRepository
	subjects  *repository.SubjectRepository
	questions *repository.QuestionRepository
}

func (w *repoWriter) UpsertClass(ctx context.Context, c *model.Class) error {
	return w.classes.Upsert(ctx, c)
}

func (w *repoWriter) UpsertSubject(ctx context.Context, s *model.Subject) error {
	return w.subjects.Upsert(ctx, s)
}

func (w *repoWriter) ReplaceSet(ctx context.Context, subjectID int, semester model.Semester, setNumber int, questions []model.Question) error {
	return w.questions.ReplaceSet(ctx, subjectID, semester, setNumber, questions)
}
