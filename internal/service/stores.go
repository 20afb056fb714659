package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/exquiz-backend/internal/model"
	"github.com/stemsi/exquiz-backend/internal/repository"
)

// The services depend on these narrow views of the repositories so they can be
// exercised against in-memory fakes. Implementations return pgx.ErrNoRows for
// missing single rows.

type ClassStore interface {
	GetByID(ctx context.Context, id int) (*model.Class, error)
	List(ctx context.Context) ([]model.Class, error)
}

type SubjectStore interface {
	GetByID(ctx context.Context, id int) (*model.Subject, error)
	ListByClass(ctx context.Context, classID int) ([]model.Subject, error)
}

type QuestionStore interface {
	ListBySet(ctx context.Context, subjectID int, semester model.Semester, setNumber int) ([]model.Question, error)
	ListSets(ctx context.Context, subjectID int, semester model.Semester) ([]model.SetSummary, error)
}

type ResultStore interface {
	Create(ctx context.Context, res *model.TestResult) error
	ListByUser(ctx context.Context, userID int) ([]model.TestResultSummary, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.TestResult, error)
}

type ScoreAggregator interface {
	AggregateByUser(ctx context.Context) ([]repository.UserScoreTotals, error)
	AggregateForUsers(ctx context.Context, userIDs []int) ([]repository.UserScoreTotals, error)
}

var (
	_ ClassStore      = (*repository.ClassRepository)(nil)
	_ SubjectStore    = (*repository.SubjectRepository)(nil)
	_ QuestionStore   = (*repository.QuestionRepository)(nil)
	_ ResultStore     = (*repository.TestResultRepository)(nil)
	_ ScoreAggregator = (*repository.TestResultRepository)(nil)
)
