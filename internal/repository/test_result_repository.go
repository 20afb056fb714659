package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exquiz-backend/internal/model"
)

// TestResultRepository persists graded attempts. Rows are append-only:
// the schema rejects UPDATE and DELETE on both tables.
type TestResultRepository struct {
	pool *pgxpool.Pool
}

// NewTestResultRepository creates a new TestResultRepository.
func NewTestResultRepository(pool *pgxpool.Pool) *TestResultRepository {
	return &TestResultRepository{pool: pool}
}

// Create stores the result header and every graded question in one transaction.
// ID and SubmittedAt are assigned by the database and written back into r.
func (r *TestResultRepository) Create(ctx context.Context, res *model.TestResult) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO test_results
		   (user_id, subject_id, subject_name, class_id, class_name, semester, set_number,
		    correct_count, score, total_questions, time_spent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, submitted_at`,
		res.UserID, res.SubjectID, res.SubjectName, res.ClassID, res.ClassName, int16(res.Semester), res.SetNumber,
		res.CorrectCount, res.Score, res.TotalQuestions, res.TimeSpent,
	).Scan(&res.ID, &res.SubmittedAt)
	if err != nil {
		return err
	}

	rows := make([][]any, len(res.Questions))
	for i, q := range res.Questions {
		var userAnswer *int32
		if q.UserAnswer != nil {
			v := int32(*q.UserAnswer)
			userAnswer = &v
		}
		rows[i] = []any{
			res.ID, int32(i), q.QuestionID, q.QuestionText, q.Options, int32(q.CorrectAnswer),
			userAnswer, q.IsCorrect, q.Explanation,
		}
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"test_result_questions"},
		[]string{"result_id", "position", "question_id", "question_text", "options", "correct_answer", "user_answer", "is_correct", "explanation"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListByUser returns the user's result headers, newest first.
func (r *TestResultRepository) ListByUser(ctx context.Context, userID int) ([]model.TestResultSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, subject_id, subject_name, class_id, class_name, semester, set_number,
		        correct_count, score::float8, total_questions, time_spent, submitted_at
		 FROM test_results
		 WHERE user_id = $1
		 ORDER BY submitted_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []model.TestResultSummary{}
	for rows.Next() {
		var s model.TestResultSummary
		var sem int16
		if err := rows.Scan(
			&s.ID, &s.SubjectID, &s.SubjectName, &s.ClassID, &s.ClassName, &sem, &s.SetNumber,
			&s.CorrectCount, &s.Score, &s.TotalQuestions, &s.TimeSpent, &s.SubmittedAt,
		); err != nil {
			return nil, err
		}
		s.Semester = model.Semester(sem)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// GetByID returns one full result with its graded questions in stored order.
// Returns pgx.ErrNoRows when no such result exists.
func (r *TestResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TestResult, error) {
	res := &model.TestResult{}
	var sem int16
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, subject_id, subject_name, class_id, class_name, semester, set_number,
		        correct_count, score::float8, total_questions, time_spent, submitted_at
		 FROM test_results WHERE id = $1`, id,
	).Scan(
		&res.ID, &res.UserID, &res.SubjectID, &res.SubjectName, &res.ClassID, &res.ClassName, &sem, &res.SetNumber,
		&res.CorrectCount, &res.Score, &res.TotalQuestions, &res.TimeSpent, &res.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	res.Semester = model.Semester(sem)

	rows, err := r.pool.Query(ctx,
		`SELECT question_id, question_text, options, correct_answer, user_answer, is_correct, explanation
		 FROM test_result_questions
		 WHERE result_id = $1
		 ORDER BY position`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res.Questions = []model.GradedQuestion{}
	for rows.Next() {
		var q model.GradedQuestion
		var userAnswer *int32
		var correct int32
		if err := rows.Scan(&q.QuestionID, &q.QuestionText, &q.Options, &correct, &userAnswer, &q.IsCorrect, &q.Explanation); err != nil {
			return nil, err
		}
		q.CorrectAnswer = int(correct)
		if userAnswer != nil {
			v := int(*userAnswer)
			q.UserAnswer = &v
		}
		res.Questions = append(res.Questions, q)
	}
	return res, rows.Err()
}

// UserScoreTotals holds the per-user aggregates the ranking board is built from.
type UserScoreTotals struct {
	UserID     int
	TotalScore float64
	TotalTests int
}

// AggregateByUser sums scores and counts attempts per user over the whole history.
func (r *TestResultRepository) AggregateByUser(ctx context.Context) ([]UserScoreTotals, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, COALESCE(SUM(score), 0)::float8, COUNT(*)
		 FROM test_results
		 GROUP BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []UserScoreTotals
	for rows.Next() {
		var t UserScoreTotals
		if err := rows.Scan(&t.UserID, &t.TotalScore, &t.TotalTests); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// AggregateForUsers computes the same totals as AggregateByUser, restricted to userIDs.
func (r *TestResultRepository) AggregateForUsers(ctx context.Context, userIDs []int) ([]UserScoreTotals, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, COALESCE(SUM(score), 0)::float8, COUNT(*)
		 FROM test_results
		 WHERE user_id = ANY($1::int[])
		 GROUP BY user_id`, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []UserScoreTotals
	for rows.Next() {
		var t UserScoreTotals
		if err := rows.Scan(&t.UserID, &t.TotalScore, &t.TotalTests); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
