package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exquiz-backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListBySet retrieves every question of one set, ordered by order_num.
// The returned records include the correct answer and must not be sent to students as-is.
func (r *QuestionRepository) ListBySet(ctx context.Context, subjectID int, semester model.Semester, setNumber int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, subject_id, question_text, options, correct_answer, semester, set_number,
		        difficulty, explanation, order_num, created_at, updated_at
		 FROM questions
		 WHERE subject_id = $1 AND semester = $2 AND set_number = $3
		 ORDER BY order_num, id`, subjectID, int(semester), setNumber,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var sem int16
		if err := rows.Scan(
			&q.ID, &q.SubjectID, &q.QuestionText, &q.Options, &q.CorrectAnswer, &sem, &q.SetNumber,
			&q.Difficulty, &q.Explanation, &q.OrderNum, &q.CreatedAt, &q.UpdatedAt,
		); err != nil {
			return nil, err
		}
		q.Semester = model.Semester(sem)
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ListSets returns the available sets of a subject in one semester.
func (r *QuestionRepository) ListSets(ctx context.Context, subjectID int, semester model.Semester) ([]model.SetSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT set_number, COUNT(*)
		 FROM questions
		 WHERE subject_id = $1 AND semester = $2
		 GROUP BY set_number
		 ORDER BY set_number`, subjectID, int(semester),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []model.SetSummary
	for rows.Next() {
		var s model.SetSummary
		if err := rows.Scan(&s.SetNumber, &s.QuestionCount); err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}

// ReplaceSet atomically swaps the questions of one set. Used by the seed tool.
func (r *QuestionRepository) ReplaceSet(ctx context.Context, subjectID int, semester model.Semester, setNumber int, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM questions WHERE subject_id = $1 AND semester = $2 AND set_number = $3`,
		subjectID, int(semester), setNumber,
	); err != nil {
		return err
	}

	rows := make([][]any, len(questions))
	for i := range questions {
		q := &questions[i]
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
		rows[i] = []any{
			q.ID, subjectID, q.QuestionText, q.Options, q.CorrectAnswer, int16(semester), setNumber,
			string(q.Difficulty), q.Explanation, q.OrderNum,
		}
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"questions"},
		[]string{"id", "subject_id", "question_text", "options", "correct_answer", "semester", "set_number", "difficulty", "explanation", "order_num"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
