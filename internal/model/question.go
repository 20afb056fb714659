package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Semester is one of the two academic terms a question belongs to.
type Semester int

const (
	SemesterOne Semester = 1
	SemesterTwo Semester = 2
)

// Valid reports whether s is one of the two allowed terms.
func (s Semester) Valid() bool {
	return s == SemesterOne || s == SemesterTwo
}

// Difficulty labels how hard a question is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// MinOptions is the smallest number of options a multiple-choice question may have.
const MinOptions = 2

// Question is the authoritative question record.
// CorrectAnswer is excluded from JSON so the record can never leak the key to a client.
type Question struct {
	ID            uuid.UUID  `json:"id"`
	SubjectID     int        `json:"subject_id"`
	QuestionText  string     `json:"question_text"`
	Options       []string   `json:"options"`
	CorrectAnswer int        `json:"-"`
	Semester      Semester   `json:"semester"`
	SetNumber     int        `json:"set_number"`
	Difficulty    Difficulty `json:"difficulty"`
	Explanation   string     `json:"-"`
	OrderNum      int        `json:"order_num"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

var (
	ErrTooFewOptions        = errors.New("question has fewer than two options")
	ErrCorrectAnswerInRange = errors.New("correct answer index out of range")
)

// ValidateKey checks that the record is gradable: at least two options and a
// correct answer index inside the option list.
func (q *Question) ValidateKey() error {
	if len(q.Options) < MinOptions {
		return fmt.Errorf("question %s: %w", q.ID, ErrTooFewOptions)
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("question %s: index %d of %d: %w", q.ID, q.CorrectAnswer, len(q.Options), ErrCorrectAnswerInRange)
	}
	return nil
}

// ForStudent projects the question into its concealed, student-facing form.
func (q *Question) ForStudent() QuestionForStudent {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return QuestionForStudent{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		Options:      options,
		Difficulty:   q.Difficulty,
		OrderNum:     q.OrderNum,
	}
}

// QuestionForStudent is a question without the correct answer, sent to students.
type QuestionForStudent struct {
	ID           uuid.UUID  `json:"id"`
	QuestionText string     `json:"question_text"`
	Options      []string   `json:"options"`
	Difficulty   Difficulty `json:"difficulty,omitempty"`
	OrderNum     int        `json:"order_num"`
}

// QuestionSetPayload is the Redis-cached payload sent to students (no correct answers).
type QuestionSetPayload struct {
	SubjectID       int                  `json:"subject_id"`
	Semester        Semester             `json:"semester"`
	SetNumber       int                  `json:"set_number"`
	DurationSeconds int                  `json:"duration_seconds"`
	Questions       []QuestionForStudent `json:"questions"`
}

// SetSummary describes one fixed question set ("paper") of a subject.
type SetSummary struct {
	SetNumber     int `json:"set_number"`
	QuestionCount int `json:"question_count"`
}
