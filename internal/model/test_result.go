package model

import (
	"time"

	"github.com/google/uuid"
)

// GradedQuestion is one question's permanent post-submission record.
// UserAnswer is nil when the question was left unanswered.
type GradedQuestion struct {
	QuestionID    uuid.UUID `json:"question_id"`
	QuestionText  string    `json:"question_text"`
	Options       []string  `json:"options"`
	CorrectAnswer int       `json:"correct_answer"`
	UserAnswer    *int      `json:"user_answer"`
	IsCorrect     bool      `json:"is_correct"`
	Explanation   string    `json:"explanation,omitempty"`
}

// TestResult is the immutable, server-graded record of one submission.
type TestResult struct {
	ID             uuid.UUID        `json:"id"`
	UserID         int              `json:"user_id"`
	SubjectID      int              `json:"subject_id"`
	SubjectName    string           `json:"subject_name"`
	ClassID        int              `json:"class_id"`
	ClassName      string           `json:"class_name"`
	Semester       Semester         `json:"semester"`
	SetNumber      int              `json:"set_number"`
	CorrectCount   int              `json:"correct_count"`
	Score          float64          `json:"score"`
	TotalQuestions int              `json:"total_questions"`
	TimeSpent      int              `json:"time_spent"`
	SubmittedAt    time.Time        `json:"submitted_at"`
	Questions      []GradedQuestion `json:"questions"`
}

// AnsweredCount returns how many graded questions carry a user answer.
func (r *TestResult) AnsweredCount() int {
	n := 0
	for i := range r.Questions {
		if r.Questions[i].UserAnswer != nil {
			n++
		}
	}
	return n
}

// Summary drops the per-question snapshot for history listings.
func (r *TestResult) Summary() TestResultSummary {
	return TestResultSummary{
		ID:             r.ID,
		SubjectID:      r.SubjectID,
		SubjectName:    r.SubjectName,
		ClassID:        r.ClassID,
		ClassName:      r.ClassName,
		Semester:       r.Semester,
		SetNumber:      r.SetNumber,
		CorrectCount:   r.CorrectCount,
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		TimeSpent:      r.TimeSpent,
		SubmittedAt:    r.SubmittedAt,
	}
}

// TestResultSummary is a history row without the graded question snapshot.
type TestResultSummary struct {
	ID             uuid.UUID `json:"id"`
	SubjectID      int       `json:"subject_id"`
	SubjectName    string    `json:"subject_name"`
	ClassID        int       `json:"class_id"`
	ClassName      string    `json:"class_name"`
	Semester       Semester  `json:"semester"`
	SetNumber      int       `json:"set_number"`
	CorrectCount   int       `json:"correct_count"`
	Score          float64   `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	TimeSpent      int       `json:"time_spent"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// SubmitTestRequest is the payload for submitting a finished attempt.
// Answers are keyed by question ID, never by position.
type SubmitTestRequest struct {
	SubjectID   int                 `json:"subject_id" binding:"required,min=1"`
	Semester    int                 `json:"semester" binding:"required,semester"`
	SetNumber   int                 `json:"set_number" binding:"required,min=1"`
	Answers     map[string]int      `json:"answers" binding:"required,dive,keys,uuid,endkeys,min=0"`
	QuestionSet []SubmittedQuestion `json:"question_set" binding:"omitempty,dive"`
	TimeSpent   int                 `json:"time_spent" binding:"min=0"`
}

// SubmittedQuestion is the client's copy of a question it displayed.
// It is advisory only: grading never reads CorrectAnswer or IsCorrect.
type SubmittedQuestion struct {
	QuestionID    string   `json:"question_id" binding:"required,uuid"`
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correct_answer,omitempty"`
	UserAnswer    *int     `json:"user_answer,omitempty"`
	IsCorrect     *bool    `json:"is_correct,omitempty"`
}

// SubmitTestResponse is returned synchronously after a successful submission.
type SubmitTestResponse struct {
	ResultID       uuid.UUID        `json:"result_id"`
	Score          float64          `json:"score"`
	CorrectCount   int              `json:"correct_count"`
	TotalQuestions int              `json:"total_questions"`
	Questions      []GradedQuestion `json:"questions"`
	TimeSpent      int              `json:"time_spent"`
	SubmittedAt    time.Time        `json:"submitted_at"`
}

// NewSubmitTestResponse builds the response payload from a stored result.
func NewSubmitTestResponse(r *TestResult) SubmitTestResponse {
	return SubmitTestResponse{
		ResultID:       r.ID,
		Score:          r.Score,
		CorrectCount:   r.CorrectCount,
		TotalQuestions: r.TotalQuestions,
		Questions:      r.Questions,
		TimeSpent:      r.TimeSpent,
		SubmittedAt:    r.SubmittedAt,
	}
}
