package service

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stemsi/exquiz-backend/internal/model"
)

// DefaultPointsPerCorrect is the fixed value of one correct answer. Scores are not
// normalised by set length, so sets of different sizes score on different scales.
var DefaultPointsPerCorrect = decimal.RequireFromString("0.25")

// ScoreDecimals is the precision of the stored score column. Points per correct answer
// may not carry more digits than this.
const ScoreDecimals = 4

// Grade is the outcome of grading one attempt against the authoritative set.
type Grade struct {
	Questions    []model.GradedQuestion
	CorrectCount int
	Score        decimal.Decimal
	// Ignored lists answered question IDs that are not part of the set, sorted.
	Ignored []uuid.UUID
}

// GradeQuestions grades answers against the authoritative questions in their stored order.
// It reads nothing but its arguments, so identical inputs always yield identical output.
//
// A question missing from answers is unanswered and never correct. An answer index outside
// the question's options is a *ValidationError; a question whose own key is out of range
// wraps ErrUpstreamData.
func GradeQuestions(questions []model.Question, answers map[uuid.UUID]int, pointsPerCorrect decimal.Decimal) (*Grade, error) {
	g := &Grade{
		Questions: make([]model.GradedQuestion, 0, len(questions)),
	}

	known := make(map[uuid.UUID]struct{}, len(questions))
	var invalid map[string]string

	for i := range questions {
		q := &questions[i]
		known[q.ID] = struct{}{}

		if err := q.ValidateKey(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUpstreamData, err)
		}

		entry := model.GradedQuestion{
			QuestionID:    q.ID,
			QuestionText:  q.QuestionText,
			Options:       slices.Clone(q.Options),
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}

		if picked, ok := answers[q.ID]; ok {
			if picked < 0 || picked >= len(q.Options) {
				if invalid == nil {
					invalid = make(map[string]string)
				}
				invalid["answers."+q.ID.String()] = fmt.Sprintf("option index must be between 0 and %d", len(q.Options)-1)
				continue
			}
			answer := picked
			entry.UserAnswer = &answer
			entry.IsCorrect = picked == q.CorrectAnswer
		}

		if entry.IsCorrect {
			g.CorrectCount++
		}
		g.Questions = append(g.Questions, entry)
	}

	if invalid != nil {
		return nil, &ValidationError{Fields: invalid}
	}

	for id := range answers {
		if _, ok := known[id]; !ok {
			g.Ignored = append(g.Ignored, id)
		}
	}
	slices.SortFunc(g.Ignored, func(a, b uuid.UUID) int {
		return slices.Compare(a[:], b[:])
	})

	g.Score = pointsPerCorrect.Mul(decimal.NewFromInt(int64(g.CorrectCount)))
	return g, nil
}
