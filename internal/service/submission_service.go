package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stemsi/exquiz-backend/internal/config"
	"github.com/stemsi/exquiz-backend/internal/model"
)

// RankingQueue receives an event for every recorded result.
type RankingQueue interface {
	Enqueue(ctx context.Context, ev model.RankingEvent) error
}

// SubmissionService grades submitted attempts against the authoritative question set
// and records them. Correctness fields sent by the client are never read.
type SubmissionService struct {
	subjects         *SubjectService
	questions        *QuestionService
	results          ResultStore
	rankings         RankingQueue
	pointsPerCorrect decimal.Decimal
	log              zerolog.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	subjects *SubjectService,
	questions *QuestionService,
	results ResultStore,
	rankings RankingQueue,
	cfg *config.Config,
	log zerolog.Logger,
) *SubmissionService {
	l := log.With().Str("component", "submission_service").Logger()

	points, err := decimal.NewFromString(cfg.PointsPerCorrect)
	if err != nil || points.IsNegative() || !points.Equal(points.Round(ScoreDecimals)) {
		l.Warn().Str("value", cfg.PointsPerCorrect).Msg("Invalid POINTS_PER_CORRECT, using default")
		points = DefaultPointsPerCorrect
	}

	return &SubmissionService{
		subjects:         subjects,
		questions:        questions,
		results:          results,
		rankings:         rankings,
		pointsPerCorrect: points,
		log:              l,
	}
}

// Submit grades req for userID and stores the result. Nothing is stored unless every
// step succeeds, and a failed write is reported as ErrPersistence.
func (s *SubmissionService) Submit(ctx context.Context, userID int, req *model.SubmitTestRequest) (*model.TestResult, error) {
	answers, verr := validateSubmission(req)
	if verr != nil {
		return nil, verr
	}

	semester := model.Semester(req.Semester)

	subject, err := s.subjects.GetByID(ctx, req.SubjectID)
	if err != nil {
		return nil, err
	}

	questions, err := s.questions.LoadAuthoritativeSet(ctx, req.SubjectID, semester, req.SetNumber)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrQuestionBankEmpty
	}

	grade, err := GradeQuestions(questions, answers, s.pointsPerCorrect)
	if err != nil {
		return nil, err
	}
	if len(grade.Ignored) > 0 {
		s.log.Warn().
			Int("user_id", userID).
			Int("subject_id", req.SubjectID).
			Int("ignored", len(grade.Ignored)).
			Msg("Submission answered questions outside the set, ignoring them")
	}

	result := &model.TestResult{
		UserID:         userID,
		SubjectID:      subject.ID,
		SubjectName:    subject.Name,
		ClassID:        subject.ClassID,
		ClassName:      subject.ClassName,
		Semester:       semester,
		SetNumber:      req.SetNumber,
		CorrectCount:   grade.CorrectCount,
		Score:          grade.Score.InexactFloat64(),
		TotalQuestions: len(grade.Questions),
		TimeSpent:      req.TimeSpent,
		Questions:      grade.Questions,
	}

	if err := s.results.Create(ctx, result); err != nil {
		s.log.Error().Err(err).Int("user_id", userID).Msg("Failed to record test result")
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.log.Info().
		Int("user_id", userID).
		Str("result_id", result.ID.String()).
		Int("correct", result.CorrectCount).
		Int("total", result.TotalQuestions).
		Msg("Test submitted")

	if s.rankings != nil {
		if err := s.rankings.Enqueue(ctx, model.RankingEvent{UserID: userID, Score: result.Score}); err != nil {
			s.log.Warn().Err(err).Int("user_id", userID).Msg("Failed to queue ranking update")
		}
	}

	return result, nil
}

// validateSubmission checks the request shape and converts the answer keys to question IDs.
func validateSubmission(req *model.SubmitTestRequest) (map[uuid.UUID]int, error) {
	if req == nil {
		return nil, newValidationError("body", "request body is required")
	}

	fields := make(map[string]string)
	if req.SubjectID <= 0 {
		fields["subject_id"] = "subject_id must be a positive integer"
	}
	if !model.Semester(req.Semester).Valid() {
		fields["semester"] = "semester must be 1 or 2"
	}
	if req.SetNumber < 1 {
		fields["set_number"] = "set_number must be at least 1"
	}
	if req.TimeSpent < 0 {
		fields["time_spent"] = "time_spent must not be negative"
	}
	if req.Answers == nil {
		fields["answers"] = "answers is required"
	}

	answers := make(map[uuid.UUID]int, len(req.Answers))
	for key, option := range req.Answers {
		id, err := uuid.Parse(key)
		if err != nil {
			fields["answers."+key] = "answer key must be a question id"
			continue
		}
		if option < 0 {
			fields["answers."+key] = "option index must not be negative"
			continue
		}
		answers[id] = option
	}

	for i, q := range req.QuestionSet {
		if _, err := uuid.Parse(q.QuestionID); err != nil {
			fields[fmt.Sprintf("question_set[%d].question_id", i)] = "question_id must be a uuid"
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	return answers, nil
}

// IsValidation reports whether err is a *ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
