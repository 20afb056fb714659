package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exquiz-backend/internal/config"
	"github.com/stemsi/exquiz-backend/internal/model"
	"golang.org/x/sync/singleflight"
)

// QuestionService serves question sets. The student payload is cached in Redis
// without correct answers; grading always reads the authoritative rows from PostgreSQL.
type QuestionService struct {
	questionRepo    QuestionStore
	subjects        *SubjectService
	rdb             *redis.Client
	ttl             time.Duration
	durationSeconds int
	sf              singleflight.Group
	log             zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo QuestionStore, subjects *SubjectService, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questionRepo:    questionRepo,
		subjects:        subjects,
		rdb:             rdb,
		ttl:             cfg.QuestionCacheTTL,
		durationSeconds: cfg.TestDurationSeconds,
		log:             log.With().Str("component", "question_service").Logger(),
	}
}

func validateSetParams(semester model.Semester, setNumber int) error {
	if !semester.Valid() {
		return ErrInvalidSemester
	}
	if setNumber < 1 {
		return ErrInvalidSetNumber
	}
	return nil
}

// FetchQuestionSet returns the concealed question set for a student.
func (s *QuestionService) FetchQuestionSet(ctx context.Context, subjectID int, semester model.Semester, setNumber int) (*model.QuestionSetPayload, error) {
	if err := validateSetParams(semester, setNumber); err != nil {
		return nil, err
	}

	key := config.CacheKey.QuestionSetPayloadKey(subjectID, int(semester), setNumber)
	if payload, ok := s.readCache(ctx, key); ok {
		return payload, nil
	}

	// Waiters share this fill, so it must outlive the caller that started it.
	fillCtx := context.WithoutCancel(ctx)
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		ctx := fillCtx
		if payload, ok := s.readCache(ctx, key); ok {
			return payload, nil
		}

		if _, err := s.subjects.GetByID(ctx, subjectID); err != nil {
			return nil, err
		}

		questions, err := s.questionRepo.ListBySet(ctx, subjectID, semester, setNumber)
		if err != nil {
			return nil, fmt.Errorf("list questions: %w", err)
		}
		if len(questions) == 0 {
			return nil, ErrQuestionSetNotFound
		}

		payload := &model.QuestionSetPayload{
			SubjectID:       subjectID,
			Semester:        semester,
			SetNumber:       setNumber,
			DurationSeconds: s.durationSeconds,
			Questions:       make([]model.QuestionForStudent, 0, len(questions)),
		}
		for i := range questions {
			payload.Questions = append(payload.Questions, questions[i].ForStudent())
		}

		s.writeCache(ctx, key, payload)
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.QuestionSetPayload), nil
}

// LoadAuthoritativeSet reads the question set, answer key included, straight from PostgreSQL.
// Every record is checked for a gradable key; a bad record yields ErrUpstreamData.
func (s *QuestionService) LoadAuthoritativeSet(ctx context.Context, subjectID int, semester model.Semester, setNumber int) ([]model.Question, error) {
	if err := validateSetParams(semester, setNumber); err != nil {
		return nil, err
	}

	questions, err := s.questionRepo.ListBySet(ctx, subjectID, semester, setNumber)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	for i := range questions {
		if err := questions[i].ValidateKey(); err != nil {
			s.log.Error().Err(err).
				Int("subject_id", subjectID).
				Int("semester", int(semester)).
				Int("set_number", setNumber).
				Msg("Question record is not gradable")
			return nil, fmt.Errorf("%w: %w", ErrUpstreamData, err)
		}
	}
	return questions, nil
}

// ListSets returns the sets available for a subject in one semester.
func (s *QuestionService) ListSets(ctx context.Context, subjectID int, semester model.Semester) ([]model.SetSummary, error) {
	if !semester.Valid() {
		return nil, ErrInvalidSemester
	}
	if _, err := s.subjects.GetByID(ctx, subjectID); err != nil {
		return nil, err
	}

	sets, err := s.questionRepo.ListSets(ctx, subjectID, semester)
	if err != nil {
		return nil, err
	}
	if sets == nil {
		sets = []model.SetSummary{}
	}
	return sets, nil
}

// InvalidateSet drops the cached payload of one set.
func (s *QuestionService) InvalidateSet(ctx context.Context, subjectID int, semester model.Semester, setNumber int) error {
	return s.rdb.Del(ctx, config.CacheKey.QuestionSetPayloadKey(subjectID, int(semester), setNumber)).Err()
}

func (s *QuestionService) readCache(ctx context.Context, key string) (*model.QuestionSetPayload, bool) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("key", key).Msg("Question cache read failed, falling back to database")
		}
		return nil, false
	}

	var payload model.QuestionSetPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Discarding corrupt question cache entry")
		return nil, false
	}
	return &payload, true
}

func (s *QuestionService) writeCache(ctx context.Context, key string, payload *model.QuestionSetPayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to marshal question payload")
		return
	}
	if err := s.rdb.Set(ctx, key, data, s.ttlWithJitter()).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to cache question payload")
		return
	}
	s.log.Debug().Str("key", key).Int("questions", len(payload.Questions)).Msg("Question set cached")
}

func (s *QuestionService) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(rand.Int64N(jitterMax+1))
}
