package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exquiz-backend/internal/model"
)

type SubjectService struct {
	subjectRepo SubjectStore
	classes     *ClassService
	log         zerolog.Logger
}

func NewSubjectService(subjectRepo SubjectStore, classes *ClassService, log zerolog.Logger) *SubjectService {
	return &SubjectService{
		subjectRepo: subjectRepo,
		classes:     classes,
		log:         log.With().Str("component", "subject_service").Logger(),
	}
}

// GetByID returns the subject with its class name, or ErrSubjectNotFound.
func (s *SubjectService) GetByID(ctx context.Context, id int) (*model.Subject, error) {
	sub, err := s.subjectRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("get subject: %w", err)
	}
	return sub, nil
}

// ListByClass returns the subjects of a class, or ErrClassNotFound for an unknown class.
func (s *SubjectService) ListByClass(ctx context.Context, classID int) ([]model.Subject, error) {
	if _, err := s.classes.GetByID(ctx, classID); err != nil {
		return nil, err
	}

	subjects, err := s.subjectRepo.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if subjects == nil {
		subjects = []model.Subject{}
	}
	return subjects, nil
}
