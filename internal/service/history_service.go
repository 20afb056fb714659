package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/exquiz-backend/internal/model"
)

// HistoryService reads a user's recorded results.
type HistoryService struct {
	results ResultStore
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(results ResultStore) *HistoryService {
	return &HistoryService{results: results}
}

// GetHistory returns the user's result summaries, newest first.
func (s *HistoryService) GetHistory(ctx context.Context, userID int) ([]model.TestResultSummary, error) {
	summaries, err := s.results.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	if summaries == nil {
		summaries = []model.TestResultSummary{}
	}
	return summaries, nil
}

// GetDetail returns one full result. A result owned by someone else is ErrResultForbidden,
// not ErrResultNotFound.
func (s *HistoryService) GetDetail(ctx context.Context, userID int, resultID uuid.UUID) (*model.TestResult, error) {
	res, err := s.results.GetByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	if res.UserID != userID {
		return nil, ErrResultForbidden
	}
	return res, nil
}
