package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/tradingdiary/backend/internal/api/request"
	"github.com/tradingdiary/backend/internal/apperrors"
	"github.com/tradingdiary/backend/internal/model"
	"github.com/tradingdiary/backend/internal/repository"
)

// RateChangeService handles the central-bank rate change history. The history
// is a single server-persisted list; every interest calculation receives it
// as an explicit read-only slice.
type RateChangeService struct {
	rateChangeRepo *repository.RateChangeRepository
}

// NewRateChangeService creates a new RateChangeService with the provided repository dependencies.
func NewRateChangeService(rateChangeRepo *repository.RateChangeRepository) *RateChangeService {
	return &RateChangeService{rateChangeRepo: rateChangeRepo}
}

// GetRateChanges returns the rate change history sorted by date ascending.
// A partially corrupt history is logged and the decodable rows are returned;
// this keeps calculations running while making corruption visible, unlike an
// intentionally empty history.
func (s *RateChangeService) GetRateChanges() ([]model.RateChange, error) {
	changes, err := s.rateChangeRepo.GetRateChanges()
	if err != nil {
		if errors.Is(err, apperrors.ErrCorruptRateHistory) {
			log.Printf("rate change history partially corrupt: %v", err)
			return changes, nil
		}
		return nil, err
	}
	return changes, nil
}

// CreateRateChange records a new rate change.
func (s *RateChangeService) CreateRateChange(ctx context.Context, req request.CreateRateChangeRequest) (*model.RateChange, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, err
	}

	rc := &model.RateChange{
		ID:        uuid.New().String(),
		Date:      date,
		Rate:      req.Rate,
		Reason:    req.Reason,
		CreatedAt: time.Now(),
	}

	if err := s.rateChangeRepo.InsertRateChange(ctx, rc); err != nil {
		return nil, err
	}

	return rc, nil
}

// DeleteRateChange removes a rate change by ID.
func (s *RateChangeService) DeleteRateChange(ctx context.Context, id string) error {
	return s.rateChangeRepo.DeleteRateChange(ctx, id)
}
