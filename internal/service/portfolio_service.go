package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/tradingdiary/backend/internal/api/request"
	"github.com/tradingdiary/backend/internal/model"
	"github.com/tradingdiary/backend/internal/repository"
)

// PortfolioService handles portfolio business logic.
type PortfolioService struct {
	portfolioRepo   *repository.PortfolioRepository
	snapshotService *SnapshotService
}

// NewPortfolioService creates a new PortfolioService with the provided dependencies.
func NewPortfolioService(portfolioRepo *repository.PortfolioRepository, snapshotService *SnapshotService) *PortfolioService {
	return &PortfolioService{portfolioRepo: portfolioRepo, snapshotService: snapshotService}
}

// GetAllPortfolios retrieves portfolios, excluding archived ones unless asked.
func (s *PortfolioService) GetAllPortfolios(includeArchived bool) ([]model.Portfolio, error) {
	return s.portfolioRepo.GetPortfolios(model.PortfolioFilter{IncludeArchived: includeArchived})
}

// GetPortfolio retrieves a single portfolio by ID.
func (s *PortfolioService) GetPortfolio(portfolioID string) (model.Portfolio, error) {
	return s.portfolioRepo.GetPortfolioOnID(portfolioID)
}

// CreatePortfolio creates a new portfolio. Currency defaults to RUB, the
// denomination the rate history applies to.
func (s *PortfolioService) CreatePortfolio(ctx context.Context, req request.CreatePortfolioRequest) (*model.Portfolio, error) {
	p := &model.Portfolio{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Currency:    req.Currency,
	}
	if p.Currency == "" {
		p.Currency = "RUB"
	}

	if err := s.portfolioRepo.InsertPortfolio(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPortfolioHistory returns the daily valuation history for a portfolio,
// snapshot-backed with on-demand fallback.
func (s *PortfolioService) GetPortfolioHistory(ctx context.Context, portfolioID, startDate, endDate string) ([]model.PortfolioHistoryPoint, error) {
	if _, err := s.portfolioRepo.GetPortfolioOnID(portfolioID); err != nil {
		return nil, err
	}
	return s.snapshotService.GetHistory(ctx, portfolioID, startDate, endDate)
}
