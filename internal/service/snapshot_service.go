package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/tradingdiary/backend/internal/fifo"
	"github.com/tradingdiary/backend/internal/model"
	"github.com/tradingdiary/backend/internal/repository"
)

// SnapshotService materializes daily spot-portfolio valuations into the
// portfolio_snapshot table. Snapshots are a pure derivation of the
// transaction ledger; they are rebuilt wholesale by the scheduler and
// cleared whenever the ledger changes, so a stale table self-heals on the
// next rebuild or on-demand fallback.
type SnapshotService struct {
	snapshotRepo  *repository.SnapshotRepository
	spotRepo      *repository.SpotTransactionRepository
	portfolioRepo *repository.PortfolioRepository
	priceService  *PriceService
}

// NewSnapshotService creates a new SnapshotService with the provided dependencies.
func NewSnapshotService(
	snapshotRepo *repository.SnapshotRepository,
	spotRepo *repository.SpotTransactionRepository,
	portfolioRepo *repository.PortfolioRepository,
	priceService *PriceService,
) *SnapshotService {
	return &SnapshotService{
		snapshotRepo:  snapshotRepo,
		spotRepo:      spotRepo,
		portfolioRepo: portfolioRepo,
		priceService:  priceService,
	}
}

// ComputePoints derives one snapshot per distinct transaction date for a
// portfolio. Each point is the state after all transactions up to and
// including that date: open lots marked at the current stored price (or
// cost when no price is known), cumulative realized P&L and the running
// cash balance.
func (s *SnapshotService) ComputePoints(ctx context.Context, portfolioID string) ([]model.PortfolioSnapshot, error) {
	transactions, err := s.spotRepo.GetTransactions(portfolioID)
	if err != nil {
		return nil, err
	}
	if len(transactions) == 0 {
		return nil, nil
	}

	tickerSet := make(map[string]struct{})
	for i := range transactions {
		if transactions[i].Ticker != "" {
			tickerSet[transactions[i].Ticker] = struct{}{}
		}
	}
	tickers := make([]string, 0, len(tickerSet))
	for t := range tickerSet {
		tickers = append(tickers, t)
	}
	prices := s.priceService.GetPrices(ctx, tickers)

	calculatedAt := time.Now().UTC().Format(time.RFC3339)
	var snapshots []model.PortfolioSnapshot

	// One pass per date boundary over the ledger prefix. The ledger is
	// ordered by date then insertion, so a prefix is always a valid input.
	for end := 0; end < len(transactions); {
		date := dateOnly(transactions[end].Date)
		for end < len(transactions) && dateOnly(transactions[end].Date).Equal(date) {
			end++
		}
		prefix := transactions[:end]

		result := fifo.Match(prefix)
		summary := fifo.Summarize(result.Matches)

		var marketValue, costBasis float64
		for ticker, lots := range result.OpenLots {
			invested := fifo.Invested(lots)
			costBasis += invested
			if quote, ok := prices[ticker]; ok {
				marketValue += quote.Price * fifo.OpenQuantity(lots)
			} else {
				marketValue += invested
			}
		}

		var cash float64
		for i := range prefix {
			tx := &prefix[i]
			switch tx.Type {
			case model.SpotDeposit, model.SpotSell, model.SpotDividend:
				cash += tx.Amount()
			case model.SpotWithdraw, model.SpotBuy:
				cash -= tx.Amount()
			}
		}

		snapshots = append(snapshots, model.PortfolioSnapshot{
			ID:           uuid.New().String(),
			PortfolioID:  portfolioID,
			Date:         date.Format("2006-01-02"),
			MarketValue:  round(marketValue),
			CostBasis:    round(costBasis),
			CashBalance:  round(cash),
			RealizedPnL:  round(summary.TotalRealizedPnL),
			CalculatedAt: calculatedAt,
		})
	}

	return snapshots, nil
}

// RebuildPortfolio replaces the stored snapshots of one portfolio with a
// fresh computation.
func (s *SnapshotService) RebuildPortfolio(ctx context.Context, portfolioID string) error {
	snapshots, err := s.ComputePoints(ctx, portfolioID)
	if err != nil {
		return fmt.Errorf("failed to compute snapshots for portfolio %s: %w", portfolioID, err)
	}
	return s.snapshotRepo.ReplaceSnapshots(ctx, portfolioID, snapshots)
}

// RebuildAll rebuilds snapshots for every portfolio, archived ones included.
// A portfolio that fails is logged and skipped so one bad ledger does not
// starve the rest.
func (s *SnapshotService) RebuildAll(ctx context.Context) error {
	portfolios, err := s.portfolioRepo.GetPortfolios(model.PortfolioFilter{IncludeArchived: true})
	if err != nil {
		return err
	}
	for _, p := range portfolios {
		if err := s.RebuildPortfolio(ctx, p.ID); err != nil {
			log.Printf("snapshot rebuild failed for portfolio %s: %v", p.ID, err)
		}
	}
	return nil
}

// Invalidate clears the stored snapshots of a portfolio. Called after any
// write to the spot ledger; the history endpoint falls back to on-demand
// computation until the next rebuild.
func (s *SnapshotService) Invalidate(ctx context.Context, portfolioID string) error {
	return s.snapshotRepo.ClearSnapshots(ctx, portfolioID)
}

// GetHistory returns the portfolio history, preferring stored snapshots and
// falling back to an on-demand computation when none are stored yet.
func (s *SnapshotService) GetHistory(ctx context.Context, portfolioID, startDate, endDate string) ([]model.PortfolioHistoryPoint, error) {
	snapshots, err := s.snapshotRepo.GetSnapshots(portfolioID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		snapshots, err = s.ComputePoints(ctx, portfolioID)
		if err != nil {
			return nil, err
		}
		snapshots = filterByDateRange(snapshots, startDate, endDate)
	}

	points := make([]model.PortfolioHistoryPoint, 0, len(snapshots))
	for _, snap := range snapshots {
		points = append(points, model.PortfolioHistoryPoint{
			Date:        snap.Date,
			MarketValue: snap.MarketValue,
			CostBasis:   snap.CostBasis,
			CashBalance: snap.CashBalance,
			RealizedPnL: snap.RealizedPnL,
		})
	}
	return points, nil
}

// filterByDateRange keeps snapshots inside the inclusive [startDate, endDate]
// range; empty bounds are open-ended. Dates compare lexically in YYYY-MM-DD.
func filterByDateRange(snapshots []model.PortfolioSnapshot, startDate, endDate string) []model.PortfolioSnapshot {
	if startDate == "" && endDate == "" {
		return snapshots
	}
	filtered := snapshots[:0]
	for _, snap := range snapshots {
		if startDate != "" && snap.Date < startDate {
			continue
		}
		if endDate != "" && snap.Date > endDate {
			continue
		}
		filtered = append(filtered, snap)
	}
	return filtered
}

// dateOnly truncates a timestamp to its calendar date in UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
