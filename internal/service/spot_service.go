package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tradingdiary/backend/internal/api/request"
	"github.com/tradingdiary/backend/internal/fifo"
	"github.com/tradingdiary/backend/internal/model"
	"github.com/tradingdiary/backend/internal/repository"
)

// SpotService handles spot transaction business logic: the transaction
// ledger itself plus the derived views (open positions, FIFO analysis,
// cash flows, statistics). All derived views recompute from the ledger;
// nothing is mutated in place when a transaction changes.
type SpotService struct {
	spotRepo     *repository.SpotTransactionRepository
	priceService *PriceService
}

// NewSpotService creates a new SpotService with the provided dependencies.
func NewSpotService(spotRepo *repository.SpotTransactionRepository, priceService *PriceService) *SpotService {
	return &SpotService{spotRepo: spotRepo, priceService: priceService}
}

// GetTransactions retrieves the spot transaction ledger for a portfolio,
// date ascending.
func (s *SpotService) GetTransactions(portfolioID string) ([]model.SpotTransaction, error) {
	return s.spotRepo.GetTransactions(portfolioID)
}

// GetTransaction retrieves a single spot transaction by ID.
func (s *SpotService) GetTransaction(id string) (model.SpotTransaction, error) {
	return s.spotRepo.GetTransaction(id)
}

// CreateTransaction records a new spot transaction.
func (s *SpotService) CreateTransaction(ctx context.Context, req request.CreateSpotTransactionRequest) (*model.SpotTransaction, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, err
	}

	tx := &model.SpotTransaction{
		ID:          uuid.New().String(),
		PortfolioID: req.PortfolioID,
		Ticker:      req.Ticker,
		Company:     req.Company,
		Type:        req.Type,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Date:        date,
		Note:        req.Note,
		CreatedAt:   time.Now(),
	}

	if err := s.spotRepo.InsertTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

// UpdateTransaction applies the non-nil fields of req to an existing
// transaction. Downstream views pick up the change on their next
// recomputation.
func (s *SpotService) UpdateTransaction(ctx context.Context, id string, req request.UpdateSpotTransactionRequest) (model.SpotTransaction, error) {
	tx, err := s.spotRepo.GetTransaction(id)
	if err != nil {
		return model.SpotTransaction{}, err
	}

	if req.Ticker != nil {
		tx.Ticker = *req.Ticker
	}
	if req.Company != nil {
		tx.Company = *req.Company
	}
	if req.Type != nil {
		tx.Type = *req.Type
	}
	if req.Price != nil {
		tx.Price = *req.Price
	}
	if req.Quantity != nil {
		tx.Quantity = *req.Quantity
	}
	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return model.SpotTransaction{}, err
		}
		tx.Date = date
	}
	if req.Note != nil {
		tx.Note = *req.Note
	}

	if err := s.spotRepo.UpdateTransaction(ctx, &tx); err != nil {
		return model.SpotTransaction{}, err
	}

	return tx, nil
}

// DeleteTransaction removes a spot transaction.
func (s *SpotService) DeleteTransaction(ctx context.Context, id string) error {
	return s.spotRepo.DeleteTransaction(ctx, id)
}

// GetOpenPositions derives the open holdings from the residual FIFO lot
// queues and marks them to market. Tickers without a stored or fetchable
// quote are valued at their average cost and tagged "estimated" so the
// caller can tell a real valuation from a fallback.
func (s *SpotService) GetOpenPositions(ctx context.Context, portfolioID string) ([]model.OpenPosition, error) {
	transactions, err := s.spotRepo.GetTransactions(portfolioID)
	if err != nil {
		return nil, err
	}

	result := fifo.Match(transactions)

	companies := make(map[string]string)
	for _, tx := range transactions {
		if tx.Company != "" {
			companies[tx.Ticker] = tx.Company
		}
	}

	tickers := make([]string, 0, len(result.OpenLots))
	for ticker, lots := range result.OpenLots {
		if fifo.OpenQuantity(lots) > 0 {
			tickers = append(tickers, ticker)
		}
	}
	sort.Strings(tickers)

	prices := s.priceService.GetPrices(ctx, tickers)

	positions := make([]model.OpenPosition, 0, len(tickers))
	for _, ticker := range tickers {
		lots := result.OpenLots[ticker]
		qty := fifo.OpenQuantity(lots)
		avgCost := fifo.AverageCost(lots)

		pos := model.OpenPosition{
			Ticker:       ticker,
			Company:      companies[ticker],
			Quantity:     qty,
			AveragePrice: round(avgCost),
			Invested:     round(fifo.Invested(lots)),
		}

		if quote, ok := prices[ticker]; ok {
			pos.CurrentPrice = quote.Price
			pos.PriceSource = "quoted"
		} else {
			pos.CurrentPrice = avgCost
			pos.PriceSource = "estimated"
		}
		pos.MarketValue = round(pos.CurrentPrice * qty)

		positions = append(positions, pos)
	}

	return positions, nil
}

// FifoAnalysis is the full FIFO matching report for a portfolio, optionally
// narrowed to one ticker.
type FifoAnalysis struct {
	Matches     []fifo.RealizedMatch  `json:"matches"`
	OpenLots    map[string][]fifo.Lot `json:"openLots"`
	Summary     fifo.Summary          `json:"summary"`
	Diagnostics []fifo.Diagnostic     `json:"diagnostics,omitempty"`
}

// GetFifoAnalysis runs FIFO matching over the ledger and returns matches,
// residual lots, totals and any diagnostics. Oversold quantity surfaces as a
// diagnostic rather than failing the whole analysis.
func (s *SpotService) GetFifoAnalysis(portfolioID, ticker string) (FifoAnalysis, error) {
	var (
		transactions []model.SpotTransaction
		err          error
	)
	if ticker != "" {
		transactions, err = s.spotRepo.GetTransactionsByTicker(portfolioID, ticker)
	} else {
		transactions, err = s.spotRepo.GetTransactions(portfolioID)
	}
	if err != nil {
		return FifoAnalysis{}, err
	}

	result := fifo.Match(transactions)

	return FifoAnalysis{
		Matches:     result.Matches,
		OpenLots:    result.OpenLots,
		Summary:     fifo.Summarize(result.Matches),
		Diagnostics: result.Diagnostics,
	}, nil
}

// GetCashFlows folds the ledger into a signed cash flow list with a running
// balance. Deposits, sells and dividends are inflows; withdrawals and buys
// are outflows. Order is chronological with ties broken by insertion order.
func (s *SpotService) GetCashFlows(portfolioID string) ([]model.CashFlow, error) {
	transactions, err := s.spotRepo.GetTransactions(portfolioID)
	if err != nil {
		return nil, err
	}

	flows := make([]model.CashFlow, 0, len(transactions))
	var balance float64
	for i := range transactions {
		tx := &transactions[i]

		var amount float64
		switch tx.Type {
		case model.SpotDeposit, model.SpotSell, model.SpotDividend:
			amount = tx.Amount()
		case model.SpotWithdraw, model.SpotBuy:
			amount = -tx.Amount()
		default:
			continue
		}

		balance += amount
		flows = append(flows, model.CashFlow{
			TransactionID:  tx.ID,
			Date:           tx.Date,
			Type:           tx.Type,
			Ticker:         tx.Ticker,
			Amount:         round(amount),
			RunningBalance: round(balance),
		})
	}

	return flows, nil
}

// CashBalance returns the current cash balance for a portfolio.
func (s *SpotService) CashBalance(portfolioID string) (float64, error) {
	flows, err := s.GetCashFlows(portfolioID)
	if err != nil {
		return 0, err
	}
	if len(flows) == 0 {
		return 0, nil
	}
	return flows[len(flows)-1].RunningBalance, nil
}

// SpotStats is the portfolio-level spot summary: realized results from the
// FIFO matches plus the current open exposure and cash position.
type SpotStats struct {
	Realized      fifo.Summary `json:"realized"`
	OpenPositions int          `json:"openPositions"`
	OpenQuantity  float64      `json:"openQuantity"`
	Invested      float64      `json:"invested"`
	MarketValue   float64      `json:"marketValue"`
	UnrealizedPnL float64      `json:"unrealizedPnl"`
	CashBalance   float64      `json:"cashBalance"`
	Dividends     float64      `json:"dividends"`
}

// GetStats computes the spot statistics for a portfolio in one pass over
// the ledger.
func (s *SpotService) GetStats(ctx context.Context, portfolioID string) (SpotStats, error) {
	transactions, err := s.spotRepo.GetTransactions(portfolioID)
	if err != nil {
		return SpotStats{}, err
	}

	result := fifo.Match(transactions)
	stats := SpotStats{Realized: fifo.Summarize(result.Matches)}

	var balance float64
	for i := range transactions {
		tx := &transactions[i]
		switch tx.Type {
		case model.SpotDeposit, model.SpotSell:
			balance += tx.Amount()
		case model.SpotDividend:
			balance += tx.Amount()
			stats.Dividends += tx.Amount()
		case model.SpotWithdraw, model.SpotBuy:
			balance -= tx.Amount()
		}
	}
	stats.CashBalance = round(balance)
	stats.Dividends = round(stats.Dividends)

	positions, err := s.GetOpenPositions(ctx, portfolioID)
	if err != nil {
		return SpotStats{}, err
	}
	for _, pos := range positions {
		stats.OpenPositions++
		stats.OpenQuantity += pos.Quantity
		stats.Invested += pos.Invested
		stats.MarketValue += pos.MarketValue
	}
	stats.Invested = round(stats.Invested)
	stats.MarketValue = round(stats.MarketValue)
	stats.UnrealizedPnL = round(stats.MarketValue - stats.Invested)

	return stats, nil
}
