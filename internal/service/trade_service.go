package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/tradingdiary/backend/internal/api/request"
	"github.com/tradingdiary/backend/internal/apperrors"
	"github.com/tradingdiary/backend/internal/interest"
	"github.com/tradingdiary/backend/internal/model"
	"github.com/tradingdiary/backend/internal/repository"
	"github.com/tradingdiary/backend/internal/validation"
)

// TradeService handles margin-trade business logic: opening trades with
// financing normalization, partial and FIFO closes, and per-trade interest
// details.
type TradeService struct {
	tradeRepo         *repository.TradeRepository
	rateChangeService *RateChangeService
	principalPolicy   interest.PrincipalPolicy
}

// NewTradeService creates a new TradeService with the provided dependencies.
// The principal policy decides whether partial closes shrink the principal
// that accrues interest; the default keeps interest on the original tranche.
func NewTradeService(
	tradeRepo *repository.TradeRepository,
	rateChangeService *RateChangeService,
	principalPolicy interest.PrincipalPolicy,
) *TradeService {
	return &TradeService{
		tradeRepo:         tradeRepo,
		rateChangeService: rateChangeService,
		principalPolicy:   principalPolicy,
	}
}

// GetTrades retrieves all trades for a portfolio, or all trades when
// portfolioID is empty.
func (s *TradeService) GetTrades(portfolioID string) ([]model.Trade, error) {
	return s.tradeRepo.GetTrades(portfolioID)
}

// GetTrade retrieves a single trade by ID.
func (s *TradeService) GetTrade(tradeID string) (model.Trade, error) {
	return s.tradeRepo.GetTrade(tradeID)
}

// CreateTrade opens a margin trade, normalizing the financing fields:
// whichever of leverage, borrowed amount and collateral the caller provides,
// the remaining ones are derived from the position cost. With none provided
// the full position is treated as borrowed.
func (s *TradeService) CreateTrade(ctx context.Context, req request.CreateTradeRequest) (*model.Trade, error) {
	entryDate, err := time.Parse("2006-01-02", req.EntryDate)
	if err != nil {
		return nil, err
	}

	trade := &model.Trade{
		ID:               uuid.New().String(),
		PortfolioID:      req.PortfolioID,
		Symbol:           req.Symbol,
		EntryDate:        entryDate,
		EntryPrice:       req.EntryPrice,
		Quantity:         req.Quantity,
		MarginRate:       req.MarginRate,
		Leverage:         req.Leverage,
		BorrowedAmount:   req.BorrowedAmount,
		CollateralAmount: req.CollateralAmount,
		RateType:         req.RateType,
		Notes:            req.Notes,
		CreatedAt:        time.Now(),
	}

	if req.MaintenanceMargin != nil {
		trade.MaintenanceMargin = *req.MaintenanceMargin
	} else {
		trade.MaintenanceMargin = 20
	}
	if trade.RateType == "" {
		trade.RateType = model.RateTypeFixed
	}

	if err := normalizeFinancing(trade); err != nil {
		return nil, err
	}

	if err := s.tradeRepo.InsertTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}

	return trade, nil
}

// GetFinancingEvents retrieves a trade's financing events ordered by event
// date ascending.
func (s *TradeService) GetFinancingEvents(tradeID string) ([]model.FinancingEvent, error) {
	if _, err := s.tradeRepo.GetTrade(tradeID); err != nil {
		return nil, err
	}
	return s.tradeRepo.GetFinancingEvents(tradeID)
}

// CreateFinancingEvent records a dated change to the trade's financing
// terms. Rate-change events override the trade's rate from their date
// onward; repayments stop interest on the repaid amount from their date
// onward.
func (s *TradeService) CreateFinancingEvent(ctx context.Context, tradeID string, req request.CreateFinancingEventRequest) (*model.FinancingEvent, error) {
	trade, err := s.tradeRepo.GetTrade(tradeID)
	if err != nil {
		return nil, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, err
	}

	ev := &model.FinancingEvent{
		ID:        uuid.New().String(),
		TradeID:   trade.ID,
		EventType: req.EventType,
		Date:      date,
		Amount:    req.Amount,
		Rate:      req.Rate,
		Notes:     req.Notes,
		CreatedAt: time.Now(),
	}

	if err := s.tradeRepo.InsertFinancingEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("failed to create financing event: %w", err)
	}

	return ev, nil
}

// BulkImportTrades opens every importable trade in the batch, typically from
// a broker statement export. Rows are validated and inserted independently:
// a rejected row is reported with its batch position and does not stop the
// rest of the batch.
func (s *TradeService) BulkImportTrades(ctx context.Context, reqs []request.CreateTradeRequest) model.BulkImportReport {
	report := model.BulkImportReport{
		Trades: []model.Trade{},
		Errors: []model.BulkImportRowError{},
	}

	for i, req := range reqs {
		if err := validation.ValidateCreateTrade(req); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, model.BulkImportRowError{Row: i, Error: err.Error()})
			continue
		}

		trade, err := s.CreateTrade(ctx, req)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, model.BulkImportRowError{Row: i, Error: err.Error()})
			continue
		}

		report.Imported++
		report.Trades = append(report.Trades, *trade)
	}

	return report
}

// normalizeFinancing derives the missing financing fields from the ones
// provided, mirroring how the position was actually funded:
//   - leverage given: own funds = cost / leverage, borrowed = cost - own funds
//   - collateral given: borrowed = cost - collateral
//   - neither: the whole position cost is borrowed
//
// Leverage is back-filled from borrowed amount when absent.
func normalizeFinancing(trade *model.Trade) error {
	positionCost := trade.PositionCost()

	if trade.Leverage != nil && *trade.Leverage < 1 {
		return apperrors.ErrInvalidLeverage
	}

	if trade.BorrowedAmount == nil {
		switch {
		case trade.Leverage != nil && *trade.Leverage > 0:
			ownFunds := positionCost / *trade.Leverage
			borrowed := round(math.Max(0, positionCost-ownFunds))
			collateral := round(math.Max(0, ownFunds))
			trade.BorrowedAmount = &borrowed
			trade.CollateralAmount = &collateral
		case trade.CollateralAmount != nil:
			borrowed := round(math.Max(0, positionCost-*trade.CollateralAmount))
			trade.BorrowedAmount = &borrowed
		default:
			borrowed := round(positionCost)
			collateral := 0.0
			trade.BorrowedAmount = &borrowed
			trade.CollateralAmount = &collateral
		}
	} else if trade.CollateralAmount == nil {
		collateral := round(math.Max(0, positionCost-*trade.BorrowedAmount))
		trade.CollateralAmount = &collateral
	}

	if trade.Leverage == nil && trade.BorrowedAmount != nil {
		ownFunds := positionCost - *trade.BorrowedAmount
		if ownFunds > 0 {
			leverage := math.Round(positionCost/ownFunds*10000) / 10000
			trade.Leverage = &leverage
		}
	}

	return nil
}

// UpdateTrade updates the mutable fields of a trade. Only notes are mutable;
// financial fields are fixed at creation and changed through closures.
func (s *TradeService) UpdateTrade(ctx context.Context, tradeID string, req request.UpdateTradeRequest) (model.Trade, error) {
	if req.Notes != nil {
		if err := s.tradeRepo.UpdateTradeNotes(ctx, tradeID, *req.Notes); err != nil {
			return model.Trade{}, err
		}
	}
	return s.tradeRepo.GetTrade(tradeID)
}

// DeleteTrade removes a trade and its closures.
func (s *TradeService) DeleteTrade(ctx context.Context, tradeID string) error {
	return s.tradeRepo.DeleteTrade(ctx, tradeID)
}

// CloseTrade records a partial or full closure of one trade. The trade's
// quantity is never mutated; a closure record is appended and the trade is
// marked closed once the cumulative closed quantity reaches its quantity.
func (s *TradeService) CloseTrade(ctx context.Context, tradeID string, req request.CloseTradeRequest) (model.Trade, error) {
	exitDate, err := time.Parse("2006-01-02", req.ExitDate)
	if err != nil {
		return model.Trade{}, err
	}

	trade, err := s.tradeRepo.GetTrade(tradeID)
	if err != nil {
		return model.Trade{}, err
	}
	if !trade.IsOpen() {
		return model.Trade{}, apperrors.ErrTradeAlreadyClosed
	}

	openQty := trade.OpenQuantity()
	if req.Quantity > openQty {
		return model.Trade{}, fmt.Errorf("%w: %d requested, %d open", apperrors.ErrCloseQuantityTooLarge, req.Quantity, openQty)
	}

	closure := &model.TradeClosure{
		ID:             uuid.New().String(),
		TradeID:        tradeID,
		ClosedQuantity: req.Quantity,
		ExitPrice:      req.ExitPrice,
		ExitDate:       exitDate,
		Notes:          req.Notes,
		CreatedAt:      time.Now(),
	}
	if err := s.tradeRepo.InsertClosure(ctx, closure); err != nil {
		return model.Trade{}, err
	}

	if req.Quantity == openQty {
		if err := s.tradeRepo.MarkTradeClosed(ctx, tradeID, req.ExitPrice, req.ExitDate); err != nil {
			return model.Trade{}, err
		}
	}

	return s.tradeRepo.GetTrade(tradeID)
}

// FifoClose closes quantity of a symbol against open trades oldest-first.
// Each affected trade gets a closure record; fully drained trades are marked
// closed. Leftover quantity that found no open trades is reported in the
// result, never dropped silently.
func (s *TradeService) FifoClose(ctx context.Context, req request.FifoCloseRequest) (model.FifoCloseReport, error) {
	exitDate, err := time.Parse("2006-01-02", req.ExitDate)
	if err != nil {
		return model.FifoCloseReport{}, err
	}

	openTrades, err := s.tradeRepo.GetOpenTradesBySymbol(req.PortfolioID, req.Symbol)
	if err != nil {
		return model.FifoCloseReport{}, err
	}
	if len(openTrades) == 0 {
		return model.FifoCloseReport{}, fmt.Errorf("%w: %s", apperrors.ErrNoOpenTrades, req.Symbol)
	}

	notes := "FIFO"
	if req.Notes != "" {
		notes = "FIFO: " + req.Notes
	}

	report := model.FifoCloseReport{
		Requested:      req.Quantity,
		AffectedTrades: []string{},
	}
	remaining := req.Quantity

	for i := range openTrades {
		if remaining <= 0 {
			break
		}
		trade := &openTrades[i]
		openQty := trade.OpenQuantity()
		if openQty <= 0 {
			continue
		}

		portion := remaining
		if openQty < portion {
			portion = openQty
		}

		closure := &model.TradeClosure{
			ID:             uuid.New().String(),
			TradeID:        trade.ID,
			ClosedQuantity: portion,
			ExitPrice:      req.ExitPrice,
			ExitDate:       exitDate,
			Notes:          notes,
			CreatedAt:      time.Now(),
		}
		if err := s.tradeRepo.InsertClosure(ctx, closure); err != nil {
			return model.FifoCloseReport{}, err
		}

		remaining -= portion
		report.Closed += portion
		report.AffectedTrades = append(report.AffectedTrades, trade.ID)
		report.GrossProceeds += req.ExitPrice * float64(portion)
		report.EntryCost += trade.EntryPrice * float64(portion)

		if portion == openQty {
			if err := s.tradeRepo.MarkTradeClosed(ctx, trade.ID, req.ExitPrice, req.ExitDate); err != nil {
				return model.FifoCloseReport{}, err
			}
		}
	}

	report.Leftover = remaining
	report.GrossProceeds = round(report.GrossProceeds)
	report.EntryCost = round(report.EntryCost)
	report.GrossPnL = round(report.GrossProceeds - report.EntryCost)

	return report, nil
}

// TradeDetails is the full interest breakdown for one trade: the rate period
// table plus totals, the payload behind the trade details view.
type TradeDetails struct {
	Trade           model.Trade       `json:"trade"`
	DaysHeld        int               `json:"daysHeld"`
	CurrentRate     float64           `json:"currentRate"`
	AccruedInterest float64           `json:"accruedInterest"`
	DailyInterest   float64           `json:"dailyInterest"`
	Savings         float64           `json:"savingsFromRateChanges"`
	Periods         []interest.Period `json:"periods"`
}

// GetTradeDetails computes the interest breakdown for one trade as of today,
// injecting the stored rate-change history into the pure calculation.
func (s *TradeService) GetTradeDetails(tradeID string) (TradeDetails, error) {
	trade, err := s.tradeRepo.GetTrade(tradeID)
	if err != nil {
		return TradeDetails{}, err
	}

	rateChanges, err := s.rateChangeService.GetRateChanges()
	if err != nil {
		return TradeDetails{}, err
	}

	// Fixed-rate trades ignore the rate change history.
	if trade.RateType == model.RateTypeFixed {
		rateChanges = nil
	}

	now := time.Now().UTC()
	end := now
	if trade.ExitDate != nil {
		end = *trade.ExitDate
	}

	details := TradeDetails{
		Trade:           trade,
		DaysHeld:        interest.DaysBetween(trade.EntryDate, end),
		CurrentRate:     interest.EffectiveRate(&trade, end, rateChanges),
		AccruedInterest: round(interest.Accrued(&trade, rateChanges, now, s.principalPolicy)),
		DailyInterest:   round(interest.DailyInterest(&trade, end, rateChanges, s.principalPolicy)),
		Savings:         round(interest.Savings(&trade, rateChanges, now, s.principalPolicy)),
		Periods:         interest.Periods(&trade, rateChanges, now, s.principalPolicy),
	}

	return details, nil
}
