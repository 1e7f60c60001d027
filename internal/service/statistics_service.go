package service

import (
	"sort"
	"time"

	"github.com/tradingdiary/backend/internal/analytics"
	"github.com/tradingdiary/backend/internal/interest"
	"github.com/tradingdiary/backend/internal/model"
	"github.com/tradingdiary/backend/internal/repository"
)

// StatisticsService computes the margin statistics view: realized results,
// interest cost, risk measures over historical per-trade returns and
// monthly rollups. Everything recomputes from the trade list; there is no
// cached state to invalidate.
type StatisticsService struct {
	tradeRepo         *repository.TradeRepository
	rateChangeService *RateChangeService
	principalPolicy   interest.PrincipalPolicy
}

// NewStatisticsService creates a new StatisticsService with the provided dependencies.
func NewStatisticsService(
	tradeRepo *repository.TradeRepository,
	rateChangeService *RateChangeService,
	principalPolicy interest.PrincipalPolicy,
) *StatisticsService {
	return &StatisticsService{
		tradeRepo:         tradeRepo,
		rateChangeService: rateChangeService,
		principalPolicy:   principalPolicy,
	}
}

// MonthlyRollup aggregates closed-trade profit and accrued interest per
// calendar month.
type MonthlyRollup struct {
	Month       string  `json:"month"` // YYYY-MM
	GrossProfit float64 `json:"grossProfit"`
	Interest    float64 `json:"interest"`
	NetProfit   float64 `json:"netProfit"`
	TradeCount  int     `json:"tradeCount"`
}

// MarginStatistics is the portfolio-level margin summary.
type MarginStatistics struct {
	OpenTrades          int             `json:"openTrades"`
	ClosedTrades        int             `json:"closedTrades"`
	Exposure            float64         `json:"exposure"`
	WeightedAverageRate float64         `json:"weightedAverageRate"`
	AccruedInterest     float64         `json:"accruedInterest"`
	DailyInterest       float64         `json:"dailyInterest"`
	GrossProfit         float64         `json:"grossProfit"`
	NetProfit           float64         `json:"netProfit"`
	ROI                 float64         `json:"roi"`
	WinRate             float64         `json:"winRate"`
	AverageHoldingDays  int             `json:"averageHoldingDays"`
	ValueAtRisk         float64         `json:"valueAtRisk"`
	ExpectedShortfall   float64         `json:"expectedShortfall"`
	SharpeRatio         float64         `json:"sharpeRatio"`
	Monthly             []MonthlyRollup `json:"monthly"`
}

// GetStatistics computes the margin statistics for a portfolio as of now.
// Risk measures (VaR, expected shortfall, Sharpe) are derived from the
// historical per-trade returns of closed trades, scaled by the current open
// exposure; with no closed history they are zero rather than guessed.
func (s *StatisticsService) GetStatistics(portfolioID string) (MarginStatistics, error) {
	trades, err := s.tradeRepo.GetTrades(portfolioID)
	if err != nil {
		return MarginStatistics{}, err
	}

	rateChanges, err := s.rateChangeService.GetRateChanges()
	if err != nil {
		return MarginStatistics{}, err
	}

	now := time.Now().UTC()

	stats := MarginStatistics{
		Exposure:            round(analytics.Exposure(trades)),
		WeightedAverageRate: round(analytics.WeightedAverageRate(trades, rateChanges, now)),
		DailyInterest:       round(analytics.DailyInterestTotal(trades, rateChanges, now, s.principalPolicy)),
	}

	var (
		returns       []float64
		holdingDays   []int
		totalInvested float64
		accrued       float64
		grossProfit   float64
		wins          int
		monthly       = make(map[string]*MonthlyRollup)
	)

	for i := range trades {
		t := &trades[i]

		changes := rateChanges
		if t.RateType == model.RateTypeFixed {
			changes = nil
		}

		tradeInterest := interest.Accrued(t, changes, now, s.principalPolicy)
		accrued += tradeInterest

		if t.IsOpen() {
			stats.OpenTrades++
			continue
		}
		stats.ClosedTrades++

		profit := tradeProfit(t)
		cost := round(t.PositionCost())
		grossProfit += profit
		totalInvested += cost
		if profit > 0 {
			wins++
		}
		if cost > 0 {
			returns = append(returns, profit/cost)
		}
		holdingDays = append(holdingDays, interest.DaysBetween(t.EntryDate, *t.ExitDate))

		month := t.ExitDate.Format("2006-01")
		r, ok := monthly[month]
		if !ok {
			r = &MonthlyRollup{Month: month}
			monthly[month] = r
		}
		r.GrossProfit += profit
		r.Interest += tradeInterest
		r.TradeCount++
	}

	stats.AccruedInterest = round(accrued)
	stats.GrossProfit = round(grossProfit)
	stats.NetProfit = round(grossProfit - accrued)
	stats.ROI = round(analytics.ROI(grossProfit, totalInvested))
	stats.AverageHoldingDays = analytics.AverageDays(holdingDays)
	if stats.ClosedTrades > 0 {
		stats.WinRate = round(float64(wins) / float64(stats.ClosedTrades) * 100)
	}

	stats.ValueAtRisk = round(analytics.ValueAtRisk(returns, stats.Exposure))
	stats.ExpectedShortfall = round(analytics.ExpectedShortfall(returns, stats.Exposure))
	stats.SharpeRatio = analytics.SharpeRatio(returns)

	months := make([]string, 0, len(monthly))
	for m := range monthly {
		months = append(months, m)
	}
	sort.Strings(months)
	stats.Monthly = make([]MonthlyRollup, 0, len(months))
	for _, m := range months {
		r := monthly[m]
		r.GrossProfit = round(r.GrossProfit)
		r.Interest = round(r.Interest)
		r.NetProfit = round(r.GrossProfit - r.Interest)
		stats.Monthly = append(stats.Monthly, *r)
	}

	return stats, nil
}

// tradeProfit is the realized gross profit of a closed trade: the sum over
// closure records when present, otherwise exit price against entry over the
// full quantity.
func tradeProfit(t *model.Trade) float64 {
	if len(t.Closures) > 0 {
		var profit float64
		for _, c := range t.Closures {
			profit += (c.ExitPrice - t.EntryPrice) * float64(c.ClosedQuantity)
		}
		return profit
	}
	if t.ExitPrice == nil {
		return 0
	}
	return (*t.ExitPrice - t.EntryPrice) * float64(t.Quantity)
}
