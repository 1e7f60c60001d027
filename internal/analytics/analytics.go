// Package analytics provides pure reductions over trades and realized
// returns: weighted-average credit rate, portfolio exposure, historical
// value-at-risk, expected shortfall and Sharpe ratio. All inputs are passed
// explicitly; nothing here performs I/O.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/tradingdiary/backend/internal/interest"
	"github.com/tradingdiary/backend/internal/model"
)

// WeightedAverageRate blends trade rates weighted by principal times day
// count, so that larger and longer positions dominate the average. Returns 0
// when there is no weight.
func WeightedAverageRate(trades []model.Trade, rateChanges []model.RateChange, asOf time.Time) float64 {
	var weighted, weight float64
	for i := range trades {
		t := &trades[i]
		end := asOf
		if t.ExitDate != nil && t.ExitDate.Before(asOf) {
			end = *t.ExitDate
		}
		days := interest.DaysBetween(t.EntryDate, end)
		if days <= 0 {
			continue
		}
		w := t.Principal() * float64(days)
		weighted += interest.EffectiveRate(t, end, rateChanges) * w
		weight += w
	}
	if weight == 0 {
		return 0
	}
	return weighted / weight
}

// Exposure sums the principal of all open trades.
func Exposure(trades []model.Trade) float64 {
	var total float64
	for i := range trades {
		if trades[i].IsOpen() {
			total += trades[i].Principal()
		}
	}
	return total
}

// DailyInterestTotal sums one day of interest across all open trades at
// their effective rates on asOf.
func DailyInterestTotal(trades []model.Trade, rateChanges []model.RateChange, asOf time.Time, policy interest.PrincipalPolicy) float64 {
	var total float64
	for i := range trades {
		if trades[i].IsOpen() {
			total += interest.DailyInterest(&trades[i], asOf, rateChanges, policy)
		}
	}
	return total
}

// ValueAtRisk estimates historical VaR from a sample of per-trade returns:
// the absolute value of the 5th-percentile return scaled by the open
// exposure. Returns 0 for an empty sample.
func ValueAtRisk(returns []float64, exposure float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)
	idx := int(float64(len(sorted)) * 0.05)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return math.Abs(sorted[idx]) * exposure
}

// ExpectedShortfall averages the returns at or below the VaR cutoff, scaled
// by the open exposure.
func ExpectedShortfall(returns []float64, exposure float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)
	idx := int(float64(len(sorted)) * 0.05)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	tail := sorted[:idx+1]
	var sum float64
	for _, r := range tail {
		sum += r
	}
	return math.Abs(sum/float64(len(tail))) * exposure
}

// SharpeRatio computes the sample Sharpe ratio: mean return divided by the
// population standard deviation. Returns 0 for fewer than two samples or a
// zero-variance sample.
func SharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	stdev := math.Sqrt(variance)
	if stdev == 0 {
		return 0
	}
	return mean / stdev
}

// ROI returns total profit over total invested as a percentage.
func ROI(totalProfit, totalInvested float64) float64 {
	if totalInvested <= 0 {
		return 0
	}
	return totalProfit / totalInvested * 100
}

// AverageDays returns the rounded mean of a sample of day counts.
func AverageDays(days []int) int {
	if len(days) == 0 {
		return 0
	}
	var sum int
	for _, d := range days {
		sum += d
	}
	return int(math.Round(float64(sum) / float64(len(days))))
}
