package analytics_test

import (
	"math"
	"testing"
	"time"

	"github.com/tradingdiary/backend/internal/analytics"
	"github.com/tradingdiary/backend/internal/interest"
	"github.com/tradingdiary/backend/internal/model"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func openTrade(entry string, principal, rate float64) model.Trade {
	return model.Trade{
		EntryDate:      date(entry),
		EntryPrice:     principal / 100,
		Quantity:       100,
		MarginRate:     rate,
		BorrowedAmount: &principal,
	}
}

// TestWeightedAverageRate tests the principal-times-days weighting.
//
// WHY: A large long-running loan at a low rate must pull the average down
// harder than a small short one at a high rate; a plain mean would lie.
func TestWeightedAverageRate(t *testing.T) {
	asOf := date("2024-03-01")
	trades := []model.Trade{
		openTrade("2024-01-01", 100000, 10), // 60 days, weight 6e6
		openTrade("2024-02-20", 10000, 20),  // 10 days, weight 1e5
	}

	got := analytics.WeightedAverageRate(trades, nil, asOf)
	want := (10.0*100000*60 + 20.0*10000*10) / (100000*60 + 10000*10)
	if !approx(got, want) {
		t.Errorf("WeightedAverageRate: got %v, want %v", got, want)
	}

	t.Run("zero weight returns zero", func(t *testing.T) {
		sameDay := []model.Trade{openTrade("2024-03-01", 100000, 10)}
		if got := analytics.WeightedAverageRate(sameDay, nil, asOf); !approx(got, 0) {
			t.Errorf("Expected 0 for zero-day trades, got %v", got)
		}
	})
}

// TestExposure tests that only open trades count toward exposure.
func TestExposure(t *testing.T) {
	exit := date("2024-02-01")
	exitPrice := 120.0
	closed := openTrade("2024-01-01", 50000, 10)
	closed.ExitDate = &exit
	closed.ExitPrice = &exitPrice

	trades := []model.Trade{
		openTrade("2024-01-01", 100000, 10),
		closed,
		openTrade("2024-02-01", 30000, 12),
	}

	if got := analytics.Exposure(trades); !approx(got, 130000) {
		t.Errorf("Exposure: got %v, want 130000", got)
	}
}

// TestDailyInterestTotal tests the one-day cost across open trades.
func TestDailyInterestTotal(t *testing.T) {
	asOf := date("2024-03-01")
	trades := []model.Trade{
		openTrade("2024-01-01", 100000, 10),
		openTrade("2024-02-01", 50000, 12),
	}

	got := analytics.DailyInterestTotal(trades, nil, asOf, interest.PrincipalFull)
	want := 100000.0*10/100/365 + 50000.0*12/100/365
	if !approx(got, want) {
		t.Errorf("DailyInterestTotal: got %v, want %v", got, want)
	}
}

// TestValueAtRisk tests the historical 5th-percentile estimate.
//
// WHY: VaR picks the return at the 5% index of the sorted sample and scales
// it by the current exposure; the index must floor, not round.
func TestValueAtRisk(t *testing.T) {
	// 20 returns: index = int(20*0.05) = 1, second-worst return
	returns := make([]float64, 20)
	for i := range returns {
		returns[i] = float64(i-10) / 100 // -0.10 .. 0.09
	}

	got := analytics.ValueAtRisk(returns, 100000)
	want := 0.09 * 100000 // |-0.09| at sorted index 1
	if !approx(got, want) {
		t.Errorf("ValueAtRisk: got %v, want %v", got, want)
	}

	t.Run("empty sample returns zero", func(t *testing.T) {
		if got := analytics.ValueAtRisk(nil, 100000); !approx(got, 0) {
			t.Errorf("Expected 0 for empty sample, got %v", got)
		}
	})

	t.Run("small sample uses worst return", func(t *testing.T) {
		got := analytics.ValueAtRisk([]float64{-0.02, 0.05, 0.01}, 10000)
		if !approx(got, 0.02*10000) {
			t.Errorf("Expected worst return scaled, got %v", got)
		}
	})
}

// TestExpectedShortfall tests the tail average at the VaR cutoff.
func TestExpectedShortfall(t *testing.T) {
	returns := make([]float64, 20)
	for i := range returns {
		returns[i] = float64(i-10) / 100
	}

	got := analytics.ExpectedShortfall(returns, 100000)
	// Tail is the two worst returns: -0.10 and -0.09
	want := (0.10 + 0.09) / 2 * 100000
	if !approx(got, want) {
		t.Errorf("ExpectedShortfall: got %v, want %v", got, want)
	}

	if es, v := analytics.ExpectedShortfall(returns, 100000), analytics.ValueAtRisk(returns, 100000); es < v {
		t.Errorf("Expected shortfall %v must be at least VaR %v", es, v)
	}
}

// TestSharpeRatio tests mean over population standard deviation.
func TestSharpeRatio(t *testing.T) {
	t.Run("known sample", func(t *testing.T) {
		returns := []float64{0.02, 0.04}
		// mean 0.03, population stdev 0.01
		if got := analytics.SharpeRatio(returns); !approx(got, 3) {
			t.Errorf("SharpeRatio: got %v, want 3", got)
		}
	})

	t.Run("fewer than two samples", func(t *testing.T) {
		if got := analytics.SharpeRatio([]float64{0.05}); !approx(got, 0) {
			t.Errorf("Expected 0 for one sample, got %v", got)
		}
	})

	t.Run("zero variance", func(t *testing.T) {
		if got := analytics.SharpeRatio([]float64{0.02, 0.02, 0.02}); !approx(got, 0) {
			t.Errorf("Expected 0 for zero variance, got %v", got)
		}
	})
}

// TestROI tests profit over invested with a zero guard.
func TestROI(t *testing.T) {
	if got := analytics.ROI(500, 10000); !approx(got, 5) {
		t.Errorf("ROI: got %v, want 5", got)
	}
	if got := analytics.ROI(500, 0); !approx(got, 0) {
		t.Errorf("ROI with zero invested: got %v, want 0", got)
	}
}

// TestAverageDays tests the rounded mean of holding periods.
func TestAverageDays(t *testing.T) {
	if got := analytics.AverageDays([]int{10, 20, 31}); got != 20 {
		t.Errorf("AverageDays: got %d, want 20", got)
	}
	if got := analytics.AverageDays(nil); got != 0 {
		t.Errorf("AverageDays(nil): got %d, want 0", got)
	}
}
