package fifo_test

import (
	"math"
	"testing"
	"time"

	"github.com/tradingdiary/backend/internal/fifo"
	"github.com/tradingdiary/backend/internal/model"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func tx(id, ticker, kind string, qty, price float64, day string) model.SpotTransaction {
	return model.SpotTransaction{
		ID:       id,
		Ticker:   ticker,
		Type:     kind,
		Quantity: qty,
		Price:    price,
		Date:     date(day),
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestMatch_MultiLotSale tests a sale that spans two acquisition lots.
//
// WHY: Slicing a single sale across multiple lots in acquisition order is the
// core FIFO behavior; each consumed slice must carry its own cost basis and
// the residual lot must keep the unconsumed quantity.
func TestMatch_MultiLotSale(t *testing.T) {
	result := fifo.Match([]model.SpotTransaction{
		tx("b1", "SBER", model.SpotBuy, 100, 10, "2024-01-10"),
		tx("b2", "SBER", model.SpotBuy, 50, 12, "2024-01-20"),
		tx("s1", "SBER", model.SpotSell, 120, 15, "2024-02-01"),
	})

	if len(result.Diagnostics) != 0 {
		t.Fatalf("Expected no diagnostics, got %v", result.Diagnostics)
	}
	if len(result.Matches) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(result.Matches))
	}

	first := result.Matches[0]
	if !approx(first.Quantity, 100) || !approx(first.CostBasis, 1000) ||
		!approx(first.Proceeds, 1500) || !approx(first.RealizedPnL, 500) {
		t.Errorf("First match: got qty=%v cost=%v proceeds=%v pnl=%v",
			first.Quantity, first.CostBasis, first.Proceeds, first.RealizedPnL)
	}

	second := result.Matches[1]
	if !approx(second.Quantity, 20) || !approx(second.CostBasis, 240) ||
		!approx(second.Proceeds, 300) || !approx(second.RealizedPnL, 60) {
		t.Errorf("Second match: got qty=%v cost=%v proceeds=%v pnl=%v",
			second.Quantity, second.CostBasis, second.Proceeds, second.RealizedPnL)
	}

	lots := result.OpenLots["SBER"]
	if len(lots) != 1 {
		t.Fatalf("Expected 1 residual lot, got %d", len(lots))
	}
	if !approx(lots[0].QuantityRemaining, 30) || !approx(lots[0].UnitCost, 12) {
		t.Errorf("Residual lot: got qty=%v cost=%v, want 30 @ 12",
			lots[0].QuantityRemaining, lots[0].UnitCost)
	}
}

// TestMatch_OversoldReportsDiagnostic tests a sell exceeding the available lots.
//
// WHY: Missing buy history is a common data-entry situation. The matcher must
// match what it can, report the excess quantity, and never fabricate a
// negative lot or drop the problem silently.
func TestMatch_OversoldReportsDiagnostic(t *testing.T) {
	result := fifo.Match([]model.SpotTransaction{
		tx("b1", "GAZP", model.SpotBuy, 10, 5, "2024-01-10"),
		tx("s1", "GAZP", model.SpotSell, 15, 6, "2024-01-20"),
	})

	if len(result.Matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(result.Matches))
	}
	if !approx(result.Matches[0].Quantity, 10) {
		t.Errorf("Expected matched quantity 10, got %v", result.Matches[0].Quantity)
	}

	if len(result.Diagnostics) != 1 {
		t.Fatalf("Expected 1 diagnostic, got %d", len(result.Diagnostics))
	}
	diag := result.Diagnostics[0]
	if diag.Kind != fifo.DiagInsufficientLots {
		t.Errorf("Expected kind %q, got %q", fifo.DiagInsufficientLots, diag.Kind)
	}
	if !approx(diag.Quantity, 5) {
		t.Errorf("Expected unmatched quantity 5, got %v", diag.Quantity)
	}

	if got := fifo.OpenQuantity(result.OpenLots["GAZP"]); !approx(got, 0) {
		t.Errorf("Expected empty lot queue, got open quantity %v", got)
	}
}

// TestMatch_InvalidRecordsSkipped tests rejection of malformed transactions.
//
// WHY: A zero price or non-positive quantity must never reach the lot queue;
// folding such rows into totals would corrupt every downstream aggregate.
func TestMatch_InvalidRecordsSkipped(t *testing.T) {
	result := fifo.Match([]model.SpotTransaction{
		tx("b1", "LKOH", model.SpotBuy, 10, 100, "2024-01-10"),
		tx("b2", "LKOH", model.SpotBuy, 5, 0, "2024-01-11"),
		tx("b3", "LKOH", model.SpotBuy, -3, 100, "2024-01-12"),
		tx("b4", "LKOH", model.SpotBuy, 5, math.NaN(), "2024-01-13"),
	})

	if got := fifo.OpenQuantity(result.OpenLots["LKOH"]); !approx(got, 10) {
		t.Errorf("Expected only the valid lot (10), got open quantity %v", got)
	}

	if len(result.Diagnostics) != 3 {
		t.Fatalf("Expected 3 diagnostics, got %d", len(result.Diagnostics))
	}
	for _, diag := range result.Diagnostics {
		if diag.Kind != fifo.DiagInvalidRecord {
			t.Errorf("Expected kind %q, got %q", fifo.DiagInvalidRecord, diag.Kind)
		}
	}
}

// TestMatch_Conservation tests quantity conservation across the matching run.
//
// WHY: For any input, bought quantity must equal matched quantity plus
// residual open quantity plus nothing else; a leak here means lost shares.
func TestMatch_Conservation(t *testing.T) {
	transactions := []model.SpotTransaction{
		tx("b1", "SBER", model.SpotBuy, 100, 10, "2024-01-10"),
		tx("b2", "SBER", model.SpotBuy, 50, 12, "2024-01-20"),
		tx("s1", "SBER", model.SpotSell, 70, 15, "2024-02-01"),
		tx("b3", "SBER", model.SpotBuy, 25, 14, "2024-02-10"),
		tx("s2", "SBER", model.SpotSell, 60, 13, "2024-03-01"),
	}

	result := fifo.Match(transactions)

	var bought, sold float64
	for _, transaction := range transactions {
		switch transaction.Type {
		case model.SpotBuy:
			bought += transaction.Quantity
		case model.SpotSell:
			sold += transaction.Quantity
		}
	}

	var matched float64
	for _, m := range result.Matches {
		matched += m.Quantity
	}
	open := fifo.OpenQuantity(result.OpenLots["SBER"])

	if !approx(matched, sold) {
		t.Errorf("Matched quantity %v != sold quantity %v", matched, sold)
	}
	if !approx(bought, matched+open) {
		t.Errorf("Bought %v != matched %v + open %v", bought, matched, open)
	}
}

// TestMatch_ConsumptionOrder tests that lots are consumed oldest-first even
// when the input slice is not date-ordered.
func TestMatch_ConsumptionOrder(t *testing.T) {
	result := fifo.Match([]model.SpotTransaction{
		tx("s1", "SBER", model.SpotSell, 10, 20, "2024-03-01"),
		tx("b2", "SBER", model.SpotBuy, 10, 15, "2024-02-01"),
		tx("b1", "SBER", model.SpotBuy, 10, 10, "2024-01-01"),
	})

	if len(result.Matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(result.Matches))
	}
	if !approx(result.Matches[0].PurchasePrice, 10) {
		t.Errorf("Expected the oldest lot (price 10) consumed first, got %v",
			result.Matches[0].PurchasePrice)
	}

	lots := result.OpenLots["SBER"]
	if len(lots) != 1 || !approx(lots[0].UnitCost, 15) {
		t.Errorf("Expected the newer lot (price 15) to remain, got %v", lots)
	}
}

// TestMatch_Idempotence tests that matching is a pure function of its input.
//
// WHY: The matcher is re-run on every derived view; running it twice over the
// same ledger must produce identical output, and the input slice must not be
// reordered or mutated.
func TestMatch_Idempotence(t *testing.T) {
	transactions := []model.SpotTransaction{
		tx("s1", "SBER", model.SpotSell, 70, 15, "2024-02-01"),
		tx("b1", "SBER", model.SpotBuy, 100, 10, "2024-01-10"),
		tx("b2", "SBER", model.SpotBuy, 50, 12, "2024-01-20"),
	}
	originalFirst := transactions[0].ID

	first := fifo.Match(transactions)
	second := fifo.Match(transactions)

	if transactions[0].ID != originalFirst {
		t.Error("Match() mutated the input slice order")
	}
	if len(first.Matches) != len(second.Matches) {
		t.Fatalf("Run 1 produced %d matches, run 2 produced %d", len(first.Matches), len(second.Matches))
	}
	for i := range first.Matches {
		if !approx(first.Matches[i].RealizedPnL, second.Matches[i].RealizedPnL) {
			t.Errorf("Match %d differs between runs: %v vs %v",
				i, first.Matches[i].RealizedPnL, second.Matches[i].RealizedPnL)
		}
	}
}

// TestMatch_SameDayInsertionOrder tests tie-breaking for same-day rows.
//
// WHY: A buy and sell on the same date must resolve in insertion order, so a
// same-day buy can cover a later same-day sell but not the other way around.
func TestMatch_SameDayInsertionOrder(t *testing.T) {
	result := fifo.Match([]model.SpotTransaction{
		tx("b1", "SBER", model.SpotBuy, 10, 10, "2024-01-10"),
		tx("s1", "SBER", model.SpotSell, 10, 12, "2024-01-10"),
	})

	if len(result.Matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(result.Matches))
	}
	if len(result.Diagnostics) != 0 {
		t.Errorf("Expected no diagnostics, got %v", result.Diagnostics)
	}
}

// TestMatch_CashMovementsIgnored tests that deposits, withdrawals and
// dividends never touch the lot queues.
func TestMatch_CashMovementsIgnored(t *testing.T) {
	result := fifo.Match([]model.SpotTransaction{
		tx("d1", "CASH", model.SpotDeposit, 1, 10000, "2024-01-01"),
		tx("b1", "SBER", model.SpotBuy, 10, 100, "2024-01-10"),
		tx("v1", "SBER", model.SpotDividend, 1, 120, "2024-02-01"),
		tx("w1", "CASH", model.SpotWithdraw, 1, 500, "2024-02-15"),
	})

	if len(result.Matches) != 0 {
		t.Errorf("Expected no matches, got %d", len(result.Matches))
	}
	if _, ok := result.OpenLots["CASH"]; ok {
		t.Error("Cash movements must not create lots")
	}
	if got := fifo.OpenQuantity(result.OpenLots["SBER"]); !approx(got, 10) {
		t.Errorf("Expected open quantity 10 for SBER, got %v", got)
	}
}

// TestMatch_MultiTicker tests per-ticker queue isolation.
func TestMatch_MultiTicker(t *testing.T) {
	result := fifo.Match([]model.SpotTransaction{
		tx("b1", "SBER", model.SpotBuy, 10, 100, "2024-01-10"),
		tx("b2", "GAZP", model.SpotBuy, 20, 150, "2024-01-11"),
		tx("s1", "SBER", model.SpotSell, 10, 110, "2024-01-20"),
	})

	if got := fifo.OpenQuantity(result.OpenLots["SBER"]); !approx(got, 0) {
		t.Errorf("Expected SBER fully sold, got %v", got)
	}
	if got := fifo.OpenQuantity(result.OpenLots["GAZP"]); !approx(got, 20) {
		t.Errorf("Expected GAZP untouched at 20, got %v", got)
	}
}

// TestSummarize tests aggregation of realized matches.
func TestSummarize(t *testing.T) {
	result := fifo.Match([]model.SpotTransaction{
		tx("b1", "SBER", model.SpotBuy, 10, 10, "2024-01-10"),
		tx("s1", "SBER", model.SpotSell, 10, 15, "2024-02-01"),
		tx("b2", "GAZP", model.SpotBuy, 10, 20, "2024-01-10"),
		tx("s2", "GAZP", model.SpotSell, 10, 18, "2024-02-01"),
	})

	s := fifo.Summarize(result.Matches)

	if s.MatchCount != 2 {
		t.Fatalf("Expected 2 matches, got %d", s.MatchCount)
	}
	if !approx(s.TotalRealizedPnL, 30) {
		t.Errorf("Expected total P&L 30 (50 - 20), got %v", s.TotalRealizedPnL)
	}
	if !approx(s.TotalProfit, 50) || !approx(s.TotalLoss, 20) {
		t.Errorf("Expected profit 50 / loss 20, got %v / %v", s.TotalProfit, s.TotalLoss)
	}
	if !approx(s.WinRate, 50) {
		t.Errorf("Expected win rate 50, got %v", s.WinRate)
	}
}

// TestLotHelpers tests the open-lot reductions.
func TestLotHelpers(t *testing.T) {
	lots := []fifo.Lot{
		{Ticker: "SBER", QuantityRemaining: 30, UnitCost: 12},
		{Ticker: "SBER", QuantityRemaining: 10, UnitCost: 16},
	}

	if got := fifo.OpenQuantity(lots); !approx(got, 40) {
		t.Errorf("OpenQuantity: expected 40, got %v", got)
	}
	if got := fifo.Invested(lots); !approx(got, 520) {
		t.Errorf("Invested: expected 520, got %v", got)
	}
	if got := fifo.AverageCost(lots); !approx(got, 13) {
		t.Errorf("AverageCost: expected 13, got %v", got)
	}
	if got := fifo.AverageCost(nil); !approx(got, 0) {
		t.Errorf("AverageCost(nil): expected 0, got %v", got)
	}
}
