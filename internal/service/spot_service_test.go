package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tradingdiary/backend/internal/api/request"
	"github.com/tradingdiary/backend/internal/apperrors"
	"github.com/tradingdiary/backend/internal/model"
	"github.com/tradingdiary/backend/internal/testutil"
)

// TestSpotService_GetOpenPositions tests open position aggregation and the
// price fallback.
//
// WHY: Open positions are derived from the residual FIFO lots and valued at
// the quoted price. When no quote exists the average cost is used and the
// position must be flagged as estimated, never silently priced at zero.
func TestSpotService_GetOpenPositions(t *testing.T) {
	t.Run("quoted and estimated positions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		quotesClient := testutil.NewMockQuoteServer(t, map[string]float64{"SBER": 310})
		svc := testutil.NewTestSpotService(t, db, quotesClient)
		portfolio := testutil.NewPortfolio().Build(t, db)

		testutil.NewSpotTransaction(portfolio.ID).Buy("SBER", 10, 280).On("2024-01-10").WithCompany("Sberbank").Build(t, db)
		testutil.NewSpotTransaction(portfolio.ID).Buy("GAZP", 20, 150).On("2024-01-11").Build(t, db)
		testutil.NewSpotTransaction(portfolio.ID).Sell("GAZP", 5, 160).On("2024-02-01").Build(t, db)

		positions, err := svc.GetOpenPositions(context.Background(), portfolio.ID)
		if err != nil {
			t.Fatalf("GetOpenPositions() returned unexpected error: %v", err)
		}

		if len(positions) != 2 {
			t.Fatalf("Expected 2 positions, got %d", len(positions))
		}

		// Sorted by ticker: GAZP first.
		gazp := positions[0]
		if gazp.Ticker != "GAZP" || gazp.Quantity != 15 {
			t.Errorf("Expected GAZP quantity 15, got %s/%v", gazp.Ticker, gazp.Quantity)
		}
		if gazp.PriceSource != "estimated" || !approx(gazp.CurrentPrice, 150) {
			t.Errorf("Expected estimated price 150, got %s/%v", gazp.PriceSource, gazp.CurrentPrice)
		}

		sber := positions[1]
		if sber.PriceSource != "quoted" || !approx(sber.CurrentPrice, 310) {
			t.Errorf("Expected quoted price 310, got %s/%v", sber.PriceSource, sber.CurrentPrice)
		}
		if sber.Company != "Sberbank" {
			t.Errorf("Expected company name carried over, got %q", sber.Company)
		}
		if !approx(sber.MarketValue, 3100) || !approx(sber.Invested, 2800) {
			t.Errorf("Expected market value 3100 and invested 2800, got %v/%v", sber.MarketValue, sber.Invested)
		}
	})

	t.Run("fully sold ticker excluded", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		quotesClient := testutil.NewMockQuoteServer(t, nil)
		svc := testutil.NewTestSpotService(t, db, quotesClient)
		portfolio := testutil.NewPortfolio().Build(t, db)

		testutil.NewSpotTransaction(portfolio.ID).Buy("SBER", 10, 280).On("2024-01-10").Build(t, db)
		testutil.NewSpotTransaction(portfolio.ID).Sell("SBER", 10, 300).On("2024-02-01").Build(t, db)

		positions, err := svc.GetOpenPositions(context.Background(), portfolio.ID)
		if err != nil {
			t.Fatalf("GetOpenPositions() returned unexpected error: %v", err)
		}
		if len(positions) != 0 {
			t.Errorf("Expected no positions, got %d", len(positions))
		}
	})
}

// TestSpotService_GetFifoAnalysis tests the matching report.
//
// WHY: The analysis surfaces oversold quantity as a diagnostic rather than
// an error so that a ledger with a data problem still produces a report.
func TestSpotService_GetFifoAnalysis(t *testing.T) {
	t.Run("matches and summary", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		quotesClient := testutil.NewMockQuoteServer(t, nil)
		svc := testutil.NewTestSpotService(t, db, quotesClient)
		portfolio := testutil.NewPortfolio().Build(t, db)

		testutil.NewSpotTransaction(portfolio.ID).Buy("SBER", 10, 100).On("2024-01-10").Build(t, db)
		testutil.NewSpotTransaction(portfolio.ID).Sell("SBER", 6, 120).On("2024-02-01").Build(t, db)

		analysis, err := svc.GetFifoAnalysis(portfolio.ID, "")
		if err != nil {
			t.Fatalf("GetFifoAnalysis() returned unexpected error: %v", err)
		}

		if len(analysis.Matches) != 1 {
			t.Fatalf("Expected 1 match, got %d", len(analysis.Matches))
		}
		if !approx(analysis.Summary.TotalRealizedPnL, 120) {
			t.Errorf("Expected realized PnL 120, got %v", analysis.Summary.TotalRealizedPnL)
		}
		if got := len(analysis.OpenLots["SBER"]); got != 1 {
			t.Errorf("Expected 1 residual lot, got %d", got)
		}
	})

	t.Run("oversell becomes diagnostic", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		quotesClient := testutil.NewMockQuoteServer(t, nil)
		svc := testutil.NewTestSpotService(t, db, quotesClient)
		portfolio := testutil.NewPortfolio().Build(t, db)

		testutil.NewSpotTransaction(portfolio.ID).Buy("SBER", 5, 100).On("2024-01-10").Build(t, db)
		testutil.NewSpotTransaction(portfolio.ID).Sell("SBER", 8, 120).On("2024-02-01").Build(t, db)

		analysis, err := svc.GetFifoAnalysis(portfolio.ID, "")
		if err != nil {
			t.Fatalf("GetFifoAnalysis() returned unexpected error: %v", err)
		}
		if len(analysis.Diagnostics) != 1 {
			t.Fatalf("Expected 1 diagnostic, got %d", len(analysis.Diagnostics))
		}
		if analysis.Diagnostics[0].Quantity != 3 {
			t.Errorf("Expected oversold quantity 3, got %v", analysis.Diagnostics[0].Quantity)
		}
	})

	t.Run("ticker filter", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		quotesClient := testutil.NewMockQuoteServer(t, nil)
		svc := testutil.NewTestSpotService(t, db, quotesClient)
		portfolio := testutil.NewPortfolio().Build(t, db)

		testutil.NewSpotTransaction(portfolio.ID).Buy("SBER", 10, 100).On("2024-01-10").Build(t, db)
		testutil.NewSpotTransaction(portfolio.ID).Buy("GAZP", 10, 150).On("2024-01-10").Build(t, db)

		analysis, err := svc.GetFifoAnalysis(portfolio.ID, "GAZP")
		if err != nil {
			t.Fatalf("GetFifoAnalysis() returned unexpected error: %v", err)
		}
		if _, ok := analysis.OpenLots["SBER"]; ok {
			t.Error("Expected SBER excluded by ticker filter")
		}
		if _, ok := analysis.OpenLots["GAZP"]; !ok {
			t.Error("Expected GAZP lots in filtered analysis")
		}
	})
}

// TestSpotService_GetCashFlows tests the signed cash ledger.
//
// WHY: The running balance is the portfolio's cash position; sign conventions
// (deposits, sells and dividends in; withdrawals and buys out) must hold for
// every transaction type.
func TestSpotService_GetCashFlows(t *testing.T) {
	db := testutil.SetupTestDB(t)
	quotesClient := testutil.NewMockQuoteServer(t, nil)
	svc := testutil.NewTestSpotService(t, db, quotesClient)
	portfolio := testutil.NewPortfolio().Build(t, db)

	testutil.NewSpotTransaction(portfolio.ID).Deposit(10000).On("2024-01-01").Build(t, db)
	testutil.NewSpotTransaction(portfolio.ID).Buy("SBER", 10, 280).On("2024-01-10").Build(t, db)
	testutil.NewSpotTransaction(portfolio.ID).Dividend("SBER", 150).On("2024-03-01").Build(t, db)
	testutil.NewSpotTransaction(portfolio.ID).Sell("SBER", 4, 300).On("2024-04-01").Build(t, db)
	testutil.NewSpotTransaction(portfolio.ID).Withdraw(500).On("2024-05-01").Build(t, db)

	flows, err := svc.GetCashFlows(portfolio.ID)
	if err != nil {
		t.Fatalf("GetCashFlows() returned unexpected error: %v", err)
	}

	if len(flows) != 5 {
		t.Fatalf("Expected 5 cash flows, got %d", len(flows))
	}

	expected := []float64{10000, -2800, 150, 1200, -500}
	balance := 0.0
	for i, want := range expected {
		balance += want
		if !approx(flows[i].Amount, want) {
			t.Errorf("Flow %d: expected amount %v, got %v", i, want, flows[i].Amount)
		}
		if !approx(flows[i].RunningBalance, balance) {
			t.Errorf("Flow %d: expected balance %v, got %v", i, balance, flows[i].RunningBalance)
		}
	}

	got, err := svc.CashBalance(portfolio.ID)
	if err != nil {
		t.Fatalf("CashBalance() returned unexpected error: %v", err)
	}
	if !approx(got, 8050) {
		t.Errorf("Expected cash balance 8050, got %v", got)
	}
}

// TestSpotService_GetStats tests the portfolio-level spot summary.
func TestSpotService_GetStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	quotesClient := testutil.NewMockQuoteServer(t, map[string]float64{"SBER": 310})
	svc := testutil.NewTestSpotService(t, db, quotesClient)
	portfolio := testutil.NewPortfolio().Build(t, db)

	testutil.NewSpotTransaction(portfolio.ID).Deposit(10000).On("2024-01-01").Build(t, db)
	testutil.NewSpotTransaction(portfolio.ID).Buy("SBER", 10, 280).On("2024-01-10").Build(t, db)
	testutil.NewSpotTransaction(portfolio.ID).Sell("SBER", 4, 300).On("2024-02-01").Build(t, db)
	testutil.NewSpotTransaction(portfolio.ID).Dividend("SBER", 150).On("2024-03-01").Build(t, db)

	stats, err := svc.GetStats(context.Background(), portfolio.ID)
	if err != nil {
		t.Fatalf("GetStats() returned unexpected error: %v", err)
	}

	if !approx(stats.Realized.TotalRealizedPnL, 80) {
		t.Errorf("Expected realized PnL 80, got %v", stats.Realized.TotalRealizedPnL)
	}
	if stats.OpenPositions != 1 || stats.OpenQuantity != 6 {
		t.Errorf("Expected 1 open position of 6 units, got %d/%v", stats.OpenPositions, stats.OpenQuantity)
	}
	if !approx(stats.Invested, 1680) {
		t.Errorf("Expected invested 1680, got %v", stats.Invested)
	}
	if !approx(stats.MarketValue, 1860) {
		t.Errorf("Expected market value 1860, got %v", stats.MarketValue)
	}
	if !approx(stats.UnrealizedPnL, 180) {
		t.Errorf("Expected unrealized PnL 180, got %v", stats.UnrealizedPnL)
	}
	if !approx(stats.CashBalance, 8550) {
		t.Errorf("Expected cash balance 8550, got %v", stats.CashBalance)
	}
	if !approx(stats.Dividends, 150) {
		t.Errorf("Expected dividends 150, got %v", stats.Dividends)
	}
}

// TestSpotService_TransactionCRUD tests create, update and delete.
func TestSpotService_TransactionCRUD(t *testing.T) {
	db := testutil.SetupTestDB(t)
	quotesClient := testutil.NewMockQuoteServer(t, nil)
	svc := testutil.NewTestSpotService(t, db, quotesClient)
	portfolio := testutil.NewPortfolio().Build(t, db)

	created, err := svc.CreateTransaction(context.Background(), request.CreateSpotTransactionRequest{
		PortfolioID: portfolio.ID,
		Ticker:      "SBER",
		Type:        model.SpotBuy,
		Price:       280,
		Quantity:    10,
		Date:        "2024-01-10",
	})
	if err != nil {
		t.Fatalf("CreateTransaction() returned unexpected error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Expected generated transaction ID")
	}

	newPrice := 285.0
	updated, err := svc.UpdateTransaction(context.Background(), created.ID, request.UpdateSpotTransactionRequest{
		Price: &newPrice,
	})
	if err != nil {
		t.Fatalf("UpdateTransaction() returned unexpected error: %v", err)
	}
	if !approx(updated.Price, 285) {
		t.Errorf("Expected updated price 285, got %v", updated.Price)
	}
	if updated.Ticker != "SBER" || updated.Quantity != 10 {
		t.Errorf("Expected untouched fields preserved, got %s/%v", updated.Ticker, updated.Quantity)
	}

	if err := svc.DeleteTransaction(context.Background(), created.ID); err != nil {
		t.Fatalf("DeleteTransaction() returned unexpected error: %v", err)
	}
	if _, err := svc.GetTransaction(created.ID); !errors.Is(err, apperrors.ErrSpotTransactionNotFound) {
		t.Errorf("Expected ErrSpotTransactionNotFound after delete, got %v", err)
	}
}
