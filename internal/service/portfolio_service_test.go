package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tradingdiary/backend/internal/api/request"
	"github.com/tradingdiary/backend/internal/apperrors"
	"github.com/tradingdiary/backend/internal/testutil"
)

// TestPortfolioService_CreatePortfolio tests creation and defaults.
func TestPortfolioService_CreatePortfolio(t *testing.T) {
	t.Run("currency defaults to RUB", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		quotesClient := testutil.NewMockQuoteServer(t, nil)
		svc := testutil.NewTestPortfolioService(t, db, quotesClient)

		created, err := svc.CreatePortfolio(context.Background(), request.CreatePortfolioRequest{
			Name: "Margin diary",
		})
		if err != nil {
			t.Fatalf("CreatePortfolio() returned unexpected error: %v", err)
		}
		if created.Currency != "RUB" {
			t.Errorf("Expected default currency RUB, got %q", created.Currency)
		}

		fetched, err := svc.GetPortfolio(created.ID)
		if err != nil {
			t.Fatalf("GetPortfolio() returned unexpected error: %v", err)
		}
		if fetched.Name != "Margin diary" {
			t.Errorf("Expected stored name, got %q", fetched.Name)
		}
	})

	t.Run("explicit currency kept", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		quotesClient := testutil.NewMockQuoteServer(t, nil)
		svc := testutil.NewTestPortfolioService(t, db, quotesClient)

		created, err := svc.CreatePortfolio(context.Background(), request.CreatePortfolioRequest{
			Name:     "USD account",
			Currency: "USD",
		})
		if err != nil {
			t.Fatalf("CreatePortfolio() returned unexpected error: %v", err)
		}
		if created.Currency != "USD" {
			t.Errorf("Expected currency USD, got %q", created.Currency)
		}
	})
}

// TestPortfolioService_GetAllPortfolios tests the archived filter.
//
// WHY: Archived portfolios stay in the database for history but must not
// clutter the default listing.
func TestPortfolioService_GetAllPortfolios(t *testing.T) {
	db := testutil.SetupTestDB(t)
	quotesClient := testutil.NewMockQuoteServer(t, nil)
	svc := testutil.NewTestPortfolioService(t, db, quotesClient)

	testutil.NewPortfolio().WithName("Active").Build(t, db)
	testutil.NewPortfolio().WithName("Old").Archived().Build(t, db)

	visible, err := svc.GetAllPortfolios(false)
	if err != nil {
		t.Fatalf("GetAllPortfolios(false) returned unexpected error: %v", err)
	}
	if len(visible) != 1 || visible[0].Name != "Active" {
		t.Errorf("Expected only the active portfolio, got %+v", visible)
	}

	all, err := svc.GetAllPortfolios(true)
	if err != nil {
		t.Fatalf("GetAllPortfolios(true) returned unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected both portfolios, got %d", len(all))
	}
}

// TestPortfolioService_GetPortfolioHistory tests the existence check.
func TestPortfolioService_GetPortfolioHistory(t *testing.T) {
	t.Run("unknown portfolio", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		quotesClient := testutil.NewMockQuoteServer(t, nil)
		svc := testutil.NewTestPortfolioService(t, db, quotesClient)

		_, err := svc.GetPortfolioHistory(context.Background(), testutil.MakeID(), "", "")
		if !errors.Is(err, apperrors.ErrPortfolioNotFound) {
			t.Errorf("Expected ErrPortfolioNotFound, got %v", err)
		}
	})

	t.Run("history served for existing portfolio", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		quotesClient := testutil.NewMockQuoteServer(t, nil)
		svc := testutil.NewTestPortfolioService(t, db, quotesClient)
		portfolio := testutil.NewPortfolio().Build(t, db)

		testutil.NewSpotTransaction(portfolio.ID).Deposit(1000).On("2024-01-01").Build(t, db)

		points, err := svc.GetPortfolioHistory(context.Background(), portfolio.ID, "", "")
		if err != nil {
			t.Fatalf("GetPortfolioHistory() returned unexpected error: %v", err)
		}
		if len(points) != 1 {
			t.Errorf("Expected 1 history point, got %d", len(points))
		}
	})
}
