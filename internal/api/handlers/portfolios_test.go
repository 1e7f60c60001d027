package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tradingdiary/backend/internal/api/handlers"
	"github.com/tradingdiary/backend/internal/model"
	"github.com/tradingdiary/backend/internal/testutil"
)

// TestPortfolioHandler_Portfolios tests the GET /api/portfolio endpoint.
//
// WHY: The listing is the entry point of the API; archived portfolios must
// stay hidden unless explicitly requested.
func TestPortfolioHandler_Portfolios(t *testing.T) {
	t.Run("returns 200 with empty array", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewMockQuoteServer(t, nil))
		handler := handlers.NewPortfolioHandler(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/portfolio", nil)
		w := httptest.NewRecorder()

		// Execute
		handler.Portfolios(w, req)

		// Assert
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if contentType := w.Header().Get("Content-Type"); contentType != "application/json" {
			t.Errorf("Expected Content-Type 'application/json', got '%s'", contentType)
		}

		var response []model.Portfolio
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(response) != 0 {
			t.Errorf("Expected empty array, got %d items", len(response))
		}
	})

	t.Run("archived hidden by default", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewMockQuoteServer(t, nil))
		handler := handlers.NewPortfolioHandler(svc)

		testutil.NewPortfolio().WithName("Active").Build(t, db)
		testutil.NewPortfolio().WithName("Old").Archived().Build(t, db)

		req := httptest.NewRequest(http.MethodGet, "/api/portfolio", nil)
		w := httptest.NewRecorder()

		// Execute
		handler.Portfolios(w, req)

		var response []model.Portfolio
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(response) != 1 || response[0].Name != "Active" {
			t.Errorf("Expected only the active portfolio, got %+v", response)
		}

		// include_archived=true returns both.
		req = testutil.NewRequestWithQueryParams(http.MethodGet, "/api/portfolio",
			map[string]string{"include_archived": "true"})
		w = httptest.NewRecorder()
		handler.Portfolios(w, req)

		response = nil
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(response) != 2 {
			t.Errorf("Expected both portfolios, got %d", len(response))
		}
	})
}

// TestPortfolioHandler_GetPortfolio tests the GET /api/portfolio/{uuid} endpoint.
func TestPortfolioHandler_GetPortfolio(t *testing.T) {
	t.Run("returns the portfolio", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewMockQuoteServer(t, nil))
		handler := handlers.NewPortfolioHandler(svc)
		portfolio := testutil.NewPortfolio().WithName("Margin diary").Build(t, db)

		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/portfolio/"+portfolio.ID,
			map[string]string{"uuid": portfolio.ID})
		w := httptest.NewRecorder()

		handler.GetPortfolio(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		var response model.Portfolio
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response.ID != portfolio.ID || response.Name != "Margin diary" {
			t.Errorf("Response mismatch: %+v", response)
		}
	})

	t.Run("unknown portfolio returns 404", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewMockQuoteServer(t, nil))
		handler := handlers.NewPortfolioHandler(svc)

		id := testutil.MakeID()
		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/portfolio/"+id,
			map[string]string{"uuid": id})
		w := httptest.NewRecorder()

		handler.GetPortfolio(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}

// TestPortfolioHandler_CreatePortfolio tests the POST /api/portfolio endpoint.
func TestPortfolioHandler_CreatePortfolio(t *testing.T) {
	t.Run("creates and returns 201", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewMockQuoteServer(t, nil))
		handler := handlers.NewPortfolioHandler(svc)

		body := `{"name":"Margin diary","currency":"RUB"}`
		req := httptest.NewRequest(http.MethodPost, "/api/portfolio", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.CreatePortfolio(w, req)

		if w.Code != http.StatusCreated {
			t.Errorf("Expected status 201, got %d", w.Code)
		}
		var response model.Portfolio
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response.ID == "" || response.Name != "Margin diary" {
			t.Errorf("Response mismatch: %+v", response)
		}
	})

	t.Run("missing name returns 400", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewMockQuoteServer(t, nil))
		handler := handlers.NewPortfolioHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/portfolio", strings.NewReader(`{}`))
		w := httptest.NewRecorder()

		handler.CreatePortfolio(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewMockQuoteServer(t, nil))
		handler := handlers.NewPortfolioHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/portfolio", strings.NewReader(`{"name":`))
		w := httptest.NewRecorder()

		handler.CreatePortfolio(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

// TestPortfolioHandler_PortfolioHistory tests GET /api/portfolio/{uuid}/history.
func TestPortfolioHandler_PortfolioHistory(t *testing.T) {
	t.Run("returns history points", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewMockQuoteServer(t, nil))
		handler := handlers.NewPortfolioHandler(svc)
		portfolio := testutil.NewPortfolio().Build(t, db)
		testutil.NewSpotTransaction(portfolio.ID).Deposit(1000).On("2024-01-01").Build(t, db)

		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/portfolio/"+portfolio.ID+"/history",
			map[string]string{"uuid": portfolio.ID})
		w := httptest.NewRecorder()

		handler.PortfolioHistory(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		var response []model.PortfolioHistoryPoint
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(response) != 1 || response[0].Date != "2024-01-01" {
			t.Errorf("Expected one point on 2024-01-01, got %+v", response)
		}
	})

	t.Run("inverted date range returns 400", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewMockQuoteServer(t, nil))
		handler := handlers.NewPortfolioHandler(svc)
		portfolio := testutil.NewPortfolio().Build(t, db)

		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/portfolio/"+portfolio.ID+"/history",
			map[string]string{"uuid": portfolio.ID})
		q := req.URL.Query()
		q.Set("start_date", "2024-12-31")
		q.Set("end_date", "2024-01-01")
		req.URL.RawQuery = q.Encode()
		w := httptest.NewRecorder()

		handler.PortfolioHistory(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}
