package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/tradingdiary/backend/internal/model"
)

// PortfolioBuilder provides a fluent interface for creating test portfolios.
//
// Example usage:
//
//	// Simple creation with defaults
//	portfolio := testutil.NewPortfolio().Build(t, db)
//
//	// Customized portfolio
//	portfolio := testutil.NewPortfolio().
//	    WithName("Margin Diary").
//	    Archived().
//	    Build(t, db)
type PortfolioBuilder struct {
	ID          string
	Name        string
	Description string
	Currency    string
	IsArchived  bool
}

// NewPortfolio creates a PortfolioBuilder with sensible defaults.
func NewPortfolio() *PortfolioBuilder {
	return &PortfolioBuilder{
		ID:          MakeID(),
		Name:        MakePortfolioName("Test Portfolio"),
		Description: "Test description",
		Currency:    "RUB",
	}
}

// WithID sets a custom ID.
func (b *PortfolioBuilder) WithID(id string) *PortfolioBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.Name = name
	return b
}

// WithCurrency sets a custom currency.
func (b *PortfolioBuilder) WithCurrency(currency string) *PortfolioBuilder {
	b.Currency = currency
	return b
}

// Archived marks the portfolio as archived.
func (b *PortfolioBuilder) Archived() *PortfolioBuilder {
	b.IsArchived = true
	return b
}

// Build inserts the portfolio into the database and returns it.
func (b *PortfolioBuilder) Build(t *testing.T, db *sql.DB) model.Portfolio {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO portfolio (id, name, description, currency, is_archived) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Description, b.Currency, b.IsArchived,
	)
	if err != nil {
		t.Fatalf("Failed to insert test portfolio: %v", err)
	}

	return model.Portfolio{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Currency:    b.Currency,
		IsArchived:  b.IsArchived,
	}
}

// TradeBuilder provides a fluent interface for creating test margin trades.
//
// Example usage:
//
//	trade := testutil.NewTrade(portfolio.ID).
//	    WithSymbol("SBER").
//	    WithEntry("2024-01-10", 250, 100).
//	    WithMarginRate(16).
//	    Build(t, db)
type TradeBuilder struct {
	ID             string
	PortfolioID    string
	Symbol         string
	EntryDate      string
	ExitDate       *string
	EntryPrice     float64
	ExitPrice      *float64
	Quantity       int
	MarginRate     float64
	BorrowedAmount *float64
	RateType       string
}

// NewTrade creates a TradeBuilder with sensible defaults.
func NewTrade(portfolioID string) *TradeBuilder {
	return &TradeBuilder{
		ID:          MakeID(),
		PortfolioID: portfolioID,
		Symbol:      "SBER",
		EntryDate:   "2024-01-10",
		EntryPrice:  100,
		Quantity:    10,
		MarginRate:  16,
		RateType:    model.RateTypeFloating,
	}
}

// WithSymbol sets a custom symbol.
func (b *TradeBuilder) WithSymbol(symbol string) *TradeBuilder {
	b.Symbol = symbol
	return b
}

// WithEntry sets the entry date, price and quantity.
func (b *TradeBuilder) WithEntry(date string, price float64, quantity int) *TradeBuilder {
	b.EntryDate = date
	b.EntryPrice = price
	b.Quantity = quantity
	return b
}

// WithMarginRate sets the annual margin rate in percent.
func (b *TradeBuilder) WithMarginRate(rate float64) *TradeBuilder {
	b.MarginRate = rate
	return b
}

// WithBorrowed sets an explicit borrowed amount.
func (b *TradeBuilder) WithBorrowed(amount float64) *TradeBuilder {
	b.BorrowedAmount = &amount
	return b
}

// FixedRate marks the trade as immune to rate changes.
func (b *TradeBuilder) FixedRate() *TradeBuilder {
	b.RateType = model.RateTypeFixed
	return b
}

// Closed marks the trade fully closed at the given date and price.
func (b *TradeBuilder) Closed(exitDate string, exitPrice float64) *TradeBuilder {
	b.ExitDate = &exitDate
	b.ExitPrice = &exitPrice
	return b
}

// Build inserts the trade into the database and returns it.
func (b *TradeBuilder) Build(t *testing.T, db *sql.DB) model.Trade {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO trade (id, portfolio_id, symbol, entry_date, exit_date, entry_price, exit_price,
			quantity, margin_rate, borrowed_amount, rate_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.PortfolioID, b.Symbol, b.EntryDate, b.ExitDate, b.EntryPrice, b.ExitPrice,
		b.Quantity, b.MarginRate, b.BorrowedAmount, b.RateType,
	)
	if err != nil {
		t.Fatalf("Failed to insert test trade: %v", err)
	}

	trade := model.Trade{
		ID:             b.ID,
		PortfolioID:    b.PortfolioID,
		Symbol:         b.Symbol,
		EntryDate:      MustParseDate(t, b.EntryDate),
		EntryPrice:     b.EntryPrice,
		Quantity:       b.Quantity,
		MarginRate:     b.MarginRate,
		BorrowedAmount: b.BorrowedAmount,
		RateType:       b.RateType,
	}
	if b.ExitDate != nil {
		exit := MustParseDate(t, *b.ExitDate)
		trade.ExitDate = &exit
		trade.ExitPrice = b.ExitPrice
	}
	return trade
}

// SpotTransactionBuilder provides a fluent interface for creating test spot
// transactions.
//
// Example usage:
//
//	testutil.NewSpotTransaction(portfolio.ID).
//	    Buy("GAZP", 10, 150).
//	    On("2024-02-01").
//	    Build(t, db)
type SpotTransactionBuilder struct {
	ID          string
	PortfolioID string
	Ticker      string
	Company     string
	Type        string
	Price       float64
	Quantity    float64
	Date        string
}

// NewSpotTransaction creates a SpotTransactionBuilder with sensible defaults.
func NewSpotTransaction(portfolioID string) *SpotTransactionBuilder {
	return &SpotTransactionBuilder{
		ID:          MakeID(),
		PortfolioID: portfolioID,
		Ticker:      "SBER",
		Type:        model.SpotBuy,
		Price:       100,
		Quantity:    10,
		Date:        "2024-01-10",
	}
}

// Buy configures the transaction as a purchase.
func (b *SpotTransactionBuilder) Buy(ticker string, quantity, price float64) *SpotTransactionBuilder {
	b.Type = model.SpotBuy
	b.Ticker = ticker
	b.Quantity = quantity
	b.Price = price
	return b
}

// Sell configures the transaction as a sale.
func (b *SpotTransactionBuilder) Sell(ticker string, quantity, price float64) *SpotTransactionBuilder {
	b.Type = model.SpotSell
	b.Ticker = ticker
	b.Quantity = quantity
	b.Price = price
	return b
}

// Deposit configures the transaction as a cash deposit.
func (b *SpotTransactionBuilder) Deposit(amount float64) *SpotTransactionBuilder {
	b.Type = model.SpotDeposit
	b.Ticker = "CASH"
	b.Quantity = 1
	b.Price = amount
	return b
}

// Withdraw configures the transaction as a cash withdrawal.
func (b *SpotTransactionBuilder) Withdraw(amount float64) *SpotTransactionBuilder {
	b.Type = model.SpotWithdraw
	b.Ticker = "CASH"
	b.Quantity = 1
	b.Price = amount
	return b
}

// Dividend configures the transaction as a dividend payment.
func (b *SpotTransactionBuilder) Dividend(ticker string, amount float64) *SpotTransactionBuilder {
	b.Type = model.SpotDividend
	b.Ticker = ticker
	b.Quantity = 1
	b.Price = amount
	return b
}

// On sets the transaction date (YYYY-MM-DD).
func (b *SpotTransactionBuilder) On(date string) *SpotTransactionBuilder {
	b.Date = date
	return b
}

// WithCompany sets the company name.
func (b *SpotTransactionBuilder) WithCompany(company string) *SpotTransactionBuilder {
	b.Company = company
	return b
}

// Build inserts the transaction into the database and returns it.
func (b *SpotTransactionBuilder) Build(t *testing.T, db *sql.DB) model.SpotTransaction {
	t.Helper()

	// created_at carries insertion order for same-day rows
	createdAt := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := db.Exec(
		`INSERT INTO spot_transaction (id, portfolio_id, ticker, company, type, price, quantity, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.PortfolioID, b.Ticker, b.Company, b.Type, b.Price, b.Quantity, b.Date, createdAt,
	)
	if err != nil {
		t.Fatalf("Failed to insert test spot transaction: %v", err)
	}

	return model.SpotTransaction{
		ID:          b.ID,
		PortfolioID: b.PortfolioID,
		Ticker:      b.Ticker,
		Company:     b.Company,
		Type:        b.Type,
		Price:       b.Price,
		Quantity:    b.Quantity,
		Date:        MustParseDate(t, b.Date),
	}
}

// RateChangeBuilder provides a fluent interface for creating test rate changes.
type RateChangeBuilder struct {
	ID     string
	Date   string
	Rate   float64
	Reason string
}

// NewRateChange creates a RateChangeBuilder for the given date and rate.
func NewRateChange(date string, rate float64) *RateChangeBuilder {
	return &RateChangeBuilder{
		ID:   MakeID(),
		Date: date,
		Rate: rate,
	}
}

// WithReason sets the reason text.
func (b *RateChangeBuilder) WithReason(reason string) *RateChangeBuilder {
	b.Reason = reason
	return b
}

// Build inserts the rate change into the database and returns it.
func (b *RateChangeBuilder) Build(t *testing.T, db *sql.DB) model.RateChange {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO rate_change (id, date, rate, reason) VALUES (?, ?, ?, ?)`,
		b.ID, b.Date, b.Rate, b.Reason,
	)
	if err != nil {
		t.Fatalf("Failed to insert test rate change: %v", err)
	}

	return model.RateChange{
		ID:     b.ID,
		Date:   MustParseDate(t, b.Date),
		Rate:   b.Rate,
		Reason: b.Reason,
	}
}

// MustParseDate parses a YYYY-MM-DD date or fails the test.
func MustParseDate(t *testing.T, date string) time.Time {
	t.Helper()

	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("Failed to parse date %q: %v", date, err)
	}
	return parsed
}
