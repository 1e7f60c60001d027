package model

// Portfolio represents a portfolio from the database
type Portfolio struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
	IsArchived  bool   `json:"isArchived"`
}

// PortfolioFilter for querying portfolios
type PortfolioFilter struct {
	IncludeArchived bool
}

// PortfolioSnapshot represents a pre-calculated spot portfolio state for a specific date.
// It is stored in the portfolio_snapshot table and rebuilt by the scheduler whenever
// spot transactions change, giving fast range queries for the history endpoint.
type PortfolioSnapshot struct {
	ID           string  // Primary key
	PortfolioID  string  // Portfolio identifier
	Date         string  // Snapshot date in YYYY-MM-DD format
	MarketValue  float64 // Value of open positions on this date
	CostBasis    float64 // Cost basis of open positions on this date
	CashBalance  float64 // Running cash balance as of this date
	RealizedPnL  float64 // Cumulative realized profit/loss as of this date
	CalculatedAt string  // When this record was calculated (RFC3339)
}

// PortfolioHistoryPoint is one date of portfolio history returned by the API.
type PortfolioHistoryPoint struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	MarketValue float64 `json:"marketValue"`
	CostBasis   float64 `json:"costBasis"`
	CashBalance float64 `json:"cashBalance"`
	RealizedPnL float64 `json:"realizedPnl"`
}
