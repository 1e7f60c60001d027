package model

import "time"

// Spot transaction types. BUY and SELL affect the per-ticker lot queue;
// DEPOSIT, WITHDRAW and DIVIDEND affect only the cash balance.
const (
	SpotBuy      = "BUY"
	SpotSell     = "SELL"
	SpotDeposit  = "DEPOSIT"
	SpotWithdraw = "WITHDRAW"
	SpotDividend = "DIVIDEND"
)

// SpotTransaction represents a cash-settled instrument trade or cash movement.
type SpotTransaction struct {
	ID          string    `json:"id"`
	PortfolioID string    `json:"portfolioId"`
	Ticker      string    `json:"ticker"`
	Company     string    `json:"company,omitempty"`
	Type        string    `json:"transactionType"`
	Price       float64   `json:"price"`
	Quantity    float64   `json:"quantity"`
	Date        time.Time `json:"transactionDate"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Amount returns price times quantity.
func (t *SpotTransaction) Amount() float64 {
	return t.Price * t.Quantity
}

// CashFlow is one entry of the running cash balance ledger.
// Amount is signed: inflows positive, outflows negative.
type CashFlow struct {
	TransactionID  string    `json:"transactionId"`
	Date           time.Time `json:"date"`
	Type           string    `json:"type"`
	Ticker         string    `json:"ticker,omitempty"`
	Amount         float64   `json:"amount"`
	RunningBalance float64   `json:"runningBalance"`
}

// OpenPosition is the aggregate open holding for one ticker, derived from the
// residual FIFO lot queue.
type OpenPosition struct {
	Ticker       string  `json:"ticker"`
	Company      string  `json:"company,omitempty"`
	Quantity     float64 `json:"quantity"`
	AveragePrice float64 `json:"avgPrice"`
	Invested     float64 `json:"invested"`
	CurrentPrice float64 `json:"currentPrice"`
	MarketValue  float64 `json:"marketValue"`
	PriceSource  string  `json:"priceSource"` // "quoted" or "estimated"
}
