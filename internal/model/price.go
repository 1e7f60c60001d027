package model

import "time"

// Price sources for a stored stock price.
const (
	PriceSourceProvider = "provider"
	PriceSourceManual   = "manual"
)

// StockPrice is the most recent known price for a ticker. Manual overrides
// entered by the user take precedence over provider quotes until the user
// clears them.
type StockPrice struct {
	Ticker    string    `json:"ticker"`
	Price     float64   `json:"price"`
	Source    string    `json:"source"`
	UpdatedAt time.Time `json:"updatedAt"`
}
