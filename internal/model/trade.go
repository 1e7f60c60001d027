package model

import "time"

// Financing rate types for a margin trade.
const (
	RateTypeFixed    = "fixed"
	RateTypeFloating = "floating"
)

// Trade represents a margin position financed with borrowed capital.
// EntryDate/ExitDate are calendar dates with no time-of-day component.
// MarginRate is the nominal annual interest rate in percent, fixed at
// trade creation; it stays in effect until superseded by a rate change
// dated on or after the entry date.
type Trade struct {
	ID                string     `json:"id"`
	PortfolioID       string     `json:"portfolioId"`
	Symbol            string     `json:"symbol"`
	EntryDate         time.Time  `json:"entryDate"`
	ExitDate          *time.Time `json:"exitDate,omitempty"`
	EntryPrice        float64    `json:"entryPrice"`
	ExitPrice         *float64   `json:"exitPrice,omitempty"`
	Quantity          int        `json:"quantity"`
	MarginRate        float64    `json:"marginRate"`
	Leverage          *float64   `json:"leverage,omitempty"`
	BorrowedAmount    *float64   `json:"borrowedAmount,omitempty"`
	CollateralAmount  *float64   `json:"collateralAmount,omitempty"`
	MaintenanceMargin float64    `json:"maintenanceMargin"`
	RateType          string     `json:"rateType"`
	Notes             string     `json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"createdAt,omitempty"`

	Closures        []TradeClosure   `json:"closures,omitempty"`
	FinancingEvents []FinancingEvent `json:"financingEvents,omitempty"`
}

// IsOpen reports whether the trade still has open quantity.
func (t *Trade) IsOpen() bool {
	return t.ExitDate == nil
}

// OpenQuantity returns the quantity not yet covered by closure records.
func (t *Trade) OpenQuantity() int {
	open := t.Quantity
	for _, c := range t.Closures {
		open -= c.ClosedQuantity
	}
	if open < 0 {
		return 0
	}
	return open
}

// PositionCost returns entry price times quantity.
func (t *Trade) PositionCost() float64 {
	return t.EntryPrice * float64(t.Quantity)
}

// Principal returns the amount subject to interest: the borrowed amount when
// recorded, otherwise the full position cost.
func (t *Trade) Principal() float64 {
	if t.BorrowedAmount != nil {
		return *t.BorrowedAmount
	}
	return t.PositionCost()
}

// TradeClosure represents a partial or full close of a margin trade.
// Trades are never mutated in place when partially closed; closures are
// appended and the trade counts as fully closed once the cumulative closed
// quantity reaches the trade quantity.
type TradeClosure struct {
	ID             string    `json:"id"`
	TradeID        string    `json:"tradeId"`
	ClosedQuantity int       `json:"closedQuantity"`
	ExitPrice      float64   `json:"exitPrice"`
	ExitDate       time.Time `json:"exitDate"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
}

// FifoCloseReport summarizes a symbol-level FIFO close across open trades.
// Leftover is the quantity that could not be matched against open trades;
// it is reported rather than silently dropped.
type FifoCloseReport struct {
	Requested      int      `json:"requested"`
	Closed         int      `json:"closed"`
	Leftover       int      `json:"leftover"`
	AffectedTrades []string `json:"affectedTrades"`
	GrossProceeds  float64  `json:"grossProceeds"`
	EntryCost      float64  `json:"entryCost"`
	GrossPnL       float64  `json:"grossPnl"`
}

// BulkImportRowError reports why one row of a trade import was rejected.
// Row is the zero-based position in the submitted batch.
type BulkImportRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// BulkImportReport summarizes a batch trade import. Rows fail independently;
// a rejected row never blocks the rest of the batch.
type BulkImportReport struct {
	Imported int                  `json:"imported"`
	Failed   int                  `json:"failed"`
	Trades   []Trade              `json:"trades"`
	Errors   []BulkImportRowError `json:"errors"`
}
