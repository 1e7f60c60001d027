package model

import "time"

// Financing event types for a margin trade.
const (
	// FinancingEventRateChange overrides the annual rate for this trade
	// from the event date onward, independent of the central-bank rate
	// change history.
	FinancingEventRateChange = "RATE_CHANGE"

	// FinancingEventRepayment records a partial loan repayment. The repaid
	// amount stops accruing interest from the event date onward.
	FinancingEventRepayment = "REPAYMENT"

	// FinancingEventCollateralTopup records additional collateral posted
	// against the position. It does not change the interest-bearing
	// principal.
	FinancingEventCollateralTopup = "COLLATERAL_TOPUP"
)

// FinancingEvent is a dated change to a single trade's financing terms.
// Amount is set for REPAYMENT and COLLATERAL_TOPUP; Rate for RATE_CHANGE.
type FinancingEvent struct {
	ID        string    `json:"id"`
	TradeID   string    `json:"tradeId"`
	EventType string    `json:"eventType"`
	Date      time.Time `json:"date"`
	Amount    *float64  `json:"amount,omitempty"`
	Rate      *float64  `json:"rate,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}
