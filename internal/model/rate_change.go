package model

import "time"

// RateChange records a central-bank rate change that applies to floating-rate
// margin trades. Changes are stored unordered and must be sorted by date
// before use; a change dated before a trade's entry date never applies to
// that trade.
type RateChange struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Rate      float64   `json:"rate"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}
