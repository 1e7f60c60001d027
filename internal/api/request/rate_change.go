package request

type CreateRateChangeRequest struct {
	Date   string  `json:"date"`
	Rate   float64 `json:"rate"`
	Reason string  `json:"reason,omitempty"`
}
