package request

type CreateTradeRequest struct {
	PortfolioID       string   `json:"portfolioId"`
	Symbol            string   `json:"symbol"`
	EntryDate         string   `json:"entryDate"`
	EntryPrice        float64  `json:"entryPrice"`
	Quantity          int      `json:"quantity"`
	MarginRate        float64  `json:"marginRate"`
	Leverage          *float64 `json:"leverage,omitempty"`
	BorrowedAmount    *float64 `json:"borrowedAmount,omitempty"`
	CollateralAmount  *float64 `json:"collateralAmount,omitempty"`
	MaintenanceMargin *float64 `json:"maintenanceMargin,omitempty"`
	RateType          string   `json:"rateType,omitempty"`
	Notes             string   `json:"notes,omitempty"`
}

type BulkImportTradesRequest struct {
	Trades []CreateTradeRequest `json:"trades"`
}

type UpdateTradeRequest struct {
	Notes *string `json:"notes,omitempty"`
}

type CloseTradeRequest struct {
	Quantity  int     `json:"quantity"`
	ExitPrice float64 `json:"exitPrice"`
	ExitDate  string  `json:"exitDate"`
	Notes     string  `json:"notes,omitempty"`
}

type CreateFinancingEventRequest struct {
	EventType string   `json:"eventType"`
	Date      string   `json:"date"`
	Amount    *float64 `json:"amount,omitempty"`
	Rate      *float64 `json:"rate,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

type FifoCloseRequest struct {
	PortfolioID string  `json:"portfolioId"`
	Symbol      string  `json:"symbol"`
	Quantity    int     `json:"quantity"`
	ExitPrice   float64 `json:"exitPrice"`
	ExitDate    string  `json:"exitDate"`
	Notes       string  `json:"notes,omitempty"`
}
