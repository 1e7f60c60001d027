package request

type CreateSpotTransactionRequest struct {
	PortfolioID string  `json:"portfolioId"`
	Ticker      string  `json:"ticker"`
	Company     string  `json:"company,omitempty"`
	Type        string  `json:"transactionType"`
	Price       float64 `json:"price"`
	Quantity    float64 `json:"quantity"`
	Date        string  `json:"transactionDate"`
	Note        string  `json:"note,omitempty"`
}

type UpdateSpotTransactionRequest struct {
	Ticker   *string  `json:"ticker,omitempty"`
	Company  *string  `json:"company,omitempty"`
	Type     *string  `json:"transactionType,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Quantity *float64 `json:"quantity,omitempty"`
	Date     *string  `json:"transactionDate,omitempty"`
	Note     *string  `json:"note,omitempty"`
}
