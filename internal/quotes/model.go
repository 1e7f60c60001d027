package quotes

// Response represents the raw JSON response structure from the quote
// provider's chart API. The structure includes:
//   - Chart.Result: Array of result objects (typically one element)
//   - Chart.Result[].Meta: Symbol metadata (name, currency, price)
//   - Chart.Result[].Timestamp: Unix timestamps for each data point
//   - Chart.Result[].Indicators: Close price arrays
//   - Chart.Error: Optional error message from the provider
type Response struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				ExchangeName       string  `json:"exchangeName"`
				LongName           string  `json:"longName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *string `json:"error"`
	} `json:"chart"`
}

// Quote is the application's internal representation of a current price for
// one symbol after parsing the raw Response.
type Quote struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Currency string  `json:"currency"`
	Price    float64 `json:"price"`
}
