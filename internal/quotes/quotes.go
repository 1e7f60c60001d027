// Package quotes provides a thin HTTP client for the external quote provider.
// It is a proxy only: no streaming, no caching of its own. Cached prices and
// manual overrides live in the stock_price table.
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Client fetches current prices from the quote provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the quote provider URL, used by tests to point the
// client at a local httptest server.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithAPIToken sets a bearer token for providers that require one.
func WithAPIToken(token string) Option {
	return func(c *Client) { c.apiToken = token }
}

// NewClient creates a quote client with default HTTP settings.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetQuote fetches the current price for one symbol. The provider's
// regularMarketPrice is preferred; the most recent close serves as fallback
// when the meta price is absent.
func (c *Client) GetQuote(ctx context.Context, symbol string) (Quote, error) {
	url := fmt.Sprintf("%s/%s?interval=1d&range=5d", c.baseURL, symbol)

	response, err := c.query(ctx, url)
	if err != nil {
		return Quote{}, err
	}
	if len(response.Chart.Result) == 0 {
		return Quote{}, fmt.Errorf("no results returned for symbol %s", symbol)
	}

	result := response.Chart.Result[0]
	quote := Quote{
		Symbol:   result.Meta.Symbol,
		Name:     result.Meta.LongName,
		Currency: result.Meta.Currency,
		Price:    result.Meta.RegularMarketPrice,
	}

	if quote.Price == 0 {
		if len(result.Indicators.Quote) == 0 || len(result.Indicators.Quote[0].Close) == 0 {
			return Quote{}, fmt.Errorf("no close prices returned for symbol %s", symbol)
		}
		closes := result.Indicators.Quote[0].Close
		quote.Price = closes[len(closes)-1]
	}

	return quote, nil
}

func (c *Client) query(ctx context.Context, url string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		return Response{}, err
	}

	if response.Chart.Error != nil {
		return response, fmt.Errorf("quote provider error: %s", *response.Chart.Error)
	}

	return response, nil
}
