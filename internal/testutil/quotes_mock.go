package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tradingdiary/backend/internal/quotes"
)

// NewMockQuoteServer starts a local quote provider serving fixed prices per
// symbol. Symbols not in the map get a 200 response with an error payload,
// which the client surfaces as a fetch error. The server is shut down when
// the test completes.
//
// Example usage:
//
//	client := testutil.NewMockQuoteServer(t, map[string]float64{"SBER": 250})
//	price, err := client.GetQuote(ctx, "SBER")
func NewMockQuoteServer(t *testing.T, prices map[string]float64) *quotes.Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		symbol := parts[len(parts)-1]

		w.Header().Set("Content-Type", "application/json")

		price, ok := prices[symbol]
		if !ok {
			fmt.Fprintf(w, `{"chart":{"result":[],"error":"symbol not found"}}`)
			return
		}

		fmt.Fprintf(w, `{
			"chart": {
				"result": [{
					"meta": {
						"currency": "RUB",
						"symbol": %q,
						"longName": "Mock %s",
						"regularMarketPrice": %g
					},
					"timestamp": [1700000000],
					"indicators": {"quote": [{"close": [%g]}]}
				}],
				"error": null
			}
		}`, symbol, symbol, price, price)
	}))

	t.Cleanup(server.Close)

	return quotes.NewClient(quotes.WithBaseURL(server.URL))
}
