// Package fifo implements first-in-first-out lot matching for spot
// transactions. A buy appends a lot to the ticker's queue; a sell consumes
// lots from the front in acquisition order, emitting one realized-match
// record per consumed slice. The matcher is a pure function over its input:
// it holds no state between calls and never mutates the transactions it is
// given.
package fifo

import (
	"math"
	"sort"
	"time"

	"github.com/tradingdiary/backend/internal/model"
)

// Lot is a discrete acquisition batch with its own unit cost and remaining
// quantity. Lots are owned exclusively by their ticker's queue.
type Lot struct {
	Ticker            string    `json:"ticker"`
	QuantityRemaining float64   `json:"quantityRemaining"`
	UnitCost          float64   `json:"unitCost"`
	AcquiredDate      time.Time `json:"acquiredDate"`
}

// RealizedMatch pairs a slice of a sale with the lot it consumed. A single
// sale that drains multiple lots produces multiple match records.
type RealizedMatch struct {
	Ticker             string    `json:"ticker"`
	SaleDate           time.Time `json:"saleDate"`
	SalePrice          float64   `json:"salePrice"`
	PurchaseDate       time.Time `json:"purchaseDate"`
	PurchasePrice      float64   `json:"purchasePrice"`
	Quantity           float64   `json:"quantity"`
	CostBasis          float64   `json:"costBasis"`
	Proceeds           float64   `json:"proceeds"`
	RealizedPnL        float64   `json:"realizedPnl"`
	RealizedPnLPercent float64   `json:"realizedPnlPercent"`
}

// DiagnosticKind classifies a problem found while matching.
type DiagnosticKind string

const (
	// DiagInsufficientLots marks a sell whose quantity exceeded the
	// available lot quantity. The excess is reported, never modeled as a
	// negative lot. It usually means missing buy history or a data-entry
	// mistake.
	DiagInsufficientLots DiagnosticKind = "insufficient_lots"

	// DiagInvalidRecord marks a transaction skipped for having a
	// non-positive quantity or a missing/invalid price.
	DiagInvalidRecord DiagnosticKind = "invalid_record"
)

// Diagnostic reports a non-fatal problem encountered during matching.
// The computation always completes; callers decide whether to surface these.
type Diagnostic struct {
	Kind          DiagnosticKind `json:"kind"`
	Ticker        string         `json:"ticker"`
	TransactionID string         `json:"transactionId,omitempty"`
	Date          time.Time      `json:"date"`
	Quantity      float64        `json:"quantity"` // unmatched or invalid quantity
	Message       string         `json:"message"`
}

// Result is the output of a matching run.
type Result struct {
	// OpenLots holds the residual lot queue per ticker, in acquisition order.
	OpenLots map[string][]Lot `json:"openLots"`
	// Matches holds all realized-match records, ordered by sale date.
	Matches []RealizedMatch `json:"matches"`
	// Diagnostics lists oversold sells and skipped invalid records.
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Match runs FIFO lot matching over the given transactions. Transactions for
// all tickers may be mixed in one slice; the matcher groups them by ticker.
// Only BUY and SELL rows participate; cash movements are ignored.
//
// Ordering is by transaction date ascending with ties broken by the original
// slice order (stable sort), matching insertion order for same-day rows.
func Match(transactions []model.SpotTransaction) Result {
	result := Result{
		OpenLots: make(map[string][]Lot),
		Matches:  []RealizedMatch{},
	}

	byTicker := make(map[string][]model.SpotTransaction)
	var tickers []string
	for _, tx := range transactions {
		if tx.Type != model.SpotBuy && tx.Type != model.SpotSell {
			continue
		}
		if _, seen := byTicker[tx.Ticker]; !seen {
			tickers = append(tickers, tx.Ticker)
		}
		byTicker[tx.Ticker] = append(byTicker[tx.Ticker], tx)
	}
	sort.Strings(tickers)

	for _, ticker := range tickers {
		txs := byTicker[ticker]
		sort.SliceStable(txs, func(i, j int) bool {
			return txs[i].Date.Before(txs[j].Date)
		})

		var queue []Lot
		for _, tx := range txs {
			if !validRecord(tx) {
				result.Diagnostics = append(result.Diagnostics, Diagnostic{
					Kind:          DiagInvalidRecord,
					Ticker:        ticker,
					TransactionID: tx.ID,
					Date:          tx.Date,
					Quantity:      tx.Quantity,
					Message:       "skipped: non-positive quantity or invalid price",
				})
				continue
			}

			switch tx.Type {
			case model.SpotBuy:
				queue = append(queue, Lot{
					Ticker:            ticker,
					QuantityRemaining: tx.Quantity,
					UnitCost:          tx.Price,
					AcquiredDate:      tx.Date,
				})
			case model.SpotSell:
				matches, leftover := consume(&queue, tx)
				result.Matches = append(result.Matches, matches...)
				if leftover > 0 {
					result.Diagnostics = append(result.Diagnostics, Diagnostic{
						Kind:          DiagInsufficientLots,
						Ticker:        ticker,
						TransactionID: tx.ID,
						Date:          tx.Date,
						Quantity:      leftover,
						Message:       "sell quantity exceeds open lots",
					})
				}
			}
		}

		if len(queue) > 0 {
			result.OpenLots[ticker] = queue
		}
	}

	sort.SliceStable(result.Matches, func(i, j int) bool {
		return result.Matches[i].SaleDate.Before(result.Matches[j].SaleDate)
	})

	return result
}

// consume takes units off the front of the queue for one sell, emitting one
// match per consumed slice. Returns the matches and the unmatched leftover
// quantity. Lots drained to zero are dropped from the queue.
func consume(queue *[]Lot, sell model.SpotTransaction) ([]RealizedMatch, float64) {
	remaining := sell.Quantity
	var matches []RealizedMatch

	for remaining > 0 && len(*queue) > 0 {
		lot := &(*queue)[0]

		sliceQty := math.Min(remaining, lot.QuantityRemaining)
		costBasis := lot.UnitCost * sliceQty
		proceeds := sell.Price * sliceQty
		pnl := proceeds - costBasis

		pnlPercent := 0.0
		if costBasis > 0 {
			pnlPercent = pnl / costBasis * 100
		}

		matches = append(matches, RealizedMatch{
			Ticker:             sell.Ticker,
			SaleDate:           sell.Date,
			SalePrice:          sell.Price,
			PurchaseDate:       lot.AcquiredDate,
			PurchasePrice:      lot.UnitCost,
			Quantity:           sliceQty,
			CostBasis:          costBasis,
			Proceeds:           proceeds,
			RealizedPnL:        pnl,
			RealizedPnLPercent: pnlPercent,
		})

		lot.QuantityRemaining -= sliceQty
		remaining -= sliceQty

		if lot.QuantityRemaining <= 0 {
			*queue = (*queue)[1:]
		}
	}

	return matches, remaining
}

func validRecord(tx model.SpotTransaction) bool {
	if tx.Quantity <= 0 {
		return false
	}
	if tx.Price <= 0 || math.IsNaN(tx.Price) || math.IsInf(tx.Price, 0) {
		return false
	}
	return true
}

// Summary aggregates realized-match records for reporting.
type Summary struct {
	TotalRealizedPnL  float64 `json:"totalRealizedPnl"`
	TotalProceeds     float64 `json:"totalSaleProceeds"`
	TotalCostBasis    float64 `json:"totalCostBasis"`
	TotalQuantity     float64 `json:"totalQuantity"`
	MatchCount        int     `json:"matchCount"`
	ProfitableMatches int     `json:"profitableMatches"`
	TotalProfit       float64 `json:"totalProfit"`
	TotalLoss         float64 `json:"totalLoss"`
	WinRate           float64 `json:"winRate"` // percent of profitable matches
}

// Summarize reduces match records to totals, profit/loss split and win rate.
func Summarize(matches []RealizedMatch) Summary {
	s := Summary{MatchCount: len(matches)}
	for _, m := range matches {
		s.TotalRealizedPnL += m.RealizedPnL
		s.TotalProceeds += m.Proceeds
		s.TotalCostBasis += m.CostBasis
		s.TotalQuantity += m.Quantity
		if m.RealizedPnL > 0 {
			s.ProfitableMatches++
			s.TotalProfit += m.RealizedPnL
		} else {
			s.TotalLoss += math.Abs(m.RealizedPnL)
		}
	}
	if s.MatchCount > 0 {
		s.WinRate = float64(s.ProfitableMatches) / float64(s.MatchCount) * 100
	}
	return s
}

// OpenQuantity sums the remaining quantity across the given lots.
func OpenQuantity(lots []Lot) float64 {
	var qty float64
	for _, lot := range lots {
		qty += lot.QuantityRemaining
	}
	return qty
}

// Invested sums remaining quantity times unit cost across the given lots.
func Invested(lots []Lot) float64 {
	var cost float64
	for _, lot := range lots {
		cost += lot.QuantityRemaining * lot.UnitCost
	}
	return cost
}

// AverageCost returns the weighted average unit cost of the remaining lots,
// or 0 when nothing is open.
func AverageCost(lots []Lot) float64 {
	qty := OpenQuantity(lots)
	if qty <= 0 {
		return 0
	}
	return Invested(lots) / qty
}
