package service

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tradingdiary/backend/internal/api/request"
	"github.com/tradingdiary/backend/internal/model"
	"github.com/tradingdiary/backend/internal/quotes"
	"github.com/tradingdiary/backend/internal/repository"
)

// maxConcurrentQuoteFetches caps the provider fan-out so a portfolio with
// many tickers does not hammer the quote API.
const maxConcurrentQuoteFetches = 5

// PriceService maintains the stored price per ticker. Stored prices come
// from two sources: the quote provider and manual user overrides; overrides
// win until the user clears them.
type PriceService struct {
	priceRepo *repository.PriceRepository
	quotes    *quotes.Client
}

// NewPriceService creates a new PriceService with the provided dependencies.
func NewPriceService(priceRepo *repository.PriceRepository, quotesClient *quotes.Client) *PriceService {
	return &PriceService{priceRepo: priceRepo, quotes: quotesClient}
}

// GetPrices returns the best known price per ticker. Tickers without a
// stored price are fetched from the provider concurrently; fetch failures
// are logged and the ticker is simply absent from the result, letting the
// caller fall back to an estimate.
func (s *PriceService) GetPrices(ctx context.Context, tickers []string) map[string]model.StockPrice {
	stored, err := s.priceRepo.GetPrices(tickers)
	if err != nil {
		log.Printf("failed to load stored prices: %v", err)
		stored = make(map[string]model.StockPrice)
	}

	var missing []string
	for _, ticker := range tickers {
		if _, ok := stored[ticker]; !ok {
			missing = append(missing, ticker)
		}
	}
	if len(missing) == 0 {
		return stored
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentQuoteFetches)

	for _, ticker := range missing {
		ticker := ticker
		g.Go(func() error {
			quote, err := s.quotes.GetQuote(gctx, ticker)
			if err != nil {
				log.Printf("quote fetch failed for %s: %v", ticker, err)
				return nil
			}

			price := model.StockPrice{
				Ticker:    ticker,
				Price:     quote.Price,
				Source:    model.PriceSourceProvider,
				UpdatedAt: time.Now(),
			}
			if err := s.priceRepo.UpsertPrice(gctx, &price); err != nil {
				log.Printf("failed to store price for %s: %v", ticker, err)
			}

			mu.Lock()
			stored[ticker] = price
			mu.Unlock()
			return nil
		})
	}
	// Workers swallow their own errors; Wait only joins them.
	_ = g.Wait()

	return stored
}

// GetPrice returns the stored price for one ticker.
func (s *PriceService) GetPrice(ticker string) (model.StockPrice, error) {
	return s.priceRepo.GetPrice(ticker)
}

// SetOverride stores a manual price for a ticker. Provider refreshes will
// not replace it.
func (s *PriceService) SetOverride(ctx context.Context, ticker string, req request.SetPriceOverrideRequest) (*model.StockPrice, error) {
	price := &model.StockPrice{
		Ticker:    ticker,
		Price:     req.Price,
		Source:    model.PriceSourceManual,
		UpdatedAt: time.Now(),
	}
	if err := s.priceRepo.UpsertPrice(ctx, price); err != nil {
		return nil, err
	}
	return price, nil
}

// ClearOverride removes the stored price for a ticker, manual or not. The
// next lookup falls through to the provider.
func (s *PriceService) ClearOverride(ctx context.Context, ticker string) error {
	return s.priceRepo.DeletePrice(ctx, ticker)
}

// RefreshAll re-fetches provider quotes for all given tickers, skipping
// manual overrides. Used by the scheduler after market close.
func (s *PriceService) RefreshAll(ctx context.Context, tickers []string) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentQuoteFetches)

	for _, ticker := range tickers {
		ticker := ticker
		g.Go(func() error {
			quote, err := s.quotes.GetQuote(gctx, ticker)
			if err != nil {
				log.Printf("price refresh failed for %s: %v", ticker, err)
				return nil
			}
			price := model.StockPrice{
				Ticker:    ticker,
				Price:     quote.Price,
				Source:    model.PriceSourceProvider,
				UpdatedAt: time.Now(),
			}
			// The upsert ignores provider writes over manual rows.
			if err := s.priceRepo.UpsertPrice(gctx, &price); err != nil {
				log.Printf("failed to store refreshed price for %s: %v", ticker, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
