package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tradingdiary/backend/internal/api/handlers"
	custommiddleware "github.com/tradingdiary/backend/internal/api/middleware"
	"github.com/tradingdiary/backend/internal/config"
	"github.com/tradingdiary/backend/internal/service"
)

// Services bundles the service dependencies the router needs.
type Services struct {
	System     *service.SystemService
	Portfolio  *service.PortfolioService
	Trade      *service.TradeService
	Spot       *service.SpotService
	Snapshot   *service.SnapshotService
	RateChange *service.RateChangeService
	Statistics *service.StatisticsService
	Price      *service.PriceService
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
			r.Put("/settings/quote-token", systemHandler.SetQuoteToken)
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(svc.Portfolio)
			r.Get("/", portfolioHandler.Portfolios)
			r.Post("/", portfolioHandler.CreatePortfolio)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", portfolioHandler.GetPortfolio)
				r.Get("/history", portfolioHandler.PortfolioHistory)
			})
		})

		r.Route("/trades", func(r chi.Router) {
			tradeHandler := handlers.NewTradeHandler(svc.Trade)
			r.Get("/", tradeHandler.Trades)
			r.Post("/", tradeHandler.CreateTrade)
			r.Post("/bulk-import", tradeHandler.BulkImport)
			r.Post("/fifo-close", tradeHandler.FifoClose)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", tradeHandler.GetTrade)
				r.Put("/", tradeHandler.UpdateTrade)
				r.Delete("/", tradeHandler.DeleteTrade)
				r.Post("/close", tradeHandler.CloseTrade)
				r.Get("/details", tradeHandler.TradeDetails)
				r.Get("/financing-events", tradeHandler.FinancingEvents)
				r.Post("/financing-events", tradeHandler.CreateFinancingEvent)
			})
		})

		r.Route("/rate-changes", func(r chi.Router) {
			rateChangeHandler := handlers.NewRateChangeHandler(svc.RateChange)
			r.Get("/", rateChangeHandler.RateChanges)
			r.Post("/", rateChangeHandler.CreateRateChange)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Delete("/", rateChangeHandler.DeleteRateChange)
			})
		})

		r.Route("/spot-transactions", func(r chi.Router) {
			spotHandler := handlers.NewSpotTransactionHandler(svc.Spot, svc.Snapshot)
			r.Get("/", spotHandler.Transactions)
			r.Post("/", spotHandler.CreateTransaction)
			r.Get("/positions/open", spotHandler.OpenPositions)
			r.Get("/fifo", spotHandler.FifoAnalysis)
			r.Get("/cash", spotHandler.CashFlows)
			r.Get("/stats", spotHandler.Stats)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", spotHandler.GetTransaction)
				r.Put("/", spotHandler.UpdateTransaction)
				r.Delete("/", spotHandler.DeleteTransaction)
			})
		})

		r.Route("/statistics", func(r chi.Router) {
			statisticsHandler := handlers.NewStatisticsHandler(svc.Statistics)
			r.Get("/", statisticsHandler.Statistics)
		})

		r.Route("/prices", func(r chi.Router) {
			priceHandler := handlers.NewPriceHandler(svc.Price)
			r.Get("/", priceHandler.Prices)
			r.Put("/{ticker}", priceHandler.SetOverride)
			r.Delete("/{ticker}", priceHandler.ClearOverride)
		})
	})

	return r
}
