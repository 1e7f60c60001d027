package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradingdiary/backend/internal/api"
	"github.com/tradingdiary/backend/internal/config"
	"github.com/tradingdiary/backend/internal/database"
	"github.com/tradingdiary/backend/internal/interest"
	"github.com/tradingdiary/backend/internal/quotes"
	"github.com/tradingdiary/backend/internal/repository"
	"github.com/tradingdiary/backend/internal/scheduler"
	"github.com/tradingdiary/backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection and run migrations
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Create repositories
	portfolioRepo := repository.NewPortfolioRepository(db)
	tradeRepo := repository.NewTradeRepository(db)
	rateChangeRepo := repository.NewRateChangeRepository(db)
	spotRepo := repository.NewSpotTransactionRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)

	settingsRepo, err := repository.NewSettingsRepository(db, cfg.Quotes.EncryptionKey)
	if err != nil {
		log.Fatalf("Failed to initialize settings repository: %v", err)
	}

	// Quote provider client, with the stored API token when one is set
	quoteOpts := []quotes.Option{}
	token, err := settingsRepo.GetAPIToken(context.Background())
	if err != nil {
		log.Printf("No stored quote API token: %v", err)
	} else if token != "" {
		quoteOpts = append(quoteOpts, quotes.WithAPIToken(token))
	}
	quotesClient := quotes.NewClient(quoteOpts...)

	// Create services
	systemService := service.NewSystemService(db, settingsRepo)
	rateChangeService := service.NewRateChangeService(rateChangeRepo)
	priceService := service.NewPriceService(priceRepo, quotesClient)
	spotService := service.NewSpotService(spotRepo, priceService)
	snapshotService := service.NewSnapshotService(snapshotRepo, spotRepo, portfolioRepo, priceService)
	portfolioService := service.NewPortfolioService(portfolioRepo, snapshotService)
	tradeService := service.NewTradeService(tradeRepo, rateChangeService, interest.PrincipalFull)
	statisticsService := service.NewStatisticsService(tradeRepo, rateChangeService, interest.PrincipalFull)

	// Create router
	router := api.NewRouter(api.Services{
		System:     systemService,
		Portfolio:  portfolioService,
		Trade:      tradeService,
		Spot:       spotService,
		Snapshot:   snapshotService,
		RateChange: rateChangeService,
		Statistics: statisticsService,
		Price:      priceService,
	}, cfg)

	// Start background jobs
	jobs, err := scheduler.New(cfg.Scheduler, snapshotService, priceService, spotRepo)
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}
	jobs.Start()

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	jobs.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
