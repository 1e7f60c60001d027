// Package scheduler runs the background jobs: the nightly snapshot rebuild
// and the weekday price refresh. Jobs are plain closures over the services;
// the scheduler owns nothing but their cron slots.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tradingdiary/backend/internal/config"
	"github.com/tradingdiary/backend/internal/repository"
	"github.com/tradingdiary/backend/internal/service"
)

// jobTimeout bounds a single scheduled run. A hung quote provider must not
// block the next day's run.
const jobTimeout = 10 * time.Minute

// Scheduler wires the cron jobs to the services.
type Scheduler struct {
	cron            *cron.Cron
	snapshotService *service.SnapshotService
	priceService    *service.PriceService
	spotRepo        *repository.SpotTransactionRepository
}

// New creates a Scheduler with jobs registered per the configured cron specs.
func New(
	cfg config.SchedulerConfig,
	snapshotService *service.SnapshotService,
	priceService *service.PriceService,
	spotRepo *repository.SpotTransactionRepository,
) (*Scheduler, error) {
	s := &Scheduler{
		cron:            cron.New(),
		snapshotService: snapshotService,
		priceService:    priceService,
		spotRepo:        spotRepo,
	}

	if _, err := s.cron.AddFunc(cfg.SnapshotSpec, s.rebuildSnapshots); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(cfg.PriceSpec, s.refreshPrices); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins running the scheduled jobs in their own goroutines.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}

func (s *Scheduler) rebuildSnapshots() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	log.Println("Starting nightly snapshot rebuild")
	if err := s.snapshotService.RebuildAll(ctx); err != nil {
		log.Printf("Snapshot rebuild failed: %v", err)
		return
	}
	log.Println("Snapshot rebuild complete")
}

func (s *Scheduler) refreshPrices() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	transactions, err := s.spotRepo.GetTransactions("")
	if err != nil {
		log.Printf("Price refresh failed to list tickers: %v", err)
		return
	}

	seen := make(map[string]struct{})
	var tickers []string
	for i := range transactions {
		ticker := transactions[i].Ticker
		if ticker == "" {
			continue
		}
		if _, ok := seen[ticker]; ok {
			continue
		}
		seen[ticker] = struct{}{}
		tickers = append(tickers, ticker)
	}
	if len(tickers) == 0 {
		return
	}

	log.Printf("Refreshing prices for %d tickers", len(tickers))
	s.priceService.RefreshAll(ctx, tickers)
	log.Println("Price refresh complete")
}
