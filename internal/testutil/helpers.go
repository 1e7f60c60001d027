package testutil

import (
	"database/sql"
	"math/rand"
	"testing"

	"github.com/fernet/fernet-go"
	"github.com/google/uuid"
	"github.com/tradingdiary/backend/internal/interest"
	"github.com/tradingdiary/backend/internal/quotes"
	"github.com/tradingdiary/backend/internal/repository"
	"github.com/tradingdiary/backend/internal/service"
)

func NewTestRateChangeService(t *testing.T, db *sql.DB) *service.RateChangeService {
	t.Helper()

	return service.NewRateChangeService(repository.NewRateChangeRepository(db))
}

func NewTestTradeService(t *testing.T, db *sql.DB) *service.TradeService {
	t.Helper()

	tradeRepo := repository.NewTradeRepository(db)

	return service.NewTradeService(
		tradeRepo,
		NewTestRateChangeService(t, db),
		interest.PrincipalFull,
	)
}

func NewTestStatisticsService(t *testing.T, db *sql.DB) *service.StatisticsService {
	t.Helper()

	return service.NewStatisticsService(
		repository.NewTradeRepository(db),
		NewTestRateChangeService(t, db),
		interest.PrincipalFull,
	)
}

// NewTestPriceService creates a PriceService backed by the given quotes
// client. Pass a client pointed at a mock server (see NewMockQuoteServer)
// to avoid real API calls.
func NewTestPriceService(t *testing.T, db *sql.DB, quotesClient *quotes.Client) *service.PriceService {
	t.Helper()

	return service.NewPriceService(repository.NewPriceRepository(db), quotesClient)
}

func NewTestSpotService(t *testing.T, db *sql.DB, quotesClient *quotes.Client) *service.SpotService {
	t.Helper()

	return service.NewSpotService(
		repository.NewSpotTransactionRepository(db),
		NewTestPriceService(t, db, quotesClient),
	)
}

func NewTestSnapshotService(t *testing.T, db *sql.DB, quotesClient *quotes.Client) *service.SnapshotService {
	t.Helper()

	return service.NewSnapshotService(
		repository.NewSnapshotRepository(db),
		repository.NewSpotTransactionRepository(db),
		repository.NewPortfolioRepository(db),
		NewTestPriceService(t, db, quotesClient),
	)
}

func NewTestPortfolioService(t *testing.T, db *sql.DB, quotesClient *quotes.Client) *service.PortfolioService {
	t.Helper()

	return service.NewPortfolioService(
		repository.NewPortfolioRepository(db),
		NewTestSnapshotService(t, db, quotesClient),
	)
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db, NewTestSettingsRepository(t, db))
}

// NewTestSettingsRepository creates a SettingsRepository with a fresh fernet
// key so token storage is enabled in tests.
func NewTestSettingsRepository(t *testing.T, db *sql.DB) *repository.SettingsRepository {
	t.Helper()

	var key fernet.Key
	if err := key.Generate(); err != nil {
		t.Fatalf("Failed to generate fernet key: %v", err)
	}
	repo, err := repository.NewSettingsRepository(db, key.Encode())
	if err != nil {
		t.Fatalf("Failed to create settings repository: %v", err)
	}
	return repo
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeSymbol generates a ticker symbol for testing.
//
// Example usage:
//
//	symbol := testutil.MakeSymbol("SBER")
//	// Returns: "SBER1A2B"
func MakeSymbol(base string) string {
	if base == "" {
		base = "TEST"
	}
	return base + randomAlphanumeric(4)
}

// MakePortfolioName generates a unique portfolio name for testing.
//
// Example usage:
//
//	name := testutil.MakePortfolioName("MyPortfolio")
//	// Returns: "MyPortfolio ABC123"
func MakePortfolioName(base string) string {
	if base == "" {
		base = "Portfolio"
	}
	return base + " " + randomAlphanumeric(6)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
