package service

import (
	"context"
	"database/sql"

	"github.com/tradingdiary/backend/internal/database"
	"github.com/tradingdiary/backend/internal/repository"
	"github.com/tradingdiary/backend/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db           *sql.DB
	settingsRepo *repository.SettingsRepository
}

// NewSystemService creates a new SystemService
func NewSystemService(db *sql.DB, settingsRepo *repository.SettingsRepository) *SystemService {
	return &SystemService{
		db:           db,
		settingsRepo: settingsRepo,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

func (s *SystemService) CheckVersion() string {
	return version.Version
}

// SetQuoteToken stores the quote-provider API token, encrypted at rest. The
// token takes effect for the provider client on the next server start.
func (s *SystemService) SetQuoteToken(ctx context.Context, token string) error {
	return s.settingsRepo.SetAPIToken(ctx, token)
}

// QuoteToken returns the stored quote-provider API token, or an empty string
// when none is stored.
func (s *SystemService) QuoteToken(ctx context.Context) (string, error) {
	return s.settingsRepo.GetAPIToken(ctx)
}
