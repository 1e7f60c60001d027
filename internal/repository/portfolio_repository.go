package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tradingdiary/backend/internal/apperrors"
	"github.com/tradingdiary/backend/internal/model"
)

// PortfolioRepository provides data access methods for the portfolio table.
type PortfolioRepository struct {
	db *sql.DB
}

// NewPortfolioRepository creates a new PortfolioRepository with the provided database connection.
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// GetPortfolios retrieves portfolios, optionally including archived ones.
func (r *PortfolioRepository) GetPortfolios(filter model.PortfolioFilter) ([]model.Portfolio, error) {
	query := `
		SELECT id, name, description, currency, is_archived
		FROM portfolio
	`
	if !filter.IncludeArchived {
		query += ` WHERE is_archived = FALSE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}
	for rows.Next() {
		var p model.Portfolio
		var description sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &description, &p.Currency, &p.IsArchived); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio table results: %w", err)
		}
		p.Description = description.String
		portfolios = append(portfolios, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio table: %w", err)
	}

	return portfolios, nil
}

// GetPortfolioOnID retrieves a single portfolio by its ID.
func (r *PortfolioRepository) GetPortfolioOnID(portfolioID string) (model.Portfolio, error) {
	query := `
		SELECT id, name, description, currency, is_archived
		FROM portfolio
		WHERE id = ?
	`

	var p model.Portfolio
	var description sql.NullString
	err := r.db.QueryRow(query, portfolioID).Scan(&p.ID, &p.Name, &description, &p.Currency, &p.IsArchived)
	if err == sql.ErrNoRows {
		return model.Portfolio{}, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to scan portfolio table results: %w", err)
	}
	p.Description = description.String

	return p, nil
}

// InsertPortfolio stores a new portfolio.
func (r *PortfolioRepository) InsertPortfolio(ctx context.Context, p *model.Portfolio) error {
	query := `
		INSERT INTO portfolio (id, name, description, currency, is_archived)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.Description, p.Currency, p.IsArchived); err != nil {
		return fmt.Errorf("failed to insert portfolio: %w", err)
	}
	return nil
}
