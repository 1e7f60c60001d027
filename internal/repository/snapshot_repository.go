package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tradingdiary/backend/internal/model"
)

// SnapshotRepository provides data access methods for the portfolio_snapshot
// table, the pre-calculated daily valuations behind the history endpoint.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the provided database connection.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// GetSnapshots retrieves snapshots for a portfolio within the inclusive date
// range, ordered by date ascending.
func (r *SnapshotRepository) GetSnapshots(portfolioID, startDate, endDate string) ([]model.PortfolioSnapshot, error) {
	query := `
		SELECT id, portfolio_id, date, market_value, cost_basis, cash_balance, realized_pnl, calculated_at
		FROM portfolio_snapshot
		WHERE portfolio_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := r.db.Query(query, portfolioID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio_snapshot table: %w", err)
	}
	defer rows.Close()

	snapshots := []model.PortfolioSnapshot{}
	for rows.Next() {
		var s model.PortfolioSnapshot
		if err := rows.Scan(&s.ID, &s.PortfolioID, &s.Date, &s.MarketValue, &s.CostBasis, &s.CashBalance, &s.RealizedPnL, &s.CalculatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio_snapshot table results: %w", err)
		}
		snapshots = append(snapshots, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio_snapshot table: %w", err)
	}

	return snapshots, nil
}

// ReplaceSnapshots atomically replaces all snapshots for a portfolio.
func (r *SnapshotRepository) ReplaceSnapshots(ctx context.Context, portfolioID string, snapshots []model.PortfolioSnapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM portfolio_snapshot WHERE portfolio_id = ?`, portfolioID); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO portfolio_snapshot (id, portfolio_id, date, market_value, cost_basis, cash_balance, realized_pnl, calculated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range snapshots {
		if _, err := stmt.ExecContext(ctx, s.ID, s.PortfolioID, s.Date, s.MarketValue, s.CostBasis, s.CashBalance, s.RealizedPnL, s.CalculatedAt); err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshots: %w", err)
	}
	return nil
}

// ClearSnapshots drops all snapshots for a portfolio, forcing the history
// endpoint onto the on-demand path until the next rebuild.
func (r *SnapshotRepository) ClearSnapshots(ctx context.Context, portfolioID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM portfolio_snapshot WHERE portfolio_id = ?`, portfolioID); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}
