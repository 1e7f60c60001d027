package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tradingdiary/backend/internal/apperrors"
	"github.com/tradingdiary/backend/internal/model"
)

// RateChangeRepository provides data access methods for the rate_change table.
// The table replaces the browser-local rate history the diary used to keep:
// calculations receive its rows as an explicit read-only slice.
type RateChangeRepository struct {
	db *sql.DB
}

// NewRateChangeRepository creates a new RateChangeRepository with the provided database connection.
func NewRateChangeRepository(db *sql.DB) *RateChangeRepository {
	return &RateChangeRepository{db: db}
}

// GetRateChanges retrieves all rate changes ordered by date ascending.
// Rows whose date fails to parse are collected into a
// apperrors.ErrCorruptRateHistory error alongside the rows that did decode,
// so callers can log corruption distinctly from an intentionally empty
// history.
func (r *RateChangeRepository) GetRateChanges() ([]model.RateChange, error) {
	query := `
		SELECT id, date, rate, reason, created_at
		FROM rate_change
		ORDER BY date ASC, created_at ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate_change table: %w", err)
	}
	defer rows.Close()

	changes := []model.RateChange{}
	corrupt := 0
	for rows.Next() {
		var rc model.RateChange
		var dateStr, createdAtStr string
		var reason sql.NullString
		if err := rows.Scan(&rc.ID, &dateStr, &rc.Rate, &reason, &createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan rate_change table results: %w", err)
		}
		rc.Reason = reason.String

		rc.Date, err = ParseTime(dateStr)
		if err != nil {
			corrupt++
			continue
		}
		if rc.CreatedAt, err = ParseTime(createdAtStr); err != nil {
			corrupt++
			continue
		}

		changes = append(changes, rc)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rate_change table: %w", err)
	}

	if corrupt > 0 {
		return changes, fmt.Errorf("%w: %d undecodable rows skipped", apperrors.ErrCorruptRateHistory, corrupt)
	}

	return changes, nil
}

// InsertRateChange stores a new rate change.
func (r *RateChangeRepository) InsertRateChange(ctx context.Context, rc *model.RateChange) error {
	query := `
		INSERT INTO rate_change (id, date, rate, reason, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		rc.ID,
		rc.Date.Format("2006-01-02"),
		rc.Rate,
		rc.Reason,
		rc.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	)
	if err != nil {
		return fmt.Errorf("failed to insert rate change: %w", err)
	}
	return nil
}

// DeleteRateChange removes a rate change by ID.
func (r *RateChangeRepository) DeleteRateChange(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rate_change WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rate change: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrRateChangeNotFound
	}
	return nil
}
