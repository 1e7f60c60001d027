package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tradingdiary/backend/internal/apperrors"
	"github.com/tradingdiary/backend/internal/model"
)

// PriceRepository provides data access methods for the stock_price table,
// which stores the latest known price per ticker along with its source
// (provider quote or manual override).
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository creates a new PriceRepository with the provided database connection.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// GetPrices retrieves stored prices for the given tickers, keyed by ticker.
// Tickers with no stored price are simply absent from the map.
func (r *PriceRepository) GetPrices(tickers []string) (map[string]model.StockPrice, error) {
	prices := make(map[string]model.StockPrice)
	if len(tickers) == 0 {
		return prices, nil
	}

	placeholders := make([]string, len(tickers))
	args := make([]any, len(tickers))
	for i, ticker := range tickers {
		placeholders[i] = "?"
		args[i] = ticker
	}

	query := `
		SELECT ticker, price, source, updated_at
		FROM stock_price
		WHERE ticker IN (` + strings.Join(placeholders, ",") + `)
	`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock_price table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p model.StockPrice
		var updatedAtStr string
		if err := rows.Scan(&p.Ticker, &p.Price, &p.Source, &updatedAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan stock_price table results: %w", err)
		}
		if p.UpdatedAt, err = ParseTime(updatedAtStr); err != nil {
			return nil, err
		}
		prices[p.Ticker] = p
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock_price table: %w", err)
	}

	return prices, nil
}

// GetPrice retrieves the stored price for one ticker.
func (r *PriceRepository) GetPrice(ticker string) (model.StockPrice, error) {
	query := `SELECT ticker, price, source, updated_at FROM stock_price WHERE ticker = ?`

	var p model.StockPrice
	var updatedAtStr string
	err := r.db.QueryRow(query, ticker).Scan(&p.Ticker, &p.Price, &p.Source, &updatedAtStr)
	if err == sql.ErrNoRows {
		return model.StockPrice{}, apperrors.ErrPriceNotFound
	}
	if err != nil {
		return model.StockPrice{}, fmt.Errorf("failed to scan stock_price table results: %w", err)
	}
	if p.UpdatedAt, err = ParseTime(updatedAtStr); err != nil {
		return model.StockPrice{}, err
	}

	return p, nil
}

// UpsertPrice stores or replaces the price for a ticker. A manual override is
// never overwritten by a provider quote; the override stays until the user
// replaces it.
func (r *PriceRepository) UpsertPrice(ctx context.Context, p *model.StockPrice) error {
	query := `
		INSERT INTO stock_price (ticker, price, source, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(ticker) DO UPDATE SET
			price = excluded.price,
			source = excluded.source,
			updated_at = excluded.updated_at
		WHERE NOT (stock_price.source = 'manual' AND excluded.source = 'provider')
	`
	_, err := r.db.ExecContext(ctx, query,
		p.Ticker,
		p.Price,
		p.Source,
		p.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert stock price: %w", err)
	}
	return nil
}

// DeletePrice removes a stored price, typically to clear a manual override.
func (r *PriceRepository) DeletePrice(ctx context.Context, ticker string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM stock_price WHERE ticker = ?`, ticker)
	if err != nil {
		return fmt.Errorf("failed to delete stock price: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrPriceNotFound
	}
	return nil
}
