package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tradingdiary/backend/internal/apperrors"
	"github.com/tradingdiary/backend/internal/model"
)

// SpotTransactionRepository provides data access methods for the
// spot_transaction table.
type SpotTransactionRepository struct {
	db *sql.DB
}

// NewSpotTransactionRepository creates a new SpotTransactionRepository with the provided database connection.
func NewSpotTransactionRepository(db *sql.DB) *SpotTransactionRepository {
	return &SpotTransactionRepository{db: db}
}

const spotColumns = `id, portfolio_id, ticker, company, type, price, quantity, date, note, created_at`

// GetTransactions retrieves spot transactions ordered by date ascending with
// ties broken by insertion order, which the FIFO matcher relies on. An empty
// portfolioID returns transactions across all portfolios.
func (r *SpotTransactionRepository) GetTransactions(portfolioID string) ([]model.SpotTransaction, error) {
	query := `SELECT ` + spotColumns + ` FROM spot_transaction`

	var args []any
	if portfolioID != "" {
		query += ` WHERE portfolio_id = ?`
		args = append(args, portfolioID)
	}
	query += ` ORDER BY date ASC, created_at ASC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query spot_transaction table: %w", err)
	}
	defer rows.Close()

	transactions := []model.SpotTransaction{}
	for rows.Next() {
		t, err := scanSpotTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating spot_transaction table: %w", err)
	}

	return transactions, nil
}

// GetTransactionsByTicker retrieves spot transactions for one ticker within a
// portfolio, ordered by date ascending.
func (r *SpotTransactionRepository) GetTransactionsByTicker(portfolioID, ticker string) ([]model.SpotTransaction, error) {
	query := `SELECT ` + spotColumns + `
		FROM spot_transaction
		WHERE portfolio_id = ? AND ticker = ?
		ORDER BY date ASC, created_at ASC`

	rows, err := r.db.Query(query, portfolioID, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query spot_transaction table: %w", err)
	}
	defer rows.Close()

	transactions := []model.SpotTransaction{}
	for rows.Next() {
		t, err := scanSpotTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating spot_transaction table: %w", err)
	}

	return transactions, nil
}

// GetTransaction retrieves a single spot transaction by ID.
func (r *SpotTransactionRepository) GetTransaction(id string) (model.SpotTransaction, error) {
	query := `SELECT ` + spotColumns + ` FROM spot_transaction WHERE id = ?`

	t, err := scanSpotTransaction(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return model.SpotTransaction{}, apperrors.ErrSpotTransactionNotFound
	}
	if err != nil {
		return model.SpotTransaction{}, err
	}
	return t, nil
}

// InsertTransaction stores a new spot transaction.
func (r *SpotTransactionRepository) InsertTransaction(ctx context.Context, t *model.SpotTransaction) error {
	query := `
		INSERT INTO spot_transaction (` + spotColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.PortfolioID,
		t.Ticker,
		t.Company,
		t.Type,
		t.Price,
		t.Quantity,
		t.Date.Format("2006-01-02"),
		t.Note,
		t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	)
	if err != nil {
		return fmt.Errorf("failed to insert spot transaction: %w", err)
	}
	return nil
}

// UpdateTransaction replaces the mutable fields of a spot transaction.
func (r *SpotTransactionRepository) UpdateTransaction(ctx context.Context, t *model.SpotTransaction) error {
	query := `
		UPDATE spot_transaction
		SET ticker = ?, company = ?, type = ?, price = ?, quantity = ?, date = ?, note = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		t.Ticker,
		t.Company,
		t.Type,
		t.Price,
		t.Quantity,
		t.Date.Format("2006-01-02"),
		t.Note,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update spot transaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrSpotTransactionNotFound
	}
	return nil
}

// DeleteTransaction removes a spot transaction by ID.
func (r *SpotTransactionRepository) DeleteTransaction(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM spot_transaction WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete spot transaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrSpotTransactionNotFound
	}
	return nil
}

func scanSpotTransaction(row rowScanner) (model.SpotTransaction, error) {
	var t model.SpotTransaction
	var dateStr, createdAtStr string
	var company, note sql.NullString

	err := row.Scan(
		&t.ID,
		&t.PortfolioID,
		&t.Ticker,
		&company,
		&t.Type,
		&t.Price,
		&t.Quantity,
		&dateStr,
		&note,
		&createdAtStr,
	)
	if err == sql.ErrNoRows {
		return model.SpotTransaction{}, err
	}
	if err != nil {
		return model.SpotTransaction{}, fmt.Errorf("failed to scan spot_transaction table results: %w", err)
	}

	t.Company = company.String
	t.Note = note.String
	if t.Date, err = ParseTime(dateStr); err != nil {
		return model.SpotTransaction{}, err
	}
	if t.CreatedAt, err = ParseTime(createdAtStr); err != nil {
		return model.SpotTransaction{}, err
	}

	return t, nil
}
