package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tradingdiary/backend/internal/apperrors"
	"github.com/tradingdiary/backend/internal/model"
)

// TradeRepository provides data access methods for the trade, trade_closure
// and financing_event tables.
type TradeRepository struct {
	db *sql.DB
}

// NewTradeRepository creates a new TradeRepository with the provided database connection.
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

const tradeColumns = `
	id, portfolio_id, symbol, entry_date, exit_date, entry_price, exit_price,
	quantity, margin_rate, leverage, borrowed_amount, collateral_amount,
	maintenance_margin, rate_type, notes, created_at
`

// GetTrades retrieves all trades for a portfolio, ordered by entry date
// ascending, each with its closure records attached. An empty portfolioID
// returns trades across all portfolios.
func (r *TradeRepository) GetTrades(portfolioID string) ([]model.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trade`

	var args []any
	if portfolioID != "" {
		query += ` WHERE portfolio_id = ?`
		args = append(args, portfolioID)
	}
	query += ` ORDER BY entry_date ASC, created_at ASC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade table: %w", err)
	}
	defer rows.Close()

	trades := []model.Trade{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade table: %w", err)
	}

	if err := r.attachClosures(trades); err != nil {
		return nil, err
	}
	if err := r.attachFinancingEvents(trades); err != nil {
		return nil, err
	}

	return trades, nil
}

// GetOpenTradesBySymbol retrieves open trades for a symbol ordered by entry
// date ascending, the consumption order for FIFO closes.
func (r *TradeRepository) GetOpenTradesBySymbol(portfolioID, symbol string) ([]model.Trade, error) {
	query := `SELECT ` + tradeColumns + `
		FROM trade
		WHERE portfolio_id = ? AND symbol = ? AND exit_date IS NULL
		ORDER BY entry_date ASC, created_at ASC`

	rows, err := r.db.Query(query, portfolioID, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade table: %w", err)
	}
	defer rows.Close()

	trades := []model.Trade{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade table: %w", err)
	}

	if err := r.attachClosures(trades); err != nil {
		return nil, err
	}
	if err := r.attachFinancingEvents(trades); err != nil {
		return nil, err
	}

	return trades, nil
}

// GetTrade retrieves a single trade by ID with its closures attached.
func (r *TradeRepository) GetTrade(tradeID string) (model.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trade WHERE id = ?`

	row := r.db.QueryRow(query, tradeID)
	t, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return model.Trade{}, apperrors.ErrTradeNotFound
	}
	if err != nil {
		return model.Trade{}, err
	}

	trades := []model.Trade{t}
	if err := r.attachClosures(trades); err != nil {
		return model.Trade{}, err
	}
	if err := r.attachFinancingEvents(trades); err != nil {
		return model.Trade{}, err
	}

	return trades[0], nil
}

// InsertTrade stores a new trade.
func (r *TradeRepository) InsertTrade(ctx context.Context, t *model.Trade) error {
	query := `
		INSERT INTO trade (` + tradeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var exitDate, exitPrice any
	if t.ExitDate != nil {
		exitDate = t.ExitDate.Format("2006-01-02")
	}
	if t.ExitPrice != nil {
		exitPrice = *t.ExitPrice
	}

	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.PortfolioID,
		t.Symbol,
		t.EntryDate.Format("2006-01-02"),
		exitDate,
		t.EntryPrice,
		exitPrice,
		t.Quantity,
		t.MarginRate,
		nullableFloat(t.Leverage),
		nullableFloat(t.BorrowedAmount),
		nullableFloat(t.CollateralAmount),
		t.MaintenanceMargin,
		t.RateType,
		t.Notes,
		t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return nil
}

// MarkTradeClosed sets the trade's exit price and date.
func (r *TradeRepository) MarkTradeClosed(ctx context.Context, tradeID string, exitPrice float64, exitDate string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE trade SET exit_price = ?, exit_date = ? WHERE id = ?`,
		exitPrice, exitDate, tradeID,
	)
	if err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrTradeNotFound
	}
	return nil
}

// UpdateTradeNotes replaces the trade's notes field.
func (r *TradeRepository) UpdateTradeNotes(ctx context.Context, tradeID, notes string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE trade SET notes = ? WHERE id = ?`, notes, tradeID)
	if err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrTradeNotFound
	}
	return nil
}

// DeleteTrade removes a trade and, via foreign keys, its closures.
func (r *TradeRepository) DeleteTrade(ctx context.Context, tradeID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM trade WHERE id = ?`, tradeID)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrTradeNotFound
	}
	return nil
}

// InsertClosure stores a new trade closure.
func (r *TradeRepository) InsertClosure(ctx context.Context, c *model.TradeClosure) error {
	query := `
		INSERT INTO trade_closure (id, trade_id, closed_quantity, exit_price, exit_date, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.TradeID,
		c.ClosedQuantity,
		c.ExitPrice,
		c.ExitDate.Format("2006-01-02"),
		c.Notes,
		c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade closure: %w", err)
	}
	return nil
}

// InsertFinancingEvent stores a new financing event.
func (r *TradeRepository) InsertFinancingEvent(ctx context.Context, ev *model.FinancingEvent) error {
	query := `
		INSERT INTO financing_event (id, trade_id, event_type, date, amount, rate, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		ev.ID,
		ev.TradeID,
		ev.EventType,
		ev.Date.Format("2006-01-02"),
		nullableFloat(ev.Amount),
		nullableFloat(ev.Rate),
		ev.Notes,
		ev.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	)
	if err != nil {
		return fmt.Errorf("failed to insert financing event: %w", err)
	}
	return nil
}

// GetFinancingEvents retrieves a trade's financing events ordered by event
// date ascending.
func (r *TradeRepository) GetFinancingEvents(tradeID string) ([]model.FinancingEvent, error) {
	query := `
		SELECT id, trade_id, event_type, date, amount, rate, notes, created_at
		FROM financing_event
		WHERE trade_id = ?
		ORDER BY date ASC, created_at ASC
	`

	rows, err := r.db.Query(query, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query financing_event table: %w", err)
	}
	defer rows.Close()

	events := []model.FinancingEvent{}
	for rows.Next() {
		ev, err := scanFinancingEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating financing_event table: %w", err)
	}

	return events, nil
}

// attachFinancingEvents loads financing events for the given trades in one
// query and assigns them to their trades in date order.
func (r *TradeRepository) attachFinancingEvents(trades []model.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	placeholders := make([]byte, 0, len(trades)*2)
	args := make([]any, len(trades))
	index := make(map[string]int, len(trades))
	for i := range trades {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args[i] = trades[i].ID
		index[trades[i].ID] = i
	}

	query := `
		SELECT id, trade_id, event_type, date, amount, rate, notes, created_at
		FROM financing_event
		WHERE trade_id IN (` + string(placeholders) + `)
		ORDER BY date ASC, created_at ASC
	`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("failed to query financing_event table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ev, err := scanFinancingEvent(rows)
		if err != nil {
			return err
		}
		i := index[ev.TradeID]
		trades[i].FinancingEvents = append(trades[i].FinancingEvents, ev)
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating financing_event table: %w", err)
	}

	return nil
}

func scanFinancingEvent(row rowScanner) (model.FinancingEvent, error) {
	var ev model.FinancingEvent
	var dateStr, createdAtStr string
	var notes sql.NullString
	var amount, rate sql.NullFloat64

	err := row.Scan(&ev.ID, &ev.TradeID, &ev.EventType, &dateStr, &amount, &rate, &notes, &createdAtStr)
	if err != nil {
		return model.FinancingEvent{}, fmt.Errorf("failed to scan financing_event table results: %w", err)
	}

	if ev.Date, err = ParseTime(dateStr); err != nil {
		return model.FinancingEvent{}, err
	}
	if ev.CreatedAt, err = ParseTime(createdAtStr); err != nil {
		return model.FinancingEvent{}, err
	}
	if amount.Valid {
		ev.Amount = &amount.Float64
	}
	if rate.Valid {
		ev.Rate = &rate.Float64
	}
	ev.Notes = notes.String

	return ev, nil
}

// attachClosures loads closure records for the given trades in one query and
// assigns them to their trades in creation order.
func (r *TradeRepository) attachClosures(trades []model.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	placeholders := make([]byte, 0, len(trades)*2)
	args := make([]any, len(trades))
	index := make(map[string]int, len(trades))
	for i := range trades {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args[i] = trades[i].ID
		index[trades[i].ID] = i
	}

	query := `
		SELECT id, trade_id, closed_quantity, exit_price, exit_date, notes, created_at
		FROM trade_closure
		WHERE trade_id IN (` + string(placeholders) + `)
		ORDER BY exit_date ASC, created_at ASC
	`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("failed to query trade_closure table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c model.TradeClosure
		var exitDateStr, createdAtStr string
		var notes sql.NullString
		if err := rows.Scan(&c.ID, &c.TradeID, &c.ClosedQuantity, &c.ExitPrice, &exitDateStr, &notes, &createdAtStr); err != nil {
			return fmt.Errorf("failed to scan trade_closure table results: %w", err)
		}
		c.Notes = notes.String
		if c.ExitDate, err = ParseTime(exitDateStr); err != nil {
			return err
		}
		if c.CreatedAt, err = ParseTime(createdAtStr); err != nil {
			return err
		}
		i := index[c.TradeID]
		trades[i].Closures = append(trades[i].Closures, c)
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating trade_closure table: %w", err)
	}

	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (model.Trade, error) {
	var t model.Trade
	var entryDateStr, createdAtStr string
	var exitDateStr, notes sql.NullString
	var exitPrice, leverage, borrowed, collateral sql.NullFloat64

	err := row.Scan(
		&t.ID,
		&t.PortfolioID,
		&t.Symbol,
		&entryDateStr,
		&exitDateStr,
		&t.EntryPrice,
		&exitPrice,
		&t.Quantity,
		&t.MarginRate,
		&leverage,
		&borrowed,
		&collateral,
		&t.MaintenanceMargin,
		&t.RateType,
		&notes,
		&createdAtStr,
	)
	if err == sql.ErrNoRows {
		return model.Trade{}, err
	}
	if err != nil {
		return model.Trade{}, fmt.Errorf("failed to scan trade table results: %w", err)
	}

	if t.EntryDate, err = ParseTime(entryDateStr); err != nil {
		return model.Trade{}, err
	}
	if exitDateStr.Valid {
		exitDate, err := ParseTime(exitDateStr.String)
		if err != nil {
			return model.Trade{}, err
		}
		t.ExitDate = &exitDate
	}
	if t.CreatedAt, err = ParseTime(createdAtStr); err != nil {
		return model.Trade{}, err
	}

	if exitPrice.Valid {
		t.ExitPrice = &exitPrice.Float64
	}
	if leverage.Valid {
		t.Leverage = &leverage.Float64
	}
	if borrowed.Valid {
		t.BorrowedAmount = &borrowed.Float64
	}
	if collateral.Valid {
		t.CollateralAmount = &collateral.Float64
	}
	t.Notes = notes.String

	return t, nil
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
