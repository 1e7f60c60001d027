package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	// Configure SQLite for testing
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	// Create schema
	if err := createTestSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	// Cleanup when test ends
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestSchema creates all database tables for testing.
// Schema is synchronized with the production migrations.
func createTestSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE portfolio (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			description TEXT,
			currency VARCHAR(5) NOT NULL DEFAULT 'RUB',
			is_archived BOOLEAN NOT NULL DEFAULT FALSE
		);

		CREATE TABLE trade (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			portfolio_id VARCHAR(36) NOT NULL,
			symbol VARCHAR(10) NOT NULL,
			entry_date DATE NOT NULL,
			exit_date DATE,
			entry_price FLOAT NOT NULL,
			exit_price FLOAT,
			quantity INTEGER NOT NULL,
			margin_rate FLOAT NOT NULL,
			leverage FLOAT,
			borrowed_amount FLOAT,
			collateral_amount FLOAT,
			maintenance_margin FLOAT NOT NULL DEFAULT 20,
			rate_type VARCHAR(10) NOT NULL DEFAULT 'fixed',
			notes TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(portfolio_id) REFERENCES portfolio(id) ON DELETE CASCADE
		);

		CREATE INDEX idx_trade_portfolio_symbol ON trade(portfolio_id, symbol);

		CREATE TABLE trade_closure (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			trade_id VARCHAR(36) NOT NULL,
			closed_quantity INTEGER NOT NULL,
			exit_price FLOAT NOT NULL,
			exit_date DATE NOT NULL,
			notes TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(trade_id) REFERENCES trade(id) ON DELETE CASCADE
		);

		CREATE TABLE financing_event (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			trade_id VARCHAR(36) NOT NULL,
			event_type VARCHAR(20) NOT NULL,
			date DATE NOT NULL,
			amount FLOAT,
			rate FLOAT,
			notes TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(trade_id) REFERENCES trade(id) ON DELETE CASCADE
		);

		CREATE INDEX idx_financing_event_trade ON financing_event(trade_id);

		CREATE TABLE rate_change (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			date DATE NOT NULL,
			rate FLOAT NOT NULL,
			reason TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE spot_transaction (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			portfolio_id VARCHAR(36) NOT NULL,
			ticker VARCHAR(10) NOT NULL,
			company VARCHAR(100),
			type VARCHAR(10) NOT NULL,
			price FLOAT NOT NULL,
			quantity FLOAT NOT NULL,
			date DATE NOT NULL,
			note TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(portfolio_id) REFERENCES portfolio(id) ON DELETE CASCADE
		);

		CREATE INDEX idx_spot_transaction_portfolio ON spot_transaction(portfolio_id, date);

		CREATE TABLE stock_price (
			ticker VARCHAR(10) NOT NULL PRIMARY KEY,
			price FLOAT NOT NULL,
			source VARCHAR(10) NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE portfolio_snapshot (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			portfolio_id VARCHAR(36) NOT NULL,
			date DATE NOT NULL,
			market_value FLOAT NOT NULL,
			cost_basis FLOAT NOT NULL,
			cash_balance FLOAT NOT NULL,
			realized_pnl FLOAT NOT NULL,
			calculated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(portfolio_id) REFERENCES portfolio(id) ON DELETE CASCADE,
			CONSTRAINT unique_snapshot UNIQUE (portfolio_id, date)
		);

		CREATE TABLE provider_settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			api_token_encrypted TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`

	_, err := db.Exec(schema)
	return err
}
