package database

import (
	"database/sql"
	"fmt"
	"time"

	"ledger-bridge/internal/logger"

	_ "github.com/lib/pq"
)

func NewConnection(databaseURL string, log *logger.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database connection established successfully")
	return db, nil
}

// RunMigrations creates the tables backing the Postgres ledger engine.
// Keys mirror the engine's 4-digit identifiers.
func RunMigrations(db *sql.DB) error {

	accountsTable := `
	CREATE TABLE IF NOT EXISTS ledger_accounts (
		account_key SMALLINT PRIMARY KEY CHECK (account_key BETWEEN 0 AND 9999),
		balance NUMERIC(31,2) NOT NULL DEFAULT 0,
		last_credit_transaction SMALLINT,
		last_debit_transaction SMALLINT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	);`

	transactionsTable := `
	CREATE TABLE IF NOT EXISTS ledger_transactions (
		transaction_key SMALLINT PRIMARY KEY CHECK (transaction_key BETWEEN 1 AND 9999),
		source_key SMALLINT NOT NULL REFERENCES ledger_accounts(account_key),
		destination_key SMALLINT NOT NULL REFERENCES ledger_accounts(account_key),
		amount NUMERIC(31,2) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP(6) WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_ledger_transactions_source_key ON ledger_transactions(source_key, transaction_key);",
		"CREATE INDEX IF NOT EXISTS idx_ledger_transactions_destination_key ON ledger_transactions(destination_key, transaction_key);",
		"CREATE INDEX IF NOT EXISTS idx_ledger_transactions_status ON ledger_transactions(status);",
	}

	migrations := []string{accountsTable, transactionsTable}
	migrations = append(migrations, indexes...)

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}
