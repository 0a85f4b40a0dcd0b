package pgengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ledger-bridge/internal/logger"
	"ledger-bridge/internal/record"

	"github.com/shopspring/decimal"
)

const (
	statusPending   = "pending"
	statusCompleted = "completed"
	statusRejected  = "rejected"
)

var (
	errDuplicateAccount   = errors.New("account already exists")
	errAccountNotFound    = errors.New("account not found")
	errInvalidTransaction = errors.New("invalid transaction")
	errTransactionsFull   = errors.New("transaction keys exhausted")
)

type store struct {
	db     *sql.DB
	logger *logger.Logger
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*record.Account, error) {
	var (
		account    record.Account
		lastCredit sql.NullInt64
		lastDebit  sql.NullInt64
	)
	if err := row.Scan(&account.ID, &account.Balance, &lastCredit, &lastDebit); err != nil {
		return nil, err
	}
	if lastCredit.Valid {
		id := int(lastCredit.Int64)
		account.LastCreditTransaction = &id
	}
	if lastDebit.Valid {
		id := int(lastDebit.Int64)
		account.LastDebitTransaction = &id
	}
	return &account, nil
}

const accountColumns = `account_key, balance, last_credit_transaction, last_debit_transaction`

func (s *store) createAccount(ctx context.Context, accountKey int, balance decimal.Decimal) (*record.Account, error) {
	entry := s.logger.WithFields(map[string]interface{}{
		"account_key": accountKey,
		"balance":     balance.StringFixed(2),
	})

	entry.Debug("Creating new account")
	query := `
		INSERT INTO ledger_accounts (account_key, balance)
		VALUES ($1, $2)
		ON CONFLICT (account_key) DO NOTHING
		RETURNING ` + accountColumns

	account, err := scanAccount(s.db.QueryRowContext(ctx, query, accountKey, balance))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			entry.Warn("Account already exists")
			return nil, errDuplicateAccount
		}
		entry.Error("Failed to insert account: %v", err)
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

func (s *store) getAccount(ctx context.Context, accountKey int) (*record.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM ledger_accounts WHERE account_key = $1`

	account, err := scanAccount(s.db.QueryRowContext(ctx, query, accountKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

func (s *store) listAccounts(ctx context.Context, limit int) ([]record.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM ledger_accounts ORDER BY account_key LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []record.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

// createTransaction records a pending transfer under the next free key.
func (s *store) createTransaction(ctx context.Context, sourceKey, destinationKey int, amount decimal.Decimal) (*record.Transaction, error) {
	entry := s.logger.WithFields(map[string]interface{}{
		"source_key":      sourceKey,
		"destination_key": destinationKey,
		"amount":          amount.StringFixed(2),
	})

	if sourceKey == destinationKey || !amount.IsPositive() {
		entry.Warn("Rejecting transaction parameters")
		return nil, errInvalidTransaction
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		entry.Error("Failed to begin transaction: %v", err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer tx.Rollback()

	var found int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_accounts WHERE account_key IN ($1, $2)`,
		sourceKey, destinationKey).Scan(&found)
	if err != nil {
		return nil, fmt.Errorf("failed to check accounts: %w", err)
	}
	if found != 2 {
		entry.Warn("Transaction references a missing account")
		return nil, errAccountNotFound
	}

	// Serializes key allocation; readers are not blocked.
	if _, err := tx.ExecContext(ctx, `LOCK TABLE ledger_transactions IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return nil, fmt.Errorf("failed to lock transactions: %w", err)
	}

	var next int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(transaction_key), 0) + 1 FROM ledger_transactions`).Scan(&next); err != nil {
		return nil, fmt.Errorf("failed to allocate transaction key: %w", err)
	}
	if next > record.MaxKey {
		entry.Error("No transaction keys left")
		return nil, errTransactionsFull
	}

	txn := &record.Transaction{ID: next, SourceID: sourceKey, DestinationID: destinationKey}
	query := `
		INSERT INTO ledger_transactions (transaction_key, source_key, destination_key, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING amount, created_at`

	var createdAt sql.NullTime
	if err := tx.QueryRowContext(ctx, query, next, sourceKey, destinationKey, amount, statusPending).
		Scan(&txn.Amount, &createdAt); err != nil {
		entry.Error("Failed to insert transaction: %v", err)
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	txn.SetTimestamp(createdAt.Time.UTC())

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	entry.Debug("Transaction %d recorded as pending", next)
	return txn, nil
}

// listTransactions returns up to limit transactions where column matches the
// account, with keys strictly after the cursor.
func (s *store) listTransactions(ctx context.Context, column string, accountKey, after, limit int) ([]record.Transaction, error) {
	if column != "source_key" && column != "destination_key" {
		return nil, fmt.Errorf("unsupported transaction column %q", column)
	}

	query := fmt.Sprintf(`
		SELECT transaction_key, source_key, destination_key, amount, created_at
		FROM ledger_transactions
		WHERE %s = $1 AND transaction_key > $2
		ORDER BY transaction_key
		LIMIT $3`, column)

	rows, err := s.db.QueryContext(ctx, query, accountKey, after, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []record.Transaction
	for rows.Next() {
		var (
			txn       record.Transaction
			createdAt sql.NullTime
		)
		if err := rows.Scan(&txn.ID, &txn.SourceID, &txn.DestinationID, &txn.Amount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.SetTimestamp(createdAt.Time.UTC())
		transactions = append(transactions, txn)
	}
	return transactions, rows.Err()
}

type pendingTransfer struct {
	key            int
	sourceKey      int
	destinationKey int
	amount         decimal.Decimal
}

// getAccountWithLock will get the account and lock it until the transaction ends
func (s *store) getAccountWithLock(ctx context.Context, tx *sql.Tx, accountKey int) (*record.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM ledger_accounts WHERE account_key = $1 FOR UPDATE`

	account, err := scanAccount(tx.QueryRowContext(ctx, query, accountKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// settle applies the account's pending outgoing transfers in key order and
// reports how many were pending. A transfer that would overdraw its source
// is marked rejected.
func (s *store) settle(ctx context.Context, accountKey int) (int, error) {
	entry := s.logger.WithFields(map[string]interface{}{
		"account_key": accountKey,
	})

	entry.Debug("Starting settlement")

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
		ReadOnly:  false,
	})
	if err != nil {
		entry.Error("Failed to begin transaction: %v", err)
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer tx.Rollback()

	pending, err := s.pendingTransfers(ctx, tx, accountKey)
	if err != nil {
		entry.Error("Failed to load pending transfers: %v", err)
		return 0, err
	}
	if len(pending) == 0 {
		entry.Debug("Nothing to settle")
		return 0, nil
	}

	for _, transfer := range pending {
		if err := s.applyTransfer(ctx, tx, transfer); err != nil {
			entry.Error("Failed to apply transfer %d: %v", transfer.key, err)
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit settlement: %w", err)
	}

	entry.Info("Settled %d pending transfers", len(pending))
	return len(pending), nil
}

func (s *store) pendingTransfers(ctx context.Context, tx *sql.Tx, accountKey int) ([]pendingTransfer, error) {
	query := `
		SELECT transaction_key, source_key, destination_key, amount
		FROM ledger_transactions
		WHERE source_key = $1 AND status = $2
		ORDER BY transaction_key
		FOR UPDATE`

	rows, err := tx.QueryContext(ctx, query, accountKey, statusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending transfers: %w", err)
	}
	defer rows.Close()

	var pending []pendingTransfer
	for rows.Next() {
		var p pendingTransfer
		if err := rows.Scan(&p.key, &p.sourceKey, &p.destinationKey, &p.amount); err != nil {
			return nil, fmt.Errorf("failed to scan pending transfer: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

func (s *store) applyTransfer(ctx context.Context, tx *sql.Tx, transfer pendingTransfer) error {
	var source, destination *record.Account
	var err error

	// we need to make sure to lock the lower key first to avoid dead locks
	if transfer.sourceKey < transfer.destinationKey {
		if source, err = s.getAccountWithLock(ctx, tx, transfer.sourceKey); err != nil {
			return fmt.Errorf("failed to get source account: %w", err)
		}
		if destination, err = s.getAccountWithLock(ctx, tx, transfer.destinationKey); err != nil {
			return fmt.Errorf("failed to get destination account: %w", err)
		}
	} else {
		if destination, err = s.getAccountWithLock(ctx, tx, transfer.destinationKey); err != nil {
			return fmt.Errorf("failed to get destination account: %w", err)
		}
		if source, err = s.getAccountWithLock(ctx, tx, transfer.sourceKey); err != nil {
			return fmt.Errorf("failed to get source account: %w", err)
		}
	}

	if source.Balance.LessThan(transfer.amount) {
		s.logger.Warn("Insufficient balance for transfer %d: source_balance=%s, requested_amount=%s",
			transfer.key, source.Balance.StringFixed(2), transfer.amount.StringFixed(2))
		_, err := tx.ExecContext(ctx, `UPDATE ledger_transactions SET status = $1 WHERE transaction_key = $2`, statusRejected, transfer.key)
		if err != nil {
			return fmt.Errorf("failed to reject transfer: %w", err)
		}
		return nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE ledger_accounts
		SET balance = $1, last_debit_transaction = $2, updated_at = CURRENT_TIMESTAMP
		WHERE account_key = $3`,
		source.Balance.Sub(transfer.amount), transfer.key, transfer.sourceKey)
	if err != nil {
		return fmt.Errorf("failed to update source account: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE ledger_accounts
		SET balance = $1, last_credit_transaction = $2, updated_at = CURRENT_TIMESTAMP
		WHERE account_key = $3`,
		destination.Balance.Add(transfer.amount), transfer.key, transfer.destinationKey)
	if err != nil {
		return fmt.Errorf("failed to update destination account: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE ledger_transactions SET status = $1 WHERE transaction_key = $2`, statusCompleted, transfer.key)
	if err != nil {
		return fmt.Errorf("failed to update transfer status: %w", err)
	}

	return nil
}
