package record

import (
	"fmt"
)

// TableSlots is the fixed capacity of every bulk-read table.
const TableSlots = 10

type AccountTable [TableSlots]AccountBuf

type TransactionTable [TableSlots]TransactionBuf

// UnpackAccounts decodes the table in slot order, dropping blank slots.
func UnpackAccounts(table *AccountTable) ([]Account, error) {
	accounts := make([]Account, 0, TableSlots)
	for slot := range table {
		if table[slot].key().IsBlank() {
			continue
		}
		account, err := UnpackAccount(table[slot])
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", slot, err)
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// UnpackTransactions decodes the table in slot order, dropping blank slots.
func UnpackTransactions(table *TransactionTable) ([]Transaction, error) {
	transactions := make([]Transaction, 0, TableSlots)
	for slot := range table {
		if table[slot].key().IsBlank() {
			continue
		}
		txn, err := UnpackTransaction(table[slot])
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", slot, err)
		}
		transactions = append(transactions, txn)
	}
	return transactions, nil
}

// PackAccounts fills the leading slots and leaves the rest NUL-filled.
func PackAccounts(accounts []Account) (AccountTable, error) {
	var table AccountTable
	if len(accounts) > TableSlots {
		return table, fmt.Errorf("%d accounts exceed the %d table slots", len(accounts), TableSlots)
	}
	for i, account := range accounts {
		buf, err := PackAccount(account)
		if err != nil {
			return table, fmt.Errorf("slot %d: %w", i, err)
		}
		table[i] = buf
	}
	return table, nil
}

// PackTransactions fills the leading slots and leaves the rest NUL-filled.
func PackTransactions(transactions []Transaction) (TransactionTable, error) {
	var table TransactionTable
	if len(transactions) > TableSlots {
		return table, fmt.Errorf("%d transactions exceed the %d table slots", len(transactions), TableSlots)
	}
	for i, txn := range transactions {
		buf, err := PackTransaction(txn)
		if err != nil {
			return table, fmt.Errorf("slot %d: %w", i, err)
		}
		table[i] = buf
	}
	return table, nil
}
