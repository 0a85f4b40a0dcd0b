package models

type Account struct {
	AccountID             string `json:"account_id"`
	Amount                string `json:"amount"`
	LastCreditTransaction string `json:"last_credit_transaction"`
	LastDebitTransaction  string `json:"last_debit_transaction"`
}

type AccountList struct {
	Accounts []Account `json:"accounts"`
}

type Transaction struct {
	TransactionID string `json:"transaction_id"`
	SourceID      string `json:"source_id"`
	DestinationID string `json:"destination_id"`
	Amount        string `json:"amount"`
	DateYYYY      string `json:"date_yyyy"`
	DateMM        string `json:"date_mm"`
	DateDD        string `json:"date_dd"`
	TimeHH        string `json:"time_hh"`
	TimeMM        string `json:"time_mm"`
	TimeSS        string `json:"time_ss"`
	TimeMS        string `json:"time_ms"`
}

type TransactionList struct {
	Transactions []Transaction `json:"transactions"`
}

type CreateAccountRequest struct {
	AccountID    int     `json:"-"`
	BalanceTotal *string `json:"balance_total"`
}

type CreateTransactionRequest struct {
	SourceID      int     `json:"-"`
	DestinationID *int    `json:"destination_id"`
	Amount        *string `json:"amount"`
}

const (
	TransactionTypeCredit = "credit"
	TransactionTypeDebit  = "debit"
)
