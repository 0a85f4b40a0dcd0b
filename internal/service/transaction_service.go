package service

import (
	"context"
	"errors"
	"fmt"

	"ledger-bridge/internal/engine"
	"ledger-bridge/internal/gateway"
	"ledger-bridge/internal/logger"
	"ledger-bridge/internal/record"
	"ledger-bridge/models"
)

var (
	ErrMissingDestination     = errors.New(`missing "destination_id" in JSON body`)
	ErrMissingAmount          = errors.New(`missing "amount" in JSON body`)
	ErrInvalidDestination     = errors.New("invalid destination_id value")
	ErrInvalidAmount          = errors.New("invalid amount value")
	ErrInvalidTransactionType = errors.New("the transaction type is not correct")
)

type TransactionService interface {
	CreateTransaction(ctx context.Context, req *models.CreateTransactionRequest) (*models.Transaction, error)
	ListTransactions(ctx context.Context, accountID int, transactionType string, startID int) (*models.TransactionList, error)
	ProcessTransactions(ctx context.Context, accountID int) error
}

type transactionService struct {
	ledger Ledger
	logger *logger.Logger
}

func NewTransactionService(ledger Ledger, log *logger.Logger) TransactionService {
	return &transactionService{
		ledger: ledger,
		logger: log,
	}
}

func (s *transactionService) CreateTransaction(ctx context.Context, req *models.CreateTransactionRequest) (*models.Transaction, error) {
	if err := s.validateTransactionRequest(req); err != nil {
		return nil, err
	}

	txn, err := s.ledger.CreateTransaction(ctx, req.SourceID, *req.DestinationID, *req.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	view := transactionView(*txn)
	s.logger.Info("Transaction created - transaction_id: %s", view.TransactionID)
	return &view, nil
}

func (s *transactionService) ListTransactions(ctx context.Context, accountID int, transactionType string, startID int) (*models.TransactionList, error) {
	var (
		page *gateway.TransactionPage
		err  error
	)
	switch transactionType {
	case models.TransactionTypeCredit:
		page, err = s.ledger.ReadCreditTransactions(ctx, accountID, startID)
	case models.TransactionTypeDebit:
		page, err = s.ledger.ReadDebitTransactions(ctx, accountID, startID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidTransactionType, transactionType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s transactions: %w", transactionType, err)
	}

	list := &models.TransactionList{Transactions: make([]models.Transaction, 0, len(page.Transactions))}
	for _, txn := range page.Transactions {
		list.Transactions = append(list.Transactions, transactionView(txn))
	}
	return list, nil
}

// ProcessTransactions treats "nothing to process" as success.
func (s *transactionService) ProcessTransactions(ctx context.Context, accountID int) error {
	status, err := s.ledger.ProcessTransactions(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to process transactions: %w", err)
	}

	switch status {
	case engine.StatusOK:
		s.logger.Info("Transactions processed - account_id: %04d", accountID)
		return nil
	case engine.StatusNotFound:
		s.logger.Debug("No transactions to process - account_id: %04d", accountID)
		return nil
	default:
		return gateway.NewStatusError("process transactions", status, false)
	}
}

func (s *transactionService) validateTransactionRequest(req *models.CreateTransactionRequest) error {
	if req.DestinationID == nil {
		return ErrMissingDestination
	}
	if req.Amount == nil {
		return ErrMissingAmount
	}

	if *req.DestinationID == req.SourceID {
		return fmt.Errorf("%w: source and destination accounts cannot be the same", ErrInvalidDestination)
	}

	if err := validateNonNegative(*req.Amount); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}

	return nil
}

func transactionView(txn record.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID: fmt.Sprintf("%04d", txn.ID),
		SourceID:      fmt.Sprintf("%04d", txn.SourceID),
		DestinationID: fmt.Sprintf("%04d", txn.DestinationID),
		Amount:        txn.Amount.StringFixed(2),
		DateYYYY:      txn.Year,
		DateMM:        txn.Month,
		DateDD:        txn.Day,
		TimeHH:        txn.Hour,
		TimeMM:        txn.Minute,
		TimeSS:        txn.Second,
		TimeMS:        txn.Microsecond,
	}
}
