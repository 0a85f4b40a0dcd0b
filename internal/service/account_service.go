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

	"github.com/shopspring/decimal"
)

var (
	ErrMissingBalance = errors.New(`missing "balance_total" in JSON body`)
	ErrInvalidBalance = errors.New("invalid balance total value")
)

// Ledger is the subset of the gateway the facade depends on.
type Ledger interface {
	CreateAccount(ctx context.Context, id int, balance string) (*record.Account, error)
	ReadAccount(ctx context.Context, id int) (*record.Account, error)
	ReadAccounts(ctx context.Context) ([]record.Account, error)
	CreateTransaction(ctx context.Context, sourceID, destinationID int, amount string) (*record.Transaction, error)
	ReadCreditTransactions(ctx context.Context, accountID, startID int) (*gateway.TransactionPage, error)
	ReadDebitTransactions(ctx context.Context, accountID, startID int) (*gateway.TransactionPage, error)
	ProcessTransactions(ctx context.Context, accountID int) (engine.Status, error)
}

type AccountService interface {
	CreateAccount(ctx context.Context, req *models.CreateAccountRequest) (*models.Account, error)
	GetAccount(ctx context.Context, accountID int) (*models.Account, error)
	ListAccounts(ctx context.Context) (*models.AccountList, error)
}

type accountService struct {
	ledger Ledger
	logger *logger.Logger
}

func NewAccountService(ledger Ledger, log *logger.Logger) AccountService {
	return &accountService{
		ledger: ledger,
		logger: log,
	}
}

func (s *accountService) CreateAccount(ctx context.Context, req *models.CreateAccountRequest) (*models.Account, error) {
	if req.BalanceTotal == nil {
		return nil, ErrMissingBalance
	}
	if err := validateNonNegative(*req.BalanceTotal); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBalance, err)
	}

	account, err := s.ledger.CreateAccount(ctx, req.AccountID, *req.BalanceTotal)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	view := accountView(*account)
	s.logger.Info("Account created - account_id: %s", view.AccountID)
	return &view, nil
}

func (s *accountService) GetAccount(ctx context.Context, accountID int) (*models.Account, error) {
	account, err := s.ledger.ReadAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	view := accountView(*account)
	return &view, nil
}

func (s *accountService) ListAccounts(ctx context.Context) (*models.AccountList, error) {
	accounts, err := s.ledger.ReadAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	list := &models.AccountList{Accounts: make([]models.Account, 0, len(accounts))}
	for _, account := range accounts {
		list.Accounts = append(list.Accounts, accountView(account))
	}
	return list, nil
}

func validateNonNegative(value string) error {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("not a number: %q", value)
	}
	if amount.IsNegative() {
		return fmt.Errorf("negative value: %s", value)
	}
	return nil
}

func formatKey(id *int) string {
	if id == nil {
		return ""
	}
	return fmt.Sprintf("%04d", *id)
}

func accountView(account record.Account) models.Account {
	return models.Account{
		AccountID:             fmt.Sprintf("%04d", account.ID),
		Amount:                account.Balance.StringFixed(2),
		LastCreditTransaction: formatKey(account.LastCreditTransaction),
		LastDebitTransaction:  formatKey(account.LastDebitTransaction),
	}
}
