package record

import (
	"fmt"

	"ledger-bridge/internal/comp3"

	"github.com/shopspring/decimal"
)

const (
	AccountSize = 28

	accountKeyOffset        = 0
	accountBalanceOffset    = 4
	accountLastCreditOffset = 20
	accountLastDebitOffset  = 24
)

type AccountBuf [AccountSize]byte

type Account struct {
	ID                    int
	Balance               decimal.Decimal
	LastCreditTransaction *int
	LastDebitTransaction  *int
}

func (b *AccountBuf) key() Key {
	return keyAt(b[:], accountKeyOffset)
}

func PackAccount(account Account) (AccountBuf, error) {
	var buf AccountBuf

	key, err := EncodeKey(account.ID)
	if err != nil {
		return buf, fmt.Errorf("account id: %w", err)
	}
	balance, err := comp3.EncodeDecimal(account.Balance)
	if err != nil {
		return buf, fmt.Errorf("account balance: %w", err)
	}
	lastCredit, err := encodeOptionalKey(account.LastCreditTransaction)
	if err != nil {
		return buf, fmt.Errorf("last credit transaction: %w", err)
	}
	lastDebit, err := encodeOptionalKey(account.LastDebitTransaction)
	if err != nil {
		return buf, fmt.Errorf("last debit transaction: %w", err)
	}

	copy(buf[accountKeyOffset:], key[:])
	copy(buf[accountBalanceOffset:], balance[:])
	copy(buf[accountLastCreditOffset:], lastCredit[:])
	copy(buf[accountLastDebitOffset:], lastDebit[:])

	return buf, nil
}

func UnpackAccount(buf AccountBuf) (Account, error) {
	var account Account

	id, err := decodeRequiredKey(buf.key())
	if err != nil {
		return account, fmt.Errorf("account id: %w", err)
	}

	var balance comp3.Packed
	copy(balance[:], buf[accountBalanceOffset:accountBalanceOffset+comp3.Size])
	account.Balance, err = comp3.Decode(balance)
	if err != nil {
		return account, fmt.Errorf("account %04d balance: %w", id, err)
	}

	account.LastCreditTransaction, err = decodeOptionalKey(keyAt(buf[:], accountLastCreditOffset))
	if err != nil {
		return account, fmt.Errorf("account %04d last credit transaction: %w", id, err)
	}
	account.LastDebitTransaction, err = decodeOptionalKey(keyAt(buf[:], accountLastDebitOffset))
	if err != nil {
		return account, fmt.Errorf("account %04d last debit transaction: %w", id, err)
	}

	account.ID = id
	return account, nil
}
