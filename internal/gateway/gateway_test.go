package gateway

import (
	"context"
	"errors"
	"testing"

	"ledger-bridge/internal/comp3"
	"ledger-bridge/internal/engine"
	"ledger-bridge/internal/engine/enginetest"
	"ledger-bridge/internal/logger"
	"ledger-bridge/internal/record"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(fake *enginetest.Fake) *Gateway {
	return New(fake, logger.NewNop())
}

func accountReply(id int, balance string) record.AccountBuf {
	return enginetest.AccountRecord(record.Account{ID: id, Balance: decimal.RequireFromString(balance)})
}

func keyOf(t *testing.T, id int) record.Key {
	t.Helper()
	key, err := record.EncodeKey(id)
	require.NoError(t, err)
	return key
}

func TestCreateAccount(t *testing.T) {
	var gotKey record.Key
	var gotBalance comp3.Packed
	fake := &enginetest.Fake{
		CreateAccountFunc: func(id record.Key, balance comp3.Packed) (record.AccountBuf, string) {
			gotKey, gotBalance = id, balance
			return accountReply(12, "100.50"), "00"
		},
	}

	account, err := newGateway(fake).CreateAccount(context.Background(), 12, "100.505")
	require.NoError(t, err)

	assert.Equal(t, keyOf(t, 12), gotKey)
	want, err := comp3.Encode("100.50")
	require.NoError(t, err)
	assert.Equal(t, want, gotBalance)
	assert.Equal(t, 12, account.ID)
	assert.Equal(t, "100.50", account.Balance.StringFixed(2))
}

func TestCreateAccountFailsFastOnBadInput(t *testing.T) {
	fake := &enginetest.Fake{}
	gw := newGateway(fake)

	_, err := gw.CreateAccount(context.Background(), 10000, "1.00")
	assert.ErrorIs(t, err, record.ErrKeyOutOfRange)

	_, err = gw.CreateAccount(context.Background(), 1, "1,00")
	assert.ErrorIs(t, err, comp3.ErrInvalidNumericFormat)

	_, err = gw.CreateAccount(context.Background(), 1, "123456789012345678901234567890")
	assert.ErrorIs(t, err, comp3.ErrMagnitudeOverflow)

	assert.Empty(t, fake.Calls())
}

func TestCreateAccountUnknownStatus(t *testing.T) {
	fake := &enginetest.Fake{
		CreateAccountFunc: func(record.Key, comp3.Packed) (record.AccountBuf, string) {
			return record.AccountBuf{}, "22"
		},
	}

	_, err := newGateway(fake).CreateAccount(context.Background(), 1, "0")
	assert.ErrorIs(t, err, ErrUnknownStatus)

	code, ok := StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, "22", code.String())
}

func TestReadAccountStatuses(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{"01", ErrInvalidKey},
		{"03", ErrAccountNotFound},
		{"37", ErrUnknownStatus},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			fake := &enginetest.Fake{
				ReadAccountFunc: func(record.Key) (record.AccountBuf, string) {
					return record.AccountBuf{}, tc.code
				},
			}

			_, err := newGateway(fake).ReadAccount(context.Background(), 5)
			assert.ErrorIs(t, err, tc.want)
			code, ok := StatusCode(err)
			require.True(t, ok)
			assert.Equal(t, tc.code, code.String())
		})
	}
}

func TestReadAccountOutOfRangeMakesNoCall(t *testing.T) {
	fake := &enginetest.Fake{}

	_, err := newGateway(fake).ReadAccount(context.Background(), 10000)
	assert.ErrorIs(t, err, record.ErrKeyOutOfRange)
	assert.Empty(t, fake.Calls())
}

func TestReadAccountsDropsBlankSlots(t *testing.T) {
	fake := &enginetest.Fake{
		ReadAccountsFunc: func() (record.AccountTable, string) {
			var table record.AccountTable
			for slot := range table {
				if slot == 3 || slot == 7 {
					continue
				}
				table[slot] = accountReply(slot+1, "1.00")
			}
			return table, "00"
		},
	}

	accounts, err := newGateway(fake).ReadAccounts(context.Background())
	require.NoError(t, err)

	var ids []int
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []int{1, 2, 3, 5, 6, 7, 9, 10}, ids)
}

func TestCreateTransaction(t *testing.T) {
	fake := &enginetest.Fake{
		ReadAccountFunc: func(id record.Key) (record.AccountBuf, string) {
			n, _, _ := record.DecodeKey(id)
			return accountReply(n, "50.00"), "00"
		},
		CreateTransactionFunc: func(source, destination record.Key, amount comp3.Packed) (record.TransactionBuf, string) {
			value, err := comp3.Decode(amount)
			if err != nil {
				return record.TransactionBuf{}, "99"
			}
			src, _, _ := record.DecodeKey(source)
			dst, _, _ := record.DecodeKey(destination)
			return enginetest.TransactionRecord(record.Transaction{
				ID: 1, SourceID: src, DestinationID: dst, Amount: value,
				Year: "2024", Month: "01", Day: "02", Hour: "03", Minute: "04", Second: "05", Microsecond: "000006",
			}), "00"
		},
	}

	txn, err := newGateway(fake).CreateTransaction(context.Background(), 5, 9, "10.00")
	require.NoError(t, err)

	assert.Equal(t, []string{"ReadAccount", "ReadAccount", "CreateTransaction"}, fake.Calls())
	assert.Equal(t, 5, txn.SourceID)
	assert.Equal(t, 9, txn.DestinationID)
	assert.Equal(t, "10.00", txn.Amount.StringFixed(2))
	assert.Equal(t, "000006", txn.Microsecond)
}

func TestCreateTransactionMissingDestination(t *testing.T) {
	var reads []record.Key
	fake := &enginetest.Fake{
		ReadAccountFunc: func(id record.Key) (record.AccountBuf, string) {
			reads = append(reads, id)
			if id.String() == "0009" {
				return record.AccountBuf{}, "03"
			}
			return accountReply(5, "1.00"), "00"
		},
	}

	_, err := newGateway(fake).CreateTransaction(context.Background(), 5, 9, "10.00")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Contains(t, statusErr.Op, "destination")
	assert.Equal(t, []record.Key{keyOf(t, 5), keyOf(t, 9)}, reads)
	assert.NotContains(t, fake.Calls(), "CreateTransaction")
}

func TestCreateTransactionSourceCheckShortCircuits(t *testing.T) {
	fake := &enginetest.Fake{
		ReadAccountFunc: func(record.Key) (record.AccountBuf, string) {
			return record.AccountBuf{}, "01"
		},
	}

	_, err := newGateway(fake).CreateTransaction(context.Background(), 5, 9, "10.00")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.Equal(t, []string{"ReadAccount"}, fake.Calls())
}

func TestCreateTransactionValidatesBeforeReads(t *testing.T) {
	fake := &enginetest.Fake{}

	_, err := newGateway(fake).CreateTransaction(context.Background(), 5, 9, "ten")
	assert.ErrorIs(t, err, comp3.ErrInvalidNumericFormat)
	assert.Empty(t, fake.Calls())
}

func TestCreateTransactionRejectedByEngine(t *testing.T) {
	fake := &enginetest.Fake{
		ReadAccountFunc: func(record.Key) (record.AccountBuf, string) {
			return accountReply(1, "0"), "00"
		},
		CreateTransactionFunc: func(record.Key, record.Key, comp3.Packed) (record.TransactionBuf, string) {
			return record.TransactionBuf{}, "50"
		},
	}

	_, err := newGateway(fake).CreateTransaction(context.Background(), 1, 2, "0")
	assert.ErrorIs(t, err, ErrInvalidTransaction)
}

func TestReadCreditTransactions(t *testing.T) {
	var gotAccount, gotStart record.Key
	fake := &enginetest.Fake{
		ReadCreditsFunc: func(account, start record.Key) (record.TransactionTable, string) {
			gotAccount, gotStart = account, start
			var table record.TransactionTable
			table[0] = enginetest.TransactionRecord(record.Transaction{ID: 8, SourceID: 1, DestinationID: 2, Amount: decimal.NewFromInt(3)})
			table[4] = enginetest.TransactionRecord(record.Transaction{ID: 9, SourceID: 1, DestinationID: 2, Amount: decimal.NewFromInt(4)})
			return table, "03"
		},
	}

	page, err := newGateway(fake).ReadCreditTransactions(context.Background(), 2, 7)
	require.NoError(t, err)

	assert.Equal(t, "0002", gotAccount.String())
	assert.Equal(t, "0007", gotStart.String())
	assert.True(t, page.EndOfData)
	require.Len(t, page.Transactions, 2)
	assert.Equal(t, 8, page.Transactions[0].ID)
	assert.Equal(t, 9, page.Transactions[1].ID)
}

func TestReadDebitTransactions(t *testing.T) {
	fake := &enginetest.Fake{
		ReadDebitsFunc: func(record.Key, record.Key) (record.TransactionTable, string) {
			return record.TransactionTable{}, "00"
		},
	}

	page, err := newGateway(fake).ReadDebitTransactions(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.False(t, page.EndOfData)
	assert.Empty(t, page.Transactions)

	fake.ReadDebitsFunc = func(record.Key, record.Key) (record.TransactionTable, string) {
		return record.TransactionTable{}, "01"
	}
	_, err = newGateway(fake).ReadDebitTransactions(context.Background(), 2, 0)
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = newGateway(fake).ReadDebitTransactions(context.Background(), 2, 10000)
	assert.ErrorIs(t, err, record.ErrKeyOutOfRange)
}

func TestProcessTransactionsReturnsRawStatus(t *testing.T) {
	fake := &enginetest.Fake{
		ProcessTransactionsFunc: func(record.Key) string { return "03" },
	}

	status, err := newGateway(fake).ProcessTransactions(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusNotFound, status)
}

func TestEngineFaultIsNotRetried(t *testing.T) {
	boom := errors.New("segmentation violation")
	fake := &enginetest.Fake{Fault: boom}

	_, err := newGateway(fake).ReadAccounts(context.Background())
	assert.ErrorIs(t, err, ErrEngineFault)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"ReadAccounts"}, fake.Calls())
}
