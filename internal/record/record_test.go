package record

import (
	"testing"
	"time"

	"ledger-bridge/internal/comp3"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestEncodeKey(t *testing.T) {
	key, err := EncodeKey(42)
	require.NoError(t, err)
	assert.Equal(t, Key{'0', '0', '4', '2'}, key)

	key, err = EncodeKey(9999)
	require.NoError(t, err)
	assert.Equal(t, "9999", key.String())

	_, err = EncodeKey(10000)
	assert.ErrorIs(t, err, ErrKeyOutOfRange)

	_, err = EncodeKey(-1)
	assert.ErrorIs(t, err, ErrKeyOutOfRange)
}

func TestDecodeKey(t *testing.T) {
	id, ok, err := DecodeKey(Key{'0', '0', '0', '0'})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, id)

	_, ok, err = DecodeKey(Key{})
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = DecodeKey(Key{' ', ' ', ' ', ' '})
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = DecodeKey(Key{'1', 'x', '0', '0'})
	assert.ErrorIs(t, err, ErrMalformedKey)
}

func TestAccountLayout(t *testing.T) {
	account := Account{
		ID:                    7,
		Balance:               decimal.RequireFromString("-15.25"),
		LastCreditTransaction: intPtr(12),
	}

	buf, err := PackAccount(account)
	require.NoError(t, err)

	assert.Equal(t, "0007", string(buf[0:4]))
	balance, err := comp3.Encode("-15.25")
	require.NoError(t, err)
	assert.Equal(t, balance[:], buf[4:20])
	assert.Equal(t, "0012", string(buf[20:24]))
	assert.Equal(t, []byte{0, 0, 0, 0}, buf[24:28])

	got, err := UnpackAccount(buf)
	require.NoError(t, err)
	assert.Equal(t, 7, got.ID)
	assert.Equal(t, "-15.25", got.Balance.StringFixed(2))
	require.NotNil(t, got.LastCreditTransaction)
	assert.Equal(t, 12, *got.LastCreditTransaction)
	assert.Nil(t, got.LastDebitTransaction)
}

func TestUnpackAccountRejectsBlankID(t *testing.T) {
	_, err := UnpackAccount(AccountBuf{})
	assert.ErrorIs(t, err, ErrBlankKey)
}

func TestUnpackAccountBadSign(t *testing.T) {
	buf, err := PackAccount(Account{ID: 1, Balance: decimal.NewFromInt(5)})
	require.NoError(t, err)
	buf[accountBalanceOffset+comp3.Size-1] = 0x05

	_, err = UnpackAccount(buf)
	assert.ErrorIs(t, err, comp3.ErrInvalidSignNibble)
}

func TestTransactionLayout(t *testing.T) {
	txn := Transaction{
		ID:            31,
		SourceID:      5,
		DestinationID: 9,
		Amount:        decimal.RequireFromString("10.00"),
	}
	txn.SetTimestamp(time.Date(2024, time.March, 7, 8, 9, 10, 123456000, time.UTC))

	buf, err := PackTransaction(txn)
	require.NoError(t, err)

	assert.Equal(t, "003100050009", string(buf[0:12]))
	assert.Equal(t, "20240307080910123456", string(buf[28:48]))

	got, err := UnpackTransaction(buf)
	require.NoError(t, err)
	assert.Equal(t, 31, got.ID)
	assert.Equal(t, 5, got.SourceID)
	assert.Equal(t, 9, got.DestinationID)
	assert.Equal(t, "10.00", got.Amount.StringFixed(2))
	assert.Equal(t, "2024", got.Year)
	assert.Equal(t, "03", got.Month)
	assert.Equal(t, "123456", got.Microsecond)

	ts, err := got.Timestamp()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 7, 8, 9, 10, 123456000, time.UTC), ts)
}

func TestPackTransactionFieldWidth(t *testing.T) {
	_, err := PackTransaction(Transaction{ID: 1, SourceID: 2, DestinationID: 3, Year: "24"})
	assert.ErrorIs(t, err, ErrFieldWidth)

	_, err = PackTransaction(Transaction{ID: 1, SourceID: 10000, DestinationID: 3})
	assert.ErrorIs(t, err, ErrKeyOutOfRange)
}

func TestUnpackAccountsDropsBlankSlots(t *testing.T) {
	var table AccountTable
	for slot := 0; slot < TableSlots; slot++ {
		if slot == 3 || slot == 7 {
			continue
		}
		buf, err := PackAccount(Account{ID: 100 + slot, Balance: decimal.NewFromInt(int64(slot))})
		require.NoError(t, err)
		table[slot] = buf
	}
	// A space-filled id is blank too.
	copy(table[7][:KeySize], "    ")

	accounts, err := UnpackAccounts(&table)
	require.NoError(t, err)
	require.Len(t, accounts, 8)

	var ids []int
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []int{100, 101, 102, 104, 105, 106, 108, 109}, ids)
}

func TestTransactionTableRoundTrip(t *testing.T) {
	in := []Transaction{
		{ID: 1, SourceID: 2, DestinationID: 3, Amount: decimal.NewFromInt(1)},
		{ID: 4, SourceID: 2, DestinationID: 3, Amount: decimal.RequireFromString("0.01")},
	}

	table, err := PackTransactions(in)
	require.NoError(t, err)
	assert.True(t, table[2].key().IsBlank())

	out, err := UnpackTransactions(&table)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 4, out[1].ID)
	assert.Equal(t, "0.01", out[1].Amount.StringFixed(2))
	assert.Equal(t, "", out[1].Year)
}

func TestPackAccountsCapacity(t *testing.T) {
	_, err := PackAccounts(make([]Account, TableSlots+1))
	assert.Error(t, err)
}
