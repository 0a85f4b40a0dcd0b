package record

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ledger-bridge/internal/comp3"

	"github.com/shopspring/decimal"
)

const (
	TransactionSize = 48

	transactionKeyOffset         = 0
	transactionSourceOffset      = 4
	transactionDestinationOffset = 8
	transactionAmountOffset      = 12
)

// field is one fixed-width text column of the transaction timestamp.
type field struct {
	name   string
	offset int
	width  int
}

var (
	yearField   = field{"year", 28, 4}
	monthField  = field{"month", 32, 2}
	dayField    = field{"day", 34, 2}
	hourField   = field{"hour", 36, 2}
	minuteField = field{"minute", 38, 2}
	secondField = field{"second", 40, 2}
	microField  = field{"microsecond", 42, 6}
)

var ErrFieldWidth = errors.New("field does not fit its column")

type TransactionBuf [TransactionSize]byte

// Transaction mirrors the engine's transaction record. Date and time parts
// are kept as the engine wrote them.
type Transaction struct {
	ID            int
	SourceID      int
	DestinationID int
	Amount        decimal.Decimal
	Year          string
	Month         string
	Day           string
	Hour          string
	Minute        string
	Second        string
	Microsecond   string
}

func (b *TransactionBuf) key() Key {
	return keyAt(b[:], transactionKeyOffset)
}

// SetTimestamp fills the date and time parts from ts.
func (t *Transaction) SetTimestamp(ts time.Time) {
	t.Year = fmt.Sprintf("%04d", ts.Year())
	t.Month = fmt.Sprintf("%02d", int(ts.Month()))
	t.Day = fmt.Sprintf("%02d", ts.Day())
	t.Hour = fmt.Sprintf("%02d", ts.Hour())
	t.Minute = fmt.Sprintf("%02d", ts.Minute())
	t.Second = fmt.Sprintf("%02d", ts.Second())
	t.Microsecond = fmt.Sprintf("%06d", ts.Nanosecond()/int(time.Microsecond))
}

// Timestamp parses the date and time parts as a UTC instant.
func (t Transaction) Timestamp() (time.Time, error) {
	layout := "20060102150405.000000"
	value := t.Year + t.Month + t.Day + t.Hour + t.Minute + t.Second + "." + t.Microsecond
	ts, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("transaction %04d timestamp: %w", t.ID, err)
	}
	return ts, nil
}

func PackTransaction(txn Transaction) (TransactionBuf, error) {
	var buf TransactionBuf

	keys := []struct {
		name   string
		id     int
		offset int
	}{
		{"transaction id", txn.ID, transactionKeyOffset},
		{"source id", txn.SourceID, transactionSourceOffset},
		{"destination id", txn.DestinationID, transactionDestinationOffset},
	}
	for _, k := range keys {
		key, err := EncodeKey(k.id)
		if err != nil {
			return buf, fmt.Errorf("%s: %w", k.name, err)
		}
		copy(buf[k.offset:], key[:])
	}

	amount, err := comp3.EncodeDecimal(txn.Amount)
	if err != nil {
		return buf, fmt.Errorf("transaction amount: %w", err)
	}
	copy(buf[transactionAmountOffset:], amount[:])

	for _, part := range []struct {
		field
		value string
	}{
		{yearField, txn.Year},
		{monthField, txn.Month},
		{dayField, txn.Day},
		{hourField, txn.Hour},
		{minuteField, txn.Minute},
		{secondField, txn.Second},
		{microField, txn.Microsecond},
	} {
		if err := part.put(buf[:], part.value); err != nil {
			return buf, err
		}
	}

	return buf, nil
}

func UnpackTransaction(buf TransactionBuf) (Transaction, error) {
	var txn Transaction

	id, err := decodeRequiredKey(buf.key())
	if err != nil {
		return txn, fmt.Errorf("transaction id: %w", err)
	}
	txn.ID = id

	txn.SourceID, err = decodeRequiredKey(keyAt(buf[:], transactionSourceOffset))
	if err != nil {
		return txn, fmt.Errorf("transaction %04d source id: %w", id, err)
	}
	txn.DestinationID, err = decodeRequiredKey(keyAt(buf[:], transactionDestinationOffset))
	if err != nil {
		return txn, fmt.Errorf("transaction %04d destination id: %w", id, err)
	}

	var amount comp3.Packed
	copy(amount[:], buf[transactionAmountOffset:transactionAmountOffset+comp3.Size])
	txn.Amount, err = comp3.Decode(amount)
	if err != nil {
		return txn, fmt.Errorf("transaction %04d amount: %w", id, err)
	}

	txn.Year = yearField.get(buf[:])
	txn.Month = monthField.get(buf[:])
	txn.Day = dayField.get(buf[:])
	txn.Hour = hourField.get(buf[:])
	txn.Minute = minuteField.get(buf[:])
	txn.Second = secondField.get(buf[:])
	txn.Microsecond = microField.get(buf[:])

	return txn, nil
}

func (f field) get(buf []byte) string {
	return strings.TrimRight(string(buf[f.offset:f.offset+f.width]), "\x00 ")
}

// put writes value into the column; an empty value leaves it space-filled.
func (f field) put(buf []byte, value string) error {
	column := buf[f.offset : f.offset+f.width]
	if value == "" {
		for i := range column {
			column[i] = ' '
		}
		return nil
	}
	if len(value) != f.width {
		return fmt.Errorf("%w: %s %q is not %d characters", ErrFieldWidth, f.name, value, f.width)
	}
	copy(column, value)
	return nil
}
