// Package comp3 converts decimal text to and from the ledger engine's packed
// decimal form, PIC S9(29)V99 COMP-3: 31 digits packed two per byte with a
// trailing sign nibble, 16 bytes in total.
package comp3

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Size           = 16
	IntegerDigits  = 29
	FractionDigits = 2

	signPositive byte = 0x0C
	signNegative byte = 0x0D
	signUnsigned byte = 0x0F
)

// Packed is one S9(29)V99 COMP-3 field as the engine lays it out.
type Packed [Size]byte

var (
	ErrInvalidNumericFormat = errors.New("invalid numeric format")
	ErrMagnitudeOverflow    = errors.New("integer part exceeds 29 digits")
	ErrInvalidSignNibble    = errors.New("invalid sign nibble")
	ErrInvalidDigitNibble   = errors.New("invalid digit nibble")
)

var numericPattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]*)?$`)

// Encode packs a decimal string. Fraction digits past the second are
// truncated, not rounded.
func Encode(text string) (Packed, error) {
	var packed Packed

	if !numericPattern.MatchString(text) {
		return packed, fmt.Errorf("%w: %q", ErrInvalidNumericFormat, text)
	}

	negative := strings.HasPrefix(text, "-")
	integerPart, fractionPart, _ := strings.Cut(strings.TrimPrefix(text, "-"), ".")

	if len(integerPart) > IntegerDigits {
		return packed, fmt.Errorf("%w: got %d digits", ErrMagnitudeOverflow, len(integerPart))
	}
	if len(fractionPart) > FractionDigits {
		fractionPart = fractionPart[:FractionDigits]
	}

	digits := strings.Repeat("0", IntegerDigits-len(integerPart)) + integerPart +
		fractionPart + strings.Repeat("0", FractionDigits-len(fractionPart))

	for i := 0; i < Size-1; i++ {
		packed[i] = (digits[2*i]-'0')<<4 | (digits[2*i+1] - '0')
	}

	sign := signPositive
	if negative {
		sign = signNegative
	}
	packed[Size-1] = (digits[len(digits)-1]-'0')<<4 | sign

	return packed, nil
}

// Decode unpacks a field into a decimal with exactly two fraction digits.
// Sign nibble 0xF is accepted as positive for data written by other programs.
func Decode(packed Packed) (decimal.Decimal, error) {
	if packed == (Packed{}) {
		return decimal.Zero, nil
	}

	negative := false
	switch nibble := packed[Size-1] & 0x0F; nibble {
	case signNegative:
		negative = true
	case signPositive, signUnsigned:
	default:
		return decimal.Zero, fmt.Errorf("%w: 0x%X", ErrInvalidSignNibble, nibble)
	}

	digits := make([]byte, 0, IntegerDigits+FractionDigits)
	for i, b := range packed {
		nibbles := []byte{b >> 4, b & 0x0F}
		if i == Size-1 {
			nibbles = nibbles[:1]
		}
		for _, n := range nibbles {
			if n > 9 {
				return decimal.Zero, fmt.Errorf("%w: 0x%X at byte %d", ErrInvalidDigitNibble, n, i)
			}
			digits = append(digits, '0'+n)
		}
	}

	value, err := decimal.NewFromString(string(digits[:IntegerDigits]) + "." + string(digits[IntegerDigits:]))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse packed digits: %w", err)
	}
	if negative {
		value = value.Neg()
	}

	return value, nil
}

// EncodeDecimal packs a decimal value, truncating past two fraction digits.
func EncodeDecimal(value decimal.Decimal) (Packed, error) {
	return Encode(value.Truncate(FractionDigits).String())
}
