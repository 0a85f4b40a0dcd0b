// Package record packs and unpacks the fixed-width records exchanged with the
// ledger engine. Every layout is described by explicit offsets and widths.
package record

import (
	"errors"
	"fmt"
)

const (
	KeySize = 4
	MaxKey  = 9999
)

// Key is a 4-character ASCII identifier field, e.g. "0042".
type Key [KeySize]byte

var (
	ErrKeyOutOfRange = errors.New("key out of range")
	ErrMalformedKey  = errors.New("malformed key field")
	ErrBlankKey      = errors.New("blank key field")
)

func EncodeKey(id int) (Key, error) {
	var key Key
	if id < 0 || id > MaxKey {
		return key, fmt.Errorf("%w: %d not in [0, %d]", ErrKeyOutOfRange, id, MaxKey)
	}
	copy(key[:], fmt.Sprintf("%04d", id))
	return key, nil
}

// IsBlank reports whether the field holds no identifier. The engine leaves
// unused fields NUL- or space-filled.
func (k Key) IsBlank() bool {
	for _, b := range k {
		if b != 0x00 && b != ' ' {
			return false
		}
	}
	return true
}

func (k Key) String() string {
	if k.IsBlank() {
		return ""
	}
	return string(k[:])
}

// DecodeKey returns ok == false for a blank field.
func DecodeKey(key Key) (id int, ok bool, err error) {
	if key.IsBlank() {
		return 0, false, nil
	}
	for _, b := range key {
		if b < '0' || b > '9' {
			return 0, false, fmt.Errorf("%w: %q", ErrMalformedKey, key[:])
		}
		id = id*10 + int(b-'0')
	}
	return id, true, nil
}

func decodeRequiredKey(key Key) (int, error) {
	id, ok, err := DecodeKey(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrBlankKey
	}
	return id, nil
}

func decodeOptionalKey(key Key) (*int, error) {
	id, ok, err := DecodeKey(key)
	if err != nil || !ok {
		return nil, err
	}
	return &id, nil
}

func encodeOptionalKey(id *int) (Key, error) {
	if id == nil {
		return Key{}, nil
	}
	return EncodeKey(*id)
}

func keyAt(buf []byte, offset int) Key {
	var key Key
	copy(key[:], buf[offset:offset+KeySize])
	return key
}
