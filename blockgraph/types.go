// Package blockgraph implements the five block variants of the account
// chain, their hashable encodings, and proof-of-work validation.
package blockgraph

import (
	"encoding/hex"
	"errors"
)

// Account is a 256-bit identifier that doubles as an Ed25519 public key.
type Account [32]byte

// Hash is a 256-bit digest of a block's hashable fields.
type Hash [32]byte

// Signature is a 512-bit Ed25519 signature over a block hash.
type Signature [64]byte

// Amount is a 128-bit unsigned quantity, stored big-endian.
type Amount [16]byte

// Work is the 8-byte proof-of-work nonce attached to a block.
type Work [8]byte

// Epoch is the account schema version. Epoch transitions gate new
// state-block subtypes and new proof-of-work thresholds.
type Epoch uint8

const (
	Epoch0 Epoch = iota
	Epoch1
	Epoch2
)

// Kind identifies one of the five block variants.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindSend
	KindReceive
	KindOpen
	KindChange
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindSend:
		return "send"
	case KindReceive:
		return "receive"
	case KindOpen:
		return "open"
	case KindChange:
		return "change"
	case KindState:
		return "state"
	default:
		return "invalid"
	}
}

// IsZero reports whether a is the burn account (all-zero).
func (a Account) IsZero() bool { return a == Account{} }

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool { return h == Hash{} }

func (a Account) String() string { return hex.EncodeToString(a[:]) }
func (h Hash) String() string    { return hex.EncodeToString(h[:]) }

// ParseAccountHex decodes a 64-char hex string into an Account.
func ParseAccountHex(s string) (Account, error) {
	var a Account
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, err
	}
	if len(b) != len(a) {
		return a, errors.New("blockgraph: account must be 32 bytes")
	}
	copy(a[:], b)
	return a, nil
}

// ParseHashHex decodes a 64-char hex string into a Hash.
func ParseHashHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(b) != len(h) {
		return h, errors.New("blockgraph: hash must be 32 bytes")
	}
	copy(h[:], b)
	return h, nil
}

// AmountFromUint64 builds an Amount from a uint64 (big-endian, zero-padded).
func AmountFromUint64(v uint64) Amount {
	var a Amount
	for i := 0; i < 8; i++ {
		a[15-i] = byte(v >> (8 * i))
	}
	return a
}

func (a Amount) Cmp(b Amount) int {
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Sub returns a-b and reports whether the subtraction underflowed.
func (a Amount) Sub(b Amount) (Amount, bool) {
	var out Amount
	var borrow int
	for i := 15; i >= 0; i-- {
		d := int(a[i]) - int(b[i]) - borrow
		if d < 0 {
			d += 256
			borrow = 1
		} else {
			borrow = 0
		}
		out[i] = byte(d)
	}
	return out, borrow != 0
}

// Add returns a+b and reports whether the addition overflowed.
func (a Amount) Add(b Amount) (Amount, bool) {
	var out Amount
	var carry int
	for i := 15; i >= 0; i-- {
		s := int(a[i]) + int(b[i]) + carry
		out[i] = byte(s)
		carry = s >> 8
	}
	return out, carry != 0
}
