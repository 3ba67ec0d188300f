package model

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// AmountSize is the width of the binary amount encoding (a 128-bit balance).
const AmountSize = 16

// MaxAmount is the largest representable balance, 2^128-1.
var MaxAmount = Amount{v: uint256.Int{^uint64(0), ^uint64(0), 0, 0}}

// Amount is an unsigned balance quantity in the runtime's native unit.
//
// The zero value is a valid zero amount. Arithmetic never wraps: CheckedAdd
// fails with KindArithmeticOverflow instead.
type Amount struct {
	v uint256.Int
}

// NewAmount returns an Amount holding n.
func NewAmount(n uint64) Amount {
	var a Amount
	a.v.SetUint64(n)
	return a
}

// ParseAmount parses a base-10 amount.
func ParseAmount(s string) (Amount, error) {
	var a Amount
	if err := a.v.SetFromDecimal(s); err != nil {
		if errors.Is(err, uint256.ErrBig256Range) {
			return Amount{}, NewError(KindArithmeticOverflow, RuleAmountRange, fmt.Sprintf("amount %q exceeds 128 bits", s))
		}
		return Amount{}, WrapError(KindInvalidRequest, RuleAmountParse, fmt.Sprintf("invalid amount %q", s), err)
	}
	if a.v.Gt(&MaxAmount.v) {
		return Amount{}, NewError(KindArithmeticOverflow, RuleAmountRange, fmt.Sprintf("amount %q exceeds 128 bits", s))
	}
	return a, nil
}

func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }

func (a Amount) Less(b Amount) bool { return a.v.Lt(&b.v) }

func (a Amount) IsZero() bool { return a.v.IsZero() }

// CheckedAdd returns a+b, or an ArithmeticOverflow error if the sum exceeds MaxAmount.
func (a Amount) CheckedAdd(b Amount) (Amount, error) {
	var sum Amount
	if _, overflow := sum.v.AddOverflow(&a.v, &b.v); overflow || sum.v.Gt(&MaxAmount.v) {
		return Amount{}, NewError(KindArithmeticOverflow, RuleDepositOverflow, "amount overflow")
	}
	return sum, nil
}

func (a Amount) String() string { return a.v.Dec() }

// MarshalBinary encodes a as 16 little-endian bytes.
func (a Amount) MarshalBinary() ([]byte, error) {
	be := a.v.Bytes32()
	out := make([]byte, AmountSize)
	for i := 0; i < AmountSize; i++ {
		out[i] = be[len(be)-1-i]
	}
	return out, nil
}

// AmountFromBinary decodes the 16-byte little-endian encoding produced by MarshalBinary.
func AmountFromBinary(b []byte) (Amount, error) {
	if len(b) != AmountSize {
		return Amount{}, NewError(KindStorage, RuleStorage, fmt.Sprintf("amount encoding must be %d bytes, got %d", AmountSize, len(b)))
	}
	be := make([]byte, AmountSize)
	for i := 0; i < AmountSize; i++ {
		be[i] = b[AmountSize-1-i]
	}
	var a Amount
	a.v.SetBytes(be)
	return a, nil
}

func (a Amount) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
