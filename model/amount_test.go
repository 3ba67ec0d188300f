package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	a, err := ParseAmount("75")
	require.NoError(t, err)
	require.Equal(t, "75", a.String())
	require.Equal(t, 0, a.Cmp(NewAmount(75)))

	max, err := ParseAmount("340282366920938463463374607431768211455")
	require.NoError(t, err)
	require.Equal(t, 0, max.Cmp(MaxAmount))
}

func TestParseAmount_Rejects(t *testing.T) {
	_, err := ParseAmount("-1")
	require.True(t, IsKind(err, KindInvalidRequest))
	require.Equal(t, RuleAmountParse, RuleID(err))

	_, err = ParseAmount("")
	require.True(t, IsKind(err, KindInvalidRequest))

	// 2^128 does not fit a balance.
	_, err = ParseAmount("340282366920938463463374607431768211456")
	require.True(t, IsKind(err, KindArithmeticOverflow))
	require.Equal(t, RuleAmountRange, RuleID(err))

	// Larger than 256 bits.
	_, err = ParseAmount(strings.Repeat("9", 80))
	require.True(t, IsKind(err, KindArithmeticOverflow))
}

func TestAmount_CheckedAdd(t *testing.T) {
	sum, err := NewAmount(50).CheckedAdd(NewAmount(30))
	require.NoError(t, err)
	require.Equal(t, "80", sum.String())

	_, err = MaxAmount.CheckedAdd(NewAmount(1))
	require.True(t, IsKind(err, KindArithmeticOverflow))
	require.Equal(t, RuleDepositOverflow, RuleID(err))

	same, err := MaxAmount.CheckedAdd(Amount{})
	require.NoError(t, err)
	require.Equal(t, 0, same.Cmp(MaxAmount))
}

func TestAmount_BinaryLittleEndian(t *testing.T) {
	b, err := NewAmount(0x0102).MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, AmountSize)
	require.Equal(t, byte(0x02), b[0])
	require.Equal(t, byte(0x01), b[1])

	maxBytes, err := MaxAmount.MarshalBinary()
	require.NoError(t, err)
	back, err := AmountFromBinary(maxBytes)
	require.NoError(t, err)
	require.Equal(t, 0, back.Cmp(MaxAmount))

	_, err = AmountFromBinary(b[:15])
	require.True(t, IsKind(err, KindStorage))
}

func TestAmount_JSONText(t *testing.T) {
	type row struct {
		Amount Amount `json:"amount"`
	}
	out, err := json.Marshal(row{Amount: NewAmount(42)})
	require.NoError(t, err)
	require.JSONEq(t, `{"amount":"42"}`, string(out))

	var in row
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"100"}`), &in))
	require.False(t, in.Amount.Less(NewAmount(100)))
	require.True(t, NewAmount(99).Less(in.Amount))
}
