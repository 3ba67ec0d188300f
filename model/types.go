package model

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AccountIDSize is the width of an account identifier in bytes.
const AccountIDSize = 32

// AccountID identifies an authenticated caller account of the hosting runtime.
type AccountID [AccountIDSize]byte

// ParseAccountID decodes a hex account identifier, with or without a 0x prefix.
func ParseAccountID(s string) (AccountID, error) {
	var id AccountID
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, WrapError(KindInvalidRequest, RuleBadOrigin, "invalid account id hex", err)
	}
	if len(b) != AccountIDSize {
		return id, NewError(KindInvalidRequest, RuleBadOrigin, fmt.Sprintf("account id must be %d bytes, got %d", AccountIDSize, len(b)))
	}
	copy(id[:], b)
	return id, nil
}

func (a AccountID) String() string { return hex.EncodeToString(a[:]) }

func (a AccountID) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *AccountID) UnmarshalText(text []byte) error {
	id, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*a = id
	return nil
}

// ClientID is an opaque depositor key. Any length is allowed, including zero.
type ClientID []byte

// ParseClientID decodes a hex client identifier.
func ParseClientID(s string) (ClientID, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, WrapError(KindInvalidRequest, RuleUnknownCall, "invalid client id hex", err)
	}
	return ClientID(b), nil
}

func (c ClientID) Hex() string { return hex.EncodeToString(c) }

func (c ClientID) String() string { return c.Hex() }

// Clone returns a copy that does not alias c.
func (c ClientID) Clone() ClientID {
	if c == nil {
		return ClientID{}
	}
	out := make(ClientID, len(c))
	copy(out, c)
	return out
}
