package model

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	KindInsufficientBalance Kind = "InsufficientBalance"
	KindSignatureNotValid   Kind = "SignatureNotValid"
	KindArithmeticOverflow  Kind = "ArithmeticOverflow"
	KindBadOrigin           Kind = "BadOrigin"
	KindInvalidRequest      Kind = "InvalidRequest"
	KindStorage             Kind = "Storage"
	KindOracle              Kind = "Oracle"
	KindInternal            Kind = "Internal"
)

// Stable rule identifiers.
const (
	RuleInsufficientBalance = "LEDGER-BAL-001"
	RuleDepositOverflow     = "LEDGER-ARITH-001"
	RuleStorage             = "LEDGER-STORE-001"
	RuleOracle              = "LEDGER-ORACLE-001"
	RuleSignatureNotValid   = "CLAIM-SIG-001"
	RuleBadOrigin           = "DISPATCH-ORIGIN-001"
	RuleUnknownCall         = "DISPATCH-CALL-001"
	RuleAmountParse         = "AMOUNT-PARSE-001"
	RuleAmountRange         = "AMOUNT-RANGE-001"
)

// Error is the structured error returned by every ledger operation.
//
// RuleID names the violated rule (e.g. LEDGER-BAL-001). Message is intended
// for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError returns a structured error without a cause.
func NewError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

// WrapError returns a structured error wrapping cause.
func WrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return NewError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind of a structured error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}

// ErrSignatureNotValid is returned for every claim authorization failure.
// It carries no cause so the failing step is never exposed.
var ErrSignatureNotValid error = &Error{
	Kind:    KindSignatureNotValid,
	RuleID:  RuleSignatureNotValid,
	Message: "signature not valid",
}
