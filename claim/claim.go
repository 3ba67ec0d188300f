// Package claim gates reward claims behind an ed25519 signature check.
//
// Every failure, whether a malformed key, a malformed signature or a
// verification mismatch, is reported as the same model.ErrSignatureNotValid.
package claim

import (
	"filippo.io/edwards25519"
	"github.com/cloudflare/circl/sign/ed25519"
	"go.uber.org/zap"

	"xdao.co/claimledger/model"
)

// Stage is a step of a single claim verification.
type Stage int

const (
	StageStart Stage = iota
	StageParsingKey
	StageParsingSignature
	StageVerifying
	StageAuthorized
	StageDenied
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "Start"
	case StageParsingKey:
		return "ParsingKey"
	case StageParsingSignature:
		return "ParsingSignature"
	case StageVerifying:
		return "Verifying"
	case StageAuthorized:
		return "Authorized"
	case StageDenied:
		return "Denied"
	default:
		return "Unknown"
	}
}

// Terminal reports whether s ends a verification.
func (s Stage) Terminal() bool { return s == StageAuthorized || s == StageDenied }

// Verify runs one verification of m and returns its terminal stage.
func Verify(m Material) (Stage, error) {
	trace, err := Trace(m)
	return trace[len(trace)-1], err
}

// Trace is Verify but returns every stage visited, in order.
//
// The stage before Denied tells where verification failed; it is meant for
// local diagnostics and is never part of the returned error.
func Trace(m Material) ([]Stage, error) {
	trace := []Stage{StageStart, StageParsingKey}
	deny := func() ([]Stage, error) {
		return append(trace, StageDenied), model.ErrSignatureNotValid
	}

	if len(m.PublicKey) != PublicKeySize {
		return deny()
	}
	if _, err := new(edwards25519.Point).SetBytes(m.PublicKey); err != nil {
		return deny()
	}
	scheme := ed25519.Scheme()
	pk, err := scheme.UnmarshalBinaryPublicKey(m.PublicKey)
	if err != nil {
		return deny()
	}

	trace = append(trace, StageParsingSignature)
	if len(m.Signature) != SignatureSize {
		return deny()
	}
	if _, err := new(edwards25519.Point).SetBytes(m.Signature[:32]); err != nil {
		return deny()
	}
	if _, err := edwards25519.NewScalar().SetCanonicalBytes(m.Signature[32:]); err != nil {
		return deny()
	}

	trace = append(trace, StageVerifying)
	if !scheme.Verify(pk, m.Message, m.Signature, nil) {
		return deny()
	}
	return append(trace, StageAuthorized), nil
}

// Option configures an Authorizer.
type Option func(*Authorizer)

// WithMaterial replaces the compiled-in material.
func WithMaterial(m Material) Option {
	return func(a *Authorizer) { a.material = m.Clone() }
}

func WithLogger(log *zap.Logger) Option {
	return func(a *Authorizer) {
		if log != nil {
			a.log = log
		}
	}
}

// Authorizer is the claim gate. It holds no mutable state; Authorize is safe
// for concurrent use.
type Authorizer struct {
	material Material
	log      *zap.Logger
}

func New(opts ...Option) *Authorizer {
	a := &Authorizer{material: FixedMaterial(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authorize checks the authorizer's material on behalf of caller.
//
// With the compiled-in material the outcome does not depend on caller: any
// caller that reaches this gate passes it.
func (a *Authorizer) Authorize(caller model.AccountID) error {
	trace, err := Trace(a.material)
	final := trace[len(trace)-1]
	if ce := a.log.Check(zap.DebugLevel, "claim verification"); ce != nil {
		fields := []zap.Field{
			zap.String("caller", caller.String()),
			zap.Stringer("stage", final),
		}
		if final == StageDenied {
			fields = append(fields, zap.Stringer("failed_at", trace[len(trace)-2]))
		}
		ce.Write(fields...)
	}
	return err
}
