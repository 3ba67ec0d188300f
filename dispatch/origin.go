package dispatch

import "xdao.co/claimledger/model"

// Origin is the authentication result the host attaches to a call.
//
// The zero Origin is unsigned.
type Origin struct {
	signed  bool
	account model.AccountID
}

// Signed is the origin of a call whose signer was verified as account.
func Signed(account model.AccountID) Origin { return Origin{signed: true, account: account} }

// None is the origin of an unsigned call.
func None() Origin { return Origin{} }

func (o Origin) IsSigned() bool { return o.signed }

// EnsureSigned returns the signing account, or a BadOrigin error.
func (o Origin) EnsureSigned() (model.AccountID, error) {
	if !o.signed {
		return model.AccountID{}, model.NewError(model.KindBadOrigin, model.RuleBadOrigin, "call requires a signed origin")
	}
	return o.account, nil
}

func (o Origin) String() string {
	if !o.signed {
		return "none"
	}
	return "signed:" + o.account.String()
}
