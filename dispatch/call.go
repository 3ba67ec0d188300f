package dispatch

import (
	"fmt"
	"sort"

	"xdao.co/claimledger/model"
)

// External call names.
const (
	CallMakeDeposit = "make_deposit"
	CallClaimReward = "claim_reward"
)

// Call is one of the runtime's callable operations.
type Call interface {
	CallName() string
	isCall()
}

// MakeDeposit records Amount for ClientID.
type MakeDeposit struct {
	ClientID model.ClientID
	Amount   model.Amount
}

func (MakeDeposit) CallName() string { return CallMakeDeposit }
func (MakeDeposit) isCall()          {}

// ClaimReward passes the claim gate and, on success, disburses.
type ClaimReward struct{}

func (ClaimReward) CallName() string { return CallClaimReward }
func (ClaimReward) isCall()          {}

// CallNames returns every call name, sorted.
func CallNames() []string {
	names := []string{CallMakeDeposit, CallClaimReward}
	sort.Strings(names)
	return names
}

// DecodeCall builds a call from its external name and string arguments.
//
// make_deposit takes client_id (hex) and amount (decimal); claim_reward takes
// none. Unknown names and unexpected arguments are rejected.
func DecodeCall(name string, args map[string]string) (Call, error) {
	switch name {
	case CallMakeDeposit:
		if err := onlyArgs(name, args, "client_id", "amount"); err != nil {
			return nil, err
		}
		rawID, ok := args["client_id"]
		if !ok {
			return nil, invalidCall("make_deposit: missing client_id")
		}
		rawAmount, ok := args["amount"]
		if !ok {
			return nil, invalidCall("make_deposit: missing amount")
		}
		id, err := model.ParseClientID(rawID)
		if err != nil {
			return nil, err
		}
		amount, err := model.ParseAmount(rawAmount)
		if err != nil {
			return nil, err
		}
		return MakeDeposit{ClientID: id, Amount: amount}, nil
	case CallClaimReward:
		if err := onlyArgs(name, args); err != nil {
			return nil, err
		}
		return ClaimReward{}, nil
	default:
		return nil, invalidCall(fmt.Sprintf("unknown call %q", name))
	}
}

func onlyArgs(call string, args map[string]string, allowed ...string) error {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
next:
	for _, k := range keys {
		for _, a := range allowed {
			if k == a {
				continue next
			}
		}
		return invalidCall(fmt.Sprintf("%s: unexpected argument %q", call, k))
	}
	return nil
}

func invalidCall(msg string) error {
	return model.NewError(model.KindInvalidRequest, model.RuleUnknownCall, msg)
}
