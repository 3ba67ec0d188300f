// Package dispatch routes authenticated calls to the ledger and the claim gate.
package dispatch

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"xdao.co/claimledger/model"
)

// Depositor is the deposit side of the runtime (ledger.Ledger).
type Depositor interface {
	RecordDeposit(caller model.AccountID, clientID model.ClientID, amount model.Amount) error
}

// ClaimGate is the claim side of the runtime (claim.Authorizer).
type ClaimGate interface {
	Authorize(caller model.AccountID) error
}

// Disburser pays out a reward. It runs only after the claim gate passed.
type Disburser interface {
	Disburse(caller model.AccountID) error
}

// Notifier receives ClaimAuthorized events.
type Notifier interface {
	Notify(ev model.Event)
}

type Options struct {
	Disburser Disburser
	Notifier  Notifier
	Logger    *zap.Logger
}

// Runtime executes calls one at a time.
type Runtime struct {
	mu        sync.Mutex
	ledger    Depositor
	gate      ClaimGate
	disburser Disburser
	notifier  Notifier
	log       *zap.Logger
}

func NewRuntime(ledger Depositor, gate ClaimGate, opts Options) (*Runtime, error) {
	if ledger == nil {
		return nil, fmt.Errorf("dispatch: ledger is required")
	}
	if gate == nil {
		return nil, fmt.Errorf("dispatch: claim gate is required")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Runtime{
		ledger:    ledger,
		gate:      gate,
		disburser: opts.Disburser,
		notifier:  opts.Notifier,
		log:       log,
	}, nil
}

// Dispatch runs call on behalf of origin. Calls never overlap.
func (r *Runtime) Dispatch(origin Origin, call Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if call == nil {
		return invalidCall("nil call")
	}
	caller, err := origin.EnsureSigned()
	if err != nil {
		r.log.Debug("call rejected", zap.String("call", call.CallName()), zap.Stringer("origin", origin))
		return err
	}

	switch c := call.(type) {
	case MakeDeposit:
		return r.ledger.RecordDeposit(caller, c.ClientID, c.Amount)
	case ClaimReward:
		return r.claimReward(caller)
	default:
		return invalidCall(fmt.Sprintf("unsupported call %q", call.CallName()))
	}
}

// View runs fn while no call is executing. Reads of ledger state that may
// race with Dispatch go through View.
func (r *Runtime) View(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn()
}

// Deposit is MakeDeposit through Dispatch.
func (r *Runtime) Deposit(origin Origin, clientID model.ClientID, amount model.Amount) error {
	return r.Dispatch(origin, MakeDeposit{ClientID: clientID, Amount: amount})
}

// Claim is ClaimReward through Dispatch.
func (r *Runtime) Claim(origin Origin) error {
	return r.Dispatch(origin, ClaimReward{})
}

func (r *Runtime) claimReward(caller model.AccountID) error {
	if err := r.gate.Authorize(caller); err != nil {
		return err
	}
	if r.disburser != nil {
		if err := r.disburser.Disburse(caller); err != nil {
			if model.KindOf(err) != "" {
				return err
			}
			return model.WrapError(model.KindInternal, "", "reward disbursement failed", err)
		}
	}
	r.log.Info("claim authorized", zap.String("caller", caller.String()))
	if r.notifier != nil {
		r.notifier.Notify(model.ClaimAuthorized{Caller: caller})
	}
	return nil
}
