// Package ledger records client deposits behind a balance check.
//
// A Ledger owns no global state: the store and the balance oracle are
// injected, and the host is responsible for serializing calls that touch the
// same client id.
package ledger

import (
	"fmt"

	"go.uber.org/zap"

	"xdao.co/claimledger/model"
)

// BalanceOracle reports an account's spendable balance.
//
// Implementations are treated as authoritative and side-effect free.
type BalanceOracle interface {
	FreeBalance(account model.AccountID) (model.Amount, error)
}

// Store persists ClientID -> Amount records.
//
// Get reports ok=false for an absent record. ForEach visits records in
// ascending storage-key order and stops at the first error fn returns.
type Store interface {
	Get(id model.ClientID) (amount model.Amount, ok bool, err error)
	Put(id model.ClientID, amount model.Amount) error
	ForEach(fn func(id model.ClientID, amount model.Amount) error) error
}

// Notifier receives events for successful transitions. Delivery is best effort.
type Notifier interface {
	Notify(ev model.Event)
}

// Policy selects how a deposit for an existing client id is applied.
type Policy string

const (
	// PolicyOverwrite replaces any prior record.
	PolicyOverwrite Policy = "overwrite"
	// PolicyAccumulate adds to the prior record and rejects overflow.
	PolicyAccumulate Policy = "accumulate"
)

// ParsePolicy accepts "" (overwrite), "overwrite" and "accumulate".
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyOverwrite:
		return PolicyOverwrite, nil
	case PolicyAccumulate:
		return PolicyAccumulate, nil
	default:
		return "", fmt.Errorf("ledger: unknown policy %q", s)
	}
}

type Options struct {
	Policy   Policy
	Notifier Notifier
	Logger   *zap.Logger
}

// Ledger is the deposit ledger.
type Ledger struct {
	store    Store
	oracle   BalanceOracle
	policy   Policy
	notifier Notifier
	log      *zap.Logger
}

func New(store Store, oracle BalanceOracle, opts Options) (*Ledger, error) {
	if store == nil {
		return nil, fmt.Errorf("ledger: store is required")
	}
	if oracle == nil {
		return nil, fmt.Errorf("ledger: balance oracle is required")
	}
	policy, err := ParsePolicy(string(opts.Policy))
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		store:    store,
		oracle:   oracle,
		policy:   policy,
		notifier: opts.Notifier,
		log:      log,
	}, nil
}

// Policy returns the deposit policy in effect.
func (l *Ledger) Policy() Policy { return l.policy }

// RecordDeposit records amount for clientID if caller's free balance covers it.
//
// The balance is checked but never debited: a deposit record is not an escrow.
// On any error the stored record for clientID is unchanged.
func (l *Ledger) RecordDeposit(caller model.AccountID, clientID model.ClientID, amount model.Amount) error {
	free, err := l.oracle.FreeBalance(caller)
	if err != nil {
		return model.WrapError(model.KindOracle, model.RuleOracle, "balance oracle unavailable", err)
	}
	if free.Less(amount) {
		l.log.Debug("deposit rejected",
			zap.String("caller", caller.String()),
			zap.String("client_id", clientID.Hex()),
			zap.Stringer("amount", amount),
			zap.Stringer("free_balance", free),
		)
		return model.NewError(model.KindInsufficientBalance, model.RuleInsufficientBalance,
			fmt.Sprintf("free balance %s is below deposit amount %s", free, amount))
	}

	next := amount
	if l.policy == PolicyAccumulate {
		cur, ok, err := l.store.Get(clientID)
		if err != nil {
			return storageErr("read deposit", err)
		}
		if ok {
			if next, err = cur.CheckedAdd(amount); err != nil {
				return err
			}
		}
	}

	if err := l.store.Put(clientID, next); err != nil {
		return storageErr("write deposit", err)
	}

	l.log.Info("deposit recorded",
		zap.String("caller", caller.String()),
		zap.String("client_id", clientID.Hex()),
		zap.Stringer("amount", next),
	)
	if l.notifier != nil {
		l.notifier.Notify(model.DepositRecorded{Caller: caller, ClientID: clientID.Clone(), Amount: next})
	}
	return nil
}

// Deposit returns the recorded amount for clientID.
func (l *Ledger) Deposit(clientID model.ClientID) (model.Amount, bool, error) {
	a, ok, err := l.store.Get(clientID)
	if err != nil {
		return model.Amount{}, false, storageErr("read deposit", err)
	}
	return a, ok, nil
}

// ForEach visits every record in storage-key order.
//
// Errors returned by fn are passed through unchanged.
func (l *Ledger) ForEach(fn func(id model.ClientID, amount model.Amount) error) error {
	var fnErr error
	err := l.store.ForEach(func(id model.ClientID, amount model.Amount) error {
		if err := fn(id, amount); err != nil {
			fnErr = err
			return err
		}
		return nil
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return storageErr("iterate deposits", err)
	}
	return nil
}

func storageErr(op string, err error) error {
	if model.KindOf(err) != "" {
		return err
	}
	return model.WrapError(model.KindStorage, model.RuleStorage, "storage: "+op, err)
}
