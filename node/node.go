// Package node assembles a ledger runtime from a config.File.
package node

import (
	"fmt"

	"go.uber.org/zap"

	"xdao.co/claimledger/claim"
	"xdao.co/claimledger/config"
	"xdao.co/claimledger/dispatch"
	"xdao.co/claimledger/events"
	"xdao.co/claimledger/ledger"
	"xdao.co/claimledger/oracle"
	"xdao.co/claimledger/storage"
	"xdao.co/claimledger/storage/kvregistry"
)

type Options struct {
	Usage  kvregistry.Usage
	Logger *zap.Logger
	// Notifiers receive events in addition to the event log.
	Notifiers []events.Notifier
	// Disburser runs after each authorized claim.
	Disburser dispatch.Disburser
}

// Node is an opened ledger with its runtime.
type Node struct {
	KV       storage.KV
	Store    *ledger.KVStore
	Balances *oracle.Table
	Ledger   *ledger.Ledger
	Runtime  *dispatch.Runtime

	closeFn func() error
}

// Open opens the configured store and wires the ledger, claim gate and
// runtime around it.
func Open(f config.File, opts Options) (*Node, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	usage := opts.Usage
	if usage == 0 {
		usage = kvregistry.UsageDaemon
	}

	balances := oracle.NewTable()
	if f.Balances != "" {
		var err error
		if balances, err = oracle.LoadFile(f.Balances); err != nil {
			return nil, err
		}
	}

	kv, closeFn, err := f.OpenKV(usage)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*Node, error) {
		if closeFn != nil {
			_ = closeFn()
		}
		return nil, err
	}

	store, err := ledger.NewKVStore(kv, f.Layout())
	if err != nil {
		return fail(err)
	}
	notifier := append(events.Fanout{events.Log{Logger: log.Named("events")}}, opts.Notifiers...)
	l, err := ledger.New(store, balances, ledger.Options{
		Policy:   f.Policy,
		Notifier: notifier,
		Logger:   log.Named("ledger"),
	})
	if err != nil {
		return fail(err)
	}
	rt, err := dispatch.NewRuntime(l, claim.New(claim.WithLogger(log.Named("claim"))), dispatch.Options{
		Disburser: opts.Disburser,
		Notifier:  notifier,
		Logger:    log.Named("dispatch"),
	})
	if err != nil {
		return fail(err)
	}

	log.Info("ledger opened",
		zap.String("store", f.Store.Name),
		zap.Int("replicas", len(f.Replicas)),
		zap.String("hasher", string(f.Hasher)),
		zap.String("policy", string(l.Policy())),
		zap.Int("balances", balances.Len()),
	)
	return &Node{
		KV:       kv,
		Store:    store,
		Balances: balances,
		Ledger:   l,
		Runtime:  rt,
		closeFn:  closeFn,
	}, nil
}

// Close releases every opened backend.
func (n *Node) Close() error {
	if n == nil || n.closeFn == nil {
		return nil
	}
	if err := n.closeFn(); err != nil {
		return fmt.Errorf("node: close: %w", err)
	}
	return nil
}
