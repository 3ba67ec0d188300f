package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"xdao.co/claimledger/ledger"
	"xdao.co/claimledger/storage"
	"xdao.co/claimledger/storage/kvregistry"
)

// File is the node configuration file.
//
// Backends are opened by name through kvregistry; callers still need to link
// the desired backend plugins via blank imports.
//
// Example:
//
//	{
//	  "store": {"name": "bolt", "config": {"bolt-path": "/var/lib/claimledger/state.db"}},
//	  "replicas": [{"name": "sqlite", "config": {"sqlite-path": "/backup/state.sqlite"}}],
//	  "hasher": "twox64concat",
//	  "policy": "overwrite",
//	  "balances": "/etc/claimledger/balances.json"
//	}
type File struct {
	Store    BackendConfig   `json:"store"`
	Replicas []BackendConfig `json:"replicas,omitempty"`
	Hasher   storage.Hasher  `json:"hasher,omitempty"`
	Pallet   string          `json:"pallet,omitempty"`
	Item     string          `json:"item,omitempty"`
	Policy   ledger.Policy   `json:"policy,omitempty"`
	Balances string          `json:"balances,omitempty"`
}

type BackendConfig struct {
	// Name is the kvregistry backend name to open (e.g. "mem", "bolt", "sqlite").
	Name string `json:"name"`
	// ID is an optional alias used in logs and errors. If empty, Name is used.
	ID     string            `json:"id,omitempty"`
	Config map[string]string `json:"config,omitempty"`
}

func (b BackendConfig) id() string {
	if b.ID != "" {
		return b.ID
	}
	return b.Name
}

// Default returns an in-memory configuration with every default applied.
func Default() File {
	f := File{Store: BackendConfig{Name: "mem"}}
	f.applyDefaults()
	return f
}

func LoadFile(path string) (File, error) {
	var f File
	if path == "" {
		return f, errors.New("config: empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := json.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("config: parse %s: %w", path, err)
	}
	f.applyDefaults()
	return f, f.Validate()
}

func (f *File) applyDefaults() {
	if f.Hasher == "" {
		f.Hasher = storage.HasherTwox64Concat
	}
	if f.Pallet == "" {
		f.Pallet = storage.DefaultPallet
	}
	if f.Item == "" {
		f.Item = storage.DefaultItem
	}
	if f.Policy == "" {
		f.Policy = ledger.PolicyOverwrite
	}
}

// Layout returns the storage key layout described by f.
func (f File) Layout() storage.KeyLayout {
	return storage.KeyLayout{Pallet: f.Pallet, Item: f.Item, Hasher: f.Hasher}
}

func (f File) Validate() error {
	if f.Store.Name == "" {
		return errors.New("config: store.name is required")
	}
	seen := map[string]struct{}{f.Store.id(): {}}
	for _, r := range f.Replicas {
		if r.Name == "" {
			return errors.New("config: replica name is required")
		}
		if _, ok := seen[r.id()]; ok {
			return fmt.Errorf("config: duplicate backend id %q", r.id())
		}
		seen[r.id()] = struct{}{}
	}
	if err := f.Layout().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := ledger.ParsePolicy(string(f.Policy)); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// OpenKV opens the store and any replicas.
//
// With replicas the result is a storage.ReplicatingKV whose primary is Store.
// The returned close function closes every opened backend in reverse order.
func (f File) OpenKV(usage kvregistry.Usage) (storage.KV, func() error, error) {
	if err := f.Validate(); err != nil {
		return nil, nil, err
	}

	all := append([]BackendConfig{f.Store}, f.Replicas...)
	named := make([]storage.NamedKV, 0, len(all))
	closers := make([]func() error, 0, len(all))
	closeAll := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	for _, b := range all {
		kv, closeFn, err := kvregistry.OpenWithConfig(b.Name, usage, b.Config)
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("config: open %q: %w", b.id(), err)
		}
		named = append(named, storage.NamedKV{Name: b.id(), KV: kv})
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
	}

	if len(named) == 1 {
		return named[0].KV, closeAll, nil
	}
	return storage.ReplicatingKV{Backends: named}, closeAll, nil
}
