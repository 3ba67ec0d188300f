package memkv

import (
	"bytes"
	"flag"
	"sort"
	"strings"

	"xdao.co/claimledger/storage"
	"xdao.co/claimledger/storage/kvregistry"
)

// KV is an in-process key-value store.
//
// It performs no synchronization: callers serialize access the same way the
// ledger's host serializes state transitions.
type KV struct {
	m map[string][]byte
}

func New() *KV {
	return &KV{m: make(map[string][]byte)}
}

func (s *KV) Get(key []byte) ([]byte, error) {
	v, ok := s.m[string(key)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (s *KV) Put(key, value []byte) error {
	s.m[string(key)] = bytes.Clone(value)
	return nil
}

func (s *KV) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	keys := make([]string, 0, len(s.m))
	for k := range s.m {
		if strings.HasPrefix(k, string(prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn([]byte(k), bytes.Clone(s.m[k])); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of stored keys.
func (s *KV) Len() int { return len(s.m) }

func init() {
	kvregistry.MustRegister(kvregistry.Backend{
		Name:        "mem",
		Description: "In-memory KV (state is lost on exit)",
		Usage:       kvregistry.UsageCLI | kvregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) kvregistry.Opener {
			return func() (storage.KV, func() error, error) {
				return New(), nil, nil
			}
		},
	})
}
