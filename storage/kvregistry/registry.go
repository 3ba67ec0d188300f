package kvregistry

import (
	"flag"
	"fmt"
	"io"
	"sort"
	"sync"

	"xdao.co/claimledger/storage"
)

// Backend is a build-time plugin that can open a storage.KV implementation.
//
// Backends typically register themselves in init():
//
//	kvregistry.MustRegister(kvregistry.Backend{ ... })
//
// The binary must import the backend package for registration to occur.
type Backend struct {
	Name        string
	Description string
	Usage       Usage

	// RegisterFlags adds backend-specific flags to fs.
	// Flag values must be stored in variables owned by the returned Opener so
	// the same backend can be opened more than once with different settings.
	RegisterFlags func(fs *flag.FlagSet) Opener
}

// Opener constructs the KV using values parsed into the flags it was created for.
// It returns an optional close function.
type Opener func() (storage.KV, func() error, error)

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
)

// Register registers a backend.
func Register(b Backend) error {
	if b.Name == "" {
		return fmt.Errorf("kvregistry: backend name is required")
	}
	if b.RegisterFlags == nil {
		return fmt.Errorf("kvregistry: backend %q missing RegisterFlags", b.Name)
	}
	if b.Usage == 0 {
		return fmt.Errorf("kvregistry: backend %q missing Usage", b.Name)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := backends[b.Name]; exists {
		return fmt.Errorf("kvregistry: backend %q already registered", b.Name)
	}
	backends[b.Name] = b
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// List returns backends matching usage, sorted by name.
func List(usage Usage) []Backend {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if b.Usage.allows(usage) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RegisterFlags registers flags for all backends matching usage on fs.
//
// This enables single-pass flag parsing (Go's flag package rejects unknown flags).
// FlagConfig reads the parsed values back for OpenWithConfig.
func RegisterFlags(fs *flag.FlagSet, usage Usage) {
	for _, b := range List(usage) {
		b.RegisterFlags(fs)
	}
}

// OpenWithConfig opens the named backend from a map of flag names to values.
//
// Keys mirror the backend's CLI flag names (without leading dashes), so a JSON
// config and a command line configure a backend the same way.
func OpenWithConfig(name string, usage Usage, config map[string]string) (storage.KV, func() error, error) {
	mu.RLock()
	b, ok := backends[name]
	mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("unknown backend %q", name)
	}
	if !b.Usage.allows(usage) {
		return nil, nil, fmt.Errorf("backend %q not supported in this binary", name)
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	open := b.RegisterFlags(fs)
	keys := make([]string, 0, len(config))
	for k := range config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if fs.Lookup(k) == nil {
			return nil, nil, fmt.Errorf("backend %q: unknown config key %q", name, k)
		}
		if err := fs.Set(k, config[k]); err != nil {
			return nil, nil, fmt.Errorf("backend %q: config key %q: %w", name, k, err)
		}
	}
	return open()
}

// FlagConfig returns the values of name's backend flags that were set on fs,
// keyed by flag name, in the form OpenWithConfig accepts.
func FlagConfig(fs *flag.FlagSet, name string) (map[string]string, error) {
	mu.RLock()
	b, ok := backends[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown backend %q", name)
	}
	own := flag.NewFlagSet(name, flag.ContinueOnError)
	b.RegisterFlags(own)

	out := map[string]string{}
	fs.Visit(func(f *flag.Flag) {
		if own.Lookup(f.Name) != nil {
			out[f.Name] = f.Value.String()
		}
	})
	return out, nil
}
