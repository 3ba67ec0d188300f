package storage

import (
	"fmt"
)

// NamedKV associates a KV with a stable backend name.
//
// This is used for multi-backend orchestration where callers need to retain
// per-backend metadata (e.g., for reporting or auditing).
type NamedKV struct {
	Name string
	KV   KV
}

// ReplicatingKV mirrors writes to every configured backend.
//
// Backends[0] is the primary and the only source for reads and iteration.
// Put writes the replicas first and the primary last, so a failed write never
// changes what readers of the primary observe. A replica that accepted a write
// the primary then rejected is repaired by the next successful Put of that key.
type ReplicatingKV struct {
	Backends []NamedKV
}

var _ KV = ReplicatingKV{}

func (r ReplicatingKV) primary() (KV, error) {
	if len(r.Backends) == 0 || r.Backends[0].KV == nil {
		return nil, fmt.Errorf("storage: ReplicatingKV has no primary backend")
	}
	return r.Backends[0].KV, nil
}

func (r ReplicatingKV) Get(key []byte) ([]byte, error) {
	p, err := r.primary()
	if err != nil {
		return nil, err
	}
	return p.Get(key)
}

func (r ReplicatingKV) Put(key, value []byte) error {
	p, err := r.primary()
	if err != nil {
		return err
	}
	for _, b := range r.Backends[1:] {
		if b.KV == nil {
			return fmt.Errorf("storage: nil KV for backend %q", b.Name)
		}
		if err := b.KV.Put(key, value); err != nil {
			return fmt.Errorf("%w: replica %q: %v", ErrDiverged, b.Name, err)
		}
	}
	return p.Put(key, value)
}

func (r ReplicatingKV) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	p, err := r.primary()
	if err != nil {
		return err
	}
	return p.Iterate(prefix, fn)
}

// Names returns backend names in configured order.
func (r ReplicatingKV) Names() []string {
	out := make([]string, 0, len(r.Backends))
	for _, b := range r.Backends {
		out = append(out, b.Name)
	}
	return out
}
