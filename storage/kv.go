package storage

// KV is a minimal ordered key-value store.
//
// Contract:
// - Get MUST return ErrNotFound when the key is absent.
// - Put MUST replace any previous value for the key (last write wins).
// - Put MUST be atomic per key: a reader never observes a partially written value.
// - Iterate MUST visit keys with the given prefix in ascending byte order.
// - Returned slices MUST NOT alias backend memory that can change later.
type KV interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Iterate(prefix []byte, fn func(key, value []byte) error) error
}
