package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
)

// Hasher names how a map key is turned into its storage key suffix.
type Hasher string

const (
	// HasherTwox64Concat is xxh64(id) (little-endian) followed by id.
	HasherTwox64Concat Hasher = "twox64concat"
	// HasherBlake2_128Concat is blake2b-128(id) followed by id.
	HasherBlake2_128Concat Hasher = "blake2_128concat"
	// HasherIdentity stores id unchanged.
	HasherIdentity Hasher = "identity"
)

const (
	DefaultPallet = "Fluence"
	DefaultItem   = "Deposits"
)

// KeyLayout derives storage keys for one keyed map:
//
//	twox128(Pallet) || twox128(Item) || Hasher(id)
//
// All supported hashers keep id recoverable from the key.
type KeyLayout struct {
	Pallet string
	Item   string
	Hasher Hasher
}

// DefaultKeyLayout is the layout of the deposits map.
func DefaultKeyLayout() KeyLayout {
	return KeyLayout{Pallet: DefaultPallet, Item: DefaultItem, Hasher: HasherTwox64Concat}
}

func (l KeyLayout) Validate() error {
	if l.Pallet == "" || l.Item == "" {
		return fmt.Errorf("storage: key layout requires pallet and item names")
	}
	switch l.Hasher {
	case HasherTwox64Concat, HasherBlake2_128Concat, HasherIdentity:
		return nil
	default:
		return fmt.Errorf("storage: unsupported hasher %q", l.Hasher)
	}
}

// Prefix returns the 32-byte prefix shared by every key of the map.
func (l KeyLayout) Prefix() []byte {
	out := make([]byte, 0, 32)
	out = append(out, Twox128([]byte(l.Pallet))...)
	return append(out, Twox128([]byte(l.Item))...)
}

// Key returns the storage key for id.
func (l KeyLayout) Key(id []byte) []byte {
	prefix := l.Prefix()
	switch l.Hasher {
	case HasherBlake2_128Concat:
		return append(append(prefix, Blake2_128(id)...), id...)
	case HasherIdentity:
		return append(prefix, id...)
	default:
		return append(append(prefix, Twox64(id)...), id...)
	}
}

// ID recovers the map key from a storage key produced by Key.
func (l KeyLayout) ID(key []byte) ([]byte, error) {
	prefix := l.Prefix()
	if len(key) < len(prefix) || string(key[:len(prefix)]) != string(prefix) {
		return nil, ErrInvalidKey
	}
	rest := key[len(prefix):]
	var hashLen int
	switch l.Hasher {
	case HasherBlake2_128Concat:
		hashLen = 16
	case HasherIdentity:
		hashLen = 0
	default:
		hashLen = 8
	}
	if len(rest) < hashLen {
		return nil, ErrInvalidKey
	}
	id := append([]byte{}, rest[hashLen:]...)
	if string(l.Key(id)) != string(key) {
		return nil, ErrInvalidKey
	}
	return id, nil
}

// Twox64 is xxh64 with seed 0, little-endian.
func Twox64(data []byte) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, xxhash.Sum64(data))
	return out
}

// Twox128 is xxh64 with seeds 0 and 1, each little-endian, concatenated.
func Twox128(data []byte) []byte {
	out := make([]byte, 16)
	for seed := uint64(0); seed < 2; seed++ {
		d := xxhash.NewWithSeed(seed)
		_, _ = d.Write(data)
		binary.LittleEndian.PutUint64(out[seed*8:], d.Sum64())
	}
	return out
}

// Blake2_128 is blake2b with a 16-byte digest.
func Blake2_128(data []byte) []byte {
	h, err := blake2b.New(16, nil)
	if err != nil {
		// blake2b.New only fails for invalid sizes or keys.
		panic(err)
	}
	_, _ = h.Write(data)
	return h.Sum(nil)
}
