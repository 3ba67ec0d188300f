package boltkv

import (
	"bytes"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"xdao.co/claimledger/storage"
	"xdao.co/claimledger/storage/kvregistry"
)

const stateBucket = "state"

// KV is a BoltDB-backed key-value store.
//
// All keys live in one bucket; bbolt keeps them in byte order, which gives
// Iterate its ordering for free.
type KV struct {
	db *bbolt.DB
}

// Open opens (or creates) a BoltDB file at path.
func Open(path string) (*KV, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("boltkv: path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltkv: open: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(stateBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("boltkv: create bucket: %w", err)
	}
	return &KV{db: db}, nil
}

// Close closes the underlying database.
func (s *KV) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *KV) Get(key []byte) ([]byte, error) {
	if s == nil || s.db == nil {
		return nil, storage.ErrClosed
	}
	if len(key) == 0 {
		return nil, storage.ErrInvalidKey
	}
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(stateBucket)).Get(key)
		if v == nil {
			return storage.ErrNotFound
		}
		out = bytes.Clone(v)
		return nil
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (s *KV) Put(key, value []byte) error {
	if s == nil || s.db == nil {
		return storage.ErrClosed
	}
	if len(key) == 0 {
		return storage.ErrInvalidKey
	}
	if value == nil {
		value = []byte{}
	}
	return mapErr(s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(stateBucket)).Put(key, value)
	}))
}

func (s *KV) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	if s == nil || s.db == nil {
		return storage.ErrClosed
	}
	return mapErr(s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(stateBucket)).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if err := fn(bytes.Clone(k), bytes.Clone(v)); err != nil {
				return err
			}
		}
		return nil
	}))
}

func mapErr(err error) error {
	if err == bbolt.ErrDatabaseNotOpen {
		return storage.ErrClosed
	}
	return err
}

func init() {
	kvregistry.MustRegister(kvregistry.Backend{
		Name:        "bolt",
		Description: "BoltDB single-file KV",
		Usage:       kvregistry.UsageCLI | kvregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) kvregistry.Opener {
			path := fs.String("bolt-path", "", "BoltDB file path (bolt backend)")
			return func() (storage.KV, func() error, error) {
				kv, err := Open(*path)
				if err != nil {
					return nil, nil, err
				}
				return kv, kv.Close, nil
			}
		},
	})
}
