package sqlitekv

import (
	"bytes"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"xdao.co/claimledger/storage"
	"xdao.co/claimledger/storage/kvregistry"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key BLOB PRIMARY KEY,
	value BLOB NOT NULL
) WITHOUT ROWID;
`

// KV stores ledger state in a single SQLite table.
//
// BLOB keys compare with memcmp, so ORDER BY key matches the byte ordering the
// other backends use.
type KV struct {
	sqlDB *sql.DB
}

// Open opens (or creates) a SQLite database at path and ensures the schema.
func Open(path string) (*KV, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlitekv: path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps writes serialized and reads consistent with them.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &KV{sqlDB: sqlDB}, nil
}

// Close releases the SQLite connection.
func (s *KV) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	err := s.sqlDB.Close()
	s.sqlDB = nil
	return err
}

func (s *KV) Get(key []byte) ([]byte, error) {
	if s == nil || s.sqlDB == nil {
		return nil, storage.ErrClosed
	}
	if len(key) == 0 {
		return nil, storage.ErrInvalidKey
	}
	var v []byte
	err := s.sqlDB.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlitekv: get: %w", err)
	}
	return v, nil
}

func (s *KV) Put(key, value []byte) error {
	if s == nil || s.sqlDB == nil {
		return storage.ErrClosed
	}
	if len(key) == 0 {
		return storage.ErrInvalidKey
	}
	if value == nil {
		value = []byte{}
	}
	_, err := s.sqlDB.Exec(`
INSERT INTO kv (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("sqlitekv: put: %w", err)
	}
	return nil
}

func (s *KV) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	if s == nil || s.sqlDB == nil {
		return storage.ErrClosed
	}
	if prefix == nil {
		prefix = []byte{}
	}
	// Collect first: fn may call back into the store, and the pool holds a
	// single connection.
	type row struct{ k, v []byte }
	var matched []row
	rows, err := s.sqlDB.Query(`SELECT key, value FROM kv WHERE key >= ? ORDER BY key`, prefix)
	if err != nil {
		return fmt.Errorf("sqlitekv: iterate: %w", err)
	}
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.k, &r.v); err != nil {
			_ = rows.Close()
			return fmt.Errorf("sqlitekv: iterate: %w", err)
		}
		if !bytes.HasPrefix(r.k, prefix) {
			break
		}
		matched = append(matched, r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("sqlitekv: iterate: %w", err)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("sqlitekv: iterate: %w", err)
	}

	for _, r := range matched {
		if err := fn(r.k, r.v); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	kvregistry.MustRegister(kvregistry.Backend{
		Name:        "sqlite",
		Description: "SQLite KV table (pure Go driver)",
		Usage:       kvregistry.UsageCLI | kvregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) kvregistry.Opener {
			path := fs.String("sqlite-path", "", "SQLite database path (sqlite backend)")
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
