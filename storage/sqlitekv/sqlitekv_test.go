package sqlitekv

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/claimledger/storage"
	"xdao.co/claimledger/storage/kvregistry"
	"xdao.co/claimledger/storage/testkit"
)

func TestSQLiteKV_Conformance(t *testing.T) {
	testkit.RunKVConformance(t, func(t *testing.T) storage.KV {
		t.Helper()
		kv, err := Open(filepath.Join(t.TempDir(), "ledger.sqlite"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = kv.Close() })
		return kv
	})
}

func TestSQLiteKV_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.sqlite")

	kv, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, kv.Put([]byte{0x01, 0x02}, []byte("100")))
	require.NoError(t, kv.Close())

	kv, err = Open(path)
	require.NoError(t, err)
	defer kv.Close()
	got, err := kv.Get([]byte{0x01, 0x02})
	require.NoError(t, err)
	require.Equal(t, "100", string(got))
}

func TestSQLiteKV_IterateMayReenter(t *testing.T) {
	kv, err := Open(filepath.Join(t.TempDir(), "ledger.sqlite"))
	require.NoError(t, err)
	defer kv.Close()
	require.NoError(t, kv.Put([]byte("p/a"), []byte("1")))
	require.NoError(t, kv.Put([]byte("p/b"), []byte("2")))

	err = kv.Iterate([]byte("p/"), func(key, value []byte) error {
		got, err := kv.Get(key)
		if err != nil {
			return err
		}
		require.Equal(t, value, got)
		return nil
	})
	require.NoError(t, err)
}

func TestSQLiteKV_Closed(t *testing.T) {
	kv, err := Open(filepath.Join(t.TempDir(), "ledger.sqlite"))
	require.NoError(t, err)
	require.NoError(t, kv.Close())
	_, err = kv.Get([]byte("k"))
	require.True(t, errors.Is(err, storage.ErrClosed))
}

func TestSQLiteKV_OpenWithConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.sqlite")
	kv, closeFn, err := kvregistry.OpenWithConfig("sqlite", kvregistry.UsageCLI, map[string]string{"sqlite-path": path})
	require.NoError(t, err)
	defer closeFn()
	require.NoError(t, kv.Put([]byte("k"), []byte("v")))
}
