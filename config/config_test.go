package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"xdao.co/claimledger/ledger"
	"xdao.co/claimledger/storage"
	"xdao.co/claimledger/storage/kvregistry"

	_ "xdao.co/claimledger/storage/boltkv"
	_ "xdao.co/claimledger/storage/memkv"
)

func TestLoadEnv_Defaults(t *testing.T) {
	t.Setenv("CLAIMLEDGER_LISTEN", "")
	t.Setenv("CLAIMLEDGER_LOG_LEVEL", "")
	t.Setenv("CLAIMLEDGER_CONFIG", "")
	t.Setenv("CLAIMLEDGER_SHUTDOWN_TIMEOUT", "")
	os.Unsetenv("CLAIMLEDGER_LISTEN")
	os.Unsetenv("CLAIMLEDGER_LOG_LEVEL")
	os.Unsetenv("CLAIMLEDGER_CONFIG")
	os.Unsetenv("CLAIMLEDGER_SHUTDOWN_TIMEOUT")

	e, err := LoadEnv()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7788", e.Listen)
	require.Equal(t, zapcore.InfoLevel, e.LogLevel)
	require.Empty(t, e.ConfigPath)
	require.Equal(t, 5*time.Second, e.ShutdownTimeout)
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("CLAIMLEDGER_LISTEN", "0.0.0.0:9000")
	t.Setenv("CLAIMLEDGER_LOG_LEVEL", "debug")
	t.Setenv("CLAIMLEDGER_CONFIG", "/etc/claimledger.json")

	e, err := LoadEnv()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9000", e.Listen)
	require.Equal(t, zapcore.DebugLevel, e.LogLevel)
	require.Equal(t, "/etc/claimledger.json", e.ConfigPath)

	t.Setenv("CLAIMLEDGER_LOG_LEVEL", "loud")
	_, err = LoadEnv()
	require.Error(t, err)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "node.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	f, err := LoadFile(writeConfig(t, `{"store":{"name":"mem"}}`))
	require.NoError(t, err)
	require.Equal(t, storage.DefaultKeyLayout(), f.Layout())
	require.Equal(t, ledger.PolicyOverwrite, f.Policy)
	require.Equal(t, Default(), f)
}

func TestLoadFile_Rejects(t *testing.T) {
	for name, body := range map[string]string{
		"no store":    `{}`,
		"bad hasher":  `{"store":{"name":"mem"},"hasher":"sha3"}`,
		"bad policy":  `{"store":{"name":"mem"},"policy":"escrow"}`,
		"dup replica": `{"store":{"name":"mem"},"replicas":[{"name":"mem"}]}`,
		"empty name":  `{"store":{"name":"mem"},"replicas":[{"config":{}}]}`,
		"not json":    `store = mem`,
	} {
		_, err := LoadFile(writeConfig(t, body))
		require.Error(t, err, name)
	}
	_, err := LoadFile("")
	require.Error(t, err)
}

func TestOpenKV_Replicated(t *testing.T) {
	dir := t.TempDir()
	f := Default()
	f.Store = BackendConfig{Name: "bolt", ID: "primary", Config: map[string]string{"bolt-path": filepath.Join(dir, "a.db")}}
	f.Replicas = []BackendConfig{{Name: "mem", ID: "cache"}}

	kv, closeFn, err := f.OpenKV(kvregistry.UsageDaemon)
	require.NoError(t, err)
	defer closeFn()

	r, ok := kv.(storage.ReplicatingKV)
	require.True(t, ok)
	require.Equal(t, []string{"primary", "cache"}, r.Names())
	require.NoError(t, kv.Put([]byte("k"), []byte("v")))
}

func TestOpenKV_UnknownBackend(t *testing.T) {
	f := Default()
	f.Store = BackendConfig{Name: "etcd"}
	_, _, err := f.OpenKV(kvregistry.UsageDaemon)
	require.Error(t, err)
}
