package node

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/claimledger/config"
	"xdao.co/claimledger/dispatch"
	"xdao.co/claimledger/events"
	"xdao.co/claimledger/model"

	_ "xdao.co/claimledger/storage/boltkv"
	_ "xdao.co/claimledger/storage/memkv"
)

const aliceHex = "a100000000000000000000000000000000000000000000000000000000000000"

func TestOpen_PersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	balances := filepath.Join(dir, "balances.json")
	require.NoError(t, os.WriteFile(balances, []byte(`{"`+aliceHex+`": "100"}`), 0o600))

	f := config.Default()
	f.Store = config.BackendConfig{Name: "bolt", Config: map[string]string{"bolt-path": filepath.Join(dir, "state.db")}}
	f.Balances = balances

	alice, err := model.ParseAccountID(aliceHex)
	require.NoError(t, err)

	rec := &events.Recorder{}
	n, err := Open(f, Options{Notifiers: []events.Notifier{rec}})
	require.NoError(t, err)
	require.NoError(t, n.Runtime.Deposit(dispatch.Signed(alice), model.ClientID("client-42"), model.NewAmount(75)))
	require.NoError(t, n.Runtime.Claim(dispatch.Signed(alice)))
	require.NoError(t, n.Close())

	evs := rec.Events()
	require.Len(t, evs, 2)
	require.Equal(t, model.EventDepositRecorded, evs[0].EventName())
	require.Equal(t, model.EventClaimAuthorized, evs[1].EventName())

	n, err = Open(f, Options{})
	require.NoError(t, err)
	defer n.Close()
	got, ok, err := n.Ledger.Deposit(model.ClientID("client-42"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "75", got.String())
}

func TestOpen_Failures(t *testing.T) {
	f := config.Default()
	f.Balances = filepath.Join(t.TempDir(), "missing.json")
	_, err := Open(f, Options{})
	require.Error(t, err)

	f = config.Default()
	f.Store.Name = "nope"
	_, err = Open(f, Options{})
	require.Error(t, err)
}
