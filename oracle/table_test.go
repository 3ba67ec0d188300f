package oracle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/claimledger/model"
)

const aliceHex = "a100000000000000000000000000000000000000000000000000000000000000"

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balances.json")
	body := `{"` + aliceHex + `": "100", "0x` + strings.Repeat("b0", 32) + `": "340282366920938463463374607431768211455"}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	tbl, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())

	alice, err := model.ParseAccountID(aliceHex)
	require.NoError(t, err)
	got, err := tbl.FreeBalance(alice)
	require.NoError(t, err)
	require.Equal(t, "100", got.String())

	var bob model.AccountID
	for i := range bob {
		bob[i] = 0xb0
	}
	got, err = tbl.FreeBalance(bob)
	require.NoError(t, err)
	require.Equal(t, model.MaxAmount, got)

	got, err = tbl.FreeBalance(model.AccountID{0x01})
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestLoadFile_Rejects(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"badaccount.json": `{"zz": "1"}`,
		"shortacct.json":  `{"a1": "1"}`,
		"negative.json":   `{"` + aliceHex + `": "-1"}`,
		"toolarge.json":   `{"` + aliceHex + `": "340282366920938463463374607431768211456"}`,
		"notjson.json":    `balances`,
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		_, err := LoadFile(path)
		require.Error(t, err, name)
	}
	_, err := LoadFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestTable_Set(t *testing.T) {
	tbl := NewTable()
	acct := model.AccountID{0x02}
	tbl.Set(acct, model.NewAmount(9))
	got, err := tbl.FreeBalance(acct)
	require.NoError(t, err)
	require.Equal(t, model.NewAmount(9), got)
}
