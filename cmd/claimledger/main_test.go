package main

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/claimledger/keys"
	"xdao.co/claimledger/model"
)

const testSeedHex = "0101010101010101010101010101010101010101010101010101010101010101"

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_HelpAndUnknown(t *testing.T) {
	code, out, _ := runCLI(t, "help")
	require.Equal(t, 0, code)
	require.Contains(t, out, "claimledger snapshot verify")

	code, _, errOut := runCLI(t, "bogus")
	require.Equal(t, 2, code)
	require.Contains(t, errOut, "unknown command: bogus")

	code, _, _ = runCLI(t)
	require.Equal(t, 2, code)
}

func TestRun_ListBackends(t *testing.T) {
	code, out, _ := runCLI(t, "list-backends")
	require.Equal(t, 0, code)
	for _, name := range []string{"bolt", "mem", "sqlite"} {
		require.Contains(t, out, name+"\t")
	}
}

func TestVerifyMaterial(t *testing.T) {
	code, out, _ := runCLI(t, "verify-material")
	require.Equal(t, 0, code)
	require.Equal(t, "Start -> ParsingKey -> ParsingSignature -> Verifying -> Authorized\n", out)

	code, out, _ = runCLI(t, "verify-material", "--message-hex", "0102030406")
	require.Equal(t, 3, code)
	require.Equal(t, "Start -> ParsingKey -> ParsingSignature -> Verifying -> Denied\n", out)

	code, out, _ = runCLI(t, "verify-material", "--seed-hex", testSeedHex, "--message-hex", "0102030406")
	require.Equal(t, 0, code)
	require.True(t, strings.HasSuffix(out, "Authorized\n"), out)

	code, _, _ = runCLI(t, "verify-material", "--message-hex", "zz")
	require.Equal(t, 2, code)
}

func TestKeyCommands(t *testing.T) {
	dir := t.TempDir()

	code, out, errOut := runCLI(t, "key", "init", "--key-dir", dir, "--name", "alice", "--seed-hex", testSeedHex)
	require.Equal(t, 0, code, errOut)
	seed, err := hex.DecodeString(testSeedHex)
	require.NoError(t, err)
	acct, err := keys.AccountFromSeed(seed)
	require.NoError(t, err)
	require.Contains(t, out, acct.String())

	code, _, errOut = runCLI(t, "key", "init", "--key-dir", dir, "--name", "alice")
	require.Equal(t, 1, code, "existing key must not be overwritten without --force")
	require.NotEmpty(t, errOut)

	code, _, errOut = runCLI(t, "key", "derive", "--key-dir", dir, "--from", "alice", "--role", "claimer")
	require.Equal(t, 0, code, errOut)

	code, out, _ = runCLI(t, "key", "list", "--key-dir", dir)
	require.Equal(t, 0, code)
	require.Equal(t, "alice\n  claimer\n", out)

	code, out, _ = runCLI(t, "key", "account", "--key-dir", dir, "--name", "alice")
	require.Equal(t, 0, code)
	require.Equal(t, acct.String()+"\n", out)

	code, out, _ = runCLI(t, "key", "account", "--key-dir", dir, "--name", "alice", "--role", "claimer")
	require.Equal(t, 0, code)
	require.NotEqual(t, acct.String()+"\n", out)

	code, _, _ = runCLI(t, "key", "derive", "--key-dir", dir, "--from", "alice", "--role", "../x")
	require.Equal(t, 2, code)
	code, _, _ = runCLI(t, "key")
	require.Equal(t, 2, code)
}

func TestCallAndSnapshot_Bolt(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "state.db")

	seed, err := hex.DecodeString(testSeedHex)
	require.NoError(t, err)
	acct, err := keys.AccountFromSeed(seed)
	require.NoError(t, err)
	balances := filepath.Join(dir, "balances.json")
	require.NoError(t, os.WriteFile(balances, []byte(`{"`+acct.String()+`":"100"}`), 0o600))

	store := []string{"--store", "bolt", "--bolt-path", db, "--balances", balances}
	call := func(extra ...string) (int, string, string) {
		args := append([]string{"call"}, store...)
		args = append(args, "--seed-hex", testSeedHex)
		return runCLI(t, append(args, extra...)...)
	}

	code, out, errOut := call("make_deposit", "client_id=0a0b", "amount=75")
	require.Equal(t, 0, code, errOut)
	require.Equal(t, "make_deposit ok\n", out)

	code, _, errOut = call("make_deposit", "client_id=0a0b", "amount=150")
	require.Equal(t, 3, code)
	require.Contains(t, errOut, model.RuleInsufficientBalance)

	code, _, _ = call("make_deposit", "client_id=0a0b")
	require.Equal(t, 2, code)
	code, _, _ = call("transfer")
	require.Equal(t, 2, code)

	code, out, errOut = call("claim_reward")
	require.Equal(t, 0, code, errOut)
	require.Equal(t, "claim_reward ok\n", out)

	args := append([]string{"call"}, store...)
	code, _, _ = runCLI(t, append(args, "claim_reward")...)
	require.Equal(t, 3, code, "unsigned origin must be rejected")

	code, out, errOut = runCLI(t, append([]string{"snapshot"}, store...)...)
	require.Equal(t, 0, code, errOut)
	require.Equal(t, "claimledger-snapshot-v1\n0a0b 75\n", out)

	snapFile := filepath.Join(dir, "snap.txt")
	require.NoError(t, os.WriteFile(snapFile, []byte(out), 0o600))

	code, cidOut, errOut := runCLI(t, append([]string{"snapshot", "--cid"}, store...)...)
	require.Equal(t, 0, code, errOut)
	cidText := strings.TrimSpace(cidOut)

	code, out, errOut = runCLI(t, "snapshot", "verify", "--cid", cidText, snapFile)
	require.Equal(t, 0, code, errOut)
	require.Equal(t, "ok: 1 records\n", out)

	archive := filepath.Join(dir, "archive")
	code, out, errOut = runCLI(t, append([]string{"snapshot", "--archive", archive}, store...)...)
	require.Equal(t, 0, code, errOut)
	require.Equal(t, cidOut, out)
	code, out, errOut = runCLI(t, "snapshot", "verify", "--cid", cidText, "--archive", archive)
	require.Equal(t, 0, code, errOut)
	require.Equal(t, "ok: 1 records\n", out)

	require.NoError(t, os.WriteFile(snapFile, []byte("claimledger-snapshot-v1\n0a0b 76\n"), 0o600))
	code, _, _ = runCLI(t, "snapshot", "verify", "--cid", cidText, snapFile)
	require.Equal(t, 1, code)
}

func TestCall_RequiresStore(t *testing.T) {
	code, _, errOut := runCLI(t, "call", "--seed-hex", testSeedHex, "claim_reward")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "missing --config or --store")

	code, _, _ = runCLI(t, "call", "--store", "mem")
	require.Equal(t, 2, code)
}
