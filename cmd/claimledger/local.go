package main

import (
	"bytes"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ipfs/go-cid"

	"xdao.co/claimledger/claim"
	"xdao.co/claimledger/config"
	"xdao.co/claimledger/dispatch"
	"xdao.co/claimledger/keys"
	"xdao.co/claimledger/model"
	"xdao.co/claimledger/node"
	"xdao.co/claimledger/snapshot"
	"xdao.co/claimledger/storage/kvregistry"

	_ "xdao.co/claimledger/storage/boltkv"
	_ "xdao.co/claimledger/storage/memkv"
	_ "xdao.co/claimledger/storage/sqlitekv"
)

// storeFlags opens a ledger directly from a local store.
type storeFlags struct {
	fs         *flag.FlagSet
	configPath string
	backend    string
	balances   string
}

func (s *storeFlags) register(fs *flag.FlagSet) {
	s.fs = fs
	fs.StringVar(&s.configPath, "config", "", "Node JSON config")
	fs.StringVar(&s.backend, "store", "", "KV backend name (see list-backends)")
	fs.StringVar(&s.balances, "balances", "", "JSON balance table (with --store)")
	kvregistry.RegisterFlags(fs, kvregistry.UsageCLI)
}

func (s *storeFlags) open() (*node.Node, error) {
	var cfg config.File
	switch {
	case s.configPath != "" && s.backend != "":
		return nil, fmt.Errorf("use either --config or --store")
	case s.configPath != "":
		var err error
		if cfg, err = config.LoadFile(s.configPath); err != nil {
			return nil, err
		}
	case s.backend != "":
		storeCfg, err := kvregistry.FlagConfig(s.fs, s.backend)
		if err != nil {
			return nil, err
		}
		cfg = config.Default()
		cfg.Store = config.BackendConfig{Name: s.backend, Config: storeCfg}
		cfg.Balances = s.balances
	default:
		return nil, fmt.Errorf("missing --config or --store")
	}
	return node.Open(cfg, node.Options{Usage: kvregistry.UsageCLI})
}

func cmdListBackends(out io.Writer) int {
	for _, b := range kvregistry.List(kvregistry.UsageCLI) {
		if b.Description == "" {
			_, _ = fmt.Fprintf(out, "%s\n", b.Name)
			continue
		}
		_, _ = fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
	}
	return 0
}

// cmdCall dispatches one call by its external name against a local store.
func cmdCall(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("call", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var store storeFlags
	var caller callerFlags
	store.register(fs)
	caller.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(errOut, "usage: claimledger call ... <%s> [key=value ...]\n", strings.Join(dispatch.CallNames(), "|"))
		return 2
	}
	callArgs := map[string]string{}
	for _, kv := range fs.Args()[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			fmt.Fprintf(errOut, "invalid argument %q (want key=value)\n", kv)
			return 2
		}
		callArgs[k] = v
	}
	call, err := dispatch.DecodeCall(fs.Arg(0), callArgs)
	if err != nil {
		fmt.Fprintf(errOut, "call: %v\n", err)
		return 2
	}

	origin := dispatch.None()
	if caller.given() {
		acct, err := caller.account()
		if err != nil {
			fmt.Fprintf(errOut, "caller: %v\n", err)
			return 2
		}
		origin = dispatch.Signed(acct)
	}

	n, err := store.open()
	if err != nil {
		fmt.Fprintf(errOut, "open: %v\n", err)
		return 1
	}
	defer n.Close()
	if err := n.Runtime.Dispatch(origin, call); err != nil {
		fmt.Fprintf(errOut, "%s: %v (%s)\n", call.CallName(), err, model.RuleID(err))
		return exitCode(err)
	}
	fmt.Fprintf(out, "%s ok\n", call.CallName())
	return 0
}

func cmdSnapshot(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) > 0 && args[0] == "verify" {
		return cmdSnapshotVerify(args[1:], out, errOut)
	}
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var store storeFlags
	var cidOnly bool
	var archiveDir string
	store.register(fs)
	fs.BoolVar(&cidOnly, "cid", false, "Print only the CIDv1 of the export")
	fs.StringVar(&archiveDir, "archive", "", "Also store the export in this archive directory and print its CID")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	n, err := store.open()
	if err != nil {
		fmt.Fprintf(errOut, "open: %v\n", err)
		return 1
	}
	defer n.Close()
	data, err := snapshot.Export(n.Ledger)
	if err != nil {
		fmt.Fprintf(errOut, "export: %v\n", err)
		return 1
	}
	if archiveDir != "" {
		a, err := snapshot.OpenArchive(archiveDir)
		if err != nil {
			fmt.Fprintf(errOut, "archive: %v\n", err)
			return 1
		}
		c, err := a.Put(data)
		if err != nil {
			fmt.Fprintf(errOut, "archive: %v\n", err)
			return 1
		}
		fmt.Fprintln(out, c)
		return 0
	}
	if cidOnly {
		c, err := snapshot.CID(data)
		if err != nil {
			fmt.Fprintf(errOut, "cid: %v\n", err)
			return 1
		}
		fmt.Fprintln(out, c)
		return 0
	}
	_, _ = out.Write(data)
	return 0
}

func cmdSnapshotVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("snapshot verify", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var want, archiveDir string
	fs.StringVar(&want, "cid", "", "Expected CID")
	fs.StringVar(&archiveDir, "archive", "", "Read the export from this archive instead of a file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if want == "" || (archiveDir == "" && fs.NArg() != 1) || (archiveDir != "" && fs.NArg() != 0) {
		fmt.Fprintln(errOut, "usage: claimledger snapshot verify --cid <CID> (<file> | --archive <dir>)")
		return 2
	}
	expected, err := cid.Decode(want)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --cid: %v\n", err)
		return 2
	}
	var data []byte
	if archiveDir != "" {
		a, err := snapshot.OpenArchive(archiveDir)
		if err != nil {
			fmt.Fprintf(errOut, "archive: %v\n", err)
			return 1
		}
		if data, err = a.Get(expected); err != nil {
			fmt.Fprintf(errOut, "archive: %v\n", err)
			return 1
		}
	} else if data, err = os.ReadFile(fs.Arg(0)); err != nil {
		fmt.Fprintf(errOut, "read snapshot: %v\n", err)
		return 1
	}
	records, err := snapshot.Decode(bytes.NewReader(data))
	if err != nil {
		fmt.Fprintf(errOut, "invalid snapshot: %v\n", err)
		return 1
	}
	ok, err := snapshot.Verify(data, expected)
	if err != nil {
		fmt.Fprintf(errOut, "cid: %v\n", err)
		return 1
	}
	if !ok {
		fmt.Fprintln(errOut, "snapshot does not match CID")
		return 1
	}
	fmt.Fprintf(out, "ok: %d records\n", len(records))
	return 0
}

// cmdVerifyMaterial runs the claim gate locally and prints every stage.
func cmdVerifyMaterial(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify-material", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var signer callerFlags
	var messageHex string
	signer.register(fs)
	fs.StringVar(&messageHex, "message-hex", "", "Message to sign (default: the fixed claim message)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	m := claim.FixedMaterial()
	if messageHex != "" {
		msg, err := hex.DecodeString(messageHex)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --message-hex: %v\n", err)
			return 2
		}
		m.Message = msg
	}
	if signer.seedHex != "" || signer.signer != "" || signer.keyFile != "" {
		seed, err := signer.seed()
		if err != nil {
			fmt.Fprintf(errOut, "signer: %v\n", err)
			return 2
		}
		if m, err = keys.SignClaim(seed, m.Message); err != nil {
			fmt.Fprintf(errOut, "sign: %v\n", err)
			return 1
		}
	}

	trace, err := claim.Trace(m)
	names := make([]string, len(trace))
	for i, s := range trace {
		names[i] = s.String()
	}
	fmt.Fprintln(out, strings.Join(names, " -> "))
	if err != nil {
		return 3
	}
	return 0
}
