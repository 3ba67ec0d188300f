package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/ed25519"

	"xdao.co/claimledger/keys"
)

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "account":
		return cmdKeyAccount(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "claimledger key: local account keys")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  claimledger key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  claimledger key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  claimledger key list")
	fmt.Fprintln(w, "  claimledger key account --name <name> [--role <role>]")
}

func openKeyStore(dir string, errOut io.Writer) (*keys.KeyStore, bool) {
	ks, err := keys.Open(dir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return nil, false
	}
	return ks, true
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name, seedHex, dir string
	var force bool
	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible setups)")
	fs.StringVar(&dir, "key-dir", "", "Key store directory (default ~/.claimledger/keys)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	ks, ok := openKeyStore(dir, errOut)
	if !ok {
		return 1
	}

	var seed []byte
	if seedHex != "" {
		var err error
		if seed, err = keys.ParseSeedHex(seedHex); err != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", err)
			return 2
		}
	} else {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
	}

	acct, path, err := ks.InitRoot(name, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created root key: %s\n", acct)
	fmt.Fprintf(out, "Stored at: %s\n", path)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var from, role, dir string
	var force bool
	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&role, "role", "", "Role identifier (e.g. depositor, claimer)")
	fs.StringVar(&dir, "key-dir", "", "Key store directory (default ~/.claimledger/keys)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" || role == "" {
		fmt.Fprintln(errOut, "missing --from or --role")
		return 2
	}
	if err := keys.CheckRole(role); err != nil {
		fmt.Fprintf(errOut, "invalid --role: %v\n", err)
		return 2
	}
	ks, ok := openKeyStore(dir, errOut)
	if !ok {
		return 1
	}
	acct, path, err := ks.DeriveRole(from, role, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive role key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created role key: %s\n", acct)
	fmt.Fprintf(out, "Stored at: %s\n", path)
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var dir string
	fs.StringVar(&dir, "key-dir", "", "Key store directory (default ~/.claimledger/keys)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, ok := openKeyStore(dir, errOut)
	if !ok {
		return 1
	}
	entries, err := ks.List()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintln(out, e.Name)
		for _, r := range e.Roles {
			fmt.Fprintf(out, "  %s\n", r)
		}
	}
	return 0
}

func cmdKeyAccount(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key account", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var name, role, dir string
	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&role, "role", "", "Optional role")
	fs.StringVar(&dir, "key-dir", "", "Key store directory (default ~/.claimledger/keys)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	ks, ok := openKeyStore(dir, errOut)
	if !ok {
		return 1
	}
	acct, err := ks.Account(name, role)
	if err != nil {
		fmt.Fprintf(errOut, "account: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, acct)
	return 0
}
