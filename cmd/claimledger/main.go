package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "deposit":
		return cmdDeposit(args[1:], out, errOut)
	case "claim":
		return cmdClaim(args[1:], out, errOut)
	case "get":
		return cmdGet(args[1:], out, errOut)
	case "call":
		return cmdCall(args[1:], out, errOut)
	case "snapshot":
		return cmdSnapshot(args[1:], out, errOut)
	case "verify-material":
		return cmdVerifyMaterial(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "list-backends":
		return cmdListBackends(out)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "claimledger: deposit ledger and reward-claim CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  claimledger deposit --addr <host:port> <caller> (--client-id <hex> | --client <text>) --amount <decimal>")
	fmt.Fprintln(w, "  claimledger claim --addr <host:port> <caller>")
	fmt.Fprintln(w, "  claimledger get --addr <host:port> (--client-id <hex> | --client <text>)")
	fmt.Fprintln(w, "  claimledger call (--config <node.json> | --store <name> [backend flags]) <caller> <make_deposit|claim_reward> [key=value ...]")
	fmt.Fprintln(w, "  claimledger snapshot (--config <node.json> | --store <name> [backend flags]) [--cid | --archive <dir>]")
	fmt.Fprintln(w, "  claimledger snapshot verify --cid <CID> (<file> | --archive <dir>)")
	fmt.Fprintln(w, "  claimledger verify-material [--seed-hex <64hex> | --signer <name> [--signer-role <role>] | --key-file <path>] [--message-hex <hex>]")
	fmt.Fprintln(w, "  claimledger key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  claimledger key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  claimledger key list")
	fmt.Fprintln(w, "  claimledger key account --name <name> [--role <role>]")
	fmt.Fprintln(w, "  claimledger list-backends")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - <caller> is one of --caller <hex account>, --seed-hex <64hex>, --signer <name> [--signer-role <role>], --key-file <path>")
	fmt.Fprintln(w, "  - keys are stored under ~/.claimledger/keys/<name> unless --key-dir is given")
	fmt.Fprintln(w, "  - --addr defaults to $CLAIMLEDGER_LISTEN (127.0.0.1:7788)")
	fmt.Fprintln(w, "  - snapshot writes the canonical export to stdout; --cid prints only its CIDv1")
	fmt.Fprintln(w, "  - deposits are checked against the caller's free balance but never debit it")
}
