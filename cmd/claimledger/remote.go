package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"xdao.co/claimledger/config"
	"xdao.co/claimledger/model"
	"xdao.co/claimledger/rpc"
)

type remoteFlags struct {
	addr    string
	timeout time.Duration
}

func (r *remoteFlags) register(fs *flag.FlagSet) {
	addr := "127.0.0.1:7788"
	if env, err := config.LoadEnv(); err == nil {
		addr = env.Listen
	}
	fs.StringVar(&r.addr, "addr", addr, "claimledgerd address")
	fs.DurationVar(&r.timeout, "timeout", 10*time.Second, "Per-call timeout")
}

func (r *remoteFlags) dial(caller model.AccountID) (*rpc.Client, error) {
	c, err := rpc.Dial(r.addr, caller, rpc.DialOptions{Timeout: r.timeout})
	if err != nil {
		return nil, err
	}
	c.Timeout = r.timeout
	return c, nil
}

// exitCode maps a ledger error to a process exit code.
func exitCode(err error) int {
	switch model.KindOf(err) {
	case model.KindInvalidRequest:
		return 2
	case model.KindInsufficientBalance, model.KindSignatureNotValid, model.KindBadOrigin, model.KindArithmeticOverflow:
		return 3
	default:
		return 1
	}
}

func cmdDeposit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("deposit", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var remote remoteFlags
	var caller callerFlags
	var client clientFlags
	var amountText string
	remote.register(fs)
	caller.register(fs)
	client.register(fs)
	fs.StringVar(&amountText, "amount", "", "Deposit amount (decimal)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	acct, err := caller.account()
	if err != nil {
		fmt.Fprintf(errOut, "caller: %v\n", err)
		return 2
	}
	id, err := client.id()
	if err != nil {
		fmt.Fprintf(errOut, "client: %v\n", err)
		return 2
	}
	if amountText == "" {
		fmt.Fprintln(errOut, "missing --amount")
		return 2
	}
	amount, err := model.ParseAmount(amountText)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --amount: %v\n", err)
		return 2
	}

	c, err := remote.dial(acct)
	if err != nil {
		fmt.Fprintf(errOut, "dial: %v\n", err)
		return 1
	}
	defer c.Close()
	if err := c.MakeDeposit(context.Background(), id, amount); err != nil {
		fmt.Fprintf(errOut, "deposit: %v (%s)\n", err, model.RuleID(err))
		return exitCode(err)
	}
	fmt.Fprintf(out, "recorded %s for client %s\n", amount, id.Hex())
	return 0
}

func cmdClaim(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("claim", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var remote remoteFlags
	var caller callerFlags
	remote.register(fs)
	caller.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	acct, err := caller.account()
	if err != nil {
		fmt.Fprintf(errOut, "caller: %v\n", err)
		return 2
	}
	c, err := remote.dial(acct)
	if err != nil {
		fmt.Fprintf(errOut, "dial: %v\n", err)
		return 1
	}
	defer c.Close()
	if err := c.ClaimReward(context.Background()); err != nil {
		fmt.Fprintf(errOut, "claim: %v (%s)\n", err, model.RuleID(err))
		return exitCode(err)
	}
	fmt.Fprintln(out, "claim authorized")
	return 0
}

func cmdGet(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var remote remoteFlags
	var client clientFlags
	remote.register(fs)
	client.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	id, err := client.id()
	if err != nil {
		fmt.Fprintf(errOut, "client: %v\n", err)
		return 2
	}

	c, err := remote.dial(model.AccountID{})
	if err != nil {
		fmt.Fprintf(errOut, "dial: %v\n", err)
		return 1
	}
	defer c.Close()
	amount, ok, err := c.GetDeposit(context.Background(), id)
	if err != nil {
		fmt.Fprintf(errOut, "get: %v\n", err)
		return exitCode(err)
	}
	if !ok {
		fmt.Fprintf(errOut, "no deposit for client %s\n", id.Hex())
		return 1
	}
	fmt.Fprintln(out, amount)
	return 0
}
