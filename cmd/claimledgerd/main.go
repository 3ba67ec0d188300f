package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"xdao.co/claimledger/config"
	"xdao.co/claimledger/node"
	"xdao.co/claimledger/rpc"
	"xdao.co/claimledger/storage/kvregistry"

	_ "xdao.co/claimledger/storage/boltkv"
	_ "xdao.co/claimledger/storage/memkv"
	_ "xdao.co/claimledger/storage/sqlitekv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, out io.Writer, errOut io.Writer) int {
	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	fs := flag.NewFlagSet("claimledgerd", flag.ContinueOnError)
	fs.SetOutput(errOut)
	listen := fs.String("listen", env.Listen, "listen address")
	configPath := fs.String("config", env.ConfigPath, "node JSON config (overrides -store and backend flags)")
	backend := fs.String("store", "mem", "KV backend name when no config file is given")
	balances := fs.String("balances", "", "JSON balance table when no config file is given")
	listBackends := fs.Bool("list-backends", false, "List supported backends and exit")
	kvregistry.RegisterFlags(fs, kvregistry.UsageDaemon)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *listBackends {
		for _, b := range kvregistry.List(kvregistry.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(out, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	}

	cfg, err := loadConfig(fs, *configPath, *backend, *balances)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	log, err := newLogger(env)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	n, err := node.Open(cfg, node.Options{Usage: kvregistry.UsageDaemon, Logger: log})
	if err != nil {
		log.Error("open ledger", zap.Error(err))
		return 1
	}
	defer func() {
		if err := n.Close(); err != nil {
			log.Warn("close ledger", zap.Error(err))
		}
	}()

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Error("listen", zap.Error(err))
		return 1
	}
	defer lis.Close()

	s := grpc.NewServer(grpc.UnaryInterceptor(rpc.LoggingInterceptor(log.Named("rpc"))))
	rpc.RegisterLedgerServer(s, &rpc.Server{Runtime: n.Runtime, Ledger: n.Ledger})

	go func() {
		<-ctx.Done()
		shutdown(s, env.ShutdownTimeout)
	}()

	log.Info("claimledgerd listening", zap.String("addr", lis.Addr().String()), zap.String("store", cfg.Store.Name))
	if err := s.Serve(lis); err != nil {
		log.Error("serve", zap.Error(err))
		return 1
	}
	return 0
}

// loadConfig reads the config file, or builds one from the command line.
func loadConfig(fs *flag.FlagSet, path, backend, balances string) (config.File, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	storeCfg, err := kvregistry.FlagConfig(fs, backend)
	if err != nil {
		return config.File{}, err
	}
	cfg := config.Default()
	cfg.Store = config.BackendConfig{Name: backend, Config: storeCfg}
	cfg.Balances = balances
	return cfg, cfg.Validate()
}

func newLogger(env config.Env) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(env.LogLevel)
	return zc.Build()
}

func shutdown(s *grpc.Server, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		s.Stop()
	}
}
