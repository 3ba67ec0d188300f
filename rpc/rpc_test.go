package rpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/claimledger/claim"
	"xdao.co/claimledger/dispatch"
	"xdao.co/claimledger/ledger"
	"xdao.co/claimledger/model"
	"xdao.co/claimledger/oracle"
	"xdao.co/claimledger/storage"
	"xdao.co/claimledger/storage/memkv"
)

var alice = model.AccountID{0xa1}

type harness struct {
	client *Client
	conn   *grpc.ClientConn
	logs   *observer.ObservedLogs
}

func startServer(t *testing.T, gate dispatch.ClaimGate) harness {
	t.Helper()
	balances := oracle.NewTable()
	balances.Set(alice, model.NewAmount(100))
	store, err := ledger.NewKVStore(memkv.New(), storage.DefaultKeyLayout())
	require.NoError(t, err)
	l, err := ledger.New(store, balances, ledger.Options{})
	require.NoError(t, err)
	rt, err := dispatch.NewRuntime(l, gate, dispatch.Options{})
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(zap.New(core))))
	RegisterLedgerServer(srv, &Server{Runtime: rt, Ledger: l})
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }
	client, err := Dial("bufnet", alice, DialOptions{
		DialOptions: []grpc.DialOption{grpc.WithContextDialer(dialer)},
	})
	require.NoError(t, err)
	client.Timeout = 5 * time.Second
	t.Cleanup(func() { _ = client.Close() })
	return harness{client: client, conn: client.cc, logs: logs}
}

func TestLedgerService_DepositScenario(t *testing.T) {
	h := startServer(t, claim.New())
	ctx := context.Background()

	require.NoError(t, h.client.MakeDeposit(ctx, model.ClientID("client-42"), model.NewAmount(75)))
	got, ok, err := h.client.GetDeposit(ctx, model.ClientID("client-42"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "75", got.String())

	err = h.client.MakeDeposit(ctx, model.ClientID("client-42"), model.NewAmount(150))
	require.True(t, model.IsKind(err, model.KindInsufficientBalance), "got %v", err)
	require.Equal(t, model.RuleInsufficientBalance, model.RuleID(err))

	got, ok, err = h.client.GetDeposit(ctx, model.ClientID("client-42"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "75", got.String())

	_, ok, err = h.client.GetDeposit(ctx, model.ClientID("nobody"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLedgerService_Claim(t *testing.T) {
	h := startServer(t, claim.New())
	require.NoError(t, h.client.ClaimReward(context.Background()))

	bad := claim.FixedMaterial()
	bad.PublicKey[0] ^= 1
	denied := startServer(t, claim.New(claim.WithMaterial(bad)))
	err := denied.client.ClaimReward(context.Background())
	require.True(t, errors.Is(err, model.ErrSignatureNotValid), "got %v", err)
}

func TestLedgerService_RequiresCaller(t *testing.T) {
	h := startServer(t, claim.New())
	raw := NewLedgerClient(h.conn)

	_, err := raw.MakeDeposit(context.Background(), &structpb.Struct{Fields: map[string]*structpb.Value{
		"client_id": structpb.NewStringValue("00"),
		"amount":    structpb.NewStringValue("1"),
	}})
	require.Equal(t, codes.Unauthenticated, status.Code(err))
	require.True(t, model.IsKind(fromStatus(err), model.KindBadOrigin))
	require.Equal(t, model.RuleBadOrigin, model.RuleID(fromStatus(err)))
}

func TestLedgerService_RejectsMalformedArguments(t *testing.T) {
	h := startServer(t, claim.New())
	ctx := metadata.AppendToOutgoingContext(context.Background(), CallerMetadataKey, alice.String())
	raw := NewLedgerClient(h.conn)

	_, err := raw.MakeDeposit(ctx, &structpb.Struct{Fields: map[string]*structpb.Value{
		"client_id": structpb.NewStringValue("00"),
		"amount":    structpb.NewNumberValue(1),
	}})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = raw.MakeDeposit(ctx, &structpb.Struct{Fields: map[string]*structpb.Value{
		"client_id": structpb.NewStringValue("00"),
		"amount":    structpb.NewStringValue("340282366920938463463374607431768211456"),
	}})
	require.Equal(t, codes.OutOfRange, status.Code(err))
}

func TestLoggingInterceptor_RecordsCalls(t *testing.T) {
	h := startServer(t, claim.New())
	_, _, err := h.client.GetDeposit(context.Background(), model.ClientID("x"))
	require.NoError(t, err)

	entries := h.logs.FilterMessage("rpc").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	require.Equal(t, "/xdao.claimledger.v1.Ledger/GetDeposit", ctx["method"])
	require.Equal(t, "NotFound", ctx["code"])
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{model.NewError(model.KindInsufficientBalance, model.RuleInsufficientBalance, "low"), codes.FailedPrecondition},
		{model.ErrSignatureNotValid, codes.PermissionDenied},
		{model.NewError(model.KindArithmeticOverflow, model.RuleDepositOverflow, "big"), codes.OutOfRange},
		{model.NewError(model.KindBadOrigin, model.RuleBadOrigin, "who"), codes.Unauthenticated},
		{model.NewError(model.KindInvalidRequest, model.RuleUnknownCall, "what"), codes.InvalidArgument},
		{model.NewError(model.KindStorage, model.RuleStorage, "disk"), codes.Unavailable},
		{model.NewError(model.KindOracle, model.RuleOracle, "oracle"), codes.Unavailable},
		{errors.New("plain"), codes.Internal},
	}
	for _, tc := range cases {
		st := toStatus(tc.err)
		require.Equal(t, tc.code, status.Code(st), "%v", tc.err)

		back := fromStatus(st)
		if want := model.KindOf(tc.err); want != "" {
			require.Equal(t, want, model.KindOf(back))
			require.Equal(t, model.RuleID(tc.err), model.RuleID(back))
		} else {
			require.True(t, model.IsKind(back, model.KindInternal))
		}
	}

	require.NoError(t, toStatus(nil))
	require.NoError(t, fromStatus(nil))
	require.True(t, model.IsKind(fromStatus(status.Error(codes.Unavailable, "conn refused")), model.KindInternal))
}

func TestServer_UnconfiguredIsInternal(t *testing.T) {
	s := &Server{}
	ctx := context.Background()

	_, err := s.MakeDeposit(ctx, &structpb.Struct{})
	require.Equal(t, codes.Internal, status.Code(err))
	require.True(t, model.IsKind(fromStatus(err), model.KindInternal))
	require.False(t, model.IsKind(fromStatus(err), model.KindInsufficientBalance))

	_, err = s.ClaimReward(ctx, &emptypb.Empty{})
	require.Equal(t, codes.Internal, status.Code(err))

	_, err = s.GetDeposit(ctx, wrapperspb.Bytes([]byte{0x0a}))
	require.Equal(t, codes.Internal, status.Code(err))
	require.True(t, model.IsKind(fromStatus(err), model.KindInternal))
}
