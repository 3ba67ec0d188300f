package rpc

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/claimledger/dispatch"
	"xdao.co/claimledger/model"
)

// CallerMetadataKey carries the authenticated caller account (hex).
//
// The daemon trusts this header: it must sit behind a proxy that
// authenticates callers and sets it.
const CallerMetadataKey = "x-caller-account"

// Reader is the read path of the ledger (ledger.Ledger).
type Reader interface {
	Deposit(clientID model.ClientID) (model.Amount, bool, error)
}

// Server exposes a dispatch.Runtime over the Ledger gRPC service.
type Server struct {
	UnimplementedLedgerServer
	Runtime *dispatch.Runtime
	Ledger  Reader
}

func (s *Server) MakeDeposit(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	if s == nil || s.Runtime == nil {
		return nil, status.Error(codes.Internal, "missing runtime")
	}
	args := make(map[string]string, len(in.GetFields()))
	for k, v := range in.GetFields() {
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "field %q must be a string", k)
		}
		args[k] = sv.StringValue
	}
	call, err := dispatch.DecodeCall(dispatch.CallMakeDeposit, args)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.Runtime.Dispatch(originFrom(ctx), call); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) ClaimReward(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	if s == nil || s.Runtime == nil {
		return nil, status.Error(codes.Internal, "missing runtime")
	}
	if err := s.Runtime.Dispatch(originFrom(ctx), dispatch.ClaimReward{}); err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bool(true), nil
}

func (s *Server) GetDeposit(_ context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	if s == nil || s.Runtime == nil || s.Ledger == nil {
		return nil, status.Error(codes.Internal, "missing ledger")
	}
	var (
		amount model.Amount
		found  bool
	)
	err := s.Runtime.View(func() error {
		var err error
		amount, found, err = s.Ledger.Deposit(model.ClientID(in.GetValue()))
		return err
	})
	if err != nil {
		return nil, toStatus(err)
	}
	if !found {
		return nil, status.Error(codes.NotFound, "no deposit for client id")
	}
	return wrapperspb.String(amount.String()), nil
}

// originFrom resolves the call origin from incoming metadata. A missing or
// malformed caller header yields an unsigned origin.
func originFrom(ctx context.Context) dispatch.Origin {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return dispatch.None()
	}
	vals := md.Get(CallerMetadataKey)
	if len(vals) != 1 {
		return dispatch.None()
	}
	acct, err := model.ParseAccountID(strings.TrimSpace(vals[0]))
	if err != nil {
		return dispatch.None()
	}
	return dispatch.Signed(acct)
}
