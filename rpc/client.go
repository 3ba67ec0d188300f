package rpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/claimledger/model"
)

// Client calls the Ledger gRPC service. Errors come back as the same
// *model.Error kinds the in-process ledger returns.
type Client struct {
	cc     *grpc.ClientConn
	client LedgerClient

	// Caller is sent as the authenticated caller account.
	Caller model.AccountID
	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int

	// Extra options, e.g. a context dialer in tests.
	DialOptions []grpc.DialOption
}

func Dial(target string, caller model.AccountID, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}
	dialOpts = append(dialOpts, opts.DialOptions...)

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return NewClient(cc, caller), nil
}

// NewClient wraps an existing connection. Close closes cc.
func NewClient(cc *grpc.ClientConn, caller model.AccountID) *Client {
	return &Client{cc: cc, client: NewLedgerClient(cc), Caller: caller}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) MakeDeposit(ctx context.Context, clientID model.ClientID, amount model.Amount) error {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		"client_id": structpb.NewStringValue(clientID.Hex()),
		"amount":    structpb.NewStringValue(amount.String()),
	}}
	_, err := c.client.MakeDeposit(ctx, in)
	return fromStatus(err)
}

func (c *Client) ClaimReward(ctx context.Context) error {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.ClaimReward(ctx, &emptypb.Empty{})
	if err != nil {
		return fromStatus(err)
	}
	if !reply.GetValue() {
		return model.ErrSignatureNotValid
	}
	return nil
}

// GetDeposit returns the recorded amount for clientID; ok is false when none.
func (c *Client) GetDeposit(ctx context.Context, clientID model.ClientID) (amount model.Amount, ok bool, err error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.GetDeposit(ctx, wrapperspb.Bytes(clientID))
	if status.Code(err) == codes.NotFound {
		return model.Amount{}, false, nil
	}
	if err != nil {
		return model.Amount{}, false, fromStatus(err)
	}
	amount, err = model.ParseAmount(reply.GetValue())
	if err != nil {
		return model.Amount{}, false, err
	}
	return amount, true, nil
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	parent = metadata.AppendToOutgoingContext(parent, CallerMetadataKey, c.Caller.String())
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}
