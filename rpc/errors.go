package rpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"xdao.co/claimledger/model"
)

var kindCodes = map[model.Kind]codes.Code{
	model.KindInsufficientBalance: codes.FailedPrecondition,
	model.KindSignatureNotValid:   codes.PermissionDenied,
	model.KindArithmeticOverflow:  codes.OutOfRange,
	model.KindBadOrigin:           codes.Unauthenticated,
	model.KindInvalidRequest:      codes.InvalidArgument,
	model.KindStorage:             codes.Unavailable,
	model.KindOracle:              codes.Unavailable,
}

// CodeOf returns the status code a ledger error is reported with.
func CodeOf(err error) codes.Code {
	if c, ok := kindCodes[model.KindOf(err)]; ok {
		return c
	}
	return codes.Internal
}

// toStatus converts a ledger error into a gRPC status error. Kind and RuleID
// travel as a Struct detail so the client can rebuild the structured error.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var e *model.Error
	if !errors.As(err, &e) {
		return status.Error(codes.Internal, err.Error())
	}
	st := status.New(CodeOf(err), e.Message)
	detail, derr := structpb.NewStruct(map[string]any{
		"kind":    string(e.Kind),
		"rule_id": e.RuleID,
	})
	if derr != nil {
		return st.Err()
	}
	if withDetail, derr := st.WithDetails(detail); derr == nil {
		st = withDetail
	}
	return st.Err()
}

// fromStatus converts a gRPC status error back into a ledger error.
//
// Errors without a detail are mapped from the status code alone.
func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, d := range st.Details() {
		s, ok := d.(*structpb.Struct)
		if !ok {
			continue
		}
		kind := model.Kind(s.GetFields()["kind"].GetStringValue())
		if kind == "" {
			continue
		}
		if kind == model.KindSignatureNotValid {
			return model.ErrSignatureNotValid
		}
		return model.WrapError(kind, s.GetFields()["rule_id"].GetStringValue(), st.Message(), err)
	}
	// Unavailable without a detail is a transport failure, not a ledger one.
	switch st.Code() {
	case codes.FailedPrecondition:
		return model.WrapError(model.KindInsufficientBalance, "", st.Message(), err)
	case codes.PermissionDenied:
		return model.ErrSignatureNotValid
	case codes.OutOfRange:
		return model.WrapError(model.KindArithmeticOverflow, "", st.Message(), err)
	case codes.Unauthenticated:
		return model.WrapError(model.KindBadOrigin, "", st.Message(), err)
	case codes.InvalidArgument:
		return model.WrapError(model.KindInvalidRequest, "", st.Message(), err)
	default:
		return model.WrapError(model.KindInternal, "", st.Message(), err)
	}
}
