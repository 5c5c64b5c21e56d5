package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/pmcloud/internal/api"
	"github.com/dmitrijs2005/pmcloud/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// errPermissionDenied is returned when a request names an account other
// than the one its session token was issued for.
var errPermissionDenied = errors.New("session token belongs to another account")

type errorMapping struct {
	target error
	code   codes.Code
	reason string
	// opaque rows send only the target's text; the cause stays in the
	// server log.
	opaque bool
}

// Checked in order: the first match wins.
var errorMappings = []errorMapping{
	{common.ErrRateLimited, codes.ResourceExhausted, api.ReasonRateLimited, false},
	{common.ErrInvalidToken, codes.Unauthenticated, api.ReasonInvalidToken, false},
	{errPermissionDenied, codes.PermissionDenied, api.ReasonUnauthorized, false},
	{common.ErrorBusy, codes.Aborted, api.ReasonBusy, false},
	{common.ErrNoActiveSession, codes.FailedPrecondition, api.ReasonNoActiveSession, false},
	{common.ErrMultipleActiveSessions, codes.FailedPrecondition, api.ReasonMultipleActiveSessions, false},
	{common.ErrorValidation, codes.InvalidArgument, api.ReasonValidation, false},
	{common.ErrorUnauthorized, codes.Unauthenticated, api.ReasonUnauthorized, false},
	{common.ErrorNotFound, codes.NotFound, api.ReasonNotFound, false},
	{common.ErrorConflict, codes.AlreadyExists, api.ReasonConflict, false},
	{context.DeadlineExceeded, codes.DeadlineExceeded, api.ReasonBackendUnavailable, true},
	{context.Canceled, codes.Canceled, api.ReasonBackendUnavailable, true},
	{common.ErrorBackendUnavailable, codes.Unavailable, api.ReasonBackendUnavailable, true},
}

// toStatus is the handlers' way out: it logs errors whose detail is kept
// from the client, then converts.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); !ok {
		if m := mappingFor(err); m == nil || m.opaque {
			s.logger.Error(ctx, "request failed", "error", err)
		}
	}
	return toStatus(err)
}

func mappingFor(err error) *errorMapping {
	for i := range errorMappings {
		if errors.Is(err, errorMappings[i].target) {
			return &errorMappings[i]
		}
	}
	return nil
}

// toStatus turns a service error into a gRPC status carrying an ErrorInfo
// with the matching reason. Unknown errors become Internal without detail;
// backend and deadline errors carry only their sentinel's text.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	code, reason, msg := codes.Internal, api.ReasonInternal, "internal error"
	if m := mappingFor(err); m != nil {
		code, reason, msg = m.code, m.reason, err.Error()
		if m.opaque {
			msg = m.target.Error()
		}
	}

	st := status.New(code, msg)
	withInfo, derr := st.WithDetails(&errdetails.ErrorInfo{Reason: reason, Domain: common.ErrorDomain})
	if derr != nil {
		return st.Err()
	}
	return withInfo.Err()
}
