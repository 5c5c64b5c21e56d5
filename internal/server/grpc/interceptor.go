package grpc

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pmcloud/internal/api"
	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/dmitrijs2005/pmcloud/internal/server/auth"
	"github.com/dmitrijs2005/pmcloud/internal/server/sessions"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

type ctxKey struct{}

var sessionHandleKey ctxKey

// HandleFromContext returns the session handle the token interceptor put in
// ctx.
func HandleFromContext(ctx context.Context) (*sessions.Handle, bool) {
	h, ok := ctx.Value(sessionHandleKey).(*sessions.Handle)
	return h, ok
}

var tokenMethods = map[string]bool{
	api.PushFullMethodName:          true,
	api.AbandonFullMethodName:       true,
	api.SessionStatusFullMethodName: true,
}

func (s *GRPCServer) sessionTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !tokenMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var token string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.SessionTokenHeaderName); len(values) > 0 {
			token = values[0]
		}
	}
	if token == "" {
		return nil, s.toStatus(ctx, fmt.Errorf("%w: missing session token", common.ErrInvalidToken))
	}

	h, err := auth.ParseSessionToken(token, s.jwtSecret)
	if err != nil {
		s.logger.Warn(ctx, "rejected session token", "method", info.FullMethod)
		return nil, s.toStatus(ctx, err)
	}

	return handler(context.WithValue(ctx, sessionHandleKey, h), req)
}

func (s *GRPCServer) rateLimitInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	var name string
	switch r := req.(type) {
	case *api.PullRequest:
		name = r.AccountName
	case *api.RegisterRequest:
		name = r.AccountName
	case *api.ReleaseRequest:
		name = r.AccountName
	case *api.AccountStatusRequest:
		name = r.AccountName
	default:
		return handler(ctx, req)
	}

	if !s.limiter.allow(name) {
		s.logger.Warn(ctx, "rate limited", "method", info.FullMethod, "account_name", name)
		return nil, s.toStatus(ctx, common.ErrRateLimited)
	}
	return handler(ctx, req)
}

func (s *GRPCServer) timeoutInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if s.timeout <= 0 {
		return handler(ctx, req)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return handler(ctx, req)
}
