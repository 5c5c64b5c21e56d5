package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/pmcloud/internal/api"
	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/dmitrijs2005/pmcloud/internal/logging"
	"github.com/dmitrijs2005/pmcloud/internal/server/auth"
	"github.com/dmitrijs2005/pmcloud/internal/server/sessions"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// helper to build server
func newTestServer(secret string, opts ...Option) *GRPCServer {
	s, _ := NewGRPCServer("127.0.0.1:0", logging.NewNopLogger(), &fakeAccounts{}, &fakeSync{}, secret, opts...)
	return s
}

func TestInterceptor_Pull_AllowsWithoutToken(t *testing.T) {
	s := newTestServer("secret")

	ctx := context.Background()
	info := &grpc.UnaryServerInfo{FullMethod: api.PullFullMethodName}
	handlerCalled := false

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.sessionTokenInterceptor(ctx, nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled {
		t.Fatal("handler was not called")
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
}

func TestInterceptor_Push_MissingToken(t *testing.T) {
	s := newTestServer("secret")

	ctx := context.Background()
	info := &grpc.UnaryServerInfo{FullMethod: api.PushFullMethodName}

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler should not be called when token missing")
		return nil, nil
	}

	_, err := s.sessionTokenInterceptor(ctx, nil, info, h)
	if err == nil {
		t.Fatal("expected error")
	}
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
	}
	if got := reasonOf(err); got != api.ReasonInvalidToken {
		t.Fatalf("expected %s, got %q", api.ReasonInvalidToken, got)
	}
}

func TestInterceptor_Abandon_InvalidToken(t *testing.T) {
	s := newTestServer("secret")

	md := metadata.New(map[string]string{
		common.SessionTokenHeaderName: "not-a-valid-jwt",
	})
	ctx := metadata.NewIncomingContext(context.Background(), md)
	info := &grpc.UnaryServerInfo{FullMethod: api.AbandonFullMethodName}

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler should not be called for invalid token")
		return nil, nil
	}

	_, err := s.sessionTokenInterceptor(ctx, nil, info, h)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
	}
}

func TestInterceptor_Push_ValidToken_SetsHandle(t *testing.T) {
	secret := "super-secret"
	s := newTestServer(secret)

	issued := &sessions.Handle{AccountID: "acct-1", SessionID: "sess-1", AcquiredAt: time.Unix(1700000000, 0)}
	token, err := auth.GenerateSessionToken(issued, []byte(secret))
	if err != nil {
		t.Fatalf("GenerateSessionToken error: %v", err)
	}

	md := metadata.New(map[string]string{
		common.SessionTokenHeaderName: token,
	})
	ctx := metadata.NewIncomingContext(context.Background(), md)
	info := &grpc.UnaryServerInfo{FullMethod: api.PushFullMethodName}

	var got *sessions.Handle
	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		got, _ = HandleFromContext(ctx)
		return "ok", nil
	}

	if _, err := s.sessionTokenInterceptor(ctx, nil, info, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.AccountID != "acct-1" || got.SessionID != "sess-1" {
		t.Fatalf("handle not propagated in context: got %+v", got)
	}
}

func TestRateLimitInterceptor(t *testing.T) {
	s := newTestServer("secret", WithAuthRateLimit(0.0001, 2))
	info := &grpc.UnaryServerInfo{FullMethod: api.PullFullMethodName}
	h := func(ctx context.Context, req interface{}) (interface{}, error) { return "ok", nil }

	for i := 0; i < 2; i++ {
		if _, err := s.rateLimitInterceptor(context.Background(), &api.PullRequest{AccountName: "bob"}, info, h); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
	}

	_, err := s.rateLimitInterceptor(context.Background(), &api.PullRequest{AccountName: "bob"}, info, h)
	if status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("expected ResourceExhausted, got %v", status.Code(err))
	}

	// other names and other methods are unaffected
	if _, err := s.rateLimitInterceptor(context.Background(), &api.RegisterRequest{AccountName: "alice"}, info, h); err != nil {
		t.Fatalf("alice: unexpected error: %v", err)
	}
	if _, err := s.rateLimitInterceptor(context.Background(), &api.PingRequest{}, info, h); err != nil {
		t.Fatalf("ping: unexpected error: %v", err)
	}
}

func TestRateLimitInterceptor_CredentialReleaseSharesBucket(t *testing.T) {
	s := newTestServer("secret", WithAuthRateLimit(0.0001, 2))
	info := &grpc.UnaryServerInfo{FullMethod: api.ReleaseFullMethodName}
	h := func(ctx context.Context, req interface{}) (interface{}, error) { return "ok", nil }

	if _, err := s.rateLimitInterceptor(context.Background(), &api.ReleaseRequest{AccountName: "bob"}, info, h); err != nil {
		t.Fatalf("release: unexpected error: %v", err)
	}
	if _, err := s.rateLimitInterceptor(context.Background(), &api.AccountStatusRequest{AccountName: "bob"}, info, h); err != nil {
		t.Fatalf("status: unexpected error: %v", err)
	}
	_, err := s.rateLimitInterceptor(context.Background(), &api.PullRequest{AccountName: "bob"}, info, h)
	if status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("expected ResourceExhausted, got %v", status.Code(err))
	}
}

func TestTimeoutInterceptor_SetsDeadline(t *testing.T) {
	s := newTestServer("secret", WithRequestTimeout(time.Second))
	info := &grpc.UnaryServerInfo{FullMethod: api.PingFullMethodName}

	var hasDeadline bool
	_, _ = s.timeoutInterceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		_, hasDeadline = ctx.Deadline()
		return nil, nil
	})
	if !hasDeadline {
		t.Fatal("expected a deadline on the handler context")
	}

	s = newTestServer("secret")
	_, _ = s.timeoutInterceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		_, hasDeadline = ctx.Deadline()
		return nil, nil
	})
	if hasDeadline {
		t.Fatal("no deadline expected without a configured timeout")
	}
}
