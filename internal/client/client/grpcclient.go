package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pmcloud/internal/api"
	"github.com/dmitrijs2005/pmcloud/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      api.VaultServiceClient
}

func withSessionToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.SessionTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) timeoutInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewVaultClient connects to endpointURL. Extra dial options are appended
// after the defaults, so tests can swap the dialer.
func NewVaultClient(endpointURL string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.timeoutInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = api.NewVaultServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) Ping(ctx context.Context) error {

	resp, err := s.client.Ping(ctx, &api.PingRequest{})
	if err != nil {
		return mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil

}

func (s *GRPCClient) ResolveAccount(ctx context.Context, accountName string) (*api.ResolveAccountResponse, error) {

	resp, err := s.client.ResolveAccount(ctx, &api.ResolveAccountRequest{AccountName: accountName})
	if err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Register(ctx context.Context, accountName string, digest, authSalt, kdfSalt []byte) (string, error) {

	req := &api.RegisterRequest{AccountName: accountName, PasswordDigest: digest, AuthSalt: authSalt, KDFSalt: kdfSalt}

	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return "", mapError(err)
	}

	return resp.AccountID, nil

}

func (s *GRPCClient) Pull(ctx context.Context, accountName string, digest []byte) (*api.PullResponse, error) {

	resp, err := s.client.Pull(ctx, &api.PullRequest{AccountName: accountName, PasswordDigest: digest})
	if err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Push(ctx context.Context, sessionToken, accountID string, entries []*api.Entry) ([]*api.Entry, error) {

	ctx = withSessionToken(ctx, sessionToken)

	resp, err := s.client.Push(ctx, &api.PushRequest{AccountID: accountID, Entries: entries})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Entries, nil
}

func (s *GRPCClient) Abandon(ctx context.Context, sessionToken, accountID string) (int64, error) {

	ctx = withSessionToken(ctx, sessionToken)

	resp, err := s.client.Abandon(ctx, &api.AbandonRequest{AccountID: accountID})
	if err != nil {
		return 0, mapError(err)
	}
	return resp.OpenSessions, nil
}

func (s *GRPCClient) SessionStatus(ctx context.Context, sessionToken, accountID string) (*api.SessionStatusResponse, error) {

	ctx = withSessionToken(ctx, sessionToken)

	resp, err := s.client.SessionStatus(ctx, &api.SessionStatusRequest{AccountID: accountID})
	if err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Release(ctx context.Context, accountName string, digest []byte) (*api.ReleaseResponse, error) {

	resp, err := s.client.Release(ctx, &api.ReleaseRequest{AccountName: accountName, PasswordDigest: digest})
	if err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) AccountStatus(ctx context.Context, accountName string, digest []byte) (*api.AccountStatusResponse, error) {

	resp, err := s.client.AccountStatus(ctx, &api.AccountStatusRequest{AccountName: accountName, PasswordDigest: digest})
	if err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

// mapError turns a status error into the sentinel named by its ErrorInfo
// reason, keeping the server's message.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.Domain != common.ErrorDomain {
			continue
		}
		if sentinel := api.ErrorForReason(info.Reason); sentinel != nil {
			return fmt.Errorf("%w: %s", sentinel, st.Message())
		}
	}

	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", common.ErrorUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
