// Package api is the wire contract of the vault service: message types, the
// JSON codec they travel with, and the gRPC service descriptor shared by the
// server and the client.
package api

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "pmcloud.v1.VaultService"

const (
	PingFullMethodName           = "/" + ServiceName + "/Ping"
	ResolveAccountFullMethodName = "/" + ServiceName + "/ResolveAccount"
	RegisterFullMethodName       = "/" + ServiceName + "/Register"
	PullFullMethodName           = "/" + ServiceName + "/Pull"
	PushFullMethodName           = "/" + ServiceName + "/Push"
	AbandonFullMethodName        = "/" + ServiceName + "/Abandon"
	SessionStatusFullMethodName  = "/" + ServiceName + "/SessionStatus"
	ReleaseFullMethodName        = "/" + ServiceName + "/Release"
	AccountStatusFullMethodName  = "/" + ServiceName + "/AccountStatus"
)

// VaultServiceServer is implemented by the server.
type VaultServiceServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	ResolveAccount(context.Context, *ResolveAccountRequest) (*ResolveAccountResponse, error)
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Pull(context.Context, *PullRequest) (*PullResponse, error)
	Push(context.Context, *PushRequest) (*PushResponse, error)
	Abandon(context.Context, *AbandonRequest) (*AbandonResponse, error)
	SessionStatus(context.Context, *SessionStatusRequest) (*SessionStatusResponse, error)
	Release(context.Context, *ReleaseRequest) (*ReleaseResponse, error)
	AccountStatus(context.Context, *AccountStatusRequest) (*AccountStatusResponse, error)
}

func unary[Req, Resp any](fullMethod string, call func(VaultServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(VaultServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(VaultServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var VaultServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VaultServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: unary(PingFullMethodName, VaultServiceServer.Ping)},
		{MethodName: "ResolveAccount", Handler: unary(ResolveAccountFullMethodName, VaultServiceServer.ResolveAccount)},
		{MethodName: "Register", Handler: unary(RegisterFullMethodName, VaultServiceServer.Register)},
		{MethodName: "Pull", Handler: unary(PullFullMethodName, VaultServiceServer.Pull)},
		{MethodName: "Push", Handler: unary(PushFullMethodName, VaultServiceServer.Push)},
		{MethodName: "Abandon", Handler: unary(AbandonFullMethodName, VaultServiceServer.Abandon)},
		{MethodName: "SessionStatus", Handler: unary(SessionStatusFullMethodName, VaultServiceServer.SessionStatus)},
		{MethodName: "Release", Handler: unary(ReleaseFullMethodName, VaultServiceServer.Release)},
		{MethodName: "AccountStatus", Handler: unary(AccountStatusFullMethodName, VaultServiceServer.AccountStatus)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pmcloud/v1/vault",
}

func RegisterVaultServiceServer(s grpc.ServiceRegistrar, srv VaultServiceServer) {
	s.RegisterService(&VaultServiceDesc, srv)
}

// VaultServiceClient is the client side of VaultServiceServer.
type VaultServiceClient interface {
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	ResolveAccount(ctx context.Context, in *ResolveAccountRequest, opts ...grpc.CallOption) (*ResolveAccountResponse, error)
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error)
	Pull(ctx context.Context, in *PullRequest, opts ...grpc.CallOption) (*PullResponse, error)
	Push(ctx context.Context, in *PushRequest, opts ...grpc.CallOption) (*PushResponse, error)
	Abandon(ctx context.Context, in *AbandonRequest, opts ...grpc.CallOption) (*AbandonResponse, error)
	SessionStatus(ctx context.Context, in *SessionStatusRequest, opts ...grpc.CallOption) (*SessionStatusResponse, error)
	Release(ctx context.Context, in *ReleaseRequest, opts ...grpc.CallOption) (*ReleaseResponse, error)
	AccountStatus(ctx context.Context, in *AccountStatusRequest, opts ...grpc.CallOption) (*AccountStatusResponse, error)
}

type vaultServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewVaultServiceClient(cc grpc.ClientConnInterface) VaultServiceClient {
	return &vaultServiceClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *vaultServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, PingFullMethodName, in, opts)
}

func (c *vaultServiceClient) ResolveAccount(ctx context.Context, in *ResolveAccountRequest, opts ...grpc.CallOption) (*ResolveAccountResponse, error) {
	return invoke[ResolveAccountResponse](ctx, c.cc, ResolveAccountFullMethodName, in, opts)
}

func (c *vaultServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, RegisterFullMethodName, in, opts)
}

func (c *vaultServiceClient) Pull(ctx context.Context, in *PullRequest, opts ...grpc.CallOption) (*PullResponse, error) {
	return invoke[PullResponse](ctx, c.cc, PullFullMethodName, in, opts)
}

func (c *vaultServiceClient) Push(ctx context.Context, in *PushRequest, opts ...grpc.CallOption) (*PushResponse, error) {
	return invoke[PushResponse](ctx, c.cc, PushFullMethodName, in, opts)
}

func (c *vaultServiceClient) Abandon(ctx context.Context, in *AbandonRequest, opts ...grpc.CallOption) (*AbandonResponse, error) {
	return invoke[AbandonResponse](ctx, c.cc, AbandonFullMethodName, in, opts)
}

func (c *vaultServiceClient) SessionStatus(ctx context.Context, in *SessionStatusRequest, opts ...grpc.CallOption) (*SessionStatusResponse, error) {
	return invoke[SessionStatusResponse](ctx, c.cc, SessionStatusFullMethodName, in, opts)
}

func (c *vaultServiceClient) Release(ctx context.Context, in *ReleaseRequest, opts ...grpc.CallOption) (*ReleaseResponse, error) {
	return invoke[ReleaseResponse](ctx, c.cc, ReleaseFullMethodName, in, opts)
}

func (c *vaultServiceClient) AccountStatus(ctx context.Context, in *AccountStatusRequest, opts ...grpc.CallOption) (*AccountStatusResponse, error) {
	return invoke[AccountStatusResponse](ctx, c.cc, AccountStatusFullMethodName, in, opts)
}
