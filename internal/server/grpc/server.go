package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/pmcloud/internal/api"
	"github.com/dmitrijs2005/pmcloud/internal/logging"
	"github.com/dmitrijs2005/pmcloud/internal/server/models"
	"github.com/dmitrijs2005/pmcloud/internal/server/services"
	"github.com/dmitrijs2005/pmcloud/internal/server/sessions"
	"google.golang.org/grpc"
)

type accountService interface {
	ResolveParams(ctx context.Context, name string) (*models.AccountParams, error)
	Register(ctx context.Context, name string, digest, authSalt, kdfSalt []byte) (*models.Account, error)
}

type syncService interface {
	Pull(ctx context.Context, name string, digest []byte) (*services.PullResult, error)
	Push(ctx context.Context, h *sessions.Handle, entries []*models.CredentialEntry) ([]*models.CredentialEntry, error)
	Abandon(ctx context.Context, h *sessions.Handle) (int64, error)
	Status(ctx context.Context, accountID string) (*services.SessionStatus, error)
	ReleaseWithCredentials(ctx context.Context, name string, digest []byte) (*models.Account, int64, error)
	StatusWithCredentials(ctx context.Context, name string, digest []byte) (*models.Account, *services.SessionStatus, error)
}

type GRPCServer struct {
	address   string
	accounts  accountService
	sync      syncService
	logger    logging.Logger
	jwtSecret []byte

	limiter      *nameLimiter
	timeout      time.Duration
	interceptors []grpc.UnaryServerInterceptor
}

type Option func(*GRPCServer)

// WithAuthRateLimit limits the credential-checking RPCs per account name. A
// non-positive rate disables the limit.
func WithAuthRateLimit(perSecond float64, burst int) Option {
	return func(s *GRPCServer) { s.limiter = newNameLimiter(perSecond, burst) }
}

// WithRequestTimeout bounds every RPC; zero means no bound beyond the
// caller's own deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *GRPCServer) { s.timeout = d }
}

// WithUnaryInterceptors runs extra interceptors ahead of the built-in ones.
func WithUnaryInterceptors(i ...grpc.UnaryServerInterceptor) Option {
	return func(s *GRPCServer) { s.interceptors = append(s.interceptors, i...) }
}

func NewGRPCServer(a string, l logging.Logger, as accountService, ss syncService, secretKey string, opts ...Option) (*GRPCServer, error) {
	s := &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		accounts:  as,
		sync:      ss,
		jwtSecret: []byte(secretKey),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	chain := append([]grpc.UnaryServerInterceptor{}, s.interceptors...)
	chain = append(chain, s.timeoutInterceptor, s.rateLimitInterceptor, s.sessionTokenInterceptor)

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(chain...))
	api.RegisterVaultServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
