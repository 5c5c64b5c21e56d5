package grpc

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pmcloud/internal/api"
	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/dmitrijs2005/pmcloud/internal/server/auth"
	"github.com/dmitrijs2005/pmcloud/internal/server/models"
	"github.com/dmitrijs2005/pmcloud/internal/server/sessions"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {

	return &api.PingResponse{Status: "OK"}, nil

}

func (s *GRPCServer) ResolveAccount(ctx context.Context, req *api.ResolveAccountRequest) (*api.ResolveAccountResponse, error) {

	params, err := s.accounts.ResolveParams(ctx, req.AccountName)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.ResolveAccountResponse{AccountID: params.AccountID, AuthSalt: params.AuthSalt, KDFSalt: params.KDFSalt}, nil

}

func (s *GRPCServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.RegisterResponse, error) {

	s.logger.Info(ctx, "Registration request", "account_name", req.AccountName)

	account, err := s.accounts.Register(ctx, req.AccountName, req.PasswordDigest, req.AuthSalt, req.KDFSalt)
	if err != nil {
		s.logger.Warn(ctx, "Registration failed", "account_name", req.AccountName, "error", err)
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "account_name", req.AccountName, "account_id", account.ID)
	return &api.RegisterResponse{AccountID: account.ID, Message: "User registered successfully"}, nil

}

func (s *GRPCServer) Pull(ctx context.Context, req *api.PullRequest) (*api.PullResponse, error) {

	result, err := s.sync.Pull(ctx, req.AccountName, req.PasswordDigest)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	token, err := auth.GenerateSessionToken(result.Handle, s.jwtSecret)
	if err != nil {
		s.logger.Error(ctx, "issuing session token failed", "account_id", result.Handle.AccountID, "error", err)
		if _, rerr := s.sync.Abandon(context.WithoutCancel(ctx), result.Handle); rerr != nil {
			s.logger.Error(ctx, "release after token failure failed", "account_id", result.Handle.AccountID, "error", rerr)
		}
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &api.PullResponse{
		AccountID:    result.Handle.AccountID,
		SessionToken: token,
		Entries:      entriesToAPI(result.Entries),
	}, nil

}

func (s *GRPCServer) Push(ctx context.Context, req *api.PushRequest) (*api.PushResponse, error) {

	h, err := s.handleFor(ctx, req.AccountID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	entries := make([]*models.CredentialEntry, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = entryFromAPI(e)
	}

	committed, err := s.sync.Push(ctx, h, entries)
	if err != nil {
		if len(committed) > 0 {
			err = fmt.Errorf("%d of %d entries written: %w", len(committed), len(entries), err)
		}
		return nil, s.toStatus(ctx, err)
	}

	return &api.PushResponse{Entries: entriesToAPI(committed), Message: "Sync successful"}, nil

}

func (s *GRPCServer) Abandon(ctx context.Context, req *api.AbandonRequest) (*api.AbandonResponse, error) {

	h, err := s.handleFor(ctx, req.AccountID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	open, err := s.sync.Abandon(ctx, h)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.AbandonResponse{OpenSessions: open}, nil

}

func (s *GRPCServer) SessionStatus(ctx context.Context, req *api.SessionStatusRequest) (*api.SessionStatusResponse, error) {

	h, err := s.handleFor(ctx, req.AccountID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	st, err := s.sync.Status(ctx, h.AccountID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.SessionStatusResponse{OpenSessions: st.OpenSessions, State: stateOf(st.OpenSessions)}, nil

}

// Release gives back a session without a token, for a client that lost
// the response to its Pull.
func (s *GRPCServer) Release(ctx context.Context, req *api.ReleaseRequest) (*api.ReleaseResponse, error) {

	account, open, err := s.sync.ReleaseWithCredentials(ctx, req.AccountName, req.PasswordDigest)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.ReleaseResponse{AccountID: account.ID, OpenSessions: open}, nil

}

func (s *GRPCServer) AccountStatus(ctx context.Context, req *api.AccountStatusRequest) (*api.AccountStatusResponse, error) {

	account, st, err := s.sync.StatusWithCredentials(ctx, req.AccountName, req.PasswordDigest)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.AccountStatusResponse{AccountID: account.ID, OpenSessions: st.OpenSessions, State: stateOf(st.OpenSessions)}, nil

}

func stateOf(open int64) string {
	switch {
	case open == 0:
		return api.StateIdle
	case open > 1:
		return api.StateContended
	}
	return api.StateHeld
}

// handleFor returns the token's handle, checking it was issued for
// accountID. An empty accountID means the token's own account.
func (s *GRPCServer) handleFor(ctx context.Context, accountID string) (*sessions.Handle, error) {
	h, ok := HandleFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: missing session token", common.ErrInvalidToken)
	}
	if accountID != "" && accountID != h.AccountID {
		return nil, errPermissionDenied
	}
	return h, nil
}

func entryFromAPI(e *api.Entry) *models.CredentialEntry {
	if e == nil {
		return nil
	}
	return &models.CredentialEntry{
		ID:           e.ID,
		AccountLabel: e.Account,
		Secret:       e.Password,
		Site:         e.Website,
	}
}

func entriesToAPI(entries []*models.CredentialEntry) []*api.Entry {
	out := make([]*api.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, &api.Entry{
			ID:       e.ID,
			Account:  e.AccountLabel,
			Password: e.Secret,
			Website:  e.Site,
		})
	}
	return out
}
