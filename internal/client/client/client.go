package client

import (
	"context"

	"github.com/dmitrijs2005/pmcloud/internal/api"
)

// Client is the vault service as the CLI sees it. Entries are already
// sealed; the client never sends plaintext.
type Client interface {
	Close() error
	Ping(ctx context.Context) error
	ResolveAccount(ctx context.Context, accountName string) (*api.ResolveAccountResponse, error)
	Register(ctx context.Context, accountName string, digest, authSalt, kdfSalt []byte) (string, error)
	Pull(ctx context.Context, accountName string, digest []byte) (*api.PullResponse, error)
	Push(ctx context.Context, sessionToken, accountID string, entries []*api.Entry) ([]*api.Entry, error)
	Abandon(ctx context.Context, sessionToken, accountID string) (int64, error)
	SessionStatus(ctx context.Context, sessionToken, accountID string) (*api.SessionStatusResponse, error)
	// Release and AccountStatus authenticate with the password digest
	// instead of a session token.
	Release(ctx context.Context, accountName string, digest []byte) (*api.ReleaseResponse, error)
	AccountStatus(ctx context.Context, accountName string, digest []byte) (*api.AccountStatusResponse, error)
}
