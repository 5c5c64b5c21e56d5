// Package accounts is the account directory: lookup, registration and the
// open-session counter that backs the single-holder lock.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/pmcloud/internal/server/models"
)

// Repository is implemented by every store backend.
//
// CompareAndIncrementSessions must be a single atomic conditional update:
// the counter moves from expected to expected+1 or not at all. On mismatch it
// returns *common.SessionConflictError carrying the value it saw.
// DecrementSessions never takes the counter below 0 and is a no-op at 0.
type Repository interface {
	FindByName(ctx context.Context, name string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	CompareAndIncrementSessions(ctx context.Context, id string, expected int64) (*models.Account, error)
	DecrementSessions(ctx context.Context, id string) (*models.Account, error)
}
