// Package credentials is the credential store: the encrypted entries that
// make up one account's vault.
package credentials

import (
	"context"

	"github.com/dmitrijs2005/pmcloud/internal/server/models"
)

// Repository is implemented by every store backend.
//
// Upsert is keyed by entry.ID when it is set; otherwise the store allocates
// one. It returns the ID the entry is stored under. An ID that belongs to a
// different owner yields common.ErrorConflict and leaves the row untouched.
type Repository interface {
	FindByOwner(ctx context.Context, accountID string) ([]*models.CredentialEntry, error)
	Upsert(ctx context.Context, entry *models.CredentialEntry) (string, error)
}
