// Package auth holds the authentication gate and the session tokens that
// represent a held vault on the wire.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/dmitrijs2005/pmcloud/internal/server/models"
)

// AccountFinder is the lookup the gate needs from the account directory.
type AccountFinder interface {
	FindByName(ctx context.Context, name string) (*models.Account, error)
}

type Gate struct {
	accounts AccountFinder
}

func NewGate(accounts AccountFinder) *Gate {
	return &Gate{accounts: accounts}
}

// Authenticate compares digest with the stored one in constant time.
// Unknown names are common.ErrorNotFound, wrong digests
// common.ErrorUnauthorized.
func (g *Gate) Authenticate(ctx context.Context, name string, digest []byte) (*models.Account, error) {
	a, err := g.accounts.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.Backend(err)
	}

	if !checkDigest(a.PasswordDigest, digest) {
		return nil, common.ErrorUnauthorized
	}
	return a, nil
}

func checkDigest(stored, candidate []byte) bool {
	return len(stored) > 0 && subtle.ConstantTimeCompare(stored, candidate) == 1
}
