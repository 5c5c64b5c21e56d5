package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/dmitrijs2005/pmcloud/internal/logging"
	"github.com/dmitrijs2005/pmcloud/internal/server/models"
)

// AccountDirectory is the part of accounts.Repository the account service
// uses.
type AccountDirectory interface {
	FindByName(ctx context.Context, name string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
}

type AccountService struct {
	accounts       AccountDirectory
	defaultAccount string
	logger         logging.Logger
}

// NewAccountService builds the service. defaultAccount, when non-empty, is
// resolved in place of names that do not exist.
func NewAccountService(accounts AccountDirectory, defaultAccount string, logger logging.Logger) *AccountService {
	return &AccountService{
		accounts:       accounts,
		defaultAccount: defaultAccount,
		logger:         logger.With("module", "accounts"),
	}
}

// ResolveParams returns the id and salts a client needs before it can
// compute its digest.
func (s *AccountService) ResolveParams(ctx context.Context, name string) (*models.AccountParams, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: account name is required", common.ErrorValidation)
	}

	a, err := s.accounts.FindByName(ctx, name)
	if errors.Is(err, common.ErrorNotFound) && s.defaultAccount != "" && name != s.defaultAccount {
		s.logger.Debug(ctx, "falling back to default account", "account_name", name)
		a, err = s.accounts.FindByName(ctx, s.defaultAccount)
	}
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.Backend(err)
	}

	return a.Params(), nil
}

// Register creates an account with no open sessions.
func (s *AccountService) Register(ctx context.Context, name string, digest, authSalt, kdfSalt []byte) (*models.Account, error) {
	switch {
	case strings.TrimSpace(name) == "":
		return nil, fmt.Errorf("%w: account name is required", common.ErrorValidation)
	case len(digest) == 0:
		return nil, fmt.Errorf("%w: password digest is required", common.ErrorValidation)
	case len(authSalt) == 0:
		return nil, fmt.Errorf("%w: auth salt is required", common.ErrorValidation)
	case len(kdfSalt) == 0:
		return nil, fmt.Errorf("%w: kdf salt is required", common.ErrorValidation)
	}

	a, err := s.accounts.Create(ctx, &models.Account{
		Name:           name,
		PasswordDigest: digest,
		AuthSalt:       authSalt,
		KDFSalt:        kdfSalt,
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		s.logger.Error(ctx, "register failed", "account_name", name, "error", err)
		return nil, common.Backend(err)
	}

	s.logger.Info(ctx, "account registered", "account_id", a.ID)
	return a, nil
}
