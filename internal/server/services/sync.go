package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/dmitrijs2005/pmcloud/internal/logging"
	"github.com/dmitrijs2005/pmcloud/internal/server/models"
	"github.com/dmitrijs2005/pmcloud/internal/server/sessions"
)

// Authenticator checks an account name and digest.
type Authenticator interface {
	Authenticate(ctx context.Context, name string, digest []byte) (*models.Account, error)
}

// SessionLock is the session manager as the sync service sees it.
type SessionLock interface {
	Acquire(ctx context.Context, accountID string) (*sessions.Handle, error)
	Release(ctx context.Context, accountID string) (int64, error)
	Count(ctx context.Context, accountID string) (int64, error)
	ValidateSingleHolder(ctx context.Context, accountID string) error
}

// CredentialStore is credentials.Repository.
type CredentialStore interface {
	FindByOwner(ctx context.Context, accountID string) ([]*models.CredentialEntry, error)
	Upsert(ctx context.Context, entry *models.CredentialEntry) (string, error)
}

// PullResult is what a successful pull hands the client: the lock it now
// holds and the vault as stored.
type PullResult struct {
	Handle  *sessions.Handle
	Entries []*models.CredentialEntry
}

// SessionStatus is the answer to a status re-check.
type SessionStatus struct {
	OpenSessions int64
	// Verdict is what a push would see now: nil, ErrNoActiveSession or
	// ErrMultipleActiveSessions.
	Verdict error
}

// SyncService drives pull, push and abandon. It holds no state; the lock
// lives in the account directory.
type SyncService struct {
	gate        Authenticator
	sessions    SessionLock
	credentials CredentialStore
	logger      logging.Logger
}

func NewSyncService(gate Authenticator, lock SessionLock, creds CredentialStore, logger logging.Logger) *SyncService {
	return &SyncService{
		gate:        gate,
		sessions:    lock,
		credentials: creds,
		logger:      logger.With("module", "sync"),
	}
}

// Pull authenticates, takes the vault and reads it. A busy vault is not
// read. If the read fails after the lock was taken the lock is given back.
func (s *SyncService) Pull(ctx context.Context, name string, digest []byte) (*PullResult, error) {
	account, err := s.authenticate(ctx, name, digest)
	if err != nil {
		return nil, err
	}

	h, err := s.sessions.Acquire(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	entries, err := s.credentials.FindByOwner(ctx, account.ID)
	if err != nil {
		s.logger.Error(ctx, "vault read failed, releasing session",
			"account_id", account.ID, "session_id", h.SessionID, "error", err)
		if _, rerr := s.sessions.Release(context.WithoutCancel(ctx), account.ID); rerr != nil {
			s.logger.Error(ctx, "compensating release failed",
				"account_id", account.ID, "session_id", h.SessionID, "error", rerr)
		}
		return nil, common.Backend(err)
	}

	s.logger.Info(ctx, "vault pulled", "account_id", account.ID, "session_id", h.SessionID, "entries", len(entries))
	return &PullResult{Handle: h, Entries: entries}, nil
}

// Push writes entries back for the holder of h. The single-holder check
// comes first, ahead of entry validation and the first write. Entries are written one by one; on a
// failure the entries already written are returned with the error.
func (s *SyncService) Push(ctx context.Context, h *sessions.Handle, entries []*models.CredentialEntry) ([]*models.CredentialEntry, error) {
	if h == nil || h.AccountID == "" {
		return nil, fmt.Errorf("%w: session handle is required", common.ErrorValidation)
	}
	if err := s.sessions.ValidateSingleHolder(ctx, h.AccountID); err != nil {
		return nil, err
	}
	if err := validateEntries(h.AccountID, entries); err != nil {
		return nil, err
	}

	committed := make([]*models.CredentialEntry, 0, len(entries))
	for i, e := range entries {
		stored := *e
		stored.OwnerAccountID = h.AccountID

		id, err := s.credentials.Upsert(ctx, &stored)
		if err != nil {
			s.logger.Error(ctx, "push interrupted",
				"account_id", h.AccountID, "session_id", h.SessionID, "committed", len(committed), "error", err)
			if errors.Is(err, common.ErrorConflict) {
				return committed, fmt.Errorf("entry %d: %w: id %q belongs to another account", i, common.ErrorConflict, e.ID)
			}
			return committed, common.Backend(err)
		}
		stored.ID = id
		committed = append(committed, &stored)
	}

	s.logger.Info(ctx, "vault pushed", "account_id", h.AccountID, "session_id", h.SessionID, "entries", len(committed))
	return committed, nil
}

// Abandon releases the vault without writing.
func (s *SyncService) Abandon(ctx context.Context, h *sessions.Handle) (int64, error) {
	if h == nil || h.AccountID == "" {
		return 0, fmt.Errorf("%w: session handle is required", common.ErrorValidation)
	}
	return s.sessions.Release(ctx, h.AccountID)
}

// Status reports the counter and what a push would currently see. It lets a
// client whose call timed out find out whether it holds the vault.
func (s *SyncService) Status(ctx context.Context, accountID string) (*SessionStatus, error) {
	n, err := s.sessions.Count(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &SessionStatus{OpenSessions: n, Verdict: sessions.Verdict(n)}, nil
}

// ReleaseWithCredentials gives back one session on the named account
// without a session token. It is the way out for a client whose Pull
// succeeded on the server but whose response never arrived.
func (s *SyncService) ReleaseWithCredentials(ctx context.Context, name string, digest []byte) (*models.Account, int64, error) {
	account, err := s.authenticate(ctx, name, digest)
	if err != nil {
		return nil, 0, err
	}

	open, err := s.sessions.Release(ctx, account.ID)
	if err != nil {
		return nil, 0, err
	}
	s.logger.Warn(ctx, "session released with credentials", "account_id", account.ID, "open_sessions", open)
	return account, open, nil
}

// StatusWithCredentials is Status for a client that holds no token.
func (s *SyncService) StatusWithCredentials(ctx context.Context, name string, digest []byte) (*models.Account, *SessionStatus, error) {
	account, err := s.authenticate(ctx, name, digest)
	if err != nil {
		return nil, nil, err
	}

	st, err := s.Status(ctx, account.ID)
	if err != nil {
		return nil, nil, err
	}
	return account, st, nil
}

func (s *SyncService) authenticate(ctx context.Context, name string, digest []byte) (*models.Account, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: account name is required", common.ErrorValidation)
	}
	if len(digest) == 0 {
		return nil, fmt.Errorf("%w: password digest is required", common.ErrorValidation)
	}
	return s.gate.Authenticate(ctx, name, digest)
}

func validateEntries(accountID string, entries []*models.CredentialEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: no entries to push", common.ErrorValidation)
	}
	for i, e := range entries {
		switch {
		case e == nil:
			return fmt.Errorf("%w: entry %d is empty", common.ErrorValidation, i)
		case len(e.AccountLabel) == 0 || len(e.Secret) == 0 || len(e.Site) == 0:
			return fmt.Errorf("%w: entry %d needs account, password and website", common.ErrorValidation, i)
		case e.OwnerAccountID != "" && e.OwnerAccountID != accountID:
			return fmt.Errorf("%w: entry %d belongs to another account", common.ErrorValidation, i)
		}
	}
	return nil
}
