// Package services holds the client-side vault workflows used by the CLI.
// Every workflow that pulls also abandons before it returns, so the
// account's session counter goes back to zero unless the process dies
// in between. In that case the saved session lets Release finish the job,
// and when nothing was saved (the Pull response never arrived)
// ReleaseAccount does it with the master password.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pmcloud/internal/api"
	"github.com/dmitrijs2005/pmcloud/internal/client/client"
	"github.com/dmitrijs2005/pmcloud/internal/client/models"
	"github.com/dmitrijs2005/pmcloud/internal/client/state"
	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/dmitrijs2005/pmcloud/internal/cryptox"
	"github.com/dmitrijs2005/pmcloud/internal/logging"
)

var ErrNoLocalSession = errors.New("this client holds no session")

// SessionState is where the held session is remembered between commands.
type SessionState interface {
	Load(ctx context.Context) (*state.Session, error)
	Save(ctx context.Context, sess *state.Session) error
	Clear(ctx context.Context) error
}

type VaultService struct {
	client client.Client
	state  SessionState
	logger logging.Logger
}

func NewVaultService(c client.Client, s SessionState, l logging.Logger) *VaultService {
	return &VaultService{client: c, state: s, logger: l.With("module", "vault")}
}

// openVault is a pulled vault: the session it holds and the decrypted entries.
type openVault struct {
	session *state.Session
	key     []byte
	entries []*models.Credential
}

func (v *openVault) wipe() {
	common.WipeByteArray(v.key)
}

// Register creates an account with fresh salts and returns its id.
func (s *VaultService) Register(ctx context.Context, name string, password []byte) (string, error) {
	if name == "" || len(password) == 0 {
		return "", common.ErrorValidation
	}
	authSalt := common.GenerateRandByteArray(cryptox.SaltSize)
	kdfSalt := common.GenerateRandByteArray(cryptox.SaltSize)
	digest := cryptox.PasswordDigest(password, authSalt)

	return s.client.Register(ctx, name, digest, authSalt, kdfSalt)
}

// List pulls the vault, decrypts it and releases the session.
func (s *VaultService) List(ctx context.Context, name string, password []byte) ([]*models.Credential, error) {
	v, err := s.open(ctx, name, password)
	if err != nil {
		return nil, err
	}
	defer v.wipe()

	if err := s.finish(ctx, v.session); err != nil {
		return nil, err
	}
	return v.entries, nil
}

// Add pulls the vault, pushes cred as a new entry and releases the session.
// The returned credential carries the id the server assigned.
func (s *VaultService) Add(ctx context.Context, name string, password []byte, cred models.Credential) (*models.Credential, error) {
	if cred.Account == "" || cred.Password == "" {
		return nil, fmt.Errorf("%w: account and password are required", common.ErrorValidation)
	}
	cred.ID = ""

	v, err := s.open(ctx, name, password)
	if err != nil {
		return nil, err
	}
	defer v.wipe()

	sealed, err := sealEntry(&cred, v.key)
	if err != nil {
		return nil, errors.Join(err, s.finish(ctx, v.session))
	}

	written, pushErr := s.client.Push(ctx, v.session.SessionToken, v.session.AccountID, []*api.Entry{sealed})
	finishErr := s.finish(ctx, v.session)
	if pushErr != nil {
		return nil, errors.Join(fmt.Errorf("push: %w", pushErr), finishErr)
	}
	if len(written) > 0 {
		cred.ID = written[0].ID
	}
	// The entry is stored even when the release failed.
	return &cred, finishErr
}

// Release abandons the session this client saved and forgets it.
func (s *VaultService) Release(ctx context.Context) (int64, error) {
	sess, err := s.state.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return 0, ErrNoLocalSession
	}

	open, err := s.client.Abandon(ctx, sess.SessionToken, sess.AccountID)
	if err != nil && !errors.Is(err, common.ErrInvalidToken) {
		return 0, err
	}
	if errors.Is(err, common.ErrInvalidToken) {
		s.logger.Warn(ctx, "saved session token rejected, forgetting it", "account_id", sess.AccountID)
	}
	if err := s.state.Clear(ctx); err != nil {
		return open, fmt.Errorf("clear session: %w", err)
	}
	return open, nil
}

// Status reports the server's view of the saved session's account.
func (s *VaultService) Status(ctx context.Context) (*state.Session, *api.SessionStatusResponse, error) {
	sess, err := s.state.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return nil, nil, ErrNoLocalSession
	}

	st, err := s.client.SessionStatus(ctx, sess.SessionToken, sess.AccountID)
	if err != nil {
		return sess, nil, err
	}
	return sess, st, nil
}

// ReleaseAccount gives back one session of the named account using the
// master password. A session saved for that account is forgotten too.
func (s *VaultService) ReleaseAccount(ctx context.Context, name string, password []byte) (string, int64, error) {
	digest, err := s.digest(ctx, name, password)
	if err != nil {
		return "", 0, err
	}

	resp, err := s.client.Release(ctx, name, digest)
	if err != nil {
		return "", 0, err
	}

	sess, err := s.state.Load(ctx)
	if err != nil {
		return resp.AccountID, resp.OpenSessions, fmt.Errorf("load session: %w", err)
	}
	if sess != nil && sess.AccountName == name {
		if err := s.state.Clear(ctx); err != nil {
			return resp.AccountID, resp.OpenSessions, fmt.Errorf("clear session: %w", err)
		}
	}
	return resp.AccountID, resp.OpenSessions, nil
}

// AccountStatus is Status for a client that holds no session.
func (s *VaultService) AccountStatus(ctx context.Context, name string, password []byte) (*api.AccountStatusResponse, error) {
	digest, err := s.digest(ctx, name, password)
	if err != nil {
		return nil, err
	}
	return s.client.AccountStatus(ctx, name, digest)
}

func (s *VaultService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *VaultService) Close() error {
	return s.client.Close()
}

// open resolves the account, pulls its vault and decrypts it. On success
// the session is held and saved; the caller must call finish.
func (s *VaultService) open(ctx context.Context, name string, password []byte) (*openVault, error) {
	if name == "" || len(password) == 0 {
		return nil, common.ErrorValidation
	}

	params, err := s.client.ResolveAccount(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("resolve account: %w", err)
	}

	digest := cryptox.PasswordDigest(password, params.AuthSalt)
	pulled, err := s.client.Pull(ctx, name, digest)
	if err != nil {
		return nil, fmt.Errorf("pull: %w", err)
	}

	sess := &state.Session{AccountName: name, AccountID: pulled.AccountID, SessionToken: pulled.SessionToken}
	if err := s.state.Save(ctx, sess); err != nil {
		err = fmt.Errorf("save session: %w", err)
		if _, abandonErr := s.client.Abandon(context.WithoutCancel(ctx), sess.SessionToken, sess.AccountID); abandonErr != nil {
			return nil, errors.Join(err, fmt.Errorf("abandon: %w", abandonErr))
		}
		return nil, err
	}
	s.logger.Debug(ctx, "session held", "account_id", sess.AccountID)

	key := cryptox.DeriveMasterKey(password, params.KDFSalt)
	entries := make([]*models.Credential, 0, len(pulled.Entries))
	for _, e := range pulled.Entries {
		c, err := openEntry(e, key)
		if err != nil {
			common.WipeByteArray(key)
			return nil, errors.Join(fmt.Errorf("decrypt entry %s: %w", e.ID, err), s.finish(ctx, sess))
		}
		entries = append(entries, c)
	}

	return &openVault{session: sess, key: key, entries: entries}, nil
}

func (s *VaultService) digest(ctx context.Context, name string, password []byte) ([]byte, error) {
	if name == "" || len(password) == 0 {
		return nil, common.ErrorValidation
	}
	params, err := s.client.ResolveAccount(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("resolve account: %w", err)
	}
	return cryptox.PasswordDigest(password, params.AuthSalt), nil
}

// finish abandons sess and forgets it. If the abandon fails the session
// stays saved for a later Release.
func (s *VaultService) finish(ctx context.Context, sess *state.Session) error {
	ctx = context.WithoutCancel(ctx)
	open, err := s.client.Abandon(ctx, sess.SessionToken, sess.AccountID)
	if err != nil {
		s.logger.Warn(ctx, "abandon failed, session kept for release", "account_id", sess.AccountID, "error", err)
		return fmt.Errorf("abandon: %w", err)
	}
	s.logger.Debug(ctx, "session abandoned", "account_id", sess.AccountID, "open_sessions", open)
	if err := s.state.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func sealEntry(c *models.Credential, key []byte) (*api.Entry, error) {
	account, err := cryptox.Seal([]byte(c.Account), key)
	if err != nil {
		return nil, err
	}
	password, err := cryptox.Seal([]byte(c.Password), key)
	if err != nil {
		return nil, err
	}
	website, err := cryptox.Seal([]byte(c.Website), key)
	if err != nil {
		return nil, err
	}
	return &api.Entry{ID: c.ID, Account: account, Password: password, Website: website}, nil
}

func openEntry(e *api.Entry, key []byte) (*models.Credential, error) {
	account, err := cryptox.Open(e.Account, key)
	if err != nil {
		return nil, err
	}
	password, err := cryptox.Open(e.Password, key)
	if err != nil {
		return nil, err
	}
	website, err := cryptox.Open(e.Website, key)
	if err != nil {
		return nil, err
	}
	return &models.Credential{ID: e.ID, Account: string(account), Password: string(password), Website: string(website)}, nil
}
