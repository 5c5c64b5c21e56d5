// Package state remembers the session the CLI currently holds, so that a
// vault left locked by an interrupted command can be released later.
package state

import (
	"context"

	"github.com/dmitrijs2005/pmcloud/internal/client/repositories/metadata"
)

const (
	keyAccountName  = "session.account_name"
	keyAccountID    = "session.account_id"
	keySessionToken = "session.token"
)

// Session is what Pull handed out.
type Session struct {
	AccountName  string
	AccountID    string
	SessionToken string
}

type Store struct {
	repo metadata.Repository
}

func NewStore(repo metadata.Repository) *Store {
	return &Store{repo: repo}
}

// Load returns the saved session, or nil when none is held.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	token, err := s.repo.Get(ctx, keySessionToken)
	if err != nil || token == nil {
		return nil, err
	}
	id, err := s.repo.Get(ctx, keyAccountID)
	if err != nil {
		return nil, err
	}
	name, err := s.repo.Get(ctx, keyAccountName)
	if err != nil {
		return nil, err
	}
	return &Session{AccountName: string(name), AccountID: string(id), SessionToken: string(token)}, nil
}

// Save records sess. The token is written last so a partial write never
// looks like a held session.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if err := s.repo.Set(ctx, keyAccountName, []byte(sess.AccountName)); err != nil {
		return err
	}
	if err := s.repo.Set(ctx, keyAccountID, []byte(sess.AccountID)); err != nil {
		return err
	}
	return s.repo.Set(ctx, keySessionToken, []byte(sess.SessionToken))
}

func (s *Store) Clear(ctx context.Context) error {
	for _, k := range []string{keySessionToken, keyAccountID, keyAccountName} {
		if err := s.repo.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}
