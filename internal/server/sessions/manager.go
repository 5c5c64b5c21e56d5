// Package sessions implements single-holder admission to a vault on top of
// the account's open-session counter. It keeps no state of its own; every
// decision is a conditional update in the account directory.
package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/dmitrijs2005/pmcloud/internal/logging"
	"github.com/dmitrijs2005/pmcloud/internal/server/models"
	"github.com/google/uuid"
)

// Counter is the slice of accounts.Repository the manager needs.
type Counter interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	CompareAndIncrementSessions(ctx context.Context, id string, expected int64) (*models.Account, error)
	DecrementSessions(ctx context.Context, id string) (*models.Account, error)
}

// Recorder receives session outcomes, e.g. for metrics.
type Recorder interface {
	ObserveSession(op, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSession(string, string) {}

// Handle identifies one successful Acquire. SessionID correlates log lines
// and is carried in the session token.
type Handle struct {
	AccountID  string
	SessionID  string
	AcquiredAt time.Time
}

type Manager struct {
	counter  Counter
	logger   logging.Logger
	recorder Recorder
	now      func() time.Time
}

type Option func(*Manager)

func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

func NewManager(counter Counter, logger logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		counter:  counter,
		logger:   logger.With("module", "sessions"),
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire takes the vault if nobody holds it: the counter moves 0 -> 1 or
// the call fails with common.ErrorBusy. There is no reclaiming of a stale
// holder; a crashed client's session stays until released.
func (m *Manager) Acquire(ctx context.Context, accountID string) (*Handle, error) {
	_, err := m.counter.CompareAndIncrementSessions(ctx, accountID, 0)
	if err != nil {
		var conflict *common.SessionConflictError
		switch {
		case errors.As(err, &conflict):
			m.recorder.ObserveSession("acquire", "busy")
			m.logger.Info(ctx, "vault busy", "account_id", accountID, "open_sessions", conflict.Current)
			return nil, common.ErrorBusy
		case errors.Is(err, common.ErrorNotFound):
			m.recorder.ObserveSession("acquire", "not_found")
			return nil, common.ErrorNotFound
		default:
			m.recorder.ObserveSession("acquire", "error")
			m.logger.Error(ctx, "acquire failed", "account_id", accountID, "error", err)
			return nil, common.Backend(err)
		}
	}

	h := &Handle{AccountID: accountID, SessionID: uuid.NewString(), AcquiredAt: m.now()}
	m.recorder.ObserveSession("acquire", "ok")
	m.logger.Info(ctx, "session acquired", "account_id", accountID, "session_id", h.SessionID)
	return h, nil
}

// Release gives the vault back and returns the remaining count. Releasing an
// idle vault is a no-op.
func (m *Manager) Release(ctx context.Context, accountID string) (int64, error) {
	a, err := m.counter.DecrementSessions(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			m.recorder.ObserveSession("release", "not_found")
			return 0, common.ErrorNotFound
		}
		m.recorder.ObserveSession("release", "error")
		m.logger.Error(ctx, "release failed", "account_id", accountID, "error", err)
		return 0, common.Backend(err)
	}

	m.recorder.ObserveSession("release", "ok")
	m.logger.Info(ctx, "session released", "account_id", accountID, "open_sessions", a.OpenSessions)
	return a.OpenSessions, nil
}

// Count reads the current counter.
func (m *Manager) Count(ctx context.Context, accountID string) (int64, error) {
	a, err := m.counter.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, common.ErrorNotFound
		}
		return 0, common.Backend(err)
	}
	return a.OpenSessions, nil
}

// ValidateSingleHolder succeeds only when exactly one session is open.
func (m *Manager) ValidateSingleHolder(ctx context.Context, accountID string) error {
	n, err := m.Count(ctx, accountID)
	if err != nil {
		return err
	}
	if err := Verdict(n); err != nil {
		m.recorder.ObserveSession("validate", outcomeOf(err))
		m.logger.Warn(ctx, "push rejected", "account_id", accountID, "open_sessions", n)
		return err
	}
	return nil
}

// Verdict maps a counter value to the ValidateSingleHolder outcome.
func Verdict(n int64) error {
	switch {
	case n == 0:
		return common.ErrNoActiveSession
	case n == 1:
		return nil
	default:
		return common.ErrMultipleActiveSessions
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, common.ErrNoActiveSession):
		return "no_active_session"
	case errors.Is(err, common.ErrMultipleActiveSessions):
		return "multiple_active_sessions"
	default:
		return "error"
	}
}
