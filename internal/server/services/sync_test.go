package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/dmitrijs2005/pmcloud/internal/logging"
	"github.com/dmitrijs2005/pmcloud/internal/server/auth"
	"github.com/dmitrijs2005/pmcloud/internal/server/models"
	"github.com/dmitrijs2005/pmcloud/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/pmcloud/internal/server/sessions"
	"github.com/dmitrijs2005/pmcloud/internal/server/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeGate struct {
	acc *models.Account
	err error
}

func (g fakeGate) Authenticate(context.Context, string, []byte) (*models.Account, error) {
	return g.acc, g.err
}

type fakeLock struct {
	acquireErr  error
	validateErr error
	count       int64
	releases    int
	validated   int
}

func (l *fakeLock) Acquire(_ context.Context, id string) (*sessions.Handle, error) {
	if l.acquireErr != nil {
		return nil, l.acquireErr
	}
	l.count++
	return &sessions.Handle{AccountID: id, SessionID: "s"}, nil
}

func (l *fakeLock) Release(context.Context, string) (int64, error) {
	l.releases++
	if l.count > 0 {
		l.count--
	}
	return l.count, nil
}

func (l *fakeLock) Count(context.Context, string) (int64, error) { return l.count, nil }

func (l *fakeLock) ValidateSingleHolder(context.Context, string) error {
	l.validated++
	return l.validateErr
}

type fakeCreds struct {
	findErr   error
	failAfter int
	upserts   int
}

func (c *fakeCreds) FindByOwner(context.Context, string) ([]*models.CredentialEntry, error) {
	if c.findErr != nil {
		return nil, c.findErr
	}
	return []*models.CredentialEntry{}, nil
}

func (c *fakeCreds) Upsert(_ context.Context, e *models.CredentialEntry) (string, error) {
	if c.failAfter > 0 && c.upserts >= c.failAfter {
		return "", errors.New("db error: gone")
	}
	c.upserts++
	if e.ID != "" {
		return e.ID, nil
	}
	return "gen", nil
}

func entry(site string) *models.CredentialEntry {
	return &models.CredentialEntry{AccountLabel: []byte("acct"), Secret: []byte("pw"), Site: []byte(site)}
}

// --- unit ---

func TestPull_Validation(t *testing.T) {
	svc := NewSyncService(fakeGate{}, &fakeLock{}, &fakeCreds{}, logging.NewNopLogger())
	_, err := svc.Pull(context.Background(), "", []byte("d"))
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = svc.Pull(context.Background(), "bob", nil)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestPull_AuthFailuresTouchNothing(t *testing.T) {
	for _, want := range []error{common.ErrorNotFound, common.ErrorUnauthorized} {
		lock := &fakeLock{}
		svc := NewSyncService(fakeGate{err: want}, lock, &fakeCreds{}, logging.NewNopLogger())
		_, err := svc.Pull(context.Background(), "bob", []byte("d"))
		assert.ErrorIs(t, err, want)
		assert.Equal(t, int64(0), lock.count)
	}
}

func TestPull_BusyDoesNotRead(t *testing.T) {
	creds := &fakeCreds{findErr: errors.New("must not be called")}
	svc := NewSyncService(fakeGate{acc: &models.Account{ID: "a"}}, &fakeLock{acquireErr: common.ErrorBusy}, creds, logging.NewNopLogger())
	_, err := svc.Pull(context.Background(), "bob", []byte("d"))
	assert.ErrorIs(t, err, common.ErrorBusy)
}

func TestPull_ReadFailureReleases(t *testing.T) {
	lock := &fakeLock{}
	svc := NewSyncService(fakeGate{acc: &models.Account{ID: "a"}}, lock, &fakeCreds{findErr: errors.New("db error: read")}, logging.NewNopLogger())

	_, err := svc.Pull(context.Background(), "bob", []byte("d"))
	assert.ErrorIs(t, err, common.ErrorBackendUnavailable)
	assert.Equal(t, 1, lock.releases)
	assert.Equal(t, int64(0), lock.count)
}

func TestPush_Validation(t *testing.T) {
	lock := &fakeLock{count: 1}
	svc := NewSyncService(fakeGate{}, lock, &fakeCreds{}, logging.NewNopLogger())
	h := &sessions.Handle{AccountID: "a"}

	bad := []struct {
		name    string
		h       *sessions.Handle
		entries []*models.CredentialEntry
	}{
		{"nil handle", nil, []*models.CredentialEntry{entry("x")}},
		{"no entries", h, nil},
		{"nil entry", h, []*models.CredentialEntry{nil}},
		{"missing site", h, []*models.CredentialEntry{{AccountLabel: []byte("a"), Secret: []byte("b")}}},
		{"foreign owner", h, []*models.CredentialEntry{{OwnerAccountID: "other", AccountLabel: []byte("a"), Secret: []byte("b"), Site: []byte("c")}}},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Push(context.Background(), tt.h, tt.entries)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
	assert.Equal(t, len(bad)-1, lock.validated, "every request with a handle is checked for a holder first")
}

func TestPush_HolderCheckComesBeforeEntryValidation(t *testing.T) {
	creds := &fakeCreds{}
	svc := NewSyncService(fakeGate{}, &fakeLock{validateErr: common.ErrNoActiveSession}, creds, logging.NewNopLogger())

	_, err := svc.Push(context.Background(), &sessions.Handle{AccountID: "a"}, nil)
	assert.ErrorIs(t, err, common.ErrNoActiveSession)
	assert.NotErrorIs(t, err, common.ErrorValidation)
	assert.Equal(t, 0, creds.upserts)
}

func TestReleaseAndStatusWithCredentials(t *testing.T) {
	lock := &fakeLock{count: 1}
	svc := NewSyncService(fakeGate{acc: &models.Account{ID: "a"}}, lock, &fakeCreds{}, logging.NewNopLogger())
	ctx := context.Background()

	acc, st, err := svc.StatusWithCredentials(ctx, "bob", []byte("d"))
	require.NoError(t, err)
	assert.Equal(t, "a", acc.ID)
	assert.Equal(t, int64(1), st.OpenSessions)

	acc, left, err := svc.ReleaseWithCredentials(ctx, "bob", []byte("d"))
	require.NoError(t, err)
	assert.Equal(t, "a", acc.ID)
	assert.Equal(t, int64(0), left)
	assert.Equal(t, 1, lock.releases)

	_, _, err = svc.ReleaseWithCredentials(ctx, "", []byte("d"))
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, _, err = svc.StatusWithCredentials(ctx, "bob", nil)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestReleaseWithCredentials_AuthFailureTouchesNothing(t *testing.T) {
	for _, want := range []error{common.ErrorNotFound, common.ErrorUnauthorized} {
		lock := &fakeLock{count: 1}
		svc := NewSyncService(fakeGate{err: want}, lock, &fakeCreds{}, logging.NewNopLogger())

		_, _, err := svc.ReleaseWithCredentials(context.Background(), "bob", []byte("d"))
		assert.ErrorIs(t, err, want)
		assert.Equal(t, 0, lock.releases)
		assert.Equal(t, int64(1), lock.count)
	}
}

func TestPush_RejectedBeforeAnyWrite(t *testing.T) {
	for _, verdict := range []error{common.ErrNoActiveSession, common.ErrMultipleActiveSessions} {
		creds := &fakeCreds{}
		svc := NewSyncService(fakeGate{}, &fakeLock{validateErr: verdict}, creds, logging.NewNopLogger())
		_, err := svc.Push(context.Background(), &sessions.Handle{AccountID: "a"}, []*models.CredentialEntry{entry("x")})
		assert.ErrorIs(t, err, verdict)
		assert.Equal(t, 0, creds.upserts)
	}
}

func TestPush_PartialFailureKeepsCommitted(t *testing.T) {
	creds := &fakeCreds{failAfter: 2}
	svc := NewSyncService(fakeGate{}, &fakeLock{count: 1}, creds, logging.NewNopLogger())

	committed, err := svc.Push(context.Background(), &sessions.Handle{AccountID: "a"},
		[]*models.CredentialEntry{entry("x"), entry("y"), entry("z")})
	assert.ErrorIs(t, err, common.ErrorBackendUnavailable)
	require.Len(t, committed, 2)
	assert.Equal(t, []byte("y"), committed[1].Site)
	assert.Equal(t, "a", committed[0].OwnerAccountID)
}

func TestAbandonAndStatus(t *testing.T) {
	lock := &fakeLock{count: 1}
	svc := NewSyncService(fakeGate{}, lock, &fakeCreds{}, logging.NewNopLogger())

	st, err := svc.Status(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.OpenSessions)
	assert.NoError(t, st.Verdict)

	left, err := svc.Abandon(context.Background(), &sessions.Handle{AccountID: "a"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), left)

	st, err = svc.Status(context.Background(), "a")
	require.NoError(t, err)
	assert.ErrorIs(t, st.Verdict, common.ErrNoActiveSession)

	_, err = svc.Abandon(context.Background(), nil)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

// --- end to end on SQLite ---

type stack struct {
	store    *repomanager.SQLRepositoryManager
	accounts *AccountService
	sync     *SyncService
	locks    *sessions.Manager
}

func newStack(t *testing.T) *stack {
	t.Helper()
	store := storetest.SQLite(t)
	logger := logging.NewNopLogger()
	locks := sessions.NewManager(store.Accounts(), logger)
	return &stack{
		store:    store,
		accounts: NewAccountService(store.Accounts(), "", logger),
		sync:     NewSyncService(auth.NewGate(store.Accounts()), locks, store.Credentials(), logger),
		locks:    locks,
	}
}

func TestRegisterStartsWithNoSessions(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	a, err := s.accounts.Register(ctx, "bob", []byte("D"), []byte("S1"), []byte("S2"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), a.OpenSessions)

	n, err := s.locks.Count(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	_, err = s.accounts.Register(ctx, "bob", []byte("D2"), []byte("S1"), []byte("S2"))
	assert.ErrorIs(t, err, common.ErrorConflict)

	params, err := s.accounts.ResolveParams(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, a.ID, params.AccountID)
	assert.Equal(t, []byte("S1"), params.AuthSalt)
	assert.Equal(t, []byte("S2"), params.KDFSalt)
}

func TestAuthenticationOutcomes(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.accounts.Register(ctx, "bob", []byte("D"), []byte("S1"), []byte("S2"))
	require.NoError(t, err)

	_, err = s.sync.Pull(ctx, "nobody", []byte("D"))
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.sync.Pull(ctx, "bob", []byte("wrong"))
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestPushGatedOnSessionCount(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	a, err := s.accounts.Register(ctx, "bob", []byte("D"), []byte("S1"), []byte("S2"))
	require.NoError(t, err)
	h := &sessions.Handle{AccountID: a.ID}
	batch := []*models.CredentialEntry{entry("x")}

	// 0 sessions
	_, err = s.sync.Push(ctx, h, batch)
	assert.ErrorIs(t, err, common.ErrNoActiveSession)

	// 1 session
	pulled, err := s.sync.Pull(ctx, "bob", []byte("D"))
	require.NoError(t, err)
	_, err = s.sync.Push(ctx, pulled.Handle, batch)
	assert.NoError(t, err)

	// 2 sessions: Acquire never gets there, only a direct counter bump does.
	_, err = s.store.Accounts().CompareAndIncrementSessions(ctx, a.ID, 1)
	require.NoError(t, err)
	st, err := s.sync.Status(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), st.OpenSessions)
	assert.ErrorIs(t, st.Verdict, common.ErrMultipleActiveSessions)

	_, err = s.sync.Push(ctx, pulled.Handle, batch)
	assert.ErrorIs(t, err, common.ErrMultipleActiveSessions)
}

func TestRoundTripAndOverwrite(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.accounts.Register(ctx, "bob", []byte("D"), []byte("S1"), []byte("S2"))
	require.NoError(t, err)

	first, err := s.sync.Pull(ctx, "bob", []byte("D"))
	require.NoError(t, err)
	assert.Empty(t, first.Entries)

	in := &models.CredentialEntry{AccountLabel: []byte{0x01, 0x02}, Secret: []byte{0xff, 0x00, 0x10}, Site: []byte("ct-site")}
	committed, err := s.sync.Push(ctx, first.Handle, []*models.CredentialEntry{in})
	require.NoError(t, err)
	require.Len(t, committed, 1)
	id := committed[0].ID
	require.NotEmpty(t, id)

	_, err = s.sync.Abandon(ctx, first.Handle)
	require.NoError(t, err)

	second, err := s.sync.Pull(ctx, "bob", []byte("D"))
	require.NoError(t, err)
	require.Len(t, second.Entries, 1)
	got := second.Entries[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, in.AccountLabel, got.AccountLabel)
	assert.Equal(t, in.Secret, got.Secret)
	assert.Equal(t, in.Site, got.Site)

	got.Secret = []byte("new")
	_, err = s.sync.Push(ctx, second.Handle, []*models.CredentialEntry{got})
	require.NoError(t, err)
	_, err = s.sync.Abandon(ctx, second.Handle)
	require.NoError(t, err)

	third, err := s.sync.Pull(ctx, "bob", []byte("D"))
	require.NoError(t, err)
	require.Len(t, third.Entries, 1)
	assert.Equal(t, id, third.Entries[0].ID)
	assert.Equal(t, []byte("new"), third.Entries[0].Secret)
}

func TestForeignEntryIDIsRejected(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.accounts.Register(ctx, "bob", []byte("D"), []byte("S1"), []byte("S2"))
	require.NoError(t, err)
	_, err = s.accounts.Register(ctx, "eve", []byte("E"), []byte("S1"), []byte("S2"))
	require.NoError(t, err)

	bob, err := s.sync.Pull(ctx, "bob", []byte("D"))
	require.NoError(t, err)
	committed, err := s.sync.Push(ctx, bob.Handle, []*models.CredentialEntry{entry("bank")})
	require.NoError(t, err)

	eve, err := s.sync.Pull(ctx, "eve", []byte("E"))
	require.NoError(t, err)
	steal := entry("evil")
	steal.ID = committed[0].ID
	_, err = s.sync.Push(ctx, eve.Handle, []*models.CredentialEntry{steal})
	assert.ErrorIs(t, err, common.ErrorConflict)
}

func TestBobScenario(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.accounts.Register(ctx, "bob", []byte("D"), []byte("S1"), []byte("S2"))
	require.NoError(t, err)

	pulled, err := s.sync.Pull(ctx, "bob", []byte("D"))
	require.NoError(t, err)
	assert.Empty(t, pulled.Entries)

	st, err := s.sync.Status(ctx, pulled.Handle.AccountID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.OpenSessions)

	_, err = s.sync.Push(ctx, pulled.Handle, []*models.CredentialEntry{entry("x"), entry("y")})
	require.NoError(t, err)

	_, err = s.sync.Pull(ctx, "bob", []byte("D"))
	assert.ErrorIs(t, err, common.ErrorBusy)
}

func TestLostPullResponseRecoveredWithCredentials(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.accounts.Register(ctx, "carol", []byte("D"), []byte("S1"), []byte("S2"))
	require.NoError(t, err)

	_, err = s.sync.Pull(ctx, "carol", []byte("D"))
	require.NoError(t, err)
	_, err = s.sync.Pull(ctx, "carol", []byte("D"))
	require.ErrorIs(t, err, common.ErrorBusy)

	_, _, err = s.sync.ReleaseWithCredentials(ctx, "carol", []byte("wrong"))
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, st, err := s.sync.StatusWithCredentials(ctx, "carol", []byte("D"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.OpenSessions)

	_, left, err := s.sync.ReleaseWithCredentials(ctx, "carol", []byte("D"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), left)

	_, err = s.sync.Pull(ctx, "carol", []byte("D"))
	assert.NoError(t, err)
}
