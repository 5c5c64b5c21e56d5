package objectstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/dmitrijs2005/pmcloud/internal/server/models"
	"github.com/google/uuid"
)

// MaxCASAttempts bounds the read-modify-write loop on an account object.
const MaxCASAttempts = 5

var errCASExhausted = errors.New("compare-and-swap retries exhausted")

// AccountRepository implements accounts.Repository on S3.
type AccountRepository struct {
	store *Store
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	var rec accountRecord
	if _, err := r.store.getJSON(ctx, r.store.accountKey(id), &rec); err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func (r *AccountRepository) FindByName(ctx context.Context, name string) (*models.Account, error) {
	var idx nameRecord
	if _, err := r.store.getJSON(ctx, r.store.nameKey(name), &idx); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, idx.AccountID)
}

// Create writes the profile first and then claims the name with
// If-None-Match. A lost claim removes the orphaned profile.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	rec := accountRecord{
		ID:             uuid.NewString(),
		Name:           account.Name,
		PasswordDigest: account.PasswordDigest,
		AuthSalt:       account.AuthSalt,
		KDFSalt:        account.KDFSalt,
	}

	if err := r.store.putJSON(ctx, r.store.accountKey(rec.ID), rec, putCondition{ifNoneMatch: true}); err != nil {
		if isPreconditionFailed(err) {
			return nil, fmt.Errorf("account id collision: %w", err)
		}
		return nil, err
	}

	err := r.store.putJSON(ctx, r.store.nameKey(rec.Name), nameRecord{AccountID: rec.ID}, putCondition{ifNoneMatch: true})
	if err != nil {
		if derr := r.store.delete(ctx, r.store.accountKey(rec.ID)); derr != nil {
			err = errors.Join(err, derr)
		}
		if isPreconditionFailed(err) {
			return nil, common.ErrorConflict
		}
		return nil, err
	}

	return rec.toModel(), nil
}

func (r *AccountRepository) CompareAndIncrementSessions(ctx context.Context, id string, expected int64) (*models.Account, error) {
	return r.mutate(ctx, id, func(rec *accountRecord) (bool, error) {
		if rec.OpenSessions != expected {
			return false, &common.SessionConflictError{AccountID: id, Current: rec.OpenSessions}
		}
		rec.OpenSessions++
		return true, nil
	})
}

func (r *AccountRepository) DecrementSessions(ctx context.Context, id string) (*models.Account, error) {
	return r.mutate(ctx, id, func(rec *accountRecord) (bool, error) {
		if rec.OpenSessions == 0 {
			return false, nil
		}
		rec.OpenSessions--
		return true, nil
	})
}

// mutate applies fn to the current account object and writes it back only
// if the object is unchanged since it was read. fn reports whether a write
// is needed at all.
func (r *AccountRepository) mutate(ctx context.Context, id string, fn func(*accountRecord) (bool, error)) (*models.Account, error) {
	key := r.store.accountKey(id)

	for attempt := 0; attempt < MaxCASAttempts; attempt++ {
		var rec accountRecord
		etag, err := r.store.getJSON(ctx, key, &rec)
		if err != nil {
			return nil, err
		}

		write, err := fn(&rec)
		if err != nil {
			return nil, err
		}
		if !write {
			return rec.toModel(), nil
		}

		err = r.store.putJSON(ctx, key, rec, putCondition{ifMatch: etag})
		if err == nil {
			return rec.toModel(), nil
		}
		if !isPreconditionFailed(err) {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("account %s: %w", id, errCASExhausted)
}

func (rec accountRecord) toModel() *models.Account {
	return &models.Account{
		ID:             rec.ID,
		Name:           rec.Name,
		PasswordDigest: rec.PasswordDigest,
		AuthSalt:       rec.AuthSalt,
		KDFSalt:        rec.KDFSalt,
		OpenSessions:   rec.OpenSessions,
	}
}
