package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/dmitrijs2005/pmcloud/internal/dbx"
	"github.com/dmitrijs2005/pmcloud/internal/server/models"
	"github.com/google/uuid"
)

// SQLRepository serves both the postgres and the sqlite backends. Queries
// use $N placeholders in ascending order so both drivers bind them alike.
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

const accountColumns = `id, account_name, password_digest, auth_salt, kdf_salt, open_sessions`

func scanAccount(row *sql.Row) (*models.Account, error) {
	a := &models.Account{}
	err := row.Scan(&a.ID, &a.Name, &a.PasswordDigest, &a.AuthSalt, &a.KDFSalt, &a.OpenSessions)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *SQLRepository) FindByName(ctx context.Context, name string) (*models.Account, error) {
	query :=
		`SELECT ` + accountColumns + ` FROM accounts
		 WHERE account_name = $1`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *SQLRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	query :=
		`SELECT ` + accountColumns + ` FROM accounts
		 WHERE id = $1`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

// Create inserts a new account with zero open sessions. The unique index on
// account_name turns a duplicate into an empty RETURNING set.
func (r *SQLRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (id, account_name, password_digest, auth_salt, kdf_salt, open_sessions)
		 VALUES ($1, $2, $3, $4, $5, 0)
		 ON CONFLICT (account_name) DO NOTHING
		 RETURNING id`

	var id string
	err := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), account.Name, account.PasswordDigest, account.AuthSalt, account.KDFSalt).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	created := *account
	created.ID = id
	created.OpenSessions = 0
	return &created, nil
}

func (r *SQLRepository) CompareAndIncrementSessions(ctx context.Context, id string, expected int64) (*models.Account, error) {
	query :=
		`UPDATE accounts SET open_sessions = open_sessions + 1
		 WHERE id = $1 AND open_sessions = $2
		 RETURNING ` + accountColumns

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id, expected))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("db error: %w", err)
	}

	// Either the account is gone or the counter moved; tell them apart.
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, &common.SessionConflictError{AccountID: id, Current: current.OpenSessions}
}

func (r *SQLRepository) DecrementSessions(ctx context.Context, id string) (*models.Account, error) {
	query :=
		`UPDATE accounts SET open_sessions = open_sessions - 1
		 WHERE id = $1 AND open_sessions > 0
		 RETURNING ` + accountColumns

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("db error: %w", err)
	}

	// Already at zero, or absent.
	return r.FindByID(ctx, id)
}
