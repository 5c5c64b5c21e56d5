package credentials

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/dmitrijs2005/pmcloud/internal/dbx"
	"github.com/dmitrijs2005/pmcloud/internal/server/models"
	"github.com/google/uuid"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) FindByOwner(ctx context.Context, accountID string) ([]*models.CredentialEntry, error) {
	query :=
		`SELECT id, owner_account_id, account_label, secret, site FROM credentials
		 WHERE owner_account_id = $1
		 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.CredentialEntry, 0)
	for rows.Next() {
		e := &models.CredentialEntry{}
		if err := rows.Scan(&e.ID, &e.OwnerAccountID, &e.AccountLabel, &e.Secret, &e.Site); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *SQLRepository) Upsert(ctx context.Context, entry *models.CredentialEntry) (string, error) {
	id := entry.ID
	if id == "" {
		id = uuid.NewString()
	}

	query :=
		`INSERT INTO credentials (id, owner_account_id, account_label, secret, site)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   account_label = EXCLUDED.account_label,
		   secret = EXCLUDED.secret,
		   site = EXCLUDED.site
		 WHERE credentials.owner_account_id = EXCLUDED.owner_account_id`

	res, err := r.db.ExecContext(ctx, query, id, entry.OwnerAccountID, entry.AccountLabel, entry.Secret, entry.Site)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("rows affected error: %w", err)
	}

	switch n {
	case 1:
		return id, nil
	case 0:
		// id exists under another owner
		return "", common.ErrorConflict
	default:
		return "", fmt.Errorf("unexpected rows affected: %d", n)
	}
}
