package objectstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/dmitrijs2005/pmcloud/internal/server/models"
	"github.com/google/uuid"
)

// CredentialRepository implements credentials.Repository on S3.
type CredentialRepository struct {
	store *Store
}

func (r *CredentialRepository) FindByOwner(ctx context.Context, accountID string) ([]*models.CredentialEntry, error) {
	prefix := r.store.vaultPrefix(accountID)
	paginator := s3.NewListObjectsV2Paginator(r.store.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.store.bucket),
		Prefix: aws.String(prefix),
	})

	result := make([]*models.CredentialEntry, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list %s: %w", prefix, err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}
			var rec entryRecord
			if _, err := r.store.getJSON(ctx, key, &rec); err != nil {
				// deleted between list and get
				if errors.Is(err, common.ErrorNotFound) {
					continue
				}
				return nil, err
			}
			result = append(result, &models.CredentialEntry{
				ID:             rec.ID,
				OwnerAccountID: rec.OwnerAccountID,
				AccountLabel:   rec.AccountLabel,
				Secret:         rec.Secret,
				Site:           rec.Site,
			})
		}
	}

	return result, nil
}

// Upsert claims the entry id before writing the entry so an id held by
// another account is never overwritten.
func (r *CredentialRepository) Upsert(ctx context.Context, entry *models.CredentialEntry) (string, error) {
	id := entry.ID
	if id == "" {
		id = uuid.NewString()
	}

	if err := r.claim(ctx, id, entry.OwnerAccountID); err != nil {
		return "", err
	}

	rec := entryRecord{
		ID:             id,
		OwnerAccountID: entry.OwnerAccountID,
		AccountLabel:   entry.AccountLabel,
		Secret:         entry.Secret,
		Site:           entry.Site,
	}
	if err := r.store.putJSON(ctx, r.store.entryKey(entry.OwnerAccountID, id), rec, putCondition{}); err != nil {
		return "", err
	}
	return id, nil
}

func (r *CredentialRepository) claim(ctx context.Context, entryID, owner string) error {
	key := r.store.entryOwnerKey(entryID)

	err := r.store.putJSON(ctx, key, ownerRecord{OwnerAccountID: owner}, putCondition{ifNoneMatch: true})
	if err == nil {
		return nil
	}
	if !isPreconditionFailed(err) {
		return err
	}

	var existing ownerRecord
	if _, err := r.store.getJSON(ctx, key, &existing); err != nil {
		return err
	}
	if existing.OwnerAccountID != owner {
		return common.ErrorConflict
	}
	return nil
}
