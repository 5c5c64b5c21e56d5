package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/dmitrijs2005/pmcloud/internal/server/models"
	"github.com/google/uuid"
)

// CredentialRepository implements credentials.Repository on DynamoDB.
type CredentialRepository struct {
	store *Store
}

func (r *CredentialRepository) FindByOwner(ctx context.Context, accountID string) ([]*models.CredentialEntry, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.store.table),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: vaultPK(accountID)},
		},
		ConsistentRead: aws.Bool(true),
	}

	result := make([]*models.CredentialEntry, 0)
	paginator := dynamodb.NewQueryPaginator(r.store.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query failed: %w", err)
		}

		var items []dynamoEntry
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal page items: %w", err)
		}
		for _, item := range items {
			result = append(result, entryFromDynamo(item))
		}
	}

	return result, nil
}

// Upsert claims the entry id for its owner and writes the entry in one
// transaction. A claim held by another account cancels the write.
func (r *CredentialRepository) Upsert(ctx context.Context, entry *models.CredentialEntry) (string, error) {
	e := *entry
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	item, err := attributevalue.MarshalMap(entryToDynamo(&e))
	if err != nil {
		return "", fmt.Errorf("marshal error: %w", err)
	}
	claim, err := attributevalue.MarshalMap(entryOwner{PK: entryOwnerPK(e.ID), SK: ownerSK, OwnerAccountID: e.OwnerAccountID})
	if err != nil {
		return "", fmt.Errorf("marshal error: %w", err)
	}

	_, err = r.store.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.store.table),
				Item:                claim,
				ConditionExpression: aws.String("attribute_not_exists(PK) OR OwnerAccountID = :owner"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":owner": &types.AttributeValueMemberS{Value: e.OwnerAccountID},
				},
			}},
			{Put: &types.Put{
				TableName: aws.String(r.store.table),
				Item:      item,
			}},
		},
	})
	if err != nil {
		if conditionFailed(err) {
			return "", common.ErrorConflict
		}
		return "", fmt.Errorf("TransactWriteItems failed: %w", err)
	}

	return e.ID, nil
}
