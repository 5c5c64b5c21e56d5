package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/dmitrijs2005/pmcloud/internal/server/models"
	"github.com/google/uuid"
)

// AccountRepository implements accounts.Repository on DynamoDB.
type AccountRepository struct {
	store *Store
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	resp, err := r.store.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.store.table),
		Key:            key(accountPK(id), profileSK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem failed: %w", err)
	}
	if len(resp.Item) == 0 {
		return nil, common.ErrorNotFound
	}

	var d dynamoAccount
	if err := attributevalue.UnmarshalMap(resp.Item, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return accountFromDynamo(d), nil
}

func (r *AccountRepository) FindByName(ctx context.Context, name string) (*models.Account, error) {
	resp, err := r.store.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.store.table),
		Key:            key(namePK(name), nameIndexSK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem failed: %w", err)
	}
	if len(resp.Item) == 0 {
		return nil, common.ErrorNotFound
	}

	var idx nameIndex
	if err := attributevalue.UnmarshalMap(resp.Item, &idx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal name index: %w", err)
	}
	return r.FindByID(ctx, idx.AccountID)
}

// Create writes the profile and the name claim in one transaction; the name
// claim's attribute_not_exists condition makes the name unique.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	created := *account
	created.ID = uuid.NewString()
	created.OpenSessions = 0

	profile, err := attributevalue.MarshalMap(accountToDynamo(&created))
	if err != nil {
		return nil, fmt.Errorf("marshal error: %w", err)
	}
	claim, err := attributevalue.MarshalMap(nameIndex{PK: namePK(created.Name), SK: nameIndexSK, AccountID: created.ID})
	if err != nil {
		return nil, fmt.Errorf("marshal error: %w", err)
	}

	_, err = r.store.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.store.table),
				Item:                claim,
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			}},
			{Put: &types.Put{
				TableName:           aws.String(r.store.table),
				Item:                profile,
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			}},
		},
	})
	if err != nil {
		if conditionFailed(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("TransactWriteItems failed: %w", err)
	}

	return &created, nil
}

func (r *AccountRepository) CompareAndIncrementSessions(ctx context.Context, id string, expected int64) (*models.Account, error) {
	out, err := r.store.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.store.table),
		Key:                 key(accountPK(id), profileSK),
		UpdateExpression:    aws.String("SET OpenSessions = OpenSessions + :one"),
		ConditionExpression: aws.String("attribute_exists(PK) AND OpenSessions = :expected"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":      &types.AttributeValueMemberN{Value: "1"},
			":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(expected, 10)},
		},
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if !errors.As(err, &cce) {
			return nil, fmt.Errorf("UpdateItem failed: %w", err)
		}
		if len(cce.Item) == 0 {
			return nil, common.ErrorNotFound
		}
		var old dynamoAccount
		if err := attributevalue.UnmarshalMap(cce.Item, &old); err != nil {
			return nil, fmt.Errorf("failed to unmarshal account: %w", err)
		}
		return nil, &common.SessionConflictError{AccountID: id, Current: old.OpenSessions}
	}

	var d dynamoAccount
	if err := attributevalue.UnmarshalMap(out.Attributes, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return accountFromDynamo(d), nil
}

func (r *AccountRepository) DecrementSessions(ctx context.Context, id string) (*models.Account, error) {
	out, err := r.store.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.store.table),
		Key:                 key(accountPK(id), profileSK),
		UpdateExpression:    aws.String("SET OpenSessions = OpenSessions - :one"),
		ConditionExpression: aws.String("attribute_exists(PK) AND OpenSessions > :zero"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":  &types.AttributeValueMemberN{Value: "1"},
			":zero": &types.AttributeValueMemberN{Value: "0"},
		},
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if !errors.As(err, &cce) {
			return nil, fmt.Errorf("UpdateItem failed: %w", err)
		}
		if len(cce.Item) == 0 {
			return nil, common.ErrorNotFound
		}
		// already at zero
		var old dynamoAccount
		if err := attributevalue.UnmarshalMap(cce.Item, &old); err != nil {
			return nil, fmt.Errorf("failed to unmarshal account: %w", err)
		}
		return accountFromDynamo(old), nil
	}

	var d dynamoAccount
	if err := attributevalue.UnmarshalMap(out.Attributes, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return accountFromDynamo(d), nil
}

// conditionFailed reports whether a transactional write was cancelled by a
// failed condition check rather than by throttling or a conflict.
func conditionFailed(err error) bool {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return false
	}
	for _, reason := range tce.CancellationReasons {
		if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}
