package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/dmitrijs2005/pmcloud/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCredentials(t *testing.T) (*CredentialRepository, *mockAPI) {
	t.Helper()
	api := &mockAPI{}
	s, err := NewStore(api, "vault")
	require.NoError(t, err)
	t.Cleanup(func() { api.AssertExpectations(t) })
	return s.Credentials(), api
}

func TestFindByOwner_Paginates(t *testing.T) {
	repo, api := newCredentials(t)

	page := func(id string) []map[string]types.AttributeValue {
		item, err := attributevalue.MarshalMap(entryToDynamo(&models.CredentialEntry{
			ID: id, OwnerAccountID: "a-1", AccountLabel: []byte("l"), Secret: []byte("s"), Site: []byte("w"),
		}))
		require.NoError(t, err)
		return []map[string]types.AttributeValue{item}
	}
	next := map[string]types.AttributeValue{"PK": &types.AttributeValueMemberS{Value: "VAULT#a-1"}, "SK": &types.AttributeValueMemberS{Value: "ENTRY#e1"}}

	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey == nil
	})).Return(&dynamodb.QueryOutput{Items: page("e1"), LastEvaluatedKey: next}, nil).Once()
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey != nil
	})).Return(&dynamodb.QueryOutput{Items: page("e2")}, nil).Once()

	got, err := repo.FindByOwner(context.Background(), "a-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, "e2", got[1].ID)
	assert.Equal(t, []byte("s"), got[1].Secret)
}

func TestFindByOwner_Empty(t *testing.T) {
	repo, api := newCredentials(t)
	api.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{}, nil).Once()

	got, err := repo.FindByOwner(context.Background(), "a-1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFindByOwner_Error(t *testing.T) {
	repo, api := newCredentials(t)
	api.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()

	_, err := repo.FindByOwner(context.Background(), "a-1")
	assert.ErrorContains(t, err, "boom")
}

func TestUpsert(t *testing.T) {
	e := &models.CredentialEntry{OwnerAccountID: "a-1", AccountLabel: []byte("l"), Secret: []byte("s"), Site: []byte("w")}

	t.Run("allocates id and claims it", func(t *testing.T) {
		repo, api := newCredentials(t)
		api.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			return len(in.TransactItems) == 2 &&
				aws.ToString(in.TransactItems[0].Put.ConditionExpression) == "attribute_not_exists(PK) OR OwnerAccountID = :owner" &&
				pkOf(in.TransactItems[1].Put.Item) == "VAULT#a-1"
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		id, err := repo.Upsert(context.Background(), e)
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		assert.Empty(t, e.ID)
	})

	t.Run("keeps given id", func(t *testing.T) {
		repo, api := newCredentials(t)
		api.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			return pkOf(in.TransactItems[0].Put.Item) == "ENTRYOWNER#e1"
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		withID := *e
		withID.ID = "e1"
		id, err := repo.Upsert(context.Background(), &withID)
		require.NoError(t, err)
		assert.Equal(t, "e1", id)
	})

	t.Run("id owned by another account", func(t *testing.T) {
		repo, api := newCredentials(t)
		api.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, &types.TransactionCanceledException{
			CancellationReasons: []types.CancellationReason{{Code: aws.String("ConditionalCheckFailed")}, {Code: aws.String("None")}},
		}).Once()

		withID := *e
		withID.ID = "e1"
		_, err := repo.Upsert(context.Background(), &withID)
		assert.ErrorIs(t, err, common.ErrorConflict)
	})
}
