package dynamo

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dmitrijs2005/pmcloud/internal/server/models"
)

const (
	profileSK   = "PROFILE"
	nameIndexSK = "ACCOUNT"
	ownerSK     = "OWNER"
)

func accountPK(id string) string    { return "ACCOUNT#" + id }
func namePK(name string) string     { return "NAME#" + name }
func vaultPK(account string) string { return "VAULT#" + account }
func entrySK(id string) string      { return "ENTRY#" + id }
func entryOwnerPK(id string) string { return "ENTRYOWNER#" + id }

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

type dynamoAccount struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	ID             string `dynamodbav:"ID"`
	Name           string `dynamodbav:"Name"`
	PasswordDigest []byte `dynamodbav:"PasswordDigest"`
	AuthSalt       []byte `dynamodbav:"AuthSalt"`
	KDFSalt        []byte `dynamodbav:"KDFSalt"`
	OpenSessions   int64  `dynamodbav:"OpenSessions"`
}

// nameIndex makes account_name unique and maps it to the account id.
type nameIndex struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	AccountID string `dynamodbav:"AccountID"`
}

type dynamoEntry struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	ID             string `dynamodbav:"ID"`
	OwnerAccountID string `dynamodbav:"OwnerAccountID"`
	AccountLabel   []byte `dynamodbav:"AccountLabel"`
	Secret         []byte `dynamodbav:"Secret"`
	Site           []byte `dynamodbav:"Site"`
}

// entryOwner claims an entry id for one account; entries themselves are
// partitioned by owner and could not detect a foreign id on their own.
type entryOwner struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	OwnerAccountID string `dynamodbav:"OwnerAccountID"`
}

func accountToDynamo(a *models.Account) dynamoAccount {
	return dynamoAccount{
		PK:             accountPK(a.ID),
		SK:             profileSK,
		ID:             a.ID,
		Name:           a.Name,
		PasswordDigest: a.PasswordDigest,
		AuthSalt:       a.AuthSalt,
		KDFSalt:        a.KDFSalt,
		OpenSessions:   a.OpenSessions,
	}
}

func accountFromDynamo(d dynamoAccount) *models.Account {
	return &models.Account{
		ID:             d.ID,
		Name:           d.Name,
		PasswordDigest: d.PasswordDigest,
		AuthSalt:       d.AuthSalt,
		KDFSalt:        d.KDFSalt,
		OpenSessions:   d.OpenSessions,
	}
}

func entryToDynamo(e *models.CredentialEntry) dynamoEntry {
	return dynamoEntry{
		PK:             vaultPK(e.OwnerAccountID),
		SK:             entrySK(e.ID),
		ID:             e.ID,
		OwnerAccountID: e.OwnerAccountID,
		AccountLabel:   e.AccountLabel,
		Secret:         e.Secret,
		Site:           e.Site,
	}
}

func entryFromDynamo(d dynamoEntry) *models.CredentialEntry {
	return &models.CredentialEntry{
		ID:             d.ID,
		OwnerAccountID: d.OwnerAccountID,
		AccountLabel:   d.AccountLabel,
		Secret:         d.Secret,
		Site:           d.Site,
	}
}
