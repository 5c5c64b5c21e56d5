package repomanager

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/dmitrijs2005/pmcloud/internal/server/config"
	acc "github.com/dmitrijs2005/pmcloud/internal/server/repositories/accounts"
	cred "github.com/dmitrijs2005/pmcloud/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/pmcloud/internal/server/repositories/dynamo"
	"github.com/dmitrijs2005/pmcloud/internal/server/repositories/objectstore"
)

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// LoadAWSConfig resolves region and credentials for the cloud backends.
// Static keys win over the default provider chain when both are set.
func LoadAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKey != "" && cfg.AWSSecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKey, cfg.AWSSecretKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("aws config: %w", err)
	}
	return awsCfg, nil
}

// cloudRepositoryManager serves backends whose schema lives outside the
// process: there is nothing to migrate and nothing to close.
type cloudRepositoryManager struct {
	accounts    acc.Repository
	credentials cred.Repository
}

func (m *cloudRepositoryManager) RunMigrations(context.Context) error { return nil }
func (m *cloudRepositoryManager) Accounts() acc.Repository            { return m.accounts }
func (m *cloudRepositoryManager) Credentials() cred.Repository        { return m.credentials }
func (m *cloudRepositoryManager) Close() error                        { return nil }

// NewDynamoRepositoryManager keeps everything in one DynamoDB table.
func NewDynamoRepositoryManager(awsCfg aws.Config, endpoint, table string) (RepositoryManager, error) {
	return newDynamoRepositoryManager(dynamo.NewClient(awsCfg, endpoint), table)
}

func newDynamoRepositoryManager(api dynamo.API, table string) (RepositoryManager, error) {
	store, err := dynamo.NewStore(api, table)
	if err != nil {
		return nil, err
	}
	return &cloudRepositoryManager{accounts: store.Accounts(), credentials: store.Credentials()}, nil
}

// NewS3RepositoryManager keeps everything as objects under prefix in bucket.
func NewS3RepositoryManager(awsCfg aws.Config, endpoint, bucket, prefix string) (RepositoryManager, error) {
	return newS3RepositoryManager(objectstore.NewClient(awsCfg, endpoint), bucket, prefix)
}

func newS3RepositoryManager(api objectstore.API, bucket, prefix string) (RepositoryManager, error) {
	store, err := objectstore.NewStore(api, bucket, prefix)
	if err != nil {
		return nil, err
	}
	return &cloudRepositoryManager{accounts: store.Accounts(), credentials: store.Credentials()}, nil
}
