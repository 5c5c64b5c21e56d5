// Package repomanager builds the account directory and credential store for
// the configured backend and runs its schema migrations.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pmcloud/internal/server/config"
	"github.com/dmitrijs2005/pmcloud/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/pmcloud/internal/server/repositories/credentials"
)

// RepositoryManager vends the repositories of one backend.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Accounts() accounts.Repository
	Credentials() credentials.Repository
	Close() error
}

// New opens the backend named by cfg.StoreBackend.
func New(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		m, err := NewPostgresRepositoryManager(cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.BackendSQLite:
		m, err := NewSQLiteRepositoryManager(cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.BackendDynamoDB:
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewDynamoRepositoryManager(awsCfg, cfg.AWSEndpoint, cfg.DynamoTable)
	case config.BackendS3:
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewS3RepositoryManager(awsCfg, cfg.AWSEndpoint, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
