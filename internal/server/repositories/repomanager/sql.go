package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/pmcloud/internal/server/migrations"
	"github.com/dmitrijs2005/pmcloud/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/pmcloud/internal/server/repositories/credentials"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager serves the postgres and sqlite backends over one
// *sql.DB.
type SQLRepositoryManager struct {
	db            *sql.DB
	dialect       string
	migrationsDir string
	accounts      *accounts.SQLRepository
	credentials   *credentials.SQLRepository
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// NewPostgresRepositoryManager opens dsn with the pgx driver.
func NewPostgresRepositoryManager(dsn string) (*SQLRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return newSQLRepositoryManager(db, "postgres", migrations.PostgresDir), nil
}

// NewSQLiteRepositoryManager opens dsn with the modernc sqlite driver.
// SQLite allows one writer at a time, so the pool is capped at a single
// connection and callers queue in database/sql instead of failing busy.
func NewSQLiteRepositoryManager(dsn string) (*SQLRepositoryManager, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(1)
	return newSQLRepositoryManager(db, "sqlite3", migrations.SQLiteDir), nil
}

// NewSQLRepositoryManagerFromDB wraps an already opened database.
func NewSQLRepositoryManagerFromDB(db *sql.DB, dialect string) (*SQLRepositoryManager, error) {
	switch dialect {
	case "postgres":
		return newSQLRepositoryManager(db, dialect, migrations.PostgresDir), nil
	case "sqlite3":
		return newSQLRepositoryManager(db, dialect, migrations.SQLiteDir), nil
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
}

func newSQLRepositoryManager(db *sql.DB, dialect, dir string) *SQLRepositoryManager {
	return &SQLRepositoryManager{
		db:            db,
		dialect:       dialect,
		migrationsDir: dir,
		accounts:      accounts.NewSQLRepository(db),
		credentials:   credentials.NewSQLRepository(db),
	}
}

// RunMigrations applies the embedded migrations for the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, m.db, m.migrationsDir); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (m *SQLRepositoryManager) Accounts() accounts.Repository {
	return m.accounts
}

func (m *SQLRepositoryManager) Credentials() credentials.Repository {
	return m.credentials
}

func (m *SQLRepositoryManager) Close() error {
	return m.db.Close()
}
