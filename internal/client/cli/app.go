package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/pmcloud/internal/api"
	"github.com/dmitrijs2005/pmcloud/internal/client/client"
	"github.com/dmitrijs2005/pmcloud/internal/client/config"
	"github.com/dmitrijs2005/pmcloud/internal/client/models"
	"github.com/dmitrijs2005/pmcloud/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/pmcloud/internal/client/services"
	"github.com/dmitrijs2005/pmcloud/internal/client/state"
	"github.com/dmitrijs2005/pmcloud/internal/filex"
	"github.com/dmitrijs2005/pmcloud/internal/logging"
)

// StateFile is the local database inside the state directory.
const StateFile = "state.db"

// Vault is what the commands need from services.VaultService.
type Vault interface {
	Register(ctx context.Context, name string, password []byte) (string, error)
	List(ctx context.Context, name string, password []byte) ([]*models.Credential, error)
	Add(ctx context.Context, name string, password []byte, cred models.Credential) (*models.Credential, error)
	Release(ctx context.Context) (int64, error)
	Status(ctx context.Context) (*state.Session, *api.SessionStatusResponse, error)
	ReleaseAccount(ctx context.Context, name string, password []byte) (string, int64, error)
	AccountStatus(ctx context.Context, name string, password []byte) (*api.AccountStatusResponse, error)
	Close() error
}

// VaultOpener builds a Vault for cfg. The CLI calls it once per command.
type VaultOpener func(ctx context.Context, cfg *config.Config) (Vault, error)

type App struct {
	config    *config.Config
	openVault VaultOpener
	reader    *bufio.Reader
	out       io.Writer
}

func NewApp(in io.Reader, out io.Writer, open VaultOpener) *App {
	if open == nil {
		open = OpenVault
	}
	return &App{openVault: open, reader: bufio.NewReader(in), out: out}
}

// vaultHandle closes the local database together with the connection.
type vaultHandle struct {
	*services.VaultService
	db *sql.DB
}

func (v *vaultHandle) Close() error {
	return errors.Join(v.VaultService.Close(), v.db.Close())
}

// OpenVault connects to the configured server and opens the local state
// database, creating the state directory if needed.
func OpenVault(ctx context.Context, cfg *config.Config) (Vault, error) {
	dir, err := filex.EnsureDir(cfg.StateDir)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, filepath.Join(dir, StateFile))
	if err != nil {
		return nil, err
	}

	c, err := client.NewVaultClient(cfg.ServerEndpointAddr, cfg.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)
	st := state.NewStore(metadata.NewSQLiteRepository(db))
	return &vaultHandle{VaultService: services.NewVaultService(c, st, logger), db: db}, nil
}

// withVault runs fn against a freshly opened Vault and closes it afterwards.
func (a *App) withVault(ctx context.Context, fn func(v Vault) error) error {
	v, err := a.openVault(ctx, a.config)
	if err != nil {
		return err
	}
	defer v.Close()
	return fn(v)
}
