package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pmcloud/internal/client/client"
	"github.com/dmitrijs2005/pmcloud/internal/client/config"
	"github.com/dmitrijs2005/pmcloud/internal/client/services"
	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	server     string
	stateDir   string
	timeout    time.Duration
	verbose    bool
}

// NewRootCommand builds the pmcloud command tree around a.
func NewRootCommand(a *App) *cobra.Command {
	var f rootFlags

	root := &cobra.Command{
		Use:           "pmcloud",
		Short:         "pmcloud - a cloud-synced password vault",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(f.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("server") {
				cfg.ServerEndpointAddr = f.server
			}
			if cmd.Flags().Changed("state-dir") {
				cfg.StateDir = f.stateDir
			}
			if cmd.Flags().Changed("timeout") {
				cfg.RequestTimeout = f.timeout
			}
			if f.verbose {
				cfg.LogLevel = "debug"
			}
			a.config = cfg
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "JSON config file [env: "+config.EnvConfigFile+"]")
	pf.StringVarP(&f.server, "server", "a", "", "vault server address (default 127.0.0.1:50051)")
	pf.StringVarP(&f.stateDir, "state-dir", "d", "", "directory for local state (default ~/.pmcloud)")
	pf.DurationVar(&f.timeout, "timeout", 0, "per-request timeout (default 15s)")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		a.registerCommand(),
		a.listCommand(),
		a.addCommand(),
		a.releaseCommand(),
		a.statusCommand(),
	)
	return root
}

// Execute runs the command tree and turns the error into a user message.
func Execute(ctx context.Context, a *App, args []string) error {
	root := NewRootCommand(a)
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetErr(a.out)
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", describe(err))
	}
	return err
}

// describe explains the errors a user can act on.
func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrorBusy):
		return "the vault is open in another session; wait for it to finish or run `pmcloud release` there"
	case errors.Is(err, common.ErrMultipleActiveSessions):
		return "more than one session holds the vault; release them and retry"
	case errors.Is(err, common.ErrNoActiveSession):
		return "the session was already released; pull again"
	case errors.Is(err, common.ErrorUnauthorized):
		return "wrong account name or password"
	case errors.Is(err, common.ErrorNotFound):
		return "no such account"
	case errors.Is(err, common.ErrorConflict):
		return "already exists"
	case errors.Is(err, common.ErrRateLimited):
		return "too many attempts, try again later"
	case errors.Is(err, services.ErrNoLocalSession):
		return "this client holds no session"
	case errors.Is(err, client.ErrUnavailable), errors.Is(err, common.ErrorBackendUnavailable):
		return "server unavailable: " + err.Error()
	}
	return err.Error()
}
