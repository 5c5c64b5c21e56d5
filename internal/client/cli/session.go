package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pmcloud/internal/client/services"
	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/spf13/cobra"
)

func (a *App) releaseCommand() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Give back a session left open by an interrupted command",
		Long: "Give back the session this client saved. When none is saved, or --user is\n" +
			"given, the account's password is asked for and one session is released\n" +
			"on the server.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.release(cmd.Context(), user, cmd.Flags().Changed("user"))
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "release by account name and password")
	return cmd
}

func (a *App) release(ctx context.Context, user string, byPassword bool) error {
	return a.withVault(ctx, func(v Vault) error {
		if !byPassword {
			open, err := v.Release(ctx)
			if err == nil {
				fmt.Fprintf(a.out, "Session released, %d still open\n", open)
				return nil
			}
			if !errors.Is(err, services.ErrNoLocalSession) {
				return err
			}
			fmt.Fprintln(a.out, "No session saved here, releasing with the account password.")
		}

		name, pw, err := a.credentials(user)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(pw)

		id, open, err := v.ReleaseAccount(ctx, name, pw)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Session of %s (%s) released, %d still open\n", name, id, open)
		return nil
	})
}

func (a *App) statusCommand() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the server's view of the session this client holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.status(cmd.Context(), user, cmd.Flags().Changed("user"))
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "ask about an account by name and password")
	return cmd
}

func (a *App) status(ctx context.Context, user string, byPassword bool) error {
	return a.withVault(ctx, func(v Vault) error {
		if !byPassword {
			sess, st, err := v.Status(ctx)
			if err == nil {
				fmt.Fprintf(a.out, "Account %s (%s): %s, %d open sessions\n", sess.AccountName, sess.AccountID, st.State, st.OpenSessions)
				return nil
			}
			if !errors.Is(err, services.ErrNoLocalSession) {
				return err
			}
		}

		name, pw, err := a.credentials(user)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(pw)

		st, err := v.AccountStatus(ctx, name, pw)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Account %s (%s): %s, %d open sessions\n", name, st.AccountID, st.State, st.OpenSessions)
		return nil
	})
}
