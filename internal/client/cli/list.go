package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/spf13/cobra"
)

func (a *App) listCommand() *cobra.Command {
	var (
		user string
		show bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the entries in the vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.list(cmd.Context(), user, show)
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "account name")
	cmd.Flags().BoolVar(&show, "show-passwords", false, "print passwords in the clear")
	return cmd
}

func (a *App) list(ctx context.Context, user string, show bool) error {
	name, pw, err := a.credentials(user)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	return a.withVault(ctx, func(v Vault) error {
		entries, err := v.List(ctx, name, pw)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(a.out, "The vault is empty")
			return nil
		}

		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tWEBSITE\tACCOUNT\tPASSWORD")
		for _, e := range entries {
			password := "********"
			if show {
				password = e.Password
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Website, e.Account, password)
		}
		return tw.Flush()
	})
}
