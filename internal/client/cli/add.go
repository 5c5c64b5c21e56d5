package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pmcloud/internal/client/models"
	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/spf13/cobra"
)

func (a *App) addCommand() *cobra.Command {
	var (
		user string
		cred models.Credential
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a new credential in the vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.add(cmd.Context(), user, cred)
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "account name")
	cmd.Flags().StringVar(&cred.Website, "website", "", "website the credential is for")
	cmd.Flags().StringVar(&cred.Account, "login", "", "login on that website")
	return cmd
}

func (a *App) add(ctx context.Context, user string, cred models.Credential) error {
	name, pw, err := a.credentials(user)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	if cred.Website == "" {
		if cred.Website, err = GetSimpleText(a.reader, "Website", a.out); err != nil {
			return err
		}
	}
	if cred.Account == "" {
		if cred.Account, err = GetSimpleText(a.reader, "Login", a.out); err != nil {
			return err
		}
	}
	secret, err := GetPassword("Password to store", a.out)
	if err != nil {
		return err
	}
	cred.Password = string(secret)
	common.WipeByteArray(secret)

	return a.withVault(ctx, func(v Vault) error {
		added, err := v.Add(ctx, name, pw, cred)
		if added != nil {
			fmt.Fprintf(a.out, "Stored %s for %s (%s)\n", added.Account, added.Website, added.ID)
		}
		if err != nil && added != nil {
			fmt.Fprintln(a.out, "The session could not be released; run `pmcloud release` when the server is back")
		}
		return err
	})
}
