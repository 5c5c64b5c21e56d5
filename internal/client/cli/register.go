package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/spf13/cobra"
)

// credentials asks for whatever of the account name and master password
// was not given on the command line.
func (a *App) credentials(user string) (string, []byte, error) {
	if user == "" {
		var err error
		user, err = GetSimpleText(a.reader, "Account name", a.out)
		if err != nil {
			return "", nil, err
		}
	}
	pw, err := GetPassword("Master password", a.out)
	if err != nil {
		return "", nil, err
	}
	return user, pw, nil
}

func (a *App) registerCommand() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a vault account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.register(cmd.Context(), user)
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "account name")
	return cmd
}

func (a *App) register(ctx context.Context, user string) error {
	name, pw, err := a.credentials(user)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	confirm, err := GetPassword("Repeat master password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)
	if string(pw) != string(confirm) {
		return fmt.Errorf("%w: passwords do not match", common.ErrorValidation)
	}

	return a.withVault(ctx, func(v Vault) error {
		id, err := v.Register(ctx, name, pw)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Registered %s (%s)\n", name, id)
		return nil
	})
}
