package cmd

import (
	"github.com/jmcleod/confidant/vault"
	"github.com/spf13/cobra"
)

func newEncryptCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:     "encrypt",
		Aliases: []string{"lock"},
		Short:   "Seal an unlocked vault's directory again",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.selectVault(name, vault.StateUnlocked)
			if err != nil {
				return err
			}
			if err := a.vault.Lock(cmd.Context(), id); err != nil {
				return err
			}
			success(a.stdout, "Locked %s", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "vault", "", "vault name (default: the only unlocked vault)")
	return cmd
}
