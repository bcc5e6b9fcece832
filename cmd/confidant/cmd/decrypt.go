package cmd

import (
	"fmt"

	"github.com/jmcleod/confidant/internal/prompt"
	"github.com/jmcleod/confidant/vault"
	"github.com/spf13/cobra"
)

func newDecryptCmd(a *app) *cobra.Command {
	var (
		name string
		live bool
	)
	cmd := &cobra.Command{
		Use:     "decrypt",
		Aliases: []string{"unlock"},
		Short:   "Restore a vault's directory",
		Long: `Decrypt a vault and extract its directory. With --live the directory is
locked again as soon as ENTER is pressed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.selectVault(name, vault.StateLocked)
			if err != nil {
				return err
			}
			password, err := prompt.Password(a.prompter, "Password")
			if err != nil {
				return err
			}
			if err := a.vault.Unlock(cmd.Context(), password, id); err != nil {
				return err
			}
			success(a.stdout, "Unlocked %s to %s", id, a.vault.PayloadDir(id))

			if !live {
				return nil
			}
			if _, err := a.prompter.Line("Press ENTER to lock the vault again", ""); err != nil {
				return fmt.Errorf("waiting for ENTER: %w; the vault is still unlocked", err)
			}
			if err := a.vault.Lock(cmd.Context(), id); err != nil {
				return err
			}
			success(a.stdout, "Locked %s", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "vault", "", "vault name (default: the only locked vault)")
	cmd.Flags().BoolVar(&live, "live", false, "lock again when ENTER is pressed")
	return cmd
}
