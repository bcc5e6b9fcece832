package cmd

import (
	"fmt"

	"github.com/jmcleod/confidant/crypto"
	"github.com/jmcleod/confidant/internal/prompt"
	"github.com/jmcleod/confidant/vault"
	"github.com/spf13/cobra"
)

const suggestedPasswordLength = 20

func newRecoverCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Reset a vault's password with its recovery phrase",
		Long: `Verify the recovery phrase, set a new password and issue a new recovery
phrase. The old password and phrase stop working.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.selectVault(name, vault.StateLocked)
			if err != nil {
				return err
			}
			phrase, err := prompt.Password(a.prompter, "Recovery phrase")
			if err != nil {
				return err
			}
			if err := a.vault.VerifyRecoveryPhrase(phrase, id); err != nil {
				return err
			}

			if suggestion, err := crypto.GeneratePassword(suggestedPasswordLength); err == nil {
				fmt.Fprintf(a.stdout, "Suggested password: %s\n", suggestion)
			}
			password, err := prompt.NewPassword(a.prompter, "New password")
			if err != nil {
				return err
			}
			if crypto.PasswordStrength(password) < crypto.StrengthStrong {
				warn(a.stdout, "this password is easy to guess")
			}

			newPhrase, err := a.vault.Reset(cmd.Context(), phrase, id, password)
			if err != nil {
				return err
			}
			success(a.stdout, "Password for %s reset", id)
			showRecoveryPhrase(a.stdout, newPhrase, id+"_recovery.txt")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "vault", "", "vault name (default: the only locked vault)")
	return cmd
}
