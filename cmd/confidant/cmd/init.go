package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jmcleod/confidant/crypto"
	"github.com/jmcleod/confidant/internal/prompt"
	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Seal a directory into a new vault",
		Long: `Compress and encrypt a directory of the working directory into <dir>.vault
and <dir>.key, then remove the plaintext. The recovery phrase is shown once.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner(a.stdout)

			var dir string
			if len(args) == 1 {
				dir = args[0]
			} else {
				candidates, err := a.candidateDirs()
				if err != nil {
					return err
				}
				if len(candidates) == 0 {
					return fmt.Errorf("no directory to protect in %s", a.vault.Root())
				}
				fmt.Fprintf(a.stdout, "Directories: %s\n", strings.Join(candidates, ", "))
				dir, err = a.prompter.Line("Directory to protect", candidates[0])
				if err != nil {
					return err
				}
			}

			password, err := prompt.NewPassword(a.prompter, "Password")
			if err != nil {
				return err
			}
			if crypto.PasswordStrength(password) < crypto.StrengthStrong {
				warn(a.stdout, "this password is easy to guess")
			}

			phrase, err := a.vault.Initialize(cmd.Context(), password, dir)
			if err != nil {
				return err
			}
			id := filepath.Base(filepath.Clean(dir))
			success(a.stdout, "Vault %s created", id)
			showRecoveryPhrase(a.stdout, phrase, id+"_recovery.txt")
			return nil
		},
	}
}
