package cmd

import (
	"fmt"

	"github.com/jmcleod/confidant/crypto"
	"github.com/jmcleod/confidant/internal/util"
	"github.com/spf13/cobra"
)

const canaryLength = 32

func newAppKeyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "appkey",
		Short: "Generate application secrets for confidant.yaml",
		Long: `Print a fresh application key and canary phrase. Every vault is bound to
the secrets it was created with; keep them stable and backed up.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{noVault: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := crypto.NewAppKey()
			if err != nil {
				return err
			}
			defer util.WipeBytes(key)
			canary, err := crypto.GeneratePassword(canaryLength)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "app:")
			fmt.Fprintf(a.stdout, "  key: %s\n", util.Base64Encode(key))
			fmt.Fprintf(a.stdout, "  canary: %s\n", canary)
			return nil
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{noVault: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			printBanner(a.stdout)
		},
	}
}
