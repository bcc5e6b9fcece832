package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/jmcleod/confidant/vault"
	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether each vault is locked or unlocked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.vault.List()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Fprintf(a.stdout, "No vaults in %s\n", a.vault.Root())
				return nil
			}
			for _, id := range ids {
				state, err := a.vault.Status(id)
				if err != nil {
					return err
				}
				c := color.New(color.FgGreen)
				if state == vault.StateUnlocked {
					c = color.New(color.FgYellow)
				}
				fmt.Fprintf(a.stdout, "%-24s ", id)
				c.Fprintln(a.stdout, state)
			}
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the vaults in the working directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.vault.List()
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(a.stdout, id)
			}
			return nil
		},
	}
}
