package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "peoplectl",
		Short: "Administration tools for the people directory and policy engine",
	}
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newAuthorizeCmd())
	cmd.AddCommand(newManagersCmd())
	cmd.AddCommand(newReportsCmd())
	return cmd
}
