package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iota-uz/people-sdk/pkg/application"
	"github.com/iota-uz/people-sdk/pkg/configuration"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := application.NewMigrationManager(pool, configuration.Use().MigrationsDir).Run(); err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := application.NewMigrationManager(pool, configuration.Use().MigrationsDir).Rollback(); err != nil {
				return err
			}
			fmt.Println("migrations rolled back")
			return nil
		},
	})

	return cmd
}
