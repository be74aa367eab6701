package main

import (
	"fmt"

	"github.com/Freeeeeet/tutorpay/internal/app"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|status]",
	Short:     "Apply or inspect database migrations",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		migrator, err := app.NewMigrator(rt.pool, rt.logger)
		if err != nil {
			return err
		}
		defer migrator.Close()

		if len(args) == 1 && args[0] == "status" {
			version, err := migrator.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database version: %d\n", version)
			return nil
		}

		return migrator.Run(ctx)
	},
}
