package main

import (
	"github.com/spf13/cobra"

	"github.com/amirk1998/notes-web/internal/database"
	"github.com/amirk1998/notes-web/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		logging.Pkg("cmd").Info("schema up to date", "dialect", db.Dialect)
		return nil
	},
}
