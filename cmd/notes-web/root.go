package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/amirk1998/notes-web/internal/config"
	"github.com/amirk1998/notes-web/internal/database"
	"github.com/amirk1998/notes-web/internal/logging"
)

var cfg *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notes-web",
	Short: "Personal notes web application",
	Long: `notes-web serves a private notebook per user: every note belongs to
exactly one account and is only visible to it. The store is an encrypted
SQLite file or a PostgreSQL database, picked by DATABASE_URL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		logging.Init(cfg.LogLevel)
		return nil
	},
}

// openStore connects to the configured store.
func openStore(ctx context.Context) (*database.DB, error) {
	return database.Connect(ctx, database.Config{
		URL:           cfg.DatabaseURL,
		EncryptionKey: cfg.DBEncryptionKey,
		MaxOpenConns:  25,
		MaxIdleConns:  5,
		MaxLifetime:   5 * time.Minute,
		MaxIdleTime:   time.Minute,
	})
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, backupCmd, tokenCmd)
}
