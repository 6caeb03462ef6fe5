package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amirk1998/notes-web/internal/backup"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the SQLite store and prune old snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		mgr, err := backup.NewManager(db, cfg.BackupDir, cfg.BackupRetentionDays)
		if err != nil {
			return err
		}

		path, err := mgr.CreateBackup(ctx)
		if err != nil {
			return err
		}
		if err := mgr.VerifyBackup(path); err != nil {
			return fmt.Errorf("backup verification failed: %w", err)
		}
		if _, err := mgr.CleanOldBackups(); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}
