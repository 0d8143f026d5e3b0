package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Prepare the record store schema and exit",
	Long: `Prepare the configured record store.

For postgres the properties table and its indexes are created when missing.
For mongo the collection indexes are ensured.`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// openRepository runs the migration or index setup as part of connecting.
	_, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("migrate_failed", slog.String("driver", cfg.Database.Driver), slog.String("error_message", err.Error()))
		return err
	}
	defer closeRepo(context.Background())

	logger.Info("migrate_complete", slog.String("driver", cfg.Database.Driver))
	return nil
}
