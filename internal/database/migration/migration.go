package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_properties",
		SQL: `CREATE TABLE IF NOT EXISTS properties (
  id          UUID             PRIMARY KEY,
  project_id  TEXT             NOT NULL,
  title       TEXT             NOT NULL CHECK (title <> ''),
  area        DOUBLE PRECISION NOT NULL,
  price       DOUBLE PRECISION NOT NULL,
  description TEXT             NOT NULL CHECK (description <> ''),
  location    TEXT             NOT NULL CHECK (location <> ''),
  type        TEXT             NOT NULL DEFAULT '',
  images      JSONB            NOT NULL DEFAULT '[]'::jsonb,
  created_at  TIMESTAMPTZ      NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_properties_type",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_properties_type ON properties (type);`,
	},
	{
		Name: "create_index_properties_price",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_properties_price ON properties (price);`,
	},
	{
		Name: "create_index_properties_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_properties_created_at ON properties (created_at);`,
	},
}

// EnsureMigrated checks if the 'properties' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger *slog.Logger, dbHost string) error {
	start := time.Now()
	log := logger.With(slog.String("component", "database"), slog.String("db_host", dbHost))

	log.Info("db_migration_check", slog.String("status", "starting"))

	var exists bool
	query := "SELECT to_regclass('public.properties') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("db_migration_failed",
			slog.String("status", "error"),
			slog.String("error_message", fmt.Sprintf("failed to check sentinel table: %v", err)),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			slog.String("status", "success"),
			slog.String("detail", "schema already exists, skipping migration"),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	log.Info("db_migration_start", slog.String("status", "in_progress"))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				slog.String("status", "error"),
				slog.String("migration_step", step.Name),
				slog.String("error_message", err.Error()),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			slog.String("status", "success"),
			slog.String("migration_step", step.Name),
			slog.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	log.Info("db_migration_success",
		slog.String("status", "success"),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}
