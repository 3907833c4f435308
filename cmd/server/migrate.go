package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"customerapi/internal/platform/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  `Apply the embedded database migrations to DATABASE_URL and report the resulting version.`,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	if !cfg.Database.Enabled() {
		return errors.New("DATABASE_URL is required to run migrations")
	}
	ctx := cmd.Context()

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db.SQL); err != nil {
		return err
	}
	v, err := postgres.MigrationVersion(ctx, db.SQL)
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	appLogger.InfoContext(ctx, "migrations applied", "version", v)
	return nil
}
