package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ezclip/ezclip-api/internal/database"
	"github.com/ezclip/ezclip-api/internal/models"
	"github.com/ezclip/ezclip-api/pkg/config"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Apply the database schema for the ezclip API.

Migrations are schema-driven: the current model definitions are applied
to the configured SQLite database, creating or altering tables as needed.
Existing data is preserved.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Initialize(cfg.Database.Path, cfg.Database.LogQueries)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d tables in %s\n", len(models.AllModels()), cfg.Database.Path)
	return nil
}
