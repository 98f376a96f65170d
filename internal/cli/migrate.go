package cli

import (
	"github.com/spf13/cobra"

	"github.com/KruglovEgor/RestoStats/internal/repository/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down]",
	Short: "Run token store database migrations",
	Long: `Run the dashboard service's database migrations.

Without arguments, applies all pending migrations (up).

Examples:
  statsctl migrate        # Apply pending migrations
  statsctl migrate down   # Roll back all migrations`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(postgres.MigrateUp), string(postgres.MigrateDown)},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	direction := postgres.MigrateUp
	if len(args) == 1 {
		direction = postgres.MigrateDirection(args[0])
	}

	return postgres.RunMigrations(cfg.Database.MigrationsPath, cfg.Database.MigrateURL(), direction, logger)
}
