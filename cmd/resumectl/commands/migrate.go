package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"resumeai-backend/internal/shared/config"
	"resumeai-backend/internal/shared/storage/db"
)

func newMigrateCmd() *cobra.Command {
	var status bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres record store migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			sqlDB, err := db.Connect(cmd.Context(), cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultCLIOptions()))
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if status {
				return db.MigrationStatus(cmd.Context(), sqlDB)
			}
			if err := db.RunMigrations(cmd.Context(), sqlDB); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "print migration status instead of applying")
	return cmd
}
