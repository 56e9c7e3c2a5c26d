package cli

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the Postgres schema",
	Long: `Apply or roll back the Postgres schema. The SQLite backend migrates itself
on open and does not need this command.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrator(cmd, func(m *migrate.Migrate) error {
			if err := m.Up(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Done")
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		return withMigrator(cmd, func(m *migrate.Migrate) error {
			var err error
			if steps > 0 {
				err = m.Steps(-steps)
			} else {
				err = m.Down()
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Done")
			return nil
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrator(cmd, func(m *migrate.Migrate) error {
			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Fprintln(cmd.OutOrStdout(), "No migrations applied")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Version: %d (dirty: %t)\n", version, dirty)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)

	migrateDownCmd.Flags().Int("steps", 0, "Number of migrations to roll back (default: all)")
}

func withMigrator(cmd *cobra.Command, fn func(*migrate.Migrate) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Storage.Driver != storage.DriverPostgres {
		return fmt.Errorf("migrate requires the postgres driver, configured driver is %q", cfg.Storage.Driver)
	}

	m, err := storage.NewPostgresMigrator(cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := fn(m); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Fprintln(cmd.OutOrStdout(), "No change")
			return nil
		}
		return fmt.Errorf("%s: %w", cmd.CommandPath(), err)
	}
	return nil
}
