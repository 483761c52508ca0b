package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/OPTCG-Meta/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long: `Apply or roll back database migrations.

Subcommands:
  up       - Apply all pending migrations
  down     - Roll back all migrations
  version  - Print the current schema version

Examples:
  optcg-stats migrate up
  optcg-stats migrate version`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrations(cmd, func(mm *storage.MigrationManager) error {
			if err := mm.Up(); err != nil {
				return err
			}
			return printVersion(cmd, mm)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrations(cmd, func(mm *storage.MigrationManager) error {
			if err := mm.Down(); err != nil {
				return err
			}
			return printVersion(cmd, mm)
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrations(cmd, func(mm *storage.MigrationManager) error {
			return printVersion(cmd, mm)
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

func withMigrations(cmd *cobra.Command, fn func(*storage.MigrationManager) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mm, err := storage.NewMigrationManager(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer mm.Close()

	return fn(mm)
}

func printVersion(cmd *cobra.Command, mm *storage.MigrationManager) error {
	version, dirty, err := mm.Version()
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s)\n", version, state)
	return nil
}
