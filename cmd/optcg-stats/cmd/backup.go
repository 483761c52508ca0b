package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/OPTCG-Meta/internal/storage"
)

var (
	backupDir  string
	backupName string
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the metagame database",
	Long: `Create, list and verify database backups.

Backups are consistent snapshots taken with VACUUM INTO, so they are safe to
run while the API server is serving requests. By default they are written to a
"backups" directory next to the database file.

Subcommands:
  create   - Write a new verified backup
  list     - List existing backups, newest first
  verify   - Check a backup file's integrity and schema

Examples:
  optcg-stats backup create --name before-op09
  optcg-stats backup list
  optcg-stats backup verify backups/before-op09.db`,
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Write a new verified backup",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		dir := backupDir
		if dir == "" {
			dir = storage.DefaultBackupDir(cfg.Database.Path)
		}
		path, err := store.DB().Backup(cmd.Context(), dir, backupName)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "backup written to %s\n", path)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List existing backups, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir := backupDir
		if dir == "" {
			dir = storage.DefaultBackupDir(cfg.Database.Path)
		}

		backups, err := storage.ListBackups(dir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(backups) == 0 {
			fmt.Fprintf(out, "no backups in %s\n", dir)
			return nil
		}
		for _, b := range backups {
			fmt.Fprintf(out, "%s\t%d bytes\t%s\t%s\n",
				b.Name, b.Size, b.ModTime.UTC().Format("2006-01-02 15:04:05"), b.Checksum[:min(12, len(b.Checksum))])
		}
		return nil
	},
}

var backupVerifyCmd = &cobra.Command{
	Use:   "verify <file.db>",
	Short: "Check a backup file's integrity and schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := storage.VerifyBackup(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupVerifyCmd)

	backupCmd.PersistentFlags().StringVar(&backupDir, "dir", "", "backup directory (default: backups/ next to the database)")
	backupCreateCmd.Flags().StringVar(&backupName, "name", "", "backup file name (default: timestamped)")
}
