package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/OPTCG-Meta/internal/config"
	"github.com/ramonehamilton/OPTCG-Meta/internal/logger"
	"github.com/ramonehamilton/OPTCG-Meta/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "optcg-stats",
	Short: "One Piece TCG metagame statistics service",
	Long: `optcg-stats serves metagame statistics for the One Piece Trading Card Game.

It provides:
  - A REST API with leader tier lists, the matchup matrix and deck valuations
  - Card price history, market comparison and top movers
  - Database migrations
  - YAML seed imports`,
	SilenceUsage: true,
}

var cfgFile string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "optcg.toml", "path to TOML config file")
}

// loadConfig reads and validates the configuration named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log, nil
}

// storageConfig maps the [database] section onto the storage settings.
func storageConfig(cfg *config.Config) (*storage.Config, error) {
	busy, err := cfg.GetBusyTimeout()
	if err != nil {
		return nil, fmt.Errorf("busy timeout: %w", err)
	}
	sc := storage.DefaultConfig(cfg.Database.Path)
	sc.AutoMigrate = cfg.Database.AutoMigrate
	sc.BusyTimeout = busy
	if cfg.Database.JournalMode != "" {
		sc.JournalMode = cfg.Database.JournalMode
	}
	return sc, nil
}

// openStore opens the database and wraps it in a storage service.
func openStore(cfg *config.Config) (*storage.Service, error) {
	sc, err := storageConfig(cfg)
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(sc)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return storage.NewService(db), nil
}
