package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/OPTCG-Meta/internal/api"
	"github.com/ramonehamilton/OPTCG-Meta/internal/api/handlers"
	"github.com/ramonehamilton/OPTCG-Meta/internal/importer"
	"github.com/ramonehamilton/OPTCG-Meta/internal/metagame"
	"github.com/ramonehamilton/OPTCG-Meta/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API server",
	Long: `Start the REST API server and block until interrupted.

The database is migrated on startup when database.auto_migrate is set.
With --seed, the given YAML seed is imported before the server starts
accepting requests, and the imported counts are exported as metrics.

Example:
  optcg-stats serve --config optcg.toml
  optcg-stats serve --seed snapshot.yaml
  OPTCG_PORT=9000 optcg-stats serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	shutdownTimeout time.Duration
	seedFile        string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "grace period for in-flight requests on shutdown")
	serveCmd.Flags().StringVar(&seedFile, "seed", "", "YAML seed to import before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close database", "error", err)
		}
	}()

	m := metrics.New()

	if seedFile != "" {
		seed, err := importer.ParseFile(seedFile)
		if err != nil {
			return err
		}
		if _, err := importer.New(store, log, m).Import(cmd.Context(), seed); err != nil {
			return fmt.Errorf("import seed: %w", err)
		}
	}

	views := metagame.NewService(store, log, metagame.Options{
		SourceOrder:       cfg.Prices.Sources,
		LookupConcurrency: cfg.Prices.LookupConcurrency,
		Recorder:          m,
	})

	apiCfg, err := api.ConfigFromSettings(cfg.Server)
	if err != nil {
		return err
	}
	server := api.NewServer(apiCfg, api.Deps{
		Store:   store,
		Views:   views,
		DB:      store.DB(),
		Metrics: m,
		Logger:  log,
		Prices: handlers.PriceDefaults{
			HistoryDays: cfg.Prices.HistoryDays,
			MoversDays:  cfg.Prices.MoversDays,
			MoversLimit: cfg.Prices.MoversLimit,
		},
	})

	if err := server.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	log.Info("serving", "port", server.Port(), "database", cfg.Database.Path)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
