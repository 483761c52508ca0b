package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/OPTCG-Meta/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import leaders, cards, decks, matchups and prices from a YAML seed",
	Long: `Import a YAML seed file in a single transaction.

Records are upserted by their natural keys, so importing the same file twice
updates rows instead of duplicating them. Prices are appended.

Example:
  optcg-stats import testdata/seed.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	seed, err := importer.ParseFile(args[0])
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := importer.New(store, log, nil).Import(cmd.Context(), seed)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d leaders, %d cards, %d decks, %d matchups, %d prices (%d skipped)\n",
		res.Leaders, res.Cards, res.Decks, res.Matchups, res.Prices, res.Skipped)
	return nil
}
