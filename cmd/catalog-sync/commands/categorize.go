package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/albertohilal/catalog-sync/cmd/catalog-sync/ui"
	"github.com/albertohilal/catalog-sync/internal/classify"
)

var categorizeCmd = &cobra.Command{
	Use:   "categorize",
	Short: "Assign categories to stored products",
	Long: `Categorize scans every stored product's title, description, tags and
product type against the fixed keyword table and records the first match.`,
	RunE: runCategorize,
}

func init() {
	rootCmd.AddCommand(categorizeCmd)
}

func runCategorize(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ui.Section("Classification")

	ctx := context.Background()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := classify.NewCategorizer(log, db).Run(ctx)
	if err != nil {
		return err
	}

	if result.Unmatched > 0 {
		ui.Warning("%d products matched no category keyword", result.Unmatched)
	}
	ui.Success("Assigned categories to %d products", result.Assigned)

	return nil
}
