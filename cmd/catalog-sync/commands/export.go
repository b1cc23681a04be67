package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/albertohilal/catalog-sync/cmd/catalog-sync/ui"
	"github.com/albertohilal/catalog-sync/internal/storage"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export canonical products and images to the relational store",
	Long: `Export upserts every normalized product keyed on SKU, then rebuilds the
image rows from current on-disk directory state in sorted filename order.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ui.Section("Relational Export")

	ctx := context.Background()

	products, err := newArtifactStore(cfg).LoadNormalized()
	if err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	exporter := storage.NewExporter(log, db, cfg.Paths.ImagesDir)

	sp := ui.NewSpinner("Exporting products and images...")
	sp.Start()
	result, err := exporter.Export(ctx, products)
	sp.Stop()
	if err != nil {
		return err
	}

	if result.SkippedNoSKU > 0 {
		ui.Warning("Skipped %d products without a SKU", result.SkippedNoSKU)
	}
	ui.Success("Exported %d products and %d image rows", result.Products, result.ImageRows)

	return nil
}
