package commands

import (
	"github.com/spf13/cobra"

	"github.com/albertohilal/catalog-sync/cmd/catalog-sync/ui"
	"github.com/albertohilal/catalog-sync/internal/catalog"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize the raw corpus into canonical products",
	Long: `Normalize reads the merged raw corpus written by fetch and maps every
listing to the canonical product shape, writing the result as the
normalized checkpoint.`,
	RunE: runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ui.Section("Normalization")

	store := newArtifactStore(cfg)

	rawRecords, err := store.LoadMerged()
	if err != nil {
		return err
	}

	result := catalog.NormalizeAll(log.WithStage("normalize"), rawRecords)

	if err := store.SaveNormalized(result.Products); err != nil {
		return err
	}

	if result.Skipped > 0 {
		ui.Warning("Skipped %d malformed listings", result.Skipped)
	}
	ui.Success("Normalized %d products", len(result.Products))

	return nil
}
