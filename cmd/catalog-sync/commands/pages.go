package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/albertohilal/catalog-sync/cmd/catalog-sync/ui"
	"github.com/albertohilal/catalog-sync/internal/pdf"
)

var (
	pagesPDFPath string
	pagesOutDir  string
)

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Rasterize a scanned catalog PDF into page images",
	Long: `Pages renders every page of a scanned catalog PDF as a JPEG under the
pages directory. The page images feed the external segmentation and OCR
tooling that produces cropped product images.`,
	RunE: runPages,
}

func init() {
	pagesCmd.Flags().StringVar(&pagesPDFPath, "pdf", "", "Path to the catalog PDF (required)")
	pagesCmd.Flags().StringVar(&pagesOutDir, "out", "", "Output directory (defaults to the configured pages dir)")
	pagesCmd.MarkFlagRequired("pdf")
	rootCmd.AddCommand(pagesCmd)
}

func runPages(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ui.Section("PDF Rasterization")

	outDir := pagesOutDir
	if outDir == "" {
		outDir = cfg.Paths.PagesDir
	}

	sp := ui.NewSpinner("Rendering catalog pages...")
	sp.Start()
	paths, err := pdf.NewRasterizer(log).Rasterize(context.Background(), pagesPDFPath, outDir)
	sp.Stop()
	if err != nil {
		return err
	}

	ui.Success("Rendered %d pages into %s", len(paths), outDir)

	return nil
}
