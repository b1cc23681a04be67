package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/albertohilal/catalog-sync/cmd/catalog-sync/ui"
	"github.com/albertohilal/catalog-sync/internal/images"
)

// imageFetchTimeout bounds each image request.
const imageFetchTimeout = 20 * time.Second

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download product images",
	Long: `Download acquires every image referenced by the normalized corpus,
skipping slots that already exist on disk. Format is chosen by content:
transparent images are kept lossless as PNG, everything else becomes JPEG.`,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ui.Section("Image Acquisition")

	products, err := newArtifactStore(cfg).LoadNormalized()
	if err != nil {
		return err
	}

	acquirer := images.NewAcquirer(log, cfg.Paths.ImagesDir, imageFetchTimeout)

	bar := ui.NewProgressBar(int64(len(products)), "Products")
	acquirer.Progress = func(done, total int) {
		bar.Set(int64(done))
	}

	result, err := acquirer.AcquireAll(context.Background(), products)
	bar.Finish()
	if err != nil {
		return err
	}

	if result.Failed > 0 {
		ui.Warning("%d images failed to download; rerun to retry", result.Failed)
		for _, reason := range result.Failures {
			ui.Verbose("  %s", reason)
		}
	}
	ui.Success("Downloaded %d images (%d already present)", result.Downloaded, result.Skipped)

	return nil
}
