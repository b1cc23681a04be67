package commands

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/albertohilal/catalog-sync/cmd/catalog-sync/ui"
	"github.com/albertohilal/catalog-sync/internal/classify"
	"github.com/albertohilal/catalog-sync/internal/feed"
	"github.com/albertohilal/catalog-sync/internal/images"
	"github.com/albertohilal/catalog-sync/internal/pipeline"
	"github.com/albertohilal/catalog-sync/internal/storage"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full synchronization pipeline",
	Long: `Run executes every stage in order: fetch the feed, normalize the raw
corpus, acquire product images, export to the relational store and assign
categories. Publishing to the storefront stays a separate, on-demand step.

When a run lock is configured, concurrent runs are refused.`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx := context.Background()

	release, err := acquireRunLock(ctx, cfg)
	if err != nil {
		return err
	}
	defer release()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ui.Section("Pipeline Run")

	client := feed.NewClient(cfg.Feed.BaseURL, cfg.Feed.PageSize, cfg.Feed.Timeout)
	fetcher := feed.NewFetcher(log, client, newArtifactStore(cfg))
	acquirer := images.NewAcquirer(log, cfg.Paths.ImagesDir, imageFetchTimeout)
	exporter := storage.NewExporter(log, db, cfg.Paths.ImagesDir)
	categorizer := classify.NewCategorizer(log, db)

	p := pipeline.New(log, fetcher, newArtifactStore(cfg), acquirer, exporter, categorizer)

	sp := ui.NewSpinner("Running pipeline...")
	sp.Start()
	result, err := p.Run(ctx)
	sp.Stop()
	if err != nil {
		return err
	}

	renderRunSummary(result)

	return nil
}

func renderRunSummary(r *pipeline.Result) {
	ui.Success("Pipeline run %s complete in %s", r.RunID, ui.FormatDuration(r.Duration))

	if r.FetchTruncated {
		ui.Warning("Fetch stopped early; the corpus below is partial")
	}

	ui.Table([]string{"Stage", "Metric", "Count"}, [][]string{
		{"fetch", "pages", strconv.Itoa(r.PagesFetched)},
		{"fetch", "listings", strconv.Itoa(r.ListingsFetched)},
		{"normalize", "products", strconv.Itoa(r.Normalized)},
		{"normalize", "skipped malformed", strconv.Itoa(r.SkippedMalformed)},
		{"images", "downloaded", strconv.Itoa(r.ImagesDownloaded)},
		{"images", "skipped existing", strconv.Itoa(r.ImagesSkipped)},
		{"images", "failed", strconv.Itoa(r.ImagesFailed)},
		{"export", "products", strconv.Itoa(r.ProductsExported)},
		{"export", "skipped no SKU", strconv.Itoa(r.SkippedNoSKU)},
		{"export", "image rows", strconv.Itoa(r.ImageRowsWritten)},
		{"categorize", "assigned", strconv.Itoa(r.Categorized)},
		{"categorize", "unmatched", strconv.Itoa(r.Uncategorized)},
	})

	if len(r.ItemErrors) > 0 {
		ui.Warning("%d items were skipped or failed:", len(r.ItemErrors))
		for _, reason := range r.ItemErrors {
			ui.KeyValue("-", reason)
		}
	}
}
