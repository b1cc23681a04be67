package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/albertohilal/catalog-sync/cmd/catalog-sync/ui"
	"github.com/albertohilal/catalog-sync/internal/feed"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the raw product corpus from the source feed",
	Long: `Fetch walks the feed page by page until exhaustion, persisting each page
and a merged corpus under the raw artifact directory.`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ui.Section("Feed Fetch")

	client := feed.NewClient(cfg.Feed.BaseURL, cfg.Feed.PageSize, cfg.Feed.Timeout)
	fetcher := feed.NewFetcher(log, client, newArtifactStore(cfg))

	sp := ui.NewSpinner("Fetching feed pages...")
	sp.Start()
	result, err := fetcher.FetchAll(context.Background())
	sp.Stop()
	if err != nil {
		return err
	}

	if result.Truncated {
		ui.Warning("Fetch stopped early (status %d); partial corpus of %d listings kept",
			result.LastStatus, result.Listings)
	} else {
		ui.Success("Fetched %d listings over %d pages", result.Listings, result.Pages)
	}

	return nil
}
