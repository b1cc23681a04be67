package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/albertohilal/catalog-sync/cmd/catalog-sync/ui"
	"github.com/albertohilal/catalog-sync/internal/publish"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Create unpublished products on the remote storefront",
	Long: `Publish creates every stored product that has no remote identifier yet.
The identifier returned by the storefront is recorded immediately, so a
published product is never submitted again.`,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	if err := cfg.ValidateStorefront(); err != nil {
		return err
	}

	ui.Section("Storefront Publish")

	ctx := context.Background()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	publisher := publish.NewPublisher(
		log, db,
		cfg.Storefront.URL,
		cfg.Storefront.ConsumerKey,
		cfg.Storefront.ConsumerSecret,
		cfg.Storefront.Timeout,
	)

	sp := ui.NewSpinner("Publishing products...")
	sp.Start()
	result, err := publisher.Run(ctx)
	sp.Stop()
	if err != nil {
		return err
	}

	if result.Failed > 0 {
		ui.Warning("%d products were not created; they stay eligible for the next run", result.Failed)
		for _, reason := range result.Failures {
			ui.Verbose("  %s", reason)
		}
	}
	if result.Skipped > 0 {
		ui.Info("%d products skipped for having no price", result.Skipped)
	}
	ui.Success("Published %d products", result.Published)

	return nil
}
