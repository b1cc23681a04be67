// Package pipeline orchestrates the product synchronization stages.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/albertohilal/catalog-sync/internal/catalog"
	"github.com/albertohilal/catalog-sync/internal/classify"
	"github.com/albertohilal/catalog-sync/internal/feed"
	"github.com/albertohilal/catalog-sync/internal/images"
	"github.com/albertohilal/catalog-sync/internal/observability"
	"github.com/albertohilal/catalog-sync/internal/storage"
)

// Pipeline wires the synchronization stages together. Every stage recovers
// its input from what the previous stage wrote to disk or the database, so
// each one is independently rerunnable.
type Pipeline struct {
	log         *observability.Logger
	fetcher     *feed.Fetcher
	store       *catalog.ArtifactStore
	acquirer    *images.Acquirer
	exporter    *storage.Exporter
	categorizer *classify.Categorizer
}

// New creates a pipeline from its stage components.
func New(
	log *observability.Logger,
	fetcher *feed.Fetcher,
	store *catalog.ArtifactStore,
	acquirer *images.Acquirer,
	exporter *storage.Exporter,
	categorizer *classify.Categorizer,
) *Pipeline {
	return &Pipeline{
		log:         log,
		fetcher:     fetcher,
		store:       store,
		acquirer:    acquirer,
		exporter:    exporter,
		categorizer: categorizer,
	}
}

// Result is the terminal accounting for one pipeline run.
type Result struct {
	RunID uuid.UUID

	PagesFetched     int
	ListingsFetched  int
	FetchTruncated   bool
	Normalized       int
	SkippedMalformed int
	ImagesDownloaded int
	ImagesSkipped    int
	ImagesFailed     int
	ProductsExported int
	SkippedNoSKU     int
	ImageRowsWritten int
	Categorized      int
	Uncategorized    int

	// ItemErrors collects the per-item failure reasons from the lenient
	// stages, so a run's losses are inspectable without grepping logs.
	ItemErrors []string

	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
}

// Run executes fetch, normalize, acquire, export and categorize in order.
// Publishing runs separately, on demand. Per-item failures are counted on
// the result; only persistence and artifact errors abort the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}

	p.log.Info().Str("run_id", result.RunID.String()).Msg("Starting pipeline run")

	// Stage 1: fetch the raw corpus.
	fetchRes, err := p.fetcher.FetchAll(ctx)
	if err != nil {
		return result, fmt.Errorf("fetch: %w", err)
	}
	result.PagesFetched = fetchRes.Pages
	result.ListingsFetched = fetchRes.Listings
	result.FetchTruncated = fetchRes.Truncated

	// Stage 2: normalize from the merged artifact.
	rawRecords, err := p.store.LoadMerged()
	if err != nil {
		return result, fmt.Errorf("normalize: %w", err)
	}
	normRes := catalog.NormalizeAll(p.log.WithStage("normalize"), rawRecords)
	result.Normalized = len(normRes.Products)
	result.SkippedMalformed = normRes.Skipped
	result.ItemErrors = append(result.ItemErrors, normRes.Failures...)

	if err := p.store.SaveNormalized(normRes.Products); err != nil {
		return result, fmt.Errorf("normalize: %w", err)
	}

	// Stage 3: acquire images.
	imgRes, err := p.acquirer.AcquireAll(ctx, normRes.Products)
	if err != nil {
		return result, fmt.Errorf("acquire images: %w", err)
	}
	result.ImagesDownloaded = imgRes.Downloaded
	result.ImagesSkipped = imgRes.Skipped
	result.ImagesFailed = imgRes.Failed
	result.ItemErrors = append(result.ItemErrors, imgRes.Failures...)

	// Stage 4: export to the relational store.
	expRes, err := p.exporter.Export(ctx, normRes.Products)
	if err != nil {
		return result, fmt.Errorf("export: %w", err)
	}
	result.ProductsExported = expRes.Products
	result.SkippedNoSKU = expRes.SkippedNoSKU
	result.ImageRowsWritten = expRes.ImageRows

	// Stage 5: classify.
	catRes, err := p.categorizer.Run(ctx)
	if err != nil {
		return result, fmt.Errorf("categorize: %w", err)
	}
	result.Categorized = catRes.Assigned
	result.Uncategorized = catRes.Unmatched

	result.CompletedAt = time.Now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)

	p.log.Info().
		Str("run_id", result.RunID.String()).
		Int("listings", result.ListingsFetched).
		Int("normalized", result.Normalized).
		Int("images_downloaded", result.ImagesDownloaded).
		Int("products_exported", result.ProductsExported).
		Int("categorized", result.Categorized).
		Dur("duration", result.Duration).
		Msg("Pipeline run complete")

	return result, nil
}
