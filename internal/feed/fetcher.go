package feed

import (
	"context"
	"encoding/json"

	"github.com/albertohilal/catalog-sync/internal/catalog"
	"github.com/albertohilal/catalog-sync/internal/observability"
)

// Fetcher walks the feed page by page until exhaustion, persisting each page
// artifact and the merged corpus.
type Fetcher struct {
	log    *observability.Logger
	client *Client
	store  *catalog.ArtifactStore
}

// NewFetcher creates a fetcher.
func NewFetcher(log *observability.Logger, client *Client, store *catalog.ArtifactStore) *Fetcher {
	return &Fetcher{
		log:    log.WithStage("fetch"),
		client: client,
		store:  store,
	}
}

// Result reports the outcome of a fetch run.
type Result struct {
	Pages    int
	Listings int
	// Truncated is set when fetching stopped on a transport error or a
	// non-success status rather than on pagination exhaustion. The run is
	// still treated as complete with the partial corpus.
	Truncated bool
	// LastStatus is the status code that stopped the loop, if any.
	LastStatus int
}

// FetchAll requests pages starting at 1 until a page comes back empty or
// with a non-success status. A transport failure or bad status soft-stops
// the loop: the pages already collected are kept and persisted, and the
// truncation is reported on the result instead of as an error.
func (f *Fetcher) FetchAll(ctx context.Context) (*Result, error) {
	result := &Result{}
	var all []json.RawMessage

	for page := 1; ; page++ {
		f.log.Info().Int("page", page).Msg("Fetching feed page")

		p, err := f.client.FetchPage(ctx, page)
		if err != nil {
			f.log.Warn().Int("page", page).Err(err).Msg("Fetch stopped early, keeping collected pages")
			result.Truncated = true
			break
		}

		if p.StatusCode != 200 {
			f.log.Warn().Int("page", page).Int("status", p.StatusCode).Msg("Fetch stopped early, keeping collected pages")
			result.Truncated = true
			result.LastStatus = p.StatusCode
			break
		}

		if len(p.Listings) == 0 {
			break
		}

		if err := f.store.SavePage(page, p.Body); err != nil {
			return nil, err
		}

		all = append(all, p.Listings...)
		result.Pages++
	}

	if err := f.store.SaveMerged(all); err != nil {
		return nil, err
	}

	result.Listings = len(all)
	f.log.Info().
		Int("pages", result.Pages).
		Int("listings", result.Listings).
		Bool("truncated", result.Truncated).
		Msg("Fetch complete")

	return result, nil
}
