package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertohilal/catalog-sync/internal/catalog"
	"github.com/albertohilal/catalog-sync/internal/observability"
)

// pagedFeed serves a fixed number of listing pages, then empties out.
func pagedFeed(t *testing.T, pages, perPage int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		require.NoError(t, err)
		assert.Equal(t, "250", r.URL.Query().Get("limit"))

		var listings []string
		if page <= pages {
			for i := 0; i < perPage; i++ {
				id := (page-1)*perPage + i + 1
				listings = append(listings, fmt.Sprintf(`{"id":%d,"title":"Product %d"}`, id, id))
			}
		}
		fmt.Fprintf(w, `{"products":[%s]}`, joinJSON(listings))
	}))
}

func joinJSON(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ","
		}
		out += item
	}
	return out
}

func newTestFetcher(t *testing.T, baseURL string) (*Fetcher, *catalog.ArtifactStore, string) {
	t.Helper()
	root := t.TempDir()
	rawDir := filepath.Join(root, "raw")
	store := catalog.NewArtifactStore(rawDir, filepath.Join(root, "normalized"))
	client := NewClient(baseURL, 250, 5*time.Second)
	return NewFetcher(observability.NopLogger(), client, store), store, rawDir
}

func TestFetcher_WalksUntilEmptyPage(t *testing.T) {
	srv := pagedFeed(t, 3, 2)
	defer srv.Close()

	fetcher, store, rawDir := newTestFetcher(t, srv.URL)

	result, err := fetcher.FetchAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Pages)
	assert.Equal(t, 6, result.Listings)
	assert.False(t, result.Truncated)

	// Every non-empty page leaves an artifact; the empty terminator does not.
	for page := 1; page <= 3; page++ {
		assert.FileExists(t, filepath.Join(rawDir, fmt.Sprintf("products_page_%d.json", page)))
	}
	assert.NoFileExists(t, filepath.Join(rawDir, "products_page_4.json"))

	merged, err := store.LoadMerged()
	require.NoError(t, err)
	require.Len(t, merged, 6)

	// Feed order is preserved across page boundaries.
	var first, last struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(merged[0], &first))
	require.NoError(t, json.Unmarshal(merged[5], &last))
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(6), last.ID)
}

func TestFetcher_SoftStopsOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, `{"products":[{"id":1,"title":"Only one"}]}`)
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	fetcher, store, _ := newTestFetcher(t, srv.URL)

	result, err := fetcher.FetchAll(context.Background())
	require.NoError(t, err, "a bad status truncates, it does not fail the run")

	assert.True(t, result.Truncated)
	assert.Equal(t, http.StatusTooManyRequests, result.LastStatus)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, 1, result.Listings)

	// The partial corpus is still persisted.
	merged, err := store.LoadMerged()
	require.NoError(t, err)
	assert.Len(t, merged, 1)
}

func TestFetcher_SoftStopsOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"products":[{"id":1}]}`)
	}))
	// Closed before fetching: every request fails at the transport.
	srv.Close()

	fetcher, store, _ := newTestFetcher(t, srv.URL)

	result, err := fetcher.FetchAll(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Truncated)
	assert.Zero(t, result.Pages)

	merged, err := store.LoadMerged()
	require.NoError(t, err)
	assert.Empty(t, merged)
}

func TestFetcher_EmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"products":[]}`)
	}))
	defer srv.Close()

	fetcher, store, _ := newTestFetcher(t, srv.URL)

	result, err := fetcher.FetchAll(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.Pages)
	assert.Zero(t, result.Listings)
	assert.False(t, result.Truncated)

	merged, err := store.LoadMerged()
	require.NoError(t, err)
	assert.Empty(t, merged)
}

func TestClient_PageArtifactIsVerbatimBody(t *testing.T) {
	body := `{"products":[{"id":1,"title":"Needles","extra_field":"kept"}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 250, 5*time.Second)
	page, err := client.FetchPage(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, body, string(page.Body))
	require.Len(t, page.Listings, 1)
}

func TestFetcher_PageArtifactsOnDisk(t *testing.T) {
	srv := pagedFeed(t, 1, 1)
	defer srv.Close()

	fetcher, _, rawDir := newTestFetcher(t, srv.URL)

	_, err := fetcher.FetchAll(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(rawDir, "products_page_1.json"))
	require.NoError(t, err)

	var env struct {
		Products []json.RawMessage `json:"products"`
	}
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Len(t, env.Products, 1)
}
