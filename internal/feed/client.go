// Package feed retrieves paginated raw product listings from the source feed.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client fetches pages from the storefront JSON feed.
type Client struct {
	baseURL  string
	pageSize int
	http     *http.Client
}

// NewClient creates a feed client with a bounded request timeout.
func NewClient(baseURL string, pageSize int, timeout time.Duration) *Client {
	return &Client{
		baseURL:  baseURL,
		pageSize: pageSize,
		http:     &http.Client{Timeout: timeout},
	}
}

// Page holds one fetched feed page.
type Page struct {
	// Body is the response exactly as received, for the page artifact.
	Body []byte
	// Listings are the raw product records in feed order.
	Listings []json.RawMessage
	// StatusCode is the HTTP status of the response.
	StatusCode int
}

// pageEnvelope mirrors the feed's response body shape.
type pageEnvelope struct {
	Products []json.RawMessage `json:"products"`
}

// FetchPage requests a single page. A non-2xx status is not an error: the
// returned Page carries the status code and the fetch loop decides how to
// treat it.
func (c *Client) FetchPage(ctx context.Context, page int) (*Page, error) {
	url := fmt.Sprintf("%s?page=%d&limit=%d", c.baseURL, page, c.pageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Page{StatusCode: resp.StatusCode}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read page %d: %w", page, err)
	}

	var env pageEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parse page %d: %w", page, err)
	}

	return &Page{
		Body:       body,
		Listings:   env.Products,
		StatusCode: resp.StatusCode,
	}, nil
}
