// Package publish creates unpublished products on the remote storefront.
package publish

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/albertohilal/catalog-sync/internal/observability"
	"github.com/albertohilal/catalog-sync/internal/storage"
)

// categoryMap maps local category ids to the storefront's category ids.
// Unmapped categories are omitted from the payload.
var categoryMap = map[int64]int64{
	1: 10,
	2: 11,
	3: 12,
}

// Publisher creates remote products for rows without a remote identifier.
type Publisher struct {
	log    *observability.Logger
	db     *sql.DB
	url    string
	key    string
	secret string
	http   *http.Client
}

// NewPublisher creates a publisher against the given storefront.
func NewPublisher(log *observability.Logger, db *sql.DB, url, key, secret string, timeout time.Duration) *Publisher {
	return &Publisher{
		log:    log.WithStage("publish"),
		db:     db,
		url:    url,
		key:    key,
		secret: secret,
		http:   &http.Client{Timeout: timeout},
	}
}

// Result reports the outcome of a publish run. Failures carries one reason
// per product the storefront did not accept.
type Result struct {
	Published int
	Skipped   int
	Failed    int
	Failures  []string
}

// payload is the remote creation request. Empty fields are dropped so the
// storefront receives only what exists.
type payload struct {
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	RegularPrice string         `json:"regular_price,omitempty"`
	Images       []payloadImage `json:"images,omitempty"`
	Categories   []payloadCat   `json:"categories,omitempty"`
}

type payloadImage struct {
	Src string `json:"src"`
}

type payloadCat struct {
	ID int64 `json:"id"`
}

// Run publishes every stored product without a remote identifier. A failed
// creation is logged and the row stays eligible, so the next run retries
// it; nothing is ever marked failed. The remote id is persisted immediately
// after a successful creation. That write is the sole guard against
// re-creating the product, so a crash between the two duplicates the
// remote product on the next run.
func (p *Publisher) Run(ctx context.Context) (*Result, error) {
	products, err := storage.NewProductRepository(p.db).ListUnpublished(ctx)
	if err != nil {
		return nil, err
	}

	p.log.Info().Int("candidates", len(products)).Msg("Publishing unpublished products")

	result := &Result{}
	for _, prod := range products {
		if prod.Price <= 0 {
			p.log.Info().Str("sku", prod.SKU).Msg("Skipping product without price")
			result.Skipped++
			continue
		}

		remoteID, err := p.create(ctx, prod)
		if err != nil {
			p.log.Warn().Str("sku", prod.SKU).Err(err).Msg("Product not created on storefront")
			result.Failed++
			result.Failures = append(result.Failures, fmt.Sprintf("%s: %v", prod.SKU, err))
			continue
		}

		if err := storage.NewProductRepository(p.db).SetRemoteID(ctx, prod.ID, remoteID); err != nil {
			return nil, fmt.Errorf("record remote id for %s: %w", prod.SKU, err)
		}

		p.log.Info().Str("sku", prod.SKU).Int64("remote_id", remoteID).Msg("Product created on storefront")
		result.Published++
	}

	return result, nil
}

// create POSTs one product and returns the storefront's identifier.
func (p *Publisher) create(ctx context.Context, prod *storage.Product) (int64, error) {
	body := payload{
		Name:         prod.Title,
		Description:  prod.Description,
		RegularPrice: strconv.FormatFloat(prod.Price, 'f', 2, 64),
	}

	if src, err := storage.NewImageRepository(p.db).FirstSourceURL(ctx, prod.ID); err == nil {
		body.Images = []payloadImage{{Src: src}}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return 0, err
	}

	if prod.CategoryID.Valid {
		if remoteCat, ok := categoryMap[prod.CategoryID.Int64]; ok {
			body.Categories = []payloadCat{{ID: remoteCat}}
		}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+"/products", bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(p.key, p.secret)

	resp, err := p.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("status %d: %s", resp.StatusCode, respBody)
	}

	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}

	return created.ID, nil
}
