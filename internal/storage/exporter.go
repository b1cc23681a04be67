package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/albertohilal/catalog-sync/internal/catalog"
	"github.com/albertohilal/catalog-sync/internal/images"
	"github.com/albertohilal/catalog-sync/internal/observability"
)

// Exporter upserts canonical products and their acquired images into the
// relational store.
type Exporter struct {
	log        *observability.Logger
	db         *sql.DB
	imagesRoot string
}

// NewExporter creates an exporter reading image state from imagesRoot.
func NewExporter(log *observability.Logger, db *sql.DB, imagesRoot string) *Exporter {
	return &Exporter{
		log:        log.WithStage("export"),
		db:         db,
		imagesRoot: imagesRoot,
	}
}

// ExportResult reports the outcome of an export run.
type ExportResult struct {
	Products        int
	SkippedNoSKU    int
	ImageRows       int
	ProductsNoImage int
}

// Export runs both export phases in order: products first, then image rows
// rebuilt from current on-disk directory state. Each phase commits once.
func (e *Exporter) Export(ctx context.Context, products []catalog.Product) (*ExportResult, error) {
	result := &ExportResult{}

	if err := e.exportProducts(ctx, products, result); err != nil {
		return nil, err
	}

	if err := e.exportImages(ctx, products, result); err != nil {
		return nil, err
	}

	e.log.Info().
		Int("products", result.Products).
		Int("image_rows", result.ImageRows).
		Int("skipped_no_sku", result.SkippedNoSKU).
		Msg("Export complete")

	return result, nil
}

// exportProducts is phase A: one upsert per product, one commit at the end.
func (e *Exporter) exportProducts(ctx context.Context, products []catalog.Product, result *ExportResult) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin products tx: %w", err)
	}
	defer tx.Rollback()

	repo := NewProductRepository(tx)

	for _, p := range products {
		if p.SKU == "" {
			e.log.Warn().Str("title", p.Title).Msg("Skipping product without sku")
			result.SkippedNoSKU++
			continue
		}

		if err := repo.Upsert(ctx, rowFromCanonical(p)); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
		result.Products++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit products: %w", err)
	}
	return nil
}

// exportImages is phase B: the SKU map is rebuilt by re-reading the
// committed products table, not from phase A's in-memory results, so the
// phase is independently resumable. Positions come from sorted filename
// order of each product directory, self-healing the ordering even after an
// interrupted acquisition run.
func (e *Exporter) exportImages(ctx context.Context, products []catalog.Product, result *ExportResult) error {
	skuToID, err := NewProductRepository(e.db).SKUToID(ctx)
	if err != nil {
		return err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin images tx: %w", err)
	}
	defer tx.Rollback()

	repo := NewImageRepository(tx)

	for _, p := range products {
		if p.SKU == "" {
			continue
		}
		productID, ok := skuToID[p.SKU]
		dir := images.ProductDir(e.imagesRoot, p.SKU)

		entries, dirErr := os.ReadDir(dir)
		if !ok || dirErr != nil {
			result.ProductsNoImage++
			continue
		}

		position := 0
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			position++

			img := &Image{
				ProductID: productID,
				Path:      filepath.Join(dir, entry.Name()),
				Position:  position,
			}
			// Pair with the original URL by index; a file past the end of
			// the URL list (e.g. from a prior partial run) keeps a null
			// source.
			if position-1 < len(p.ImageURLs) {
				img.SourceURL = sql.NullString{String: p.ImageURLs[position-1], Valid: true}
			}

			if err := repo.Upsert(ctx, img); err != nil {
				return fmt.Errorf("upsert image %s #%d: %w", p.SKU, position, err)
			}
			result.ImageRows++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit images: %w", err)
	}
	return nil
}

// rowFromCanonical maps a canonical product to its stored row. Price and
// stock default to zero when absent, never null; compare-at stays null when
// the source had none.
func rowFromCanonical(p catalog.Product) *Product {
	row := &Product{
		ExternalID:  p.ExternalID,
		SKU:         p.SKU,
		Title:       p.Title,
		Handle:      p.Handle,
		Description: p.Description,
		Price:       ParsePrice(p.Price),
		Vendor:      p.Vendor,
		ProductType: p.ProductType,
		Tags:        p.Tags,
	}

	if p.CompareAtPrice != "" {
		row.CompareAtPrice = sql.NullFloat64{Float64: ParsePrice(p.CompareAtPrice), Valid: true}
	}

	if p.Available {
		row.Stock = 1
	}

	return row
}
