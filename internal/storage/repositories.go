package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// Common errors
var (
	ErrNotFound = errors.New("record not found")
	ErrEmptySKU = errors.New("product has no sku")
)

// DB represents a database connection interface, satisfied by both *sql.DB
// and *sql.Tx so a repository can participate in a phase transaction.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// ProductRepository handles product rows.
type ProductRepository struct {
	db DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Upsert inserts or replaces a product keyed on its unique SKU. All
// canonical fields are overwritten; remote_id and category_id are preserved
// since they are owned by the publisher and the categorizer.
func (r *ProductRepository) Upsert(ctx context.Context, p *Product) error {
	if p.SKU == "" {
		return ErrEmptySKU
	}

	query := `
		INSERT INTO products (external_id, sku, title, handle, description,
			price, compare_at_price, stock, vendor, product_type, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (sku) DO UPDATE SET
			external_id = excluded.external_id,
			title = excluded.title,
			handle = excluded.handle,
			description = excluded.description,
			price = excluded.price,
			compare_at_price = excluded.compare_at_price,
			stock = excluded.stock,
			vendor = excluded.vendor,
			product_type = excluded.product_type,
			tags = excluded.tags,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ExternalID, p.SKU, p.Title, p.Handle, p.Description,
		p.Price, p.CompareAtPrice, p.Stock, p.Vendor, p.ProductType, p.Tags,
	)
	return err
}

// SKUToID builds a SKU to local identifier map by reading the table.
func (r *ProductRepository) SKUToID(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, sku FROM products`)
	if err != nil {
		return nil, fmt.Errorf("query sku map: %w", err)
	}
	defer rows.Close()

	m := make(map[string]int64)
	for rows.Next() {
		var id int64
		var sku string
		if err := rows.Scan(&id, &sku); err != nil {
			return nil, fmt.Errorf("scan sku map: %w", err)
		}
		m[sku] = id
	}
	return m, rows.Err()
}

// GetBySKU retrieves a product row by its SKU.
func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	query := `
		SELECT id, external_id, sku, title, handle, description, price,
			compare_at_price, stock, vendor, product_type, tags,
			remote_id, category_id
		FROM products WHERE sku = $1
	`
	p := &Product{}
	err := r.db.QueryRowContext(ctx, query, sku).Scan(
		&p.ID, &p.ExternalID, &p.SKU, &p.Title, &p.Handle, &p.Description,
		&p.Price, &p.CompareAtPrice, &p.Stock, &p.Vendor, &p.ProductType,
		&p.Tags, &p.RemoteID, &p.CategoryID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// ListAll retrieves every product row, the snapshot read the categorizer
// works from.
func (r *ProductRepository) ListAll(ctx context.Context) ([]*Product, error) {
	query := `
		SELECT id, external_id, sku, title, handle, description, price,
			compare_at_price, stock, vendor, product_type, tags,
			remote_id, category_id
		FROM products
		ORDER BY id
	`
	return r.list(ctx, query)
}

// ListUnpublished retrieves the rows without a remote identifier, the
// publisher's selection predicate.
func (r *ProductRepository) ListUnpublished(ctx context.Context) ([]*Product, error) {
	query := `
		SELECT id, external_id, sku, title, handle, description, price,
			compare_at_price, stock, vendor, product_type, tags,
			remote_id, category_id
		FROM products
		WHERE remote_id IS NULL
		ORDER BY id
	`
	return r.list(ctx, query)
}

func (r *ProductRepository) list(ctx context.Context, query string) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p := &Product{}
		if err := rows.Scan(
			&p.ID, &p.ExternalID, &p.SKU, &p.Title, &p.Handle, &p.Description,
			&p.Price, &p.CompareAtPrice, &p.Stock, &p.Vendor, &p.ProductType,
			&p.Tags, &p.RemoteID, &p.CategoryID,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// SetCategory records the assigned category on a product row.
func (r *ProductRepository) SetCategory(ctx context.Context, id int64, categoryID int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET category_id = $1 WHERE id = $2`, categoryID, id)
	if err != nil {
		return fmt.Errorf("set category: %w", err)
	}
	return requireRow(res)
}

// SetRemoteID records the storefront identifier returned on creation. The
// write is intentionally a single-row, single-field update so it lands
// immediately after a successful publish.
func (r *ProductRepository) SetRemoteID(ctx context.Context, id, remoteID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET remote_id = $1 WHERE id = $2`, remoteID, id)
	if err != nil {
		return fmt.Errorf("set remote id: %w", err)
	}
	return requireRow(res)
}

// ImageRepository handles image rows.
type ImageRepository struct {
	db DB
}

// NewImageRepository creates a new image repository.
func NewImageRepository(db DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Upsert inserts or replaces an image row keyed on (product_id, position),
// so re-exports rewrite the ordering from current on-disk state instead of
// accumulating duplicates.
func (r *ImageRepository) Upsert(ctx context.Context, img *Image) error {
	query := `
		INSERT INTO images (product_id, path, source_url, position)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, position) DO UPDATE SET
			path = excluded.path,
			source_url = excluded.source_url
	`
	_, err := r.db.ExecContext(ctx, query, img.ProductID, img.Path, img.SourceURL, img.Position)
	return err
}

// ListByProduct retrieves a product's image rows in position order.
func (r *ImageRepository) ListByProduct(ctx context.Context, productID int64) ([]*Image, error) {
	query := `
		SELECT id, product_id, path, source_url, position
		FROM images
		WHERE product_id = $1
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	defer rows.Close()

	var images []*Image
	for rows.Next() {
		img := &Image{}
		if err := rows.Scan(&img.ID, &img.ProductID, &img.Path, &img.SourceURL, &img.Position); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// FirstSourceURL returns the original source URL of a product's first
// image, or ErrNotFound when the product has no image with a known source.
func (r *ImageRepository) FirstSourceURL(ctx context.Context, productID int64) (string, error) {
	query := `
		SELECT source_url FROM images
		WHERE product_id = $1 AND source_url IS NOT NULL
		ORDER BY position
		LIMIT 1
	`
	var url string
	err := r.db.QueryRowContext(ctx, query, productID).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return url, err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ParsePrice converts a feed price string to a numeric value, defaulting to
// zero for absent or unparsable values.
func ParsePrice(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
