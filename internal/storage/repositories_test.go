package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB opens an in-memory sqlite database with the schema applied.
// Connections are capped at one so every statement sees the same memory
// database.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	require.NoError(t, Bootstrap(context.Background(), db, "sqlite"))
	return db
}

func testProduct(sku string) *Product {
	return &Product{
		ExternalID:  100,
		SKU:         sku,
		Title:       "Cartridge Needles 3RL",
		Handle:      "cartridge-needles-3rl",
		Description: "Box of 20",
		Price:       12.50,
		Stock:       1,
		Vendor:      "HabySupply",
		ProductType: "needles",
		Tags:        "needle,cartridge",
	}
}

func TestProductRepository_UpsertAndGet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewProductRepository(db)

	require.NoError(t, repo.Upsert(ctx, testProduct("N-3RL")))

	got, err := repo.GetBySKU(ctx, "N-3RL")
	require.NoError(t, err)
	assert.Equal(t, "Cartridge Needles 3RL", got.Title)
	assert.Equal(t, 12.50, got.Price)
	assert.False(t, got.CompareAtPrice.Valid)
	assert.False(t, got.RemoteID.Valid)
	assert.False(t, got.CategoryID.Valid)
}

func TestProductRepository_Upsert_RejectsEmptySKU(t *testing.T) {
	db := openTestDB(t)
	repo := NewProductRepository(db)

	err := repo.Upsert(context.Background(), testProduct(""))
	assert.ErrorIs(t, err, ErrEmptySKU)
}

// Re-upserting the same SKU must not create a second row and must not
// disturb the columns owned by other stages.
func TestProductRepository_Upsert_StableIdentity(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewProductRepository(db)

	require.NoError(t, repo.Upsert(ctx, testProduct("N-3RL")))

	first, err := repo.GetBySKU(ctx, "N-3RL")
	require.NoError(t, err)

	require.NoError(t, repo.SetRemoteID(ctx, first.ID, 9001))
	require.NoError(t, repo.SetCategory(ctx, first.ID, 1))

	// Same SKU, changed price: a later sync run.
	updated := testProduct("N-3RL")
	updated.Price = 14.00
	require.NoError(t, repo.Upsert(ctx, updated))

	second, err := repo.GetBySKU(ctx, "N-3RL")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "local identifier must survive re-upsert")
	assert.Equal(t, 14.00, second.Price)
	assert.Equal(t, int64(9001), second.RemoteID.Int64, "remote_id must survive re-upsert")
	assert.Equal(t, int64(1), second.CategoryID.Int64, "category_id must survive re-upsert")

	rows, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestProductRepository_GetBySKU_NotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := NewProductRepository(db).GetBySKU(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductRepository_ListUnpublished(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewProductRepository(db)

	require.NoError(t, repo.Upsert(ctx, testProduct("A-1")))
	require.NoError(t, repo.Upsert(ctx, testProduct("B-2")))

	published, err := repo.GetBySKU(ctx, "A-1")
	require.NoError(t, err)
	require.NoError(t, repo.SetRemoteID(ctx, published.ID, 555))

	pending, err := repo.ListUnpublished(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "B-2", pending[0].SKU)
}

func TestProductRepository_SetRemoteID_NotFound(t *testing.T) {
	db := openTestDB(t)

	err := NewProductRepository(db).SetRemoteID(context.Background(), 12345, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductRepository_SKUToID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewProductRepository(db)

	require.NoError(t, repo.Upsert(ctx, testProduct("A-1")))
	require.NoError(t, repo.Upsert(ctx, testProduct("B-2")))

	m, err := repo.SKUToID(ctx)
	require.NoError(t, err)
	assert.Len(t, m, 2)
	assert.Contains(t, m, "A-1")
	assert.Contains(t, m, "B-2")
}

func TestImageRepository_UpsertRewritesPosition(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, NewProductRepository(db).Upsert(ctx, testProduct("A-1")))
	product, err := NewProductRepository(db).GetBySKU(ctx, "A-1")
	require.NoError(t, err)

	repo := NewImageRepository(db)
	require.NoError(t, repo.Upsert(ctx, &Image{
		ProductID: product.ID,
		Path:      "images/A-1/1.jpg",
		SourceURL: sql.NullString{String: "https://cdn.example.com/old.jpg", Valid: true},
		Position:  1,
	}))

	// Same position, new path: a re-export after re-acquisition.
	require.NoError(t, repo.Upsert(ctx, &Image{
		ProductID: product.ID,
		Path:      "images/A-1/1.png",
		SourceURL: sql.NullString{String: "https://cdn.example.com/new.png", Valid: true},
		Position:  1,
	}))

	imgs, err := repo.ListByProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, imgs, 1)
	assert.Equal(t, "images/A-1/1.png", imgs[0].Path)
	assert.Equal(t, "https://cdn.example.com/new.png", imgs[0].SourceURL.String)
}

func TestImageRepository_FirstSourceURL(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, NewProductRepository(db).Upsert(ctx, testProduct("A-1")))
	product, err := NewProductRepository(db).GetBySKU(ctx, "A-1")
	require.NoError(t, err)

	repo := NewImageRepository(db)
	require.NoError(t, repo.Upsert(ctx, &Image{ProductID: product.ID, Path: "images/A-1/2.jpg", Position: 2,
		SourceURL: sql.NullString{String: "https://cdn.example.com/second.jpg", Valid: true}}))
	require.NoError(t, repo.Upsert(ctx, &Image{ProductID: product.ID, Path: "images/A-1/1.jpg", Position: 1}))

	// Position 1 has no source, so the first known source is position 2's.
	url, err := repo.FirstSourceURL(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/second.jpg", url)

	_, err = repo.FirstSourceURL(ctx, 99999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParsePrice(t *testing.T) {
	assert.Equal(t, 12.5, ParsePrice("12.50"))
	assert.Equal(t, 0.0, ParsePrice(""))
	assert.Equal(t, 0.0, ParsePrice("free"))
}
