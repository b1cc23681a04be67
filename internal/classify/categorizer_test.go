package classify

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertohilal/catalog-sync/internal/observability"
	"github.com/albertohilal/catalog-sync/internal/storage"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.Bootstrap(context.Background(), db, "sqlite"))
	return db
}

func seed(t *testing.T, db *sql.DB, sku, title, tags string) {
	t.Helper()
	require.NoError(t, storage.NewProductRepository(db).Upsert(context.Background(), &storage.Product{
		ExternalID: 1,
		SKU:        sku,
		Title:      title,
		Handle:     sku,
		Tags:       tags,
		Price:      1,
	}))
}

func TestCategorizer_Run(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seed(t, db, "N-1", "Cartridge Needles 3RL", "")
	seed(t, db, "M-1", "Pen Machine V2", "")
	seed(t, db, "T-1", "Ergo Handle", "grip")
	seed(t, db, "X-1", "Gift card", "")

	result, err := NewCategorizer(observability.NopLogger(), db).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Assigned)
	assert.Equal(t, 1, result.Unmatched)

	repo := storage.NewProductRepository(db)

	needles, err := repo.GetBySKU(ctx, "N-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), needles.CategoryID.Int64)

	machine, err := repo.GetBySKU(ctx, "M-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), machine.CategoryID.Int64)

	grip, err := repo.GetBySKU(ctx, "T-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), grip.CategoryID.Int64)

	unmatched, err := repo.GetBySKU(ctx, "X-1")
	require.NoError(t, err)
	assert.False(t, unmatched.CategoryID.Valid, "unmatched rows stay unassigned")
}

// Re-running classification over the same data is a no-op in effect.
func TestCategorizer_Rerun(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seed(t, db, "N-1", "Cartridge Needles 3RL", "")

	categorizer := NewCategorizer(observability.NopLogger(), db)

	first, err := categorizer.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Assigned)

	second, err := categorizer.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Assigned)

	row, err := storage.NewProductRepository(db).GetBySKU(ctx, "N-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), row.CategoryID.Int64)
}

func TestCategorizer_EmptyTable(t *testing.T) {
	db := openTestDB(t)

	result, err := NewCategorizer(observability.NopLogger(), db).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.Assigned)
	assert.Zero(t, result.Unmatched)
}
