package classify

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/albertohilal/catalog-sync/internal/observability"
	"github.com/albertohilal/catalog-sync/internal/storage"
)

// Categorizer runs the classification pass over the stored product table.
type Categorizer struct {
	log *observability.Logger
	db  *sql.DB
}

// NewCategorizer creates a categorizer.
func NewCategorizer(log *observability.Logger, db *sql.DB) *Categorizer {
	return &Categorizer{
		log: log.WithStage("categorize"),
		db:  db,
	}
}

// Result reports the outcome of a classification run.
type Result struct {
	Assigned  int
	Unmatched int
}

// Run reads the complete product table into memory, classifies every row,
// and issues one update per match. Unmatched rows are logged as warnings
// and left unassigned. All updates commit together at the end.
func (c *Categorizer) Run(ctx context.Context) (*Result, error) {
	// Snapshot read before any write.
	rows, err := storage.NewProductRepository(c.db).ListAll(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	repo := storage.NewProductRepository(tx)
	result := &Result{}

	for _, p := range rows {
		categoryID, ok := Classify(p.Title, p.Description, p.Tags, p.ProductType)
		if !ok {
			c.log.Warn().Int64("product_id", p.ID).Str("sku", p.SKU).Msg("No category keyword matched")
			result.Unmatched++
			continue
		}

		if err := repo.SetCategory(ctx, p.ID, categoryID); err != nil {
			return nil, fmt.Errorf("assign category %d to product %d: %w", categoryID, p.ID, err)
		}

		c.log.Debug().Int64("product_id", p.ID).Int("category_id", categoryID).Msg("Category assigned")
		result.Assigned++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	c.log.Info().
		Int("assigned", result.Assigned).
		Int("unmatched", result.Unmatched).
		Msg("Classification complete")

	return result, nil
}
