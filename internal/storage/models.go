package storage

import (
	"database/sql"
	"time"
)

// Product is a persisted product row, unique on SKU.
type Product struct {
	ID             int64
	ExternalID     int64
	SKU            string
	Title          string
	Handle         string
	Description    string
	Price          float64
	CompareAtPrice sql.NullFloat64
	Stock          int
	Vendor         string
	ProductType    string
	Tags           string
	RemoteID       sql.NullInt64
	CategoryID     sql.NullInt64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Image is a persisted image row, foreign-keyed to a product. Position is
// 1-based and dense per product.
type Image struct {
	ID        int64
	ProductID int64
	Path      string
	SourceURL sql.NullString
	Position  int
}
