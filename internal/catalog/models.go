// Package catalog defines the product models and the normalization step that
// maps raw feed listings into the canonical product shape.
package catalog

import (
	"encoding/json"
	"strings"
)

// RawListing is the source feed's product representation. It is consumed
// once by the normalizer and never persisted beyond the raw JSON artifacts.
type RawListing struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Handle      string       `json:"handle"`
	BodyHTML    string       `json:"body_html"`
	Vendor      string       `json:"vendor"`
	ProductType string       `json:"product_type"`
	Tags        TagList      `json:"tags"`
	Variants    []RawVariant `json:"variants"`
	Images      []RawImage   `json:"images"`
}

// RawVariant is one sellable variant of a raw listing.
type RawVariant struct {
	SKU            string `json:"sku"`
	Price          string `json:"price"`
	CompareAtPrice string `json:"compare_at_price"`
	Available      bool   `json:"available"`
}

// RawImage is an image descriptor on a raw listing.
type RawImage struct {
	Src string `json:"src"`
}

// TagList accepts the feed's tags field as either a comma separated string
// or a JSON array of strings.
type TagList []string

// UnmarshalJSON implements json.Unmarshaler.
func (t *TagList) UnmarshalJSON(data []byte) error {
	var asList []string
	if err := json.Unmarshal(data, &asList); err == nil {
		*t = asList
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return err
	}

	if asString == "" {
		*t = nil
		return nil
	}

	parts := strings.Split(asString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	*t = parts
	return nil
}

// String returns the tags comma-joined, the flattened form stored on the
// canonical product.
func (t TagList) String() string {
	return strings.Join(t, ",")
}

// Product is the canonical product of record. It is re-derivable
// byte-for-byte from the same RawListing.
type Product struct {
	ExternalID     int64    `json:"id"`
	Title          string   `json:"title"`
	Handle         string   `json:"handle"`
	Description    string   `json:"description"`
	SKU            string   `json:"sku"`
	Price          string   `json:"price"`
	CompareAtPrice string   `json:"compare_at_price"`
	Available      bool     `json:"available"`
	Vendor         string   `json:"vendor"`
	ProductType    string   `json:"product_type"`
	Tags           string   `json:"tags"`
	ImageURLs      []string `json:"image_urls"`
}
