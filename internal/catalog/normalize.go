package catalog

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"

	"github.com/albertohilal/catalog-sync/internal/observability"
)

// tagPattern matches anything resembling a markup tag delimiter pair. This
// is deliberately not a full HTML parser: malformed markup must not make
// normalization fail, and best-effort text extraction is the contract.
var tagPattern = regexp.MustCompile(`<[^>]+>`)

// StripMarkup removes markup tags from a description and unescapes entity
// references, returning plain text.
func StripMarkup(s string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(s, ""))
}

// Normalize maps one raw listing to the canonical product shape. It picks
// the first variant for sku, pricing and availability, discarding later
// variants, and preserves image URL order as given by the source.
func Normalize(raw RawListing) Product {
	var first RawVariant
	if len(raw.Variants) > 0 {
		first = raw.Variants[0]
	}

	urls := make([]string, 0, len(raw.Images))
	for _, img := range raw.Images {
		if img.Src != "" {
			urls = append(urls, img.Src)
		}
	}

	return Product{
		ExternalID:     raw.ID,
		Title:          raw.Title,
		Handle:         raw.Handle,
		Description:    StripMarkup(raw.BodyHTML),
		SKU:            first.SKU,
		Price:          first.Price,
		CompareAtPrice: first.CompareAtPrice,
		Available:      first.Available,
		Vendor:         raw.Vendor,
		ProductType:    raw.ProductType,
		Tags:           raw.Tags.String(),
		ImageURLs:      urls,
	}
}

// NormalizeResult reports the outcome of a normalization run. Failures
// carries one reason per skipped record so the run summary can show what
// was dropped, not just how many.
type NormalizeResult struct {
	Products []Product
	Skipped  int
	Failures []string
}

// NormalizeAll normalizes a batch of raw records. Records that are not
// object-shaped are skipped and counted rather than failing the run.
func NormalizeAll(log *observability.Logger, rawRecords []json.RawMessage) NormalizeResult {
	result := NormalizeResult{
		Products: make([]Product, 0, len(rawRecords)),
	}

	for i, rec := range rawRecords {
		var raw RawListing
		if err := json.Unmarshal(rec, &raw); err != nil {
			log.Warn().Int("index", i).Err(err).Msg("Skipping malformed listing")
			result.Skipped++
			result.Failures = append(result.Failures, fmt.Sprintf("record %d: %v", i, err))
			continue
		}
		result.Products = append(result.Products, Normalize(raw))
	}

	return result
}
