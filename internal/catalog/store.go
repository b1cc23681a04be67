package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact file names. Each one is a durable checkpoint consumable by the
// next stage independent of process lifetime.
const (
	pageFilePattern = "products_page_%d.json"
	mergedFileName  = "all_products.json"
	normFileName    = "products.json"
)

// ArtifactStore persists stage checkpoints as JSON files on disk.
type ArtifactStore struct {
	rawDir        string
	normalizedDir string
}

// NewArtifactStore creates an artifact store rooted at the given directories.
func NewArtifactStore(rawDir, normalizedDir string) *ArtifactStore {
	return &ArtifactStore{rawDir: rawDir, normalizedDir: normalizedDir}
}

// feedPage mirrors the feed's page envelope.
type feedPage struct {
	Products []json.RawMessage `json:"products"`
}

// SavePage persists one raw feed page exactly as received.
func (s *ArtifactStore) SavePage(page int, body []byte) error {
	if err := os.MkdirAll(s.rawDir, 0o755); err != nil {
		return fmt.Errorf("create raw dir: %w", err)
	}

	path := filepath.Join(s.rawDir, fmt.Sprintf(pageFilePattern, page))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write page artifact: %w", err)
	}
	return nil
}

// SaveMerged persists the merged raw corpus under the feed's envelope shape.
func (s *ArtifactStore) SaveMerged(records []json.RawMessage) error {
	if err := os.MkdirAll(s.rawDir, 0o755); err != nil {
		return fmt.Errorf("create raw dir: %w", err)
	}

	data, err := json.MarshalIndent(feedPage{Products: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal merged corpus: %w", err)
	}

	path := filepath.Join(s.rawDir, mergedFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write merged artifact: %w", err)
	}
	return nil
}

// LoadMerged reads the merged raw corpus written by the fetch stage.
func (s *ArtifactStore) LoadMerged() ([]json.RawMessage, error) {
	path := filepath.Join(s.rawDir, mergedFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read merged artifact: %w", err)
	}

	var page feedPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("parse merged artifact: %w", err)
	}
	return page.Products, nil
}

// SaveNormalized persists the normalized product corpus.
func (s *ArtifactStore) SaveNormalized(products []Product) error {
	if err := os.MkdirAll(s.normalizedDir, 0o755); err != nil {
		return fmt.Errorf("create normalized dir: %w", err)
	}

	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal normalized products: %w", err)
	}

	path := filepath.Join(s.normalizedDir, normFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write normalized artifact: %w", err)
	}
	return nil
}

// LoadNormalized reads the normalized product corpus written by the
// normalize stage.
func (s *ArtifactStore) LoadNormalized() ([]Product, error) {
	path := filepath.Join(s.normalizedDir, normFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read normalized artifact: %w", err)
	}

	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse normalized artifact: %w", err)
	}
	return products, nil
}
