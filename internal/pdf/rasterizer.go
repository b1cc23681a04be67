// Package pdf rasterizes scanned catalog PDFs into per-page images, the
// input boundary for the vision pre-processing steps that run outside this
// module.
package pdf

import (
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"

	"github.com/albertohilal/catalog-sync/internal/observability"
)

// pageQuality is the JPEG quality for rasterized pages; pages feed later
// OCR and segmentation tooling, so quality stays high.
const pageQuality = 90

// Rasterizer converts catalog PDFs to page images.
type Rasterizer struct {
	log *observability.Logger
}

// NewRasterizer creates a rasterizer.
func NewRasterizer(log *observability.Logger) *Rasterizer {
	return &Rasterizer{log: log.WithStage("pages")}
}

// Rasterize renders every page of the PDF at pdfPath into outDir as
// page_%03d.jpg and returns the written paths in page order.
func (r *Rasterizer) Rasterize(ctx context.Context, pdfPath, outDir string) ([]string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pages dir: %w", err)
	}

	paths := make([]string, 0, pageCount)
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.Image(pageNum)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", pageNum+1, err)
		}

		outPath := filepath.Join(outDir, fmt.Sprintf("page_%03d.jpg", pageNum+1))
		f, err := os.Create(outPath)
		if err != nil {
			return nil, fmt.Errorf("create page file: %w", err)
		}

		if err := jpeg.Encode(f, img, &jpeg.Options{Quality: pageQuality}); err != nil {
			f.Close()
			return nil, fmt.Errorf("encode page %d: %w", pageNum+1, err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("close page file: %w", err)
		}

		r.log.Debug().Str("path", outPath).Msg("Rasterized page")
		paths = append(paths, outPath)
	}

	r.log.Info().Int("pages", len(paths)).Str("dir", outDir).Msg("PDF rasterization complete")
	return paths, nil
}
