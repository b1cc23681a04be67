// Package images downloads product images and persists them with
// content-aware format selection.
package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	_ "image/gif" // registered for image.Decode

	"github.com/albertohilal/catalog-sync/internal/catalog"
	"github.com/albertohilal/catalog-sync/internal/observability"
)

// jpegQuality is the fixed quality for lossy output.
const jpegQuality = 95

// unsafeChars matches everything that may not appear in a product directory
// name derived from a SKU.
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeSKU derives a filesystem-safe directory name from a SKU.
func SanitizeSKU(sku string) string {
	return unsafeChars.ReplaceAllString(sku, "_")
}

// ProductDir returns the image directory for a product under root.
func ProductDir(root, sku string) string {
	return filepath.Join(root, SanitizeSKU(sku))
}

// Acquirer downloads the images referenced by canonical products.
type Acquirer struct {
	log  *observability.Logger
	root string
	http *http.Client

	// Progress, when set, is called after each product is processed.
	Progress func(done, total int)
}

// NewAcquirer creates an acquirer writing under the given images root.
func NewAcquirer(log *observability.Logger, root string, timeout time.Duration) *Acquirer {
	return &Acquirer{
		log:  log.WithStage("images"),
		root: root,
		http: &http.Client{Timeout: timeout},
	}
}

// Result reports the outcome of an acquisition run. Failures carries one
// reason per failed image slot.
type Result struct {
	Downloaded int
	Skipped    int
	Failed     int
	Failures   []string
}

// AcquireAll downloads every referenced image slot that is not already on
// disk. Acquisition is best-effort per image: any fetch, decode or write
// error is logged and counted without aborting the product or the run.
func (a *Acquirer) AcquireAll(ctx context.Context, products []catalog.Product) (*Result, error) {
	result := &Result{}

	for i, prod := range products {
		if err := a.acquireProduct(ctx, prod, result); err != nil {
			return nil, err
		}
		if a.Progress != nil {
			a.Progress(i+1, len(products))
		}
	}

	a.log.Info().
		Int("downloaded", result.Downloaded).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("Image acquisition complete")

	return result, nil
}

func (a *Acquirer) acquireProduct(ctx context.Context, prod catalog.Product, result *Result) error {
	dir := ProductDir(a.root, prod.SKU)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create product dir: %w", err)
	}

	for idx, url := range prod.ImageURLs {
		pos := idx + 1
		jpgPath := filepath.Join(dir, fmt.Sprintf("%d.jpg", pos))
		pngPath := filepath.Join(dir, fmt.Sprintf("%d.png", pos))

		// Idempotent re-run: an existing slot is never re-downloaded or
		// re-verified.
		if fileExists(jpgPath) || fileExists(pngPath) {
			result.Skipped++
			continue
		}

		saved, err := a.fetchAndPersist(ctx, url, jpgPath, pngPath)
		if err != nil {
			a.log.Warn().Str("sku", prod.SKU).Str("url", url).Err(err).Msg("Image acquisition failed")
			result.Failed++
			result.Failures = append(result.Failures, fmt.Sprintf("%s #%d (%s): %v", prod.SKU, pos, url, err))
			continue
		}

		a.log.Debug().Str("path", saved).Msg("Saved image")
		result.Downloaded++
	}

	return nil
}

// fetchAndPersist downloads one image and writes it as PNG when the decoded
// payload carries transparency, JPEG otherwise. Returns the path written.
func (a *Acquirer) fetchAndPersist(ctx context.Context, url, jpgPath, pngPath string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch: status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}

	if hasTransparency(img) {
		if err := writePNG(pngPath, img); err != nil {
			return "", err
		}
		return pngPath, nil
	}

	if err := writeJPEG(jpgPath, img); err != nil {
		return "", err
	}
	return jpgPath, nil
}

// hasTransparency reports whether the decoded image carries an alpha
// channel or palette transparency. The decision is made on content, never
// on the URL extension.
func hasTransparency(img image.Image) bool {
	switch m := img.(type) {
	case *image.NRGBA, *image.NRGBA64:
		// Decoded with an alpha channel (includes greyscale+alpha sources).
		return true
	case *image.RGBA:
		return !m.Opaque()
	case *image.RGBA64:
		return !m.Opaque()
	case *image.Paletted:
		return !m.Opaque()
	}
	return false
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}

func writeJPEG(path string, img image.Image) error {
	// Flatten to a three-channel representation before lossy encoding.
	b := img.Bounds()
	rgb := image.NewRGBA(b)
	draw.Draw(rgb, b, img, b.Min, draw.Src)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	if err := jpeg.Encode(f, rgb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return f.Close()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
