package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/image/draw"
)

// FitzRenderer implements Renderer using MuPDF through go-fitz
type FitzRenderer struct {
	doc      *fitz.Document
	dpi      float64
	maxWidth int
	quality  int
}

// OpenRenderer opens a PDF for rasterisation at the given DPI.
// Pages wider than maxWidth pixels are scaled down; zero disables scaling.
func OpenRenderer(filepath string, dpi float64, maxWidth int) (*FitzRenderer, error) {
	doc, err := fitz.New(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF with fitz: %w", err)
	}
	if dpi <= 0 {
		dpi = 200
	}
	return &FitzRenderer{
		doc:      doc,
		dpi:      dpi,
		maxWidth: maxWidth,
		quality:  90,
	}, nil
}

// PageCount returns the total number of pages
func (r *FitzRenderer) PageCount() int {
	return r.doc.NumPage()
}

// RenderPage encodes page index (0-based) as a JPEG image
func (r *FitzRenderer) RenderPage(index int) ([]byte, error) {
	if index < 0 || index >= r.doc.NumPage() {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrPageOutOfRange, index, r.doc.NumPage())
	}

	img, err := r.doc.ImageDPI(index, r.dpi)
	if err != nil {
		return nil, &PageError{Page: index + 1, Err: fmt.Errorf("failed to render: %w", err)}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, downscale(img, r.maxWidth), &jpeg.Options{Quality: r.quality}); err != nil {
		return nil, &PageError{Page: index + 1, Err: fmt.Errorf("failed to encode image: %w", err)}
	}
	return buf.Bytes(), nil
}

// Close releases the MuPDF document
func (r *FitzRenderer) Close() error {
	return r.doc.Close()
}

func downscale(src image.Image, maxWidth int) image.Image {
	bounds := src.Bounds()
	if maxWidth <= 0 || bounds.Dx() <= maxWidth {
		return src
	}
	height := bounds.Dy() * maxWidth / bounds.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
