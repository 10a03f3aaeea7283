package pdf

import (
	"io"
)

// Document represents an opened PDF document
type Document interface {
	// GetMetadata returns the PDF metadata
	GetMetadata() Metadata

	// GetPage returns a specific page by index (0-based)
	GetPage(index int) (Page, error)

	// PageCount returns the total number of pages
	PageCount() int

	// Close releases resources associated with the document
	Close() error
}

// Page represents a single page in a PDF document
type Page interface {
	// GetPageNumber returns the page number (1-based)
	GetPageNumber() int

	// GetWidth returns the page width
	GetWidth() float64

	// GetHeight returns the page height
	GetHeight() float64

	// GetRotation returns the page rotation in degrees
	GetRotation() int

	// Fragments returns the positioned text runs of the page in content
	// stream order. A page whose content cannot be decoded returns a *PageError.
	Fragments() ([]Fragment, error)

	// ExtractText returns the page text in content stream order
	ExtractText() (string, error)
}

// Renderer rasterises pages for OCR
type Renderer interface {
	io.Closer

	// PageCount returns the total number of pages
	PageCount() int

	// RenderPage encodes page index (0-based) as a JPEG image
	RenderPage(index int) ([]byte, error)
}
