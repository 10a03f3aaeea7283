package pdf

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPageOutOfRange is returned by GetPage for an index outside the document
	ErrPageOutOfRange = errors.New("page index out of range")

	// ErrUnreadable is returned when no backend could open a file
	ErrUnreadable = errors.New("pdf could not be read")
)

// Fragment is one positioned run of text on a page.
// X and Y are PDF user-space units; Y increases upward.
type Fragment struct {
	X        float64
	Y        float64
	Text     string
	Font     string
	FontSize float64
	Width    float64
}

// BoundingBox represents a rectangular area with coordinates
type BoundingBox struct {
	X0 float64 // Left
	Y0 float64 // Bottom
	X1 float64 // Right
	Y1 float64 // Top
}

// Width returns the width of the bounding box
func (b BoundingBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the height of the bounding box
func (b BoundingBox) Height() float64 {
	return b.Y1 - b.Y0
}

// Metadata represents PDF document metadata
type Metadata struct {
	Title        string
	Author       string
	Subject      string
	Keywords     string
	Creator      string
	Producer     string
	CreationDate time.Time
	ModDate      time.Time
}

// PageError reports a failure to extract content from a single page.
// Page is 1-based.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// TextExtractionOption is a function that modifies text extraction behavior
type TextExtractionOption func(*textExtractionConfig)

type textExtractionConfig struct {
	// RunGap is the largest horizontal gap, as a fraction of the font size,
	// between two glyphs that still belong to the same run.
	RunGap    float64
	Normalize bool
}

func defaultTextExtractionConfig() *textExtractionConfig {
	return &textExtractionConfig{
		RunGap:    0.5,
		Normalize: true,
	}
}

// WithRunGap sets the glyph gap (in multiples of the font size) that ends a text run
func WithRunGap(gap float64) TextExtractionOption {
	return func(c *textExtractionConfig) {
		c.RunGap = gap
	}
}

// WithNormalization toggles NFC normalisation of extracted text
func WithNormalization(enabled bool) TextExtractionOption {
	return func(c *textExtractionConfig) {
		c.Normalize = enabled
	}
}

// Helper functions
func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
