// Package pdfmessages reconstructs conversations from PDF message exports
package pdfmessages

import (
	"errors"
	"fmt"

	"github.com/pyhub-apps/pdfmessages-golang/pkg/extractors"
	"github.com/pyhub-apps/pdfmessages-golang/pkg/pdf"
)

// Re-export types for the public API
type (
	Document             = pdf.Document
	Page                 = pdf.Page
	Fragment             = pdf.Fragment
	Metadata             = pdf.Metadata
	PageError            = pdf.PageError
	TextExtractionOption = pdf.TextExtractionOption
	Reconstructor        = extractors.Reconstructor
	Line                 = extractors.Line
	ClassifiedLine       = extractors.ClassifiedLine
	Side                 = extractors.Side
)

// Re-export options and constructors
var (
	WithRunGap             = pdf.WithRunGap
	WithNormalization      = pdf.WithNormalization
	NewReconstructor       = extractors.NewReconstructor
	WithYTolerance         = extractors.WithYTolerance
	WithAlignmentThreshold = extractors.WithAlignmentThreshold
	WithFilters            = extractors.WithFilters
	WithFormatter          = extractors.WithFormatter

	ErrUnreadable = pdf.ErrUnreadable
)

// Open opens a PDF file and returns a Document
func Open(filepath string, opts ...TextExtractionOption) (Document, error) {
	// ledongthuc first: it has the most accurate glyph positions
	doc, err := pdf.OpenWithLedongthuc(filepath, opts...)
	if err == nil {
		return doc, nil
	}

	// Fallback to dslipak implementation
	doc, fallbackErr := pdf.OpenWithDslipak(filepath, opts...)
	if fallbackErr == nil {
		return doc, nil
	}

	// Neither backend could read it; ask pdfcpu why
	if _, inspectErr := pdf.Inspect(filepath, ""); inspectErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadable, filepath, inspectErr)
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrUnreadable, filepath, errors.Join(err, fallbackErr))
}

// ExtractMessages opens a PDF and renders every page with recon. Pages that
// fail are skipped and reported together in the returned error alongside
// the lines of the pages that succeeded.
func ExtractMessages(filepath string, recon *Reconstructor) ([]string, error) {
	if recon == nil {
		recon = extractors.NewReconstructor()
	}

	doc, err := Open(filepath)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	var lines []string
	var pageErrs []error
	for i := 0; i < doc.PageCount(); i++ {
		page, err := doc.GetPage(i)
		if err != nil {
			pageErrs = append(pageErrs, err)
			continue
		}
		fragments, err := page.Fragments()
		if err != nil {
			pageErrs = append(pageErrs, err)
			continue
		}
		lines = append(lines, recon.Render(fragments)...)
	}
	return lines, errors.Join(pageErrs...)
}
