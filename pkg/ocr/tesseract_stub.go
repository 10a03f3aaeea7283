//go:build !ocr

package ocr

import (
	"context"
	"errors"

	"github.com/pyhub-apps/pdfmessages-golang/pkg/retry"
)

// ErrTesseractNotEnabled is returned when the Tesseract engine was not
// compiled in. Rebuild with the "ocr" tag to enable it:
//
//	go build -tags ocr ./cmd/pdfmessages
//
// This requires the Tesseract and Leptonica development headers, e.g.
// apt-get install libtesseract-dev libleptonica-dev
var ErrTesseractNotEnabled = errors.New("tesseract support not enabled; rebuild with -tags ocr")

// TesseractRecognizer is unavailable in this build
type TesseractRecognizer struct{}

// NewTesseractRecognizer always returns ErrTesseractNotEnabled
func NewTesseractRecognizer(languages ...string) (*TesseractRecognizer, error) {
	return nil, ErrTesseractNotEnabled
}

// Recognize always fails with ErrTesseractNotEnabled, which is never retried
func (t *TesseractRecognizer) Recognize(ctx context.Context, img PageImage) (string, error) {
	return "", retry.Mark(ErrTesseractNotEnabled, retry.Fatal)
}

// Close is a no-op
func (t *TesseractRecognizer) Close() error {
	return nil
}
