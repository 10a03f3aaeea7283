//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/pyhub-apps/pdfmessages-golang/pkg/retry"
)

// TesseractRecognizer runs the local Tesseract engine. It needs no network
// access and ignores the prompt, so Mode only affects the output layout.
// Tesseract must be installed on the system and the binary built with the
// "ocr" tag.
type TesseractRecognizer struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseractRecognizer creates a recognizer for the given languages
// (default "eng").
func NewTesseractRecognizer(languages ...string) (*TesseractRecognizer, error) {
	client := gosseract.NewClient()
	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set language: %w", err)
		}
	}
	return &TesseractRecognizer{client: client}, nil
}

// Recognize performs OCR on the page image. Engine failures are not retried.
func (t *TesseractRecognizer) Recognize(ctx context.Context, img PageImage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(img.JPEG); err != nil {
		return "", retry.Mark(fmt.Errorf("page %d: failed to set image: %w", img.Page, err), retry.Fatal)
	}
	text, err := t.client.Text()
	if err != nil {
		return "", retry.Mark(fmt.Errorf("page %d: OCR failed: %w", img.Page, err), retry.Fatal)
	}
	return strings.TrimSpace(text), nil
}

// Close releases the engine
func (t *TesseractRecognizer) Close() error {
	if t.client != nil {
		return t.client.Close()
	}
	return nil
}
