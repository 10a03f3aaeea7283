package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pyhub-apps/pdfmessages-golang/pkg/pdf"
	"github.com/pyhub-apps/pdfmessages-golang/pkg/retry"
)

// RenderFunc opens a PDF for page rendering
type RenderFunc func(path string) (pdf.Renderer, error)

// Status is the outcome of one file
type Status int

const (
	StatusDone Status = iota
	StatusSkipped
)

// FileResult describes one processed file
type FileResult struct {
	Output     string
	Status     Status
	Pages      int
	PageErrors int
}

// Summary counts the outcome of Run
type Summary struct {
	Done       int
	Skipped    int
	Failed     int
	PageErrors int
}

// Processor renders PDFs and writes one markdown file per input
type Processor struct {
	recognizer Recognizer
	render     RenderFunc
	mode       Mode
	pageDelay  time.Duration
	policy     retry.Policy
	logger     *slog.Logger
}

// ProcessorOption configures a Processor
type ProcessorOption func(*Processor)

// WithPageDelay overrides the mode's pause between pages
func WithPageDelay(d time.Duration) ProcessorOption {
	return func(p *Processor) {
		if d >= 0 {
			p.pageDelay = d
		}
	}
}

// WithRetryPolicy sets the policy used around each recognition call
func WithRetryPolicy(policy retry.Policy) ProcessorOption {
	return func(p *Processor) {
		p.policy = policy
	}
}

// WithLogger sets the processor logger
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProcessor creates a processor
func NewProcessor(recognizer Recognizer, render RenderFunc, mode Mode, opts ...ProcessorOption) *Processor {
	p := &Processor{
		recognizer: recognizer,
		render:     render,
		mode:       mode,
		pageDelay:  mode.DefaultPageDelay(),
		policy:     retry.DefaultPolicy(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "ocr", "mode", mode.String())
	p.policy.Logger = p.logger
	return p
}

// Run processes inputs in order. In recursive mode each file is written
// below outDir at its RelDir. The error is non-nil only on cancellation.
func (p *Processor) Run(ctx context.Context, inputs []Input, outDir string) (Summary, error) {
	var summary Summary
	p.logger.Info("starting", "files", len(inputs), "output", outDir)

	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result, err := p.ProcessFile(ctx, in.Path, filepath.Join(outDir, in.RelDir))
		summary.PageErrors += result.PageErrors
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return summary, err
		case err != nil:
			p.logger.Error("failed to process file", "input", in.Path, "error", err)
			summary.Failed++
		case result.Status == StatusSkipped:
			summary.Skipped++
		default:
			summary.Done++
		}
	}
	return summary, nil
}

// ProcessFile writes <outDir>/<stem>.md for one PDF. An existing output is
// left untouched. Page failures are recorded inline and do not stop the file.
func (p *Processor) ProcessFile(ctx context.Context, pdfPath, outDir string) (FileResult, error) {
	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	result := FileResult{Output: filepath.Join(outDir, stem+".md")}
	logger := p.logger.With("input", pdfPath)

	if _, err := os.Stat(result.Output); err == nil {
		logger.Info("output exists, skipping", "output", result.Output)
		result.Status = StatusSkipped
		return result, nil
	}

	renderer, err := p.render(pdfPath)
	if err != nil {
		return result, fmt.Errorf("failed to convert PDF to images: %w", err)
	}
	defer renderer.Close()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return result, fmt.Errorf("failed to create output directory: %w", err)
	}

	out, err := newPageWriter(p.mode, result.Output, stem)
	if err != nil {
		return result, err
	}

	total := renderer.PageCount()
	logger.Info("processing file", "pages", total)

	for i := 0; i < total; i++ {
		if i > 0 && p.pageDelay > 0 {
			if err := retry.Sleep(ctx, p.pageDelay); err != nil {
				out.abort()
				return result, err
			}
		}

		n := i + 1
		text, err := p.page(ctx, renderer, i)
		if err != nil {
			if ctx.Err() != nil {
				out.abort()
				return result, ctx.Err()
			}
			logger.Warn("page failed", "page", n, "error", err)
			result.PageErrors++
			text = p.mode.pageError(n, err)
		} else {
			result.Pages++
		}

		if err := out.page(n, text); err != nil {
			out.abort()
			return result, err
		}
	}

	if err := out.close(); err != nil {
		return result, err
	}
	logger.Info("saved", "output", result.Output, "pages", result.Pages, "page_errors", result.PageErrors)
	return result, nil
}

func (p *Processor) page(ctx context.Context, renderer pdf.Renderer, index int) (string, error) {
	data, err := renderer.RenderPage(index)
	if err != nil {
		return "", err
	}

	img := PageImage{Page: index + 1, JPEG: data, Prompt: p.mode.Prompt()}
	var text string
	err = p.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		text, err = p.recognizer.Recognize(ctx, img)
		return err
	})
	return text, err
}

// pageWriter appends each page to the output as it completes in messages
// mode; transcripts are written once at the end.
type pageWriter struct {
	mode Mode
	path string
	file *os.File
	buf  strings.Builder
}

func newPageWriter(mode Mode, path, stem string) (*pageWriter, error) {
	w := &pageWriter{mode: mode, path: path}
	if mode == ModeTranscript {
		w.buf.WriteString(mode.header(stem))
		return w, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}
	w.file = f
	if _, err := f.WriteString(mode.header(stem)); err != nil {
		w.abort()
		return nil, fmt.Errorf("failed to write output: %w", err)
	}
	return w, nil
}

func (w *pageWriter) page(n int, text string) error {
	chunk := w.mode.page(n, text)
	if w.file == nil {
		w.buf.WriteString(chunk)
		return nil
	}
	if _, err := w.file.WriteString(chunk); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (w *pageWriter) close() error {
	if w.file != nil {
		return w.file.Close()
	}
	if err := os.WriteFile(w.path, []byte(w.buf.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// abort removes a partial output so the file is not skipped on the next run
func (w *pageWriter) abort() {
	if w.file != nil {
		w.file.Close()
		os.Remove(w.path)
	}
}
