// Package batch converts message-export PDFs to markdown files, one job at a
// time. A failing page or file is logged and counted, never fatal.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pyhub-apps/pdfmessages-golang/pkg/extractors"
	"github.com/pyhub-apps/pdfmessages-golang/pkg/pdf"
)

// OpenFunc opens a PDF for extraction
type OpenFunc func(path string) (pdf.Document, error)

// Config is the work handed to a Driver
type Config struct {
	Jobs      []Job
	Overwrite bool
	// KeepPartial writes the output of a file even when some of its pages
	// failed. Such outputs are skipped by later runs without Overwrite.
	KeepPartial bool
	// ProgressEvery logs a progress line every n pages; zero disables it
	ProgressEvery int
}

// DefaultProgressEvery matches the page interval of the progress log
const DefaultProgressEvery = 100

// Summary counts the outcome of a run
type Summary struct {
	Processed  int // Files written
	Skipped    int // Output already present
	Missing    int // Input not found
	Failed     int // Input could not be opened or output not written
	Pages      int // Pages extracted successfully
	PageErrors int // Pages that failed and were skipped
	Lines      int // Message lines written
}

// Total returns the number of jobs accounted for
func (s Summary) Total() int {
	return s.Processed + s.Skipped + s.Missing + s.Failed
}

// HasFailures reports whether any job or page did not convert
func (s Summary) HasFailures() bool {
	return s.Failed > 0 || s.Missing > 0 || s.PageErrors > 0
}

// Driver runs extraction jobs sequentially
type Driver struct {
	open   OpenFunc
	recon  *extractors.Reconstructor
	logger *slog.Logger
}

// DriverOption configures a Driver
type DriverOption func(*Driver)

// WithLogger sets the logger; the component attribute is added by the driver
func WithLogger(logger *slog.Logger) DriverOption {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDriver creates a driver. A nil reconstructor uses the defaults.
func NewDriver(open OpenFunc, recon *extractors.Reconstructor, opts ...DriverOption) *Driver {
	if recon == nil {
		recon = extractors.NewReconstructor()
	}
	d := &Driver{
		open:   open,
		recon:  recon,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "batch")
	return d
}

// Run processes every job in order. The returned error is non-nil only when
// ctx is cancelled; per-file problems are reported in the Summary.
func (d *Driver) Run(ctx context.Context, cfg Config) (Summary, error) {
	var summary Summary

	for _, job := range cfg.Jobs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := d.runJob(ctx, job, cfg, &summary); err != nil {
			return summary, err
		}
	}

	d.logger.Info("batch finished",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"missing", summary.Missing,
		"failed", summary.Failed,
		"page_errors", summary.PageErrors)
	return summary, nil
}

func (d *Driver) runJob(ctx context.Context, job Job, cfg Config, summary *Summary) error {
	logger := d.logger.With("input", job.Input)

	if _, err := os.Stat(job.Input); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("file not found")
			summary.Missing++
			return nil
		}
		logger.Error("failed to stat input", "error", err)
		summary.Failed++
		return nil
	}

	output := job.Output
	if output == "" {
		output = OutputFor(job.Input)
	}
	if !cfg.Overwrite {
		if _, err := os.Stat(output); err == nil {
			logger.Info("output exists, skipping", "output", output)
			summary.Skipped++
			return nil
		}
	}

	logger.Info("processing file")
	doc, err := d.open(job.Input)
	if err != nil {
		logger.Error("failed to open PDF", "error", err)
		summary.Failed++
		return nil
	}
	defer doc.Close()

	pageErrors := summary.PageErrors
	pages := summary.Pages
	lines, err := d.extract(ctx, logger, doc, cfg.ProgressEvery, summary)
	if err != nil {
		return err
	}

	// An output on disk is skipped by later runs, so a file with failed pages
	// is only written when partial results were asked for.
	if failed := summary.PageErrors - pageErrors; failed > 0 {
		if !cfg.KeepPartial || summary.Pages == pages {
			logger.Error("pages failed, output not written", "failed_pages", failed)
			summary.Failed++
			return nil
		}
		logger.Warn("writing partial output", "failed_pages", failed)
	}

	if err := writeOutput(output, lines); err != nil {
		logger.Error("failed to write output", "output", output, "error", err)
		summary.Failed++
		return nil
	}

	summary.Processed++
	summary.Lines += len(lines)
	logger.Info("saved", "output", output, "lines", len(lines))
	return nil
}

func (d *Driver) extract(ctx context.Context, logger *slog.Logger, doc pdf.Document, every int, summary *Summary) ([]string, error) {
	total := doc.PageCount()
	logger.Info("document opened", "pages", total)

	var lines []string
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if every > 0 && i%every == 0 {
			logger.Info(fmt.Sprintf("Processing page %d/%d", i+1, total))
		}

		fragments, err := pageFragments(doc, i)
		if err != nil {
			logger.Error("failed to extract page", "page", i+1, "error", err)
			summary.PageErrors++
			continue
		}

		summary.Pages++
		lines = append(lines, d.recon.Render(fragments)...)
	}
	return lines, nil
}

func pageFragments(doc pdf.Document, index int) ([]pdf.Fragment, error) {
	page, err := doc.GetPage(index)
	if err != nil {
		return nil, err
	}
	return page.Fragments()
}

func writeOutput(path string, lines []string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644)
}
