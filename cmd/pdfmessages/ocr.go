package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pyhub-apps/pdfmessages-golang/pkg/ocr"
	"github.com/pyhub-apps/pdfmessages-golang/pkg/pdf"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr",
	Short: "Transcribe scanned PDF exports page by page",
	Long: `OCR renders every page of each input PDF to a JPEG and transcribes it,
either with a vision model behind an OpenAI-compatible API (Gemini by default)
or with a local Tesseract engine. The Tesseract engine needs a binary built
with -tags ocr and the tesseract development headers installed.

Two modes are available:
  messages    each message becomes a left or right aligned HTML div
  transcript  a forensic Markdown transcription of the whole page

One Markdown file is written per PDF. Files whose output already exists are
skipped, and a failed page is recorded inline without stopping the file.`,
	RunE: runOCR,
}

func init() {
	ocrCmd.Flags().StringP("input", "i", "", "input PDF or directory (required)")
	ocrCmd.Flags().StringP("output", "o", "", "output directory (required)")
	ocrCmd.Flags().BoolP("recursive", "r", false, "scan subdirectories and mirror them in the output")
	ocrCmd.Flags().String("engine", "vision", "recognition engine: vision or tesseract")
	ocrCmd.Flags().String("mode", ocr.ModeMessages.String(), "output mode: messages or transcript")
	ocrCmd.Flags().String("model", "", "vision model name")
	ocrCmd.Flags().String("api-key", "", "API key (default: GEMINI_API_KEY, GOOGLE_API_KEY or OPENAI_API_KEY)")
	ocrCmd.Flags().String("base-url", "", "OpenAI-compatible API base URL")
	ocrCmd.Flags().Float64("dpi", 0, "render resolution (default depends on mode)")
	ocrCmd.Flags().Int("max-width", 0, "downscale pages wider than this many pixels")
	ocrCmd.Flags().Duration("page-delay", 0, "pause between pages (default depends on mode)")
	ocrCmd.Flags().StringSlice("skip", ocr.DefaultSkip, "skip PDFs whose name contains any of these")
	ocrCmd.Flags().StringSlice("lang", []string{"eng"}, "tesseract languages")
	_ = ocrCmd.MarkFlagRequired("input")
	_ = ocrCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(ocrCmd)
}

func runOCR(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	mode := cfg.OCR.ParsedMode()

	inputs, err := ocr.Discover(input, cfg.OCR.Recursive, cfg.OCR.Skip)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, warnStyle.Render("No PDF files found in "+input))
		return nil
	}

	recognizer, err := newRecognizer()
	if err != nil {
		return err
	}
	if c, ok := recognizer.(io.Closer); ok {
		defer c.Close()
	}

	dpi := cfg.OCR.DPI
	if dpi == 0 {
		dpi = mode.DefaultDPI()
	}
	render := func(path string) (pdf.Renderer, error) {
		return pdf.OpenRenderer(path, dpi, cfg.OCR.MaxWidth)
	}

	opts := []ocr.ProcessorOption{ocr.WithRetryPolicy(cfg.OCR.RetryPolicy())}
	if cfg.OCR.PageDelay > 0 {
		opts = append(opts, ocr.WithPageDelay(cfg.OCR.PageDelay))
	}

	processor := ocr.NewProcessor(recognizer, render, mode, opts...)
	summary, err := processor.Run(cmd.Context(), inputs, output)
	FormatOCRSummary(os.Stderr, mode, summary)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed", summary.Failed)
	}
	return nil
}

func newRecognizer() (ocr.Recognizer, error) {
	switch cfg.OCR.Engine {
	case "tesseract":
		return ocr.NewTesseractRecognizer(cfg.OCR.Languages...)
	default:
		if cfg.APIKey == "" {
			return nil, errors.New("vision engine needs an API key: set GEMINI_API_KEY or --api-key")
		}
		return ocr.NewVisionRecognizer(ocr.VisionConfig{
			BaseURL:   cfg.BaseURL,
			APIKey:    cfg.APIKey,
			Model:     cfg.OCR.Model,
			MaxTokens: cfg.OCR.MaxTokens,
		})
	}
}
