package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pyhub-apps/pdfmessages-golang"
	"github.com/pyhub-apps/pdfmessages-golang/pkg/batch"
	"github.com/pyhub-apps/pdfmessages-golang/pkg/extractors"
	"github.com/pyhub-apps/pdfmessages-golang/pkg/pdf"
)

var extractCmd = &cobra.Command{
	Use:   "extract [pdf...]",
	Short: "Reconstruct conversations from text-layer PDF exports",
	Long: `Extract reads the text layer of each PDF, rebuilds its visual lines,
drops export boilerplate (page footers, watermarks, metadata, titles) and writes
one styled line per message next to the input with a .md extension.

Inputs come from the arguments, from --dir, or from a YAML jobs file given with
--jobs or extract.jobs in the config:

  jobs:
    - input: exports/alice.pdf
      output: out/alice.md

Existing outputs are kept unless --overwrite is set. A file with pages that
could not be read is not written, so the next run tries it again; use
--keep-partial to write the readable pages anyway.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("jobs", "", "YAML jobs file listing input and output paths")
	extractCmd.Flags().String("dir", "", "convert every PDF in this directory")
	extractCmd.Flags().Bool("recursive", false, "with --dir, include subdirectories")
	extractCmd.Flags().Bool("overwrite", false, "replace existing output files")
	extractCmd.Flags().Bool("keep-partial", false, "write files even when some pages fail")
	extractCmd.Flags().Bool("plain", false, "write plain text lines instead of HTML divs")
	extractCmd.Flags().Float64("y-tolerance", extractors.DefaultYTolerance, "vertical distance that starts a new line")
	extractCmd.Flags().Float64("alignment-threshold", extractors.DefaultAlignmentThreshold, "x position beyond which a line is right-aligned")
	extractCmd.Flags().Int("progress-every", batch.DefaultProgressEvery, "log progress every n pages (0 disables)")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	jobs, err := extractJobs(cmd, args)
	if err != nil {
		return err
	}

	var opts []extractors.Option
	if plain, _ := cmd.Flags().GetBool("plain"); plain {
		opts = append(opts, extractors.WithFormatter(extractors.PlainFormatter))
	}

	driver := batch.NewDriver(openDocument, cfg.Extract.Reconstructor(opts...))
	summary, err := driver.Run(cmd.Context(), batch.Config{
		Jobs:          jobs,
		Overwrite:     cfg.Extract.Overwrite,
		KeepPartial:   cfg.Extract.KeepPartial,
		ProgressEvery: cfg.Extract.ProgressEvery,
	})
	FormatExtractSummary(os.Stderr, summary)
	if err != nil {
		return err
	}
	if n := summary.Failed + summary.Missing; n > 0 {
		return fmt.Errorf("%d file(s) could not be converted", n)
	}
	if summary.PageErrors > 0 {
		return fmt.Errorf("%d page(s) could not be read", summary.PageErrors)
	}
	return nil
}

// extractJobs resolves the inputs in order of precedence: arguments, --dir,
// then the jobs file.
func extractJobs(cmd *cobra.Command, args []string) ([]batch.Job, error) {
	if len(args) > 0 {
		jobs := make([]batch.Job, len(args))
		for i, in := range args {
			jobs[i] = batch.Job{Input: in, Output: batch.OutputFor(in)}
		}
		return jobs, nil
	}

	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		recursive, _ := cmd.Flags().GetBool("recursive")
		return batch.JobsFromDir(dir, recursive)
	}

	if cfg.Extract.Jobs != "" {
		return batch.LoadJobs(cfg.Extract.Jobs)
	}
	return nil, errors.New("no input: pass PDF files, --dir or --jobs")
}

func openDocument(path string) (pdf.Document, error) {
	return pdfmessages.Open(path)
}
