package ocr

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotPDF is returned by Discover for a single non-PDF input file
var ErrNotPDF = errors.New("not a PDF file")

// DefaultSkip lists name fragments of exports that are never OCR'd
var DefaultSkip = []string{"portfolio"}

// Input is a discovered PDF and the output subdirectory it maps to
type Input struct {
	Path   string
	RelDir string // relative to the scanned root; "" outside recursive mode
}

// Discover lists the PDFs to process. input may be a single PDF or a
// directory. In a directory, names containing any skip fragment (case
// insensitive) are ignored; recursive mode keeps the subdirectory of each
// file in RelDir.
func Discover(input string, recursive bool, skip []string) ([]Input, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("invalid input path: %w", err)
	}

	if !info.IsDir() {
		if !isPDF(input) {
			return nil, fmt.Errorf("%s: %w", input, ErrNotPDF)
		}
		return []Input{{Path: input}}, nil
	}

	var inputs []Input
	err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != input && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !isPDF(path) || skipped(d.Name(), skip) {
			return nil
		}

		in := Input{Path: path}
		if recursive {
			rel, err := filepath.Rel(input, filepath.Dir(path))
			if err != nil {
				return err
			}
			if rel != "." {
				in.RelDir = rel
			}
		}
		inputs = append(inputs, in)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", input, err)
	}
	return inputs, nil
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func skipped(name string, patterns []string) bool {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
