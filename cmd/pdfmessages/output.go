package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/pyhub-apps/pdfmessages-golang/pkg/batch"
	"github.com/pyhub-apps/pdfmessages-golang/pkg/ocr"
)

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// dimStyle for muted labels
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// successStyle for success counts
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// warnStyle for skipped work
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	// errorStyle for error indicators
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// boxStyle for summary box with rounded border
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

// count renders n with style when it is non-zero and dimmed otherwise
func count(n int, style lipgloss.Style) string {
	if n == 0 {
		return dimStyle.Render("0")
	}
	return style.Render(fmt.Sprint(n))
}

// FormatExtractSummary renders the result of an extract run
func FormatExtractSummary(w io.Writer, s batch.Summary) {
	content := fmt.Sprintf("%s\n%s %s  %s %s  %s %s  %s %s\n%s %d  %s %s  %s %d",
		titleStyle.Render("Extraction complete"),
		dimStyle.Render("Written:"), count(s.Processed, successStyle),
		dimStyle.Render("Skipped:"), count(s.Skipped, warnStyle),
		dimStyle.Render("Missing:"), count(s.Missing, errorStyle),
		dimStyle.Render("Failed:"), count(s.Failed, errorStyle),
		dimStyle.Render("Pages:"), s.Pages,
		dimStyle.Render("Page errors:"), count(s.PageErrors, errorStyle),
		dimStyle.Render("Lines:"), s.Lines,
	)
	fmt.Fprintln(w, boxStyle.Render(content))
}

// FormatOCRSummary renders the result of an OCR run
func FormatOCRSummary(w io.Writer, mode ocr.Mode, s ocr.Summary) {
	content := fmt.Sprintf("%s %s\n%s %s  %s %s  %s %s  %s %s",
		titleStyle.Render("OCR complete"), dimStyle.Render("("+mode.String()+")"),
		dimStyle.Render("Done:"), count(s.Done, successStyle),
		dimStyle.Render("Skipped:"), count(s.Skipped, warnStyle),
		dimStyle.Render("Failed:"), count(s.Failed, errorStyle),
		dimStyle.Render("Page errors:"), count(s.PageErrors, errorStyle),
	)
	fmt.Fprintln(w, boxStyle.Render(content))
}
