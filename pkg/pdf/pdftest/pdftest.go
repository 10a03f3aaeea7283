// Package pdftest writes small text-only PDF files for tests
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"
)

// Text is one string drawn at a position in 12pt Helvetica
type Text struct {
	X, Y float64
	S    string
}

// CreationDate is written to the document information of every file
const CreationDate = "D:20240102030405"

// glyphWidth is the advance of every glyph in 1/1000 text space units
const glyphWidth = 500

// Write creates a PDF at path with one page per entry of pages.
// Every glyph is 6 points wide, so "Hello" spans x to x+30.
func Write(t testing.TB, path, title string, pages ...[]Text) {
	t.Helper()
	if err := os.WriteFile(path, Build(title, pages...), 0o644); err != nil {
		t.Fatalf("writing test PDF: %v", err)
	}
}

// Build returns the bytes of a PDF with the given pages
func Build(title string, pages ...[]Text) []byte {
	var objects []string

	// 1 catalog, 2 page tree, 3 font, 4 info, then page/content pairs
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 5+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		fontObject(),
		fmt.Sprintf("<< /Title (%s) /Producer (pdftest) /CreationDate (%s) >>", escape(title), CreationDate),
	)

	for i, texts := range pages {
		var content bytes.Buffer
		for _, tx := range texts {
			fmt.Fprintf(&content, "BT /F1 12 Tf %.2f %.2f Td (%s) Tj ET\n", tx.X, tx.Y, escape(tx.S))
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 6+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
		)
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n", len(objects)+1)
	out.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return out.Bytes()
}

func fontObject() string {
	widths := make([]string, 126-32+1)
	for i := range widths {
		widths[i] = fmt.Sprint(glyphWidth)
	}
	return "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding " +
		"/FirstChar 32 /LastChar 126 /Widths [" + strings.Join(widths, " ") + "] >>"
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`).Replace(s)
}
