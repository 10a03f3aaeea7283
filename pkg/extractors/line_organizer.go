package extractors

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pyhub-apps/pdfmessages-golang/pkg/pdf"
)

// Line is a group of fragments that share a baseline within tolerance
type Line struct {
	Text      string          // Concatenated, trimmed fragment text
	X         float64         // Leftmost fragment x
	Y         float64         // Reference y (first fragment of the line)
	BBox      pdf.BoundingBox // Union of fragment extents
	Fragments []pdf.Fragment  // Ordered by ascending x
}

// groupLines partitions fragments into lines ordered top to bottom.
// A fragment joins the current line while |y - refY| < tolerance, where refY
// is the y of the first fragment placed in that line.
func groupLines(fragments []pdf.Fragment, tolerance float64) []Line {
	kept := make([]pdf.Fragment, 0, len(fragments))
	for _, f := range fragments {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == 0 {
		return nil
	}

	// PDF coordinates: Y increases upward, so descending y is top to bottom
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Y != kept[j].Y {
			return kept[i].Y > kept[j].Y
		}
		return lessByX(kept[i], kept[j])
	})

	var lines []Line
	var current []pdf.Fragment
	refY := kept[0].Y

	for _, f := range kept {
		if abs(f.Y-refY) >= tolerance {
			lines = append(lines, buildLine(current, refY))
			current = nil
			refY = f.Y
		}
		current = append(current, f)
	}
	lines = append(lines, buildLine(current, refY))

	return lines
}

func buildLine(fragments []pdf.Fragment, refY float64) Line {
	sort.SliceStable(fragments, func(i, j int) bool {
		return lessByX(fragments[i], fragments[j])
	})

	var text strings.Builder
	box := pdf.BoundingBox{
		X0: fragments[0].X,
		Y0: fragments[0].Y,
		X1: fragments[0].X + fragments[0].Width,
		Y1: fragments[0].Y,
	}
	for i, f := range fragments {
		if i > 0 && needsSpace(fragments[i-1], f) {
			text.WriteByte(' ')
		}
		text.WriteString(f.Text)
		box.X0 = min(box.X0, f.X)
		box.Y0 = min(box.Y0, f.Y)
		box.X1 = max(box.X1, f.X+f.Width)
		box.Y1 = max(box.Y1, f.Y+f.FontSize)
	}

	return Line{
		Text:      strings.TrimSpace(text.String()),
		X:         fragments[0].X,
		Y:         refY,
		BBox:      box,
		Fragments: fragments,
	}
}

// touchGap is the largest horizontal gap between fragments that still reads
// as one word, e.g. a font change inside a word
const touchGap = 0.5

// needsSpace reports whether two adjacent fragments of a line are separate
// words that carry no whitespace of their own at the boundary.
func needsSpace(prev, next pdf.Fragment) bool {
	if endsWithSpace(prev.Text) || startsWithSpace(next.Text) {
		return false
	}
	return next.X-(prev.X+prev.Width) > touchGap
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(r)
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}

// lessByX orders fragments left to right. Equal positions fall back to the
// remaining fields so the outcome never depends on input order.
func lessByX(a, b pdf.Fragment) bool {
	switch {
	case a.X != b.X:
		return a.X < b.X
	case a.Text != b.Text:
		return a.Text < b.Text
	case a.Width != b.Width:
		return a.Width < b.Width
	case a.FontSize != b.FontSize:
		return a.FontSize < b.FontSize
	default:
		return a.Font < b.Font
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
