package pdf

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// glyph is the backend-neutral form of one shown glyph. Both ledongthuc/pdf
// and dslipak/pdf report text one glyph at a time.
type glyph struct {
	Font     string
	FontSize float64
	X        float64
	Y        float64
	W        float64
	S        string
}

const (
	// sameBaseline is the y tolerance for glyphs of one run
	sameBaseline = 0.01
	// wordGap is the gap, as a fraction of the font size, above which two
	// glyphs of one run are separate words
	wordGap = 0.15
)

// mergeGlyphs joins consecutive glyphs into runs. A run continues while the
// baseline, font and font size stay the same and the next glyph starts close
// to where the previous one ended. A word gap with no space glyph on either
// side is written as a single space.
func mergeGlyphs(glyphs []glyph, cfg *textExtractionConfig) []Fragment {
	var fragments []Fragment
	var current *Fragment
	var text strings.Builder
	var end float64

	flush := func() {
		if current == nil {
			return
		}
		current.Text = text.String()
		if cfg.Normalize {
			current.Text = norm.NFC.String(current.Text)
		}
		fragments = append(fragments, *current)
		current = nil
		text.Reset()
	}

	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		if g.S == "\n" || g.S == "\r" {
			flush()
			continue
		}

		if current != nil && continuesRun(current, end, g, cfg.RunGap) {
			if g.X-end > wordGap*g.FontSize && !lastIsSpace(text.String()) && !firstIsSpace(g.S) {
				text.WriteByte(' ')
			}
			text.WriteString(g.S)
			end = g.X + g.W
			current.Width = end - current.X
			continue
		}

		flush()
		current = &Fragment{
			X:        g.X,
			Y:        g.Y,
			Font:     g.Font,
			FontSize: g.FontSize,
			Width:    g.W,
		}
		text.WriteString(g.S)
		end = g.X + g.W
	}
	flush()

	return fragments
}

func continuesRun(run *Fragment, end float64, g glyph, gap float64) bool {
	if abs(g.Y-run.Y) > sameBaseline || g.Font != run.Font || g.FontSize != run.FontSize {
		return false
	}
	tolerance := gap * g.FontSize
	if tolerance <= 0 {
		tolerance = 1
	}
	return abs(g.X-end) <= tolerance
}

func lastIsSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(r)
}

func firstIsSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}

// collectGlyphs runs fn and turns a panic from the underlying PDF library
// into a *PageError.
func collectGlyphs(pageNumber int, fn func() []glyph) (glyphs []glyph, err error) {
	defer func() {
		if r := recover(); r != nil {
			glyphs = nil
			err = &PageError{Page: pageNumber, Err: fmt.Errorf("decoding content stream: %v", r)}
		}
	}()
	return fn(), nil
}

// joinGlyphText concatenates glyph text in content stream order
func joinGlyphText(glyphs []glyph) string {
	var text strings.Builder
	for _, g := range glyphs {
		text.WriteString(g.S)
	}
	return text.String()
}
