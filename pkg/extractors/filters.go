package extractors

import "strings"

// LineFilter drops lines that are part of the export chrome rather than the
// conversation. A line is dropped when Match returns true.
type LineFilter struct {
	Name  string
	Match func(line Line) bool
}

var (
	// PageFooter matches "Page N of M" footers placed on the right margin
	PageFooter = LineFilter{
		Name: "page-footer",
		Match: func(line Line) bool {
			return strings.Contains(line.Text, "Page") &&
				strings.Contains(line.Text, "of") &&
				line.X > 400
		},
	}

	// AppMarker matches the bare service label between conversation blocks
	AppMarker = LineFilter{
		Name: "app-marker",
		Match: func(line Line) bool {
			return strings.TrimSpace(line.Text) == "iMessage"
		},
	}

	// Watermark matches the export tool's branding
	Watermark = LineFilter{
		Name: "watermark",
		Match: func(line Line) bool {
			return strings.Contains(line.Text, "DigiDNA") ||
				strings.Contains(line.Text, "iMazing")
		},
	}

	// Metadata matches the export's extraction timestamp lines
	Metadata = LineFilter{
		Name: "metadata",
		Match: func(line Line) bool {
			return strings.Contains(line.Text, "Database date when") ||
				strings.Contains(line.Text, "extracted:")
		},
	}

	// TitlePrefix matches the document title line
	TitlePrefix = LineFilter{
		Name: "title",
		Match: func(line Line) bool {
			return strings.HasPrefix(strings.TrimSpace(line.Text), "Messages - ")
		},
	}
)

// DefaultFilters returns the filters for iMazing message exports
func DefaultFilters() []LineFilter {
	return []LineFilter{PageFooter, AppMarker, Watermark, Metadata, TitlePrefix}
}

func dropped(line Line, filters []LineFilter) bool {
	if line.Text == "" {
		return true
	}
	for _, f := range filters {
		if f.Match(line) {
			return true
		}
	}
	return false
}
