package extractors

import "github.com/pyhub-apps/pdfmessages-golang/pkg/pdf"

const (
	// DefaultYTolerance is the baseline distance that starts a new line
	DefaultYTolerance = 5.0
	// DefaultAlignmentThreshold is the leftmost x beyond which a line is sent
	DefaultAlignmentThreshold = 200.0
)

// Reconstructor rebuilds message lines from positioned page fragments.
// It holds configuration only and is safe for concurrent use.
type Reconstructor struct {
	yTolerance float64
	threshold  float64
	filters    []LineFilter
	format     Formatter
}

// Option configures a Reconstructor
type Option func(*Reconstructor)

// WithYTolerance sets the line grouping tolerance. Non-positive values are ignored.
func WithYTolerance(tolerance float64) Option {
	return func(r *Reconstructor) {
		if tolerance > 0 {
			r.yTolerance = tolerance
		}
	}
}

// WithAlignmentThreshold sets the x above which a line is classified Right
func WithAlignmentThreshold(threshold float64) Option {
	return func(r *Reconstructor) {
		r.threshold = threshold
	}
}

// WithFilters replaces the default filter set
func WithFilters(filters ...LineFilter) Option {
	return func(r *Reconstructor) {
		r.filters = filters
	}
}

// WithFormatter replaces the HTML formatter
func WithFormatter(format Formatter) Option {
	return func(r *Reconstructor) {
		if format != nil {
			r.format = format
		}
	}
}

// NewReconstructor creates a reconstructor with the iMazing export defaults
func NewReconstructor(opts ...Option) *Reconstructor {
	r := &Reconstructor{
		yTolerance: DefaultYTolerance,
		threshold:  DefaultAlignmentThreshold,
		filters:    DefaultFilters(),
		format:     HTMLFormatter,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GroupLines returns every non-empty line of the page, top to bottom
func (r *Reconstructor) GroupLines(fragments []pdf.Fragment) []Line {
	// groupLines sorts in place
	owned := make([]pdf.Fragment, len(fragments))
	copy(owned, fragments)
	return groupLines(owned, r.yTolerance)
}

// Classify returns the lines that survive filtering, with their side
func (r *Reconstructor) Classify(fragments []pdf.Fragment) []ClassifiedLine {
	lines := r.GroupLines(fragments)
	out := make([]ClassifiedLine, 0, len(lines))
	for _, line := range lines {
		if dropped(line, r.filters) {
			continue
		}
		out = append(out, classify(line, r.threshold))
	}
	return out
}

// Render returns one formatted output line per kept line
func (r *Reconstructor) Render(fragments []pdf.Fragment) []string {
	classified := r.Classify(fragments)
	out := make([]string, 0, len(classified))
	for _, line := range classified {
		out = append(out, r.format(line))
	}
	return out
}
