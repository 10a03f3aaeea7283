package extractors

import "fmt"

// Formatter turns a classified line into one output line
type Formatter func(line ClassifiedLine) string

const (
	rightStyle = "text-align: right; margin: 5px; color: #0066cc;"
	leftStyle  = "text-align: left; margin: 5px; color: #333;"
)

// HTMLFormatter emits a styled div per line. Text is written as extracted,
// without HTML escaping.
func HTMLFormatter(line ClassifiedLine) string {
	style := leftStyle
	if line.Side == Right {
		style = rightStyle
	}
	return fmt.Sprintf(`<div style="%s">%s</div>`, style, line.Text)
}

// PlainFormatter emits the text prefixed with its side marker
func PlainFormatter(line ClassifiedLine) string {
	if line.Side == Right {
		return "> " + line.Text
	}
	return line.Text
}
