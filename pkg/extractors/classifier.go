package extractors

// Side is the horizontal alignment of a message line
type Side int

const (
	// Left lines were received
	Left Side = iota
	// Right lines were sent by the exporting device
	Right
)

func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// ClassifiedLine is a kept line with its alignment
type ClassifiedLine struct {
	Text string
	Side Side
	X    float64
}

func classify(line Line, threshold float64) ClassifiedLine {
	side := Left
	if line.X > threshold {
		side = Right
	}
	return ClassifiedLine{
		Text: line.Text,
		Side: side,
		X:    line.X,
	}
}
