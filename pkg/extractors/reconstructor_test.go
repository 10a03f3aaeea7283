package extractors

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/pdfmessages-golang/pkg/pdf"
)

func frag(x, y float64, text string) pdf.Fragment {
	return pdf.Fragment{X: x, Y: y, Text: text}
}

func texts(lines []ClassifiedLine) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Text)
	}
	return out
}

func TestEmptyInput(t *testing.T) {
	r := NewReconstructor()

	assert.Empty(t, r.Render(nil))
	assert.Empty(t, r.Render([]pdf.Fragment{}))
	assert.Empty(t, r.GroupLines(nil))
	assert.Empty(t, r.Render([]pdf.Fragment{frag(10, 10, "   "), frag(20, 10, "")}))
}

func TestEndToEnd(t *testing.T) {
	r := NewReconstructor()

	got := r.Render([]pdf.Fragment{
		frag(50, 700, "Hello"),
		frag(90, 700, "there"),
		frag(300, 650, "Hi!"),
	})

	assert.Equal(t, []string{
		`<div style="text-align: left; margin: 5px; color: #333;">Hello there</div>`,
		`<div style="text-align: right; margin: 5px; color: #0066cc;">Hi!</div>`,
	}, got)
}

func TestPermutationInvariance(t *testing.T) {
	r := NewReconstructor()
	fragments := []pdf.Fragment{
		frag(50, 700, "Hello"),
		frag(90, 701, "there"),
		frag(130, 699, "friend"),
		frag(300, 650, "Hi!"),
		frag(60, 600, "How"),
		frag(90, 600, "are"),
		frag(90, 600, "you"),
		frag(250, 550, "Fine"),
		// Same position and text, told apart only by geometry
		{X: 50, Y: 500, Text: "a", Width: 10},
		frag(50, 500, "a"),
		{X: 50, Y: 500, Text: "a", Width: 10, FontSize: 12, Font: "F2"},
		frag(60, 500, "b"),
	}
	want := r.Render(fragments)
	require.Len(t, want, 5)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := make([]pdf.Fragment, len(fragments))
		copy(shuffled, fragments)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, want, r.Render(shuffled))
	}
}

func TestRenderDoesNotModifyInput(t *testing.T) {
	fragments := []pdf.Fragment{frag(90, 700, "b"), frag(50, 700, "a")}
	NewReconstructor().Render(fragments)
	assert.Equal(t, "b", fragments[0].Text)
}

func TestLineTolerance(t *testing.T) {
	tests := []struct {
		name  string
		dy    float64
		lines int
	}{
		{"well inside", 1, 1},
		{"just inside", 4.99, 1},
		{"exactly at boundary", 5, 2},
		{"beyond", 12, 2},
	}

	r := NewReconstructor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := r.GroupLines([]pdf.Fragment{
				frag(50, 700, "top"),
				frag(80, 700-tt.dy, "next"),
			})
			assert.Len(t, lines, tt.lines)
		})
	}
}

func TestReferenceYIsFirstFragmentOfLine(t *testing.T) {
	// Each step is under the tolerance but the total drift is not
	lines := NewReconstructor().GroupLines([]pdf.Fragment{
		frag(10, 700, "a"),
		frag(20, 697, "b"),
		frag(30, 694, "c"),
	})

	require.Len(t, lines, 2)
	assert.Equal(t, "a b", lines[0].Text)
	assert.Equal(t, 700.0, lines[0].Y)
	assert.Equal(t, "c", lines[1].Text)
	assert.Equal(t, 694.0, lines[1].Y)
}

func TestLineOrderingAndText(t *testing.T) {
	lines := NewReconstructor().GroupLines([]pdf.Fragment{
		frag(120, 500, "world"),
		frag(50, 500, "hello"),
		frag(50, 520, "first"),
	})

	require.Len(t, lines, 2)
	assert.Equal(t, "first", lines[0].Text)
	assert.Equal(t, "hello world", lines[1].Text)
	assert.Equal(t, 50.0, lines[1].X)
	assert.Equal(t, "hello", lines[1].Fragments[0].Text)
}

func TestFragmentJoining(t *testing.T) {
	tests := []struct {
		name      string
		fragments []pdf.Fragment
		want      string
	}{
		{
			name: "touching runs join without space",
			fragments: []pdf.Fragment{
				{X: 50, Y: 700, Text: "bo", Width: 10},
				{X: 60, Y: 700, Text: "ld", Width: 10},
			},
			want: "bold",
		},
		{
			name: "trailing whitespace is not doubled",
			fragments: []pdf.Fragment{
				{X: 50, Y: 700, Text: "Hello ", Width: 30},
				{X: 90, Y: 700, Text: "there", Width: 25},
			},
			want: "Hello there",
		},
		{
			name: "surrounding whitespace is trimmed",
			fragments: []pdf.Fragment{
				{X: 50, Y: 700, Text: "  ok  "},
			},
			want: "ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := NewReconstructor().GroupLines(tt.fragments)
			require.Len(t, lines, 1)
			assert.Equal(t, tt.want, lines[0].Text)
		})
	}
}

func TestClassification(t *testing.T) {
	tests := []struct {
		x    float64
		want Side
	}{
		{199, Left},
		{200, Left},
		{201, Right},
		{0, Left},
	}

	r := NewReconstructor()
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			got := r.Classify([]pdf.Fragment{frag(tt.x, 400, "message")})
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Side)
			assert.Equal(t, tt.x, got[0].X)
		})
	}
}

func TestCustomThreshold(t *testing.T) {
	r := NewReconstructor(WithAlignmentThreshold(100))
	got := r.Classify([]pdf.Fragment{frag(150, 400, "sent")})
	require.Len(t, got, 1)
	assert.Equal(t, Right, got[0].Side)
}

func TestFilters(t *testing.T) {
	tests := []struct {
		name string
		x    float64
		text string
		kept bool
	}{
		{"app marker", 100, "iMessage", false},
		{"app marker in sentence", 100, "sent via iMessage today", true},
		{"footer on the right", 450, "Page 3 of 10", false},
		{"footer text on the left", 50, "Page 3 of 10", true},
		{"watermark", 50, "Exported with iMazing", false},
		{"vendor", 50, "© DigiDNA", false},
		{"database date", 50, "Database date when extracted: 2024-01-01", false},
		{"extraction stamp", 50, "extracted: yesterday", false},
		{"title", 50, "Messages - Alice", false},
		{"title text mid-line", 50, "Re: Messages - Alice", true},
		{"plain message", 50, "See you at 8", true},
	}

	r := NewReconstructor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Classify([]pdf.Fragment{frag(tt.x, 300, tt.text)})
			if tt.kept {
				assert.Equal(t, []string{tt.text}, texts(got))
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestFilterAppliesToWholeLine(t *testing.T) {
	got := NewReconstructor().Classify([]pdf.Fragment{
		frag(450, 30, "Page"),
		frag(480, 30, "3 of 10"),
		frag(50, 300, "kept"),
	})
	assert.Equal(t, []string{"kept"}, texts(got))
}

func TestWithFilters(t *testing.T) {
	r := NewReconstructor(WithFilters())
	got := r.Classify([]pdf.Fragment{frag(50, 300, "iMessage")})
	assert.Equal(t, []string{"iMessage"}, texts(got))

	custom := LineFilter{Name: "short", Match: func(l Line) bool { return len(l.Text) < 3 }}
	r = NewReconstructor(WithFilters(custom))
	got = r.Classify([]pdf.Fragment{frag(50, 300, "ok"), frag(50, 200, "longer")})
	assert.Equal(t, []string{"longer"}, texts(got))
}

func TestWithFormatter(t *testing.T) {
	r := NewReconstructor(WithFormatter(PlainFormatter))
	got := r.Render([]pdf.Fragment{frag(50, 700, "hey"), frag(300, 650, "yo")})
	assert.Equal(t, []string{"hey", "> yo"}, got)
}

func TestWithYTolerance(t *testing.T) {
	fragments := []pdf.Fragment{frag(50, 700, "a"), frag(80, 692, "b")}

	assert.Len(t, NewReconstructor().GroupLines(fragments), 2)
	assert.Len(t, NewReconstructor(WithYTolerance(10)).GroupLines(fragments), 1)
	assert.Len(t, NewReconstructor(WithYTolerance(-1)).GroupLines(fragments), 2)
}

func TestHTMLFormatterDoesNotEscape(t *testing.T) {
	out := HTMLFormatter(ClassifiedLine{Text: "a < b & c", Side: Left})
	assert.Equal(t, `<div style="text-align: left; margin: 5px; color: #333;">a < b & c</div>`, out)
}
