package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/pdfmessages-golang/pkg/pdf"
)

type fakeDoc struct {
	pages  [][]pdf.Fragment
	broken map[int]bool
	closed bool
}

func (d *fakeDoc) GetMetadata() pdf.Metadata { return pdf.Metadata{} }
func (d *fakeDoc) PageCount() int { return len(d.pages) }
func (d *fakeDoc) Close() error { d.closed = true; return nil }

func (d *fakeDoc) GetPage(index int) (pdf.Page, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, pdf.ErrPageOutOfRange
	}
	return &fakePage{number: index + 1, fragments: d.pages[index], broken: d.broken[index]}, nil
}

type fakePage struct {
	number    int
	fragments []pdf.Fragment
	broken    bool
}

func (p *fakePage) GetPageNumber() int { return p.number }
func (p *fakePage) GetWidth() float64 { return 612 }
func (p *fakePage) GetHeight() float64 { return 792 }
func (p *fakePage) GetRotation() int { return 0 }
func (p *fakePage) ExtractText() (string, error) { return "", nil }

func (p *fakePage) Fragments() ([]pdf.Fragment, error) {
	if p.broken {
		return nil, &pdf.PageError{Page: p.number, Err: errors.New("bad stream")}
	}
	return p.fragments, nil
}

// touch creates an empty placeholder file so the driver's existence check passes
func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func openerFor(docs map[string]*fakeDoc) OpenFunc {
	return func(path string) (pdf.Document, error) {
		doc, ok := docs[filepath.Base(path)]
		if !ok {
			return nil, errors.New("not a PDF")
		}
		return doc, nil
	}
}

func TestRunWritesRenderedLines(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "chat.pdf")
	touch(t, input)

	doc := &fakeDoc{pages: [][]pdf.Fragment{
		{
			{X: 50, Y: 700, Text: "Hello"},
			{X: 90, Y: 700, Text: "there"},
			{X: 300, Y: 650, Text: "Hi!"},
			{X: 450, Y: 30, Text: "Page 1 of 2"},
		},
		{
			{X: 50, Y: 700, Text: "iMessage"},
			{X: 50, Y: 650, Text: "Bye"},
		},
	}}
	driver := NewDriver(openerFor(map[string]*fakeDoc{"chat.pdf": doc}), nil)

	output := filepath.Join(dir, "out", "chat.md")
	summary, err := driver.Run(context.Background(), Config{
		Jobs: []Job{{Input: input, Output: output}},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t,
		`<div style="text-align: left; margin: 5px; color: #333;">Hello there</div>`+"\n"+
			`<div style="text-align: right; margin: 5px; color: #0066cc;">Hi!</div>`+"\n"+
			`<div style="text-align: left; margin: 5px; color: #333;">Bye</div>`,
		string(data))

	assert.Equal(t, Summary{Processed: 1, Pages: 2, Lines: 3}, summary)
	assert.True(t, doc.closed)
	assert.False(t, summary.HasFailures())
}

func TestRunContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.pdf")
	corrupt := filepath.Join(dir, "corrupt.pdf")
	partial := filepath.Join(dir, "partial.pdf")
	for _, p := range []string{good, corrupt, partial} {
		touch(t, p)
	}

	docs := map[string]*fakeDoc{
		"good.pdf": {pages: [][]pdf.Fragment{{{X: 50, Y: 700, Text: "ok"}}}},
		"partial.pdf": {
			pages: [][]pdf.Fragment{
				{{X: 50, Y: 700, Text: "one"}},
				{{X: 50, Y: 700, Text: "lost"}},
				{{X: 50, Y: 700, Text: "three"}},
			},
			broken: map[int]bool{1: true},
		},
	}

	summary, err := NewDriver(openerFor(docs), nil).Run(context.Background(), Config{
		Jobs: []Job{
			{Input: filepath.Join(dir, "missing.pdf")},
			{Input: corrupt},
			{Input: partial},
			{Input: good},
		},
		KeepPartial: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Missing)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.PageErrors)
	assert.Equal(t, 3, summary.Pages)
	assert.Equal(t, 4, summary.Total())
	assert.True(t, summary.HasFailures())

	data, err := os.ReadFile(OutputFor(partial))
	require.NoError(t, err)
	assert.Contains(t, string(data), ">one<")
	assert.Contains(t, string(data), ">three<")
	assert.NotContains(t, string(data), "lost")

	assert.FileExists(t, OutputFor(good))
	assert.NoFileExists(t, OutputFor(corrupt))
}

func TestRunRetriesFilesWithFailedPages(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "chat.pdf")
	touch(t, input)

	doc := &fakeDoc{
		pages: [][]pdf.Fragment{
			{{X: 50, Y: 700, Text: "first"}},
			{{X: 50, Y: 700, Text: "second"}},
		},
		broken: map[int]bool{0: true},
	}
	driver := NewDriver(openerFor(map[string]*fakeDoc{"chat.pdf": doc}), nil)

	summary, err := driver.Run(context.Background(), Config{Jobs: []Job{{Input: input}}})
	require.NoError(t, err)
	assert.Equal(t, Summary{Failed: 1, Pages: 1, PageErrors: 1}, summary)
	assert.NoFileExists(t, OutputFor(input))

	// The page reads on the next run, which is not skipped
	doc.broken = nil
	summary, err = driver.Run(context.Background(), Config{Jobs: []Job{{Input: input}}})
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 1, Pages: 2, Lines: 2}, summary)

	data, err := os.ReadFile(OutputFor(input))
	require.NoError(t, err)
	assert.Contains(t, string(data), ">first<")
}

func TestRunKeepPartialNeedsOneGoodPage(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "chat.pdf")
	touch(t, input)

	doc := &fakeDoc{
		pages:  [][]pdf.Fragment{{{X: 50, Y: 700, Text: "only"}}},
		broken: map[int]bool{0: true},
	}
	summary, err := NewDriver(openerFor(map[string]*fakeDoc{"chat.pdf": doc}), nil).Run(context.Background(), Config{
		Jobs:        []Job{{Input: input}},
		KeepPartial: true,
	})
	require.NoError(t, err)
	assert.Equal(t, Summary{Failed: 1, PageErrors: 1}, summary)
	assert.NoFileExists(t, OutputFor(input))
}

func TestRunSkipsExistingOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "chat.pdf")
	touch(t, input)
	require.NoError(t, os.WriteFile(OutputFor(input), []byte("previous"), 0o644))

	docs := map[string]*fakeDoc{"chat.pdf": {pages: [][]pdf.Fragment{{{X: 50, Y: 700, Text: "new"}}}}}
	driver := NewDriver(openerFor(docs), nil)

	summary, err := driver.Run(context.Background(), Config{Jobs: []Job{{Input: input}}})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)

	data, _ := os.ReadFile(OutputFor(input))
	assert.Equal(t, "previous", string(data))

	summary, err = driver.Run(context.Background(), Config{Jobs: []Job{{Input: input}}, Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)

	data, _ = os.ReadFile(OutputFor(input))
	assert.Contains(t, string(data), ">new<")
}

func TestRunStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "chat.pdf")
	touch(t, input)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	docs := map[string]*fakeDoc{"chat.pdf": {pages: [][]pdf.Fragment{{{X: 50, Y: 700, Text: "x"}}}}}
	summary, err := NewDriver(openerFor(docs), nil).Run(ctx, Config{Jobs: []Job{{Input: input}}})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, summary.Total())
}
