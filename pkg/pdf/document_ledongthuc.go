package pdf

import (
	"fmt"
	"io"

	lpdf "github.com/ledongthuc/pdf"
)

// LedongthucDocument implements the Document interface using ledongthuc/pdf library
type LedongthucDocument struct {
	file     io.Closer
	reader   *lpdf.Reader
	filepath string
	config   *textExtractionConfig
}

// OpenWithLedongthuc opens a PDF file using the ledongthuc/pdf library
func OpenWithLedongthuc(filepath string, opts ...TextExtractionOption) (Document, error) {
	f, r, err := lpdf.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF with ledongthuc: %w", err)
	}

	config := defaultTextExtractionConfig()
	for _, opt := range opts {
		opt(config)
	}

	return &LedongthucDocument{
		file:     f,
		reader:   r,
		filepath: filepath,
		config:   config,
	}, nil
}

// GetMetadata returns the PDF metadata
func (d *LedongthucDocument) GetMetadata() Metadata {
	info := d.reader.Trailer().Key("Info")
	if info.IsNull() {
		return Metadata{}
	}
	return Metadata{
		Title:        info.Key("Title").Text(),
		Author:       info.Key("Author").Text(),
		Subject:      info.Key("Subject").Text(),
		Keywords:     info.Key("Keywords").Text(),
		Creator:      info.Key("Creator").Text(),
		Producer:     info.Key("Producer").Text(),
		CreationDate: parsePDFDate(info.Key("CreationDate").Text()),
		ModDate:      parsePDFDate(info.Key("ModDate").Text()),
	}
}

// GetPage returns a specific page by index (0-based)
func (d *LedongthucDocument) GetPage(index int) (Page, error) {
	if index < 0 || index >= d.PageCount() {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrPageOutOfRange, index, d.PageCount())
	}
	return newLedongthucPage(d.reader, index+1, d.config), nil
}

// PageCount returns the total number of pages
func (d *LedongthucDocument) PageCount() int {
	return d.reader.NumPage()
}

// Close releases resources associated with the document
func (d *LedongthucDocument) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}

// LedongthucPage implements the Page interface using ledongthuc/pdf
type LedongthucPage struct {
	pageNumber int
	page       lpdf.Page
	width      float64
	height     float64
	config     *textExtractionConfig
}

func newLedongthucPage(reader *lpdf.Reader, pageNumber int, config *textExtractionConfig) *LedongthucPage {
	page := reader.Page(pageNumber)

	// Default to US Letter
	width := 612.0
	height := 792.0

	mediaBox := page.V.Key("MediaBox")
	if mediaBox.Kind() == lpdf.Array && mediaBox.Len() == 4 {
		// MediaBox is [x0, y0, x1, y1]
		width = mediaBox.Index(2).Float64() - mediaBox.Index(0).Float64()
		height = mediaBox.Index(3).Float64() - mediaBox.Index(1).Float64()
	}

	return &LedongthucPage{
		pageNumber: pageNumber,
		page:       page,
		width:      width,
		height:     height,
		config:     config,
	}
}

// GetPageNumber returns the page number (1-based)
func (p *LedongthucPage) GetPageNumber() int {
	return p.pageNumber
}

// GetWidth returns the page width
func (p *LedongthucPage) GetWidth() float64 {
	return p.width
}

// GetHeight returns the page height
func (p *LedongthucPage) GetHeight() float64 {
	return p.height
}

// GetRotation returns the page rotation in degrees
func (p *LedongthucPage) GetRotation() int {
	rotate := p.page.V.Key("Rotate")
	if rotate.Kind() == lpdf.Integer {
		return int(rotate.Int64())
	}
	return 0
}

// Fragments returns the text runs of the page
func (p *LedongthucPage) Fragments() ([]Fragment, error) {
	glyphs, err := p.glyphs()
	if err != nil {
		return nil, err
	}
	return mergeGlyphs(glyphs, p.config), nil
}

// ExtractText extracts text from the page
func (p *LedongthucPage) ExtractText() (string, error) {
	glyphs, err := p.glyphs()
	if err != nil {
		return "", err
	}
	return joinGlyphText(glyphs), nil
}

func (p *LedongthucPage) glyphs() ([]glyph, error) {
	if p.page.V.IsNull() {
		return nil, &PageError{Page: p.pageNumber, Err: fmt.Errorf("missing page object")}
	}
	return collectGlyphs(p.pageNumber, func() []glyph {
		content := p.page.Content()
		glyphs := make([]glyph, 0, len(content.Text))
		for _, t := range content.Text {
			glyphs = append(glyphs, glyph{
				Font:     t.Font,
				FontSize: t.FontSize,
				X:        t.X,
				Y:        t.Y,
				W:        t.W,
				S:        t.S,
			})
		}
		return glyphs
	})
}
