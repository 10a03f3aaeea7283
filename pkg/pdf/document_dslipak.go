package pdf

import (
	"fmt"

	gopdf "github.com/dslipak/pdf"
)

// DsliPakDocument implements the Document interface using dslipak/pdf library
type DsliPakDocument struct {
	reader   *gopdf.Reader
	filepath string
	config   *textExtractionConfig
}

// OpenWithDslipak opens a PDF file using the dslipak/pdf library
func OpenWithDslipak(filepath string, opts ...TextExtractionOption) (Document, error) {
	r, err := gopdf.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF with dslipak: %w", err)
	}

	config := defaultTextExtractionConfig()
	for _, opt := range opts {
		opt(config)
	}

	return &DsliPakDocument{
		reader:   r,
		filepath: filepath,
		config:   config,
	}, nil
}

// GetMetadata returns the PDF metadata
func (d *DsliPakDocument) GetMetadata() Metadata {
	info := d.reader.Trailer().Key("Info")
	if info.IsNull() {
		return Metadata{}
	}
	return Metadata{
		Title:    info.Key("Title").Text(),
		Author:   info.Key("Author").Text(),
		Subject:  info.Key("Subject").Text(),
		Creator:  info.Key("Creator").Text(),
		Producer: info.Key("Producer").Text(),
	}
}

// GetPage returns a specific page by index (0-based)
func (d *DsliPakDocument) GetPage(index int) (Page, error) {
	if index < 0 || index >= d.PageCount() {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrPageOutOfRange, index, d.PageCount())
	}
	return &DsliPakPage{
		pageNumber: index + 1,
		page:       d.reader.Page(index + 1),
		config:     d.config,
	}, nil
}

// PageCount returns the total number of pages
func (d *DsliPakDocument) PageCount() int {
	return d.reader.NumPage()
}

// Close releases resources associated with the document
func (d *DsliPakDocument) Close() error {
	d.reader = nil
	return nil
}

// DsliPakPage implements the Page interface using dslipak/pdf
type DsliPakPage struct {
	pageNumber int
	page       gopdf.Page
	config     *textExtractionConfig
}

// GetPageNumber returns the page number (1-based)
func (p *DsliPakPage) GetPageNumber() int {
	return p.pageNumber
}

// GetWidth returns the page width.
// The dslipak/pdf library doesn't expose MediaBox directly, so US Letter is assumed.
func (p *DsliPakPage) GetWidth() float64 {
	return 612.0
}

// GetHeight returns the page height
func (p *DsliPakPage) GetHeight() float64 {
	return 792.0
}

// GetRotation returns the page rotation in degrees
func (p *DsliPakPage) GetRotation() int {
	rotate := p.page.V.Key("Rotate")
	if rotate.Kind() == gopdf.Integer {
		return int(rotate.Int64())
	}
	return 0
}

// Fragments returns the text runs of the page
func (p *DsliPakPage) Fragments() ([]Fragment, error) {
	glyphs, err := p.glyphs()
	if err != nil {
		return nil, err
	}
	return mergeGlyphs(glyphs, p.config), nil
}

// ExtractText extracts text from the page
func (p *DsliPakPage) ExtractText() (string, error) {
	glyphs, err := p.glyphs()
	if err != nil {
		return "", err
	}
	return joinGlyphText(glyphs), nil
}

func (p *DsliPakPage) glyphs() ([]glyph, error) {
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
