package pdf

import (
	"fmt"
	"os"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Info describes a PDF file as seen by pdfcpu's validating reader
type Info struct {
	Path      string
	Version   string
	PageCount int
	Encrypted bool
	Metadata  Metadata
}

// Inspect reads and validates a PDF file with pdfcpu.
// It is stricter than the text backends and reports why a file is unusable.
func Inspect(filepath string, password string) (*Info, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	if password != "" {
		conf.UserPW = password
		conf.OwnerPW = password
	}

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("invalid PDF: %w", err)
	}

	return &Info{
		Path:      filepath,
		Version:   ctx.VersionString(),
		PageCount: ctx.XRefTable.PageCount,
		Encrypted: ctx.XRefTable.Encrypt != nil,
		Metadata: Metadata{
			Title:        ctx.XRefTable.Title,
			Author:       ctx.XRefTable.Author,
			Subject:      ctx.XRefTable.Subject,
			Keywords:     ctx.XRefTable.Keywords,
			Creator:      ctx.XRefTable.Creator,
			Producer:     ctx.XRefTable.Producer,
			CreationDate: parsePDFDate(ctx.XRefTable.CreationDate),
			ModDate:      parsePDFDate(ctx.XRefTable.ModDate),
		},
	}, nil
}

func parsePDFDate(dateStr string) time.Time {
	// PDF date format: D:YYYYMMDDHHmmSSOHH'mm
	if len(dateStr) >= 2 && dateStr[:2] == "D:" {
		dateStr = dateStr[2:]
	}

	layout := "20060102150405"
	if len(dateStr) >= 14 {
		t, err := time.Parse(layout, dateStr[:14])
		if err == nil {
			return t
		}
	}

	return time.Time{}
}
