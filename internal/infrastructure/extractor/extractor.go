// Package extractor dispatches text extraction by content type.
package extractor

import (
	"context"
	"io"
	"strings"

	"github.com/ivankhr/memogen/internal/infrastructure/extractor/pdftext"
	"github.com/ivankhr/memogen/internal/infrastructure/extractor/plaintext"
)

type Dispatcher struct {
	pdf   *pdftext.Extractor
	plain *plaintext.Extractor
}

func New() *Dispatcher {
	return &Dispatcher{
		pdf:   pdftext.New(),
		plain: plaintext.New(),
	}
}

func (d *Dispatcher) Extract(ctx context.Context, contentType string, data io.Reader) (string, error) {
	if strings.Contains(strings.ToLower(contentType), "pdf") {
		return d.pdf.Extract(ctx, contentType, data)
	}
	return d.plain.Extract(ctx, contentType, data)
}
