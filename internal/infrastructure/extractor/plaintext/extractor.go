package plaintext

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, _ string, data io.Reader) (string, error) {
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	if !utf8.Valid(raw) {
		return "", fmt.Errorf("unsupported binary format")
	}

	return strings.TrimSpace(string(raw)), nil
}
