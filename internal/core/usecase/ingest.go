package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ivankhr/memogen/internal/core/domain"
	"github.com/ivankhr/memogen/internal/core/ports"
)

// IngestUseCase handles template and source-document upload: raw bytes go to
// object storage, extracted text and metadata to the stores.
type IngestUseCase struct {
	templates ports.TemplateStore
	sources   ports.SourceStore
	storage   ports.ObjectStorage
	parser    ports.StructureParser
	extractor ports.TextExtractor
}

func NewIngestUseCase(
	templates ports.TemplateStore,
	sources ports.SourceStore,
	storage ports.ObjectStorage,
	parser ports.StructureParser,
	extractor ports.TextExtractor,
) *IngestUseCase {
	return &IngestUseCase{
		templates: templates,
		sources:   sources,
		storage:   storage,
		parser:    parser,
		extractor: extractor,
	}
}

func (uc *IngestUseCase) UploadTemplate(ctx context.Context, name, raw string) (*domain.Template, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, domain.WrapError(domain.ErrValidation, "upload template", errors.New("template text is empty"))
	}

	structure, err := uc.parser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse template structure: %w", err)
	}
	if len(structure.Sections) == 0 {
		return nil, domain.WrapError(domain.ErrValidation, "upload template", errors.New("template has no sections"))
	}

	template := &domain.Template{
		ID:        uuid.NewString(),
		Name:      name,
		RawText:   raw,
		Structure: structure,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.templates.Create(ctx, template); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return template, nil
}

func (uc *IngestUseCase) UploadSource(ctx context.Context, filename, contentType string, body io.Reader) (*domain.SourceDocument, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrValidation, "upload source", errors.New("uploaded file is empty"))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	text, err := uc.extractor.Extract(ctx, contentType, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrValidation, "upload source", errors.New("no extractable text"))
	}

	doc := &domain.SourceDocument{
		ID:          id,
		Name:        filename,
		Content:     text,
		Size:        int64(len(raw)),
		ContentType: contentType,
		StoragePath: storageKey,
		UploadedAt:  time.Now().UTC(),
	}
	if err := uc.sources.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create source document: %w", err)
	}
	return doc, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == ".." {
		return "document.bin"
	}
	return base
}
