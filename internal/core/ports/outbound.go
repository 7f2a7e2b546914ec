package ports

import (
	"context"
	"io"

	"github.com/ivankhr/memogen/internal/core/domain"
)

// TemplateStore persists memorandum templates.
type TemplateStore interface {
	Create(ctx context.Context, template *domain.Template) error
	GetByID(ctx context.Context, id string) (*domain.Template, error)
}

// SourceStore persists uploaded source documents.
type SourceStore interface {
	Create(ctx context.Context, doc *domain.SourceDocument) error
	GetByID(ctx context.Context, id string) (*domain.SourceDocument, error)
}

// ContentStore persists generated memoranda. Save upserts by id.
type ContentStore interface {
	Save(ctx context.Context, content *domain.GeneratedContent) error
	GetByID(ctx context.Context, id string) (*domain.GeneratedContent, error)
}

// JobRegistry owns the job records. Update runs apply under the registry's
// lock and returns the resulting snapshot, so a record mutation and anything
// the caller derives from it form one atomic unit.
type JobRegistry interface {
	Create(ctx context.Context, job *domain.GenerationJob) error
	GetByID(ctx context.Context, id string) (domain.GenerationJob, error)
	Update(ctx context.Context, id string, apply func(*domain.GenerationJob) error) (domain.GenerationJob, error)
}

// CompletionRequest is one call to the text-completion provider.
type CompletionRequest struct {
	System      string
	User        string
	Model       string
	Temperature float64
	MaxTokens   int
}

// CompletionService is the black-box LLM collaborator.
type CompletionService interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// StructureParser turns raw template text into the section forest.
type StructureParser interface {
	Parse(raw string) (domain.TemplateStructure, error)
}

// TextExtractor extracts plain text from an uploaded source body.
type TextExtractor interface {
	Extract(ctx context.Context, contentType string, data io.Reader) (string, error)
}

// ObjectStorage stores raw uploaded files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// JobScheduler hands a queued job off for asynchronous execution. The full
// job travels with the request so an executor in another process can adopt
// it into its own registry before running it.
type JobScheduler interface {
	Schedule(ctx context.Context, job domain.GenerationJob) error
}

// ContentExporter renders a generated memorandum into a downloadable artifact.
type ContentExporter interface {
	Export(content *domain.GeneratedContent) ([]byte, error)
}
