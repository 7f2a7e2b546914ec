package ports

import (
	"context"
	"io"

	"github.com/ivankhr/memogen/internal/core/domain"
)

// JobService is the inbound contract for memorandum generation jobs.
type JobService interface {
	CreateJob(ctx context.Context, templateID string, sourceIDs []string, metadata domain.ContentMetadata) (domain.GenerationJob, error)
	StartJob(ctx context.Context, jobID string) error
	CancelJob(ctx context.Context, jobID string) (bool, error)
	RetryJob(ctx context.Context, jobID string) error
	GetJob(ctx context.Context, jobID string) (domain.GenerationJob, error)
}

// TemplateIngestor is the inbound contract for template upload.
type TemplateIngestor interface {
	UploadTemplate(ctx context.Context, name, raw string) (*domain.Template, error)
}

// SourceIngestor is the inbound contract for source-document upload.
type SourceIngestor interface {
	UploadSource(ctx context.Context, filename, contentType string, body io.Reader) (*domain.SourceDocument, error)
}
