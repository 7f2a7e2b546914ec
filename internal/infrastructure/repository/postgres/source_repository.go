package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ivankhr/memogen/internal/core/domain"
)

type SourceRepository struct {
	db *sql.DB
}

func NewSourceRepository(db *sql.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

func (r *SourceRepository) Create(ctx context.Context, doc *domain.SourceDocument) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO source_documents (id, name, content, size, content_type, storage_path, uploaded_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, doc.ID, doc.Name, doc.Content, doc.Size, doc.ContentType, doc.StoragePath, doc.UploadedAt)
	if err != nil {
		return fmt.Errorf("insert source document: %w", err)
	}
	return nil
}

func (r *SourceRepository) GetByID(ctx context.Context, id string) (*domain.SourceDocument, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, content, size, content_type, storage_path, uploaded_at
FROM source_documents
WHERE id = $1
`, id)

	var doc domain.SourceDocument
	err := row.Scan(&doc.ID, &doc.Name, &doc.Content, &doc.Size, &doc.ContentType, &doc.StoragePath, &doc.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get source document", fmt.Errorf("document %s", id))
		}
		return nil, fmt.Errorf("scan source document: %w", err)
	}
	return &doc, nil
}
