package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ivankhr/memogen/internal/core/domain"
)

type ContentRepository struct {
	db *sql.DB
}

func NewContentRepository(db *sql.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Save upserts the generated memorandum by id.
func (r *ContentRepository) Save(ctx context.Context, content *domain.GeneratedContent) error {
	sectionsJSON, err := json.Marshal(content.Sections)
	if err != nil {
		return fmt.Errorf("marshal sections: %w", err)
	}
	metadataJSON, err := json.Marshal(content.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	issues := content.ValidationIssues
	if issues == nil {
		issues = map[string][]string{}
	}
	issuesJSON, err := json.Marshal(issues)
	if err != nil {
		return fmt.Errorf("marshal validation issues: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO generated_contents (id, template_id, sections, status, metadata, validation_issues, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
	sections = EXCLUDED.sections,
	status = EXCLUDED.status,
	metadata = EXCLUDED.metadata,
	validation_issues = EXCLUDED.validation_issues,
	updated_at = EXCLUDED.updated_at
`, content.ID, content.TemplateID, sectionsJSON, string(content.Status), metadataJSON, issuesJSON,
		content.CreatedAt, content.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert generated content: %w", err)
	}
	return nil
}

func (r *ContentRepository) GetByID(ctx context.Context, id string) (*domain.GeneratedContent, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, template_id, sections, status, metadata, validation_issues, created_at, updated_at
FROM generated_contents
WHERE id = $1
`, id)

	var content domain.GeneratedContent
	var sectionsRaw, metadataRaw, issuesRaw []byte
	var status string

	err := row.Scan(&content.ID, &content.TemplateID, &sectionsRaw, &status, &metadataRaw, &issuesRaw,
		&content.CreatedAt, &content.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get generated content", fmt.Errorf("content %s", id))
		}
		return nil, fmt.Errorf("scan generated content: %w", err)
	}

	if err := json.Unmarshal(sectionsRaw, &content.Sections); err != nil {
		return nil, fmt.Errorf("unmarshal sections: %w", err)
	}
	if err := json.Unmarshal(metadataRaw, &content.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if err := json.Unmarshal(issuesRaw, &content.ValidationIssues); err != nil {
		return nil, fmt.Errorf("unmarshal validation issues: %w", err)
	}
	content.Status = domain.ContentStatus(status)
	return &content, nil
}
