package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ivankhr/memogen/internal/core/domain"
)

type TemplateRepository struct {
	db *sql.DB
}

func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(ctx context.Context, template *domain.Template) error {
	structureJSON, err := json.Marshal(template.Structure)
	if err != nil {
		return fmt.Errorf("marshal structure: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO templates (id, name, raw_text, structure, created_at)
VALUES ($1,$2,$3,$4,$5)
`, template.ID, template.Name, template.RawText, structureJSON, template.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*domain.Template, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, raw_text, structure, created_at
FROM templates
WHERE id = $1
`, id)

	var template domain.Template
	var structureRaw []byte
	err := row.Scan(&template.ID, &template.Name, &template.RawText, &structureRaw, &template.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get template", fmt.Errorf("template %s", id))
		}
		return nil, fmt.Errorf("scan template: %w", err)
	}

	if err := json.Unmarshal(structureRaw, &template.Structure); err != nil {
		return nil, fmt.Errorf("unmarshal structure: %w", err)
	}
	return &template, nil
}
