package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ivankhr/memogen/internal/core/domain"
)

func newSourceRepoWithMock(t *testing.T) (*SourceRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &SourceRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestSourceCreateInsertsRow(t *testing.T) {
	repo, mock, done := newSourceRepoWithMock(t)
	defer done()

	doc := &domain.SourceDocument{
		ID:          "doc-1",
		Name:        "rent-roll.pdf",
		Content:     "extracted text",
		Size:        128,
		ContentType: "application/pdf",
		StoragePath: "doc-1_rent-roll.pdf",
		UploadedAt:  time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO source_documents").
		WithArgs("doc-1", "rent-roll.pdf", "extracted text", int64(128), "application/pdf",
			"doc-1_rent-roll.pdf", doc.UploadedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSourceGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newSourceRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, name, content, size").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
