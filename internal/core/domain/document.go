package domain

import "time"

// SourceDocument is an immutable uploaded source used as generation context.
type SourceDocument struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Content     string    `json:"content"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	StoragePath string    `json:"storage_path,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
