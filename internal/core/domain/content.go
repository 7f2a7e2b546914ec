package domain

import "time"

type ContentStatus string

const (
	ContentDraft     ContentStatus = "draft"
	ContentReviewing ContentStatus = "reviewing"
	ContentCompleted ContentStatus = "completed"
)

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewReviewed ReviewStatus = "reviewed"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// ContentMetadata describes the subject of the memorandum. Supplied once per
// job and never mutated by the pipeline.
type ContentMetadata struct {
	AssetName string            `json:"asset_name"`
	AssetType string            `json:"asset_type"`
	Location  string            `json:"location,omitempty"`
	Client    string            `json:"client,omitempty"`
	Date      string            `json:"date,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// SourceReference records which source document contributed to a generated
// section, with a short excerpt for provenance display.
type SourceReference struct {
	DocumentID string `json:"document_id"`
	Excerpt    string `json:"excerpt,omitempty"`
}

type GeneratedSection struct {
	ID                string            `json:"id"`
	TemplateSectionID string            `json:"template_section_id"`
	Title             string            `json:"title"`
	Content           string            `json:"content"`
	Kind              SectionKind       `json:"kind"`
	ReviewStatus      ReviewStatus      `json:"review_status"`
	Sources           []SourceReference `json:"sources,omitempty"`
}

type GeneratedContent struct {
	ID               string              `json:"id"`
	TemplateID       string              `json:"template_id"`
	Sections         []GeneratedSection  `json:"sections"`
	Status           ContentStatus       `json:"status"`
	Metadata         ContentMetadata     `json:"metadata"`
	ValidationIssues map[string][]string `json:"validation_issues,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}
