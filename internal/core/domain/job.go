package domain

import "time"

type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions
// (other than an explicit retry from failed).
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// GenerationJob is the mutable record tracking one memorandum generation run.
// It is owned exclusively by the job manager; everyone else sees snapshots.
type GenerationJob struct {
	ID         string            `json:"id"`
	TemplateID string            `json:"template_id"`
	SourceIDs  []string          `json:"source_ids"`
	Metadata   ContentMetadata   `json:"metadata"`
	Status     JobStatus         `json:"status"`
	Progress   int               `json:"progress"`
	Message    string            `json:"message,omitempty"`
	Error      string            `json:"error,omitempty"`
	Result     *GeneratedContent `json:"result,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Snapshot returns a deep copy safe to hand to event subscribers. No slice
// or map may share backing storage with the original, or a handler mutating
// its snapshot would write through to the registry's record.
func (j *GenerationJob) Snapshot() GenerationJob {
	out := *j
	out.SourceIDs = append([]string(nil), j.SourceIDs...)
	out.Metadata.Extra = copyStringMap(j.Metadata.Extra)
	if j.Result != nil {
		result := *j.Result
		result.Metadata.Extra = copyStringMap(j.Result.Metadata.Extra)
		if j.Result.ValidationIssues != nil {
			issues := make(map[string][]string, len(j.Result.ValidationIssues))
			for title, found := range j.Result.ValidationIssues {
				issues[title] = append([]string(nil), found...)
			}
			result.ValidationIssues = issues
		}
		result.Sections = append([]GeneratedSection(nil), j.Result.Sections...)
		for i := range result.Sections {
			result.Sections[i].Sources = append([]SourceReference(nil), result.Sections[i].Sources...)
		}
		out.Result = &result
	}
	return out
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
