package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/ivankhr/memogen/internal/core/domain"
	"github.com/ivankhr/memogen/internal/core/ports"
)

// completionFake hands out queued responses in call order, keeping the last
// one sticky. The enhancement pass calls it from several goroutines.
type completionFake struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     []ports.CompletionRequest
}

func (f *completionFake) Complete(_ context.Context, req ports.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "generated text", nil
	}
	next := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return next, nil
}

func (f *completionFake) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func sectionTemplate() *domain.Template {
	return &domain.Template{
		ID: "tpl-1",
		Structure: domain.TemplateStructure{Sections: []*domain.TemplateSection{
			{ID: "sec-1", Title: "Executive Summary", Content: "Summarise the opportunity.", Kind: domain.KindText, Level: 1},
		}},
	}
}

func sectionDocs(n int) []domain.SourceDocument {
	docs := make([]domain.SourceDocument, 0, n)
	names := []string{"doc-1", "doc-2", "doc-3", "doc-4", "doc-5"}
	for i := 0; i < n; i++ {
		docs = append(docs, domain.SourceDocument{
			ID:      names[i],
			Name:    names[i] + ".txt",
			Content: "content of " + names[i],
		})
	}
	return docs
}

func TestGenerateReturnsPendingSectionWithSources(t *testing.T) {
	completions := &completionFake{responses: []string{"  drafted section  "}}
	gen := NewSectionGenerator(completions, GenerationSettings{Model: "test-model", MaxTokens: 512})

	docs := sectionDocs(2)
	section, err := gen.Generate(context.Background(), sectionTemplate(), docs, "sec-1",
		domain.ContentMetadata{AssetName: "Harbor Tower", AssetType: "office"},
		map[string][]string{"sec-1": {"doc-2", "doc-1"}})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if section.Content != "drafted section" {
		t.Fatalf("expected trimmed completion text, got %q", section.Content)
	}
	if section.ReviewStatus != domain.ReviewPending {
		t.Fatalf("expected pending review status, got %s", section.ReviewStatus)
	}
	if section.TemplateSectionID != "sec-1" || section.Title != "Executive Summary" {
		t.Fatalf("unexpected section identity: %+v", section)
	}
	if len(section.Sources) != 2 || section.Sources[0].DocumentID != "doc-2" {
		t.Fatalf("expected ranked sources recorded, got %+v", section.Sources)
	}

	if len(completions.calls) != 1 {
		t.Fatalf("expected 1 completion call, got %d", len(completions.calls))
	}
	req := completions.calls[0]
	if req.Model != "test-model" || req.MaxTokens != 512 {
		t.Fatalf("settings not forwarded: %+v", req)
	}
	if !strings.Contains(req.User, "Harbor Tower") || !strings.Contains(req.User, "Executive Summary") {
		t.Fatalf("prompt missing subject or section title:\n%s", req.User)
	}
}

func TestGeneratePadsCandidatesToFloor(t *testing.T) {
	completions := &completionFake{}
	gen := NewSectionGenerator(completions, GenerationSettings{})

	docs := sectionDocs(5)
	section, err := gen.Generate(context.Background(), sectionTemplate(), docs, "sec-1",
		domain.ContentMetadata{AssetName: "a", AssetType: "b"},
		map[string][]string{"sec-1": {"doc-4"}})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(section.Sources) != 3 {
		t.Fatalf("expected 3 candidate sources, got %d", len(section.Sources))
	}
	if section.Sources[0].DocumentID != "doc-4" {
		t.Fatalf("expected ranked doc first, got %+v", section.Sources)
	}
	if section.Sources[1].DocumentID != "doc-1" || section.Sources[2].DocumentID != "doc-2" {
		t.Fatalf("expected padding in original order, got %+v", section.Sources)
	}
}

func TestGenerateWithFewerDocsThanFloor(t *testing.T) {
	completions := &completionFake{}
	gen := NewSectionGenerator(completions, GenerationSettings{})

	section, err := gen.Generate(context.Background(), sectionTemplate(), sectionDocs(1), "sec-1",
		domain.ContentMetadata{AssetName: "a", AssetType: "b"}, map[string][]string{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(section.Sources) != 1 {
		t.Fatalf("expected pool exhausted at 1 source, got %d", len(section.Sources))
	}
}

func TestGenerateUnknownSection(t *testing.T) {
	gen := NewSectionGenerator(&completionFake{}, GenerationSettings{})

	_, err := gen.Generate(context.Background(), sectionTemplate(), nil, "missing",
		domain.ContentMetadata{}, nil)
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestGenerateWrapsProviderFailure(t *testing.T) {
	gen := NewSectionGenerator(&completionFake{err: errors.New("connection refused")}, GenerationSettings{})

	_, err := gen.Generate(context.Background(), sectionTemplate(), sectionDocs(1), "sec-1",
		domain.ContentMetadata{AssetName: "a", AssetType: "b"}, nil)
	if !domain.IsKind(err, domain.ErrProvider) {
		t.Fatalf("expected provider error kind, got %v", err)
	}
}

func TestTruncateBoundsExcerpt(t *testing.T) {
	long := strings.Repeat("x", contextExcerptChars+50)
	if got := truncate(long, contextExcerptChars); len(got) != contextExcerptChars {
		t.Fatalf("expected %d chars, got %d", contextExcerptChars, len(got))
	}
	if got := truncate("short", contextExcerptChars); got != "short" {
		t.Fatalf("expected short text unchanged, got %q", got)
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	// "é" is two bytes; a limit landing inside it must back up.
	text := "café"
	got := truncate(text, 4)
	if got != "caf" {
		t.Fatalf("expected cut at rune boundary, got %q", got)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid utf-8: %q", got)
	}
	if got := truncate("éé", 1); got != "" {
		t.Fatalf("expected empty string when no rune fits, got %q", got)
	}
}

func TestSectionPromptListsExtraMetadataInOrder(t *testing.T) {
	metadata := domain.ContentMetadata{
		AssetName: "Harbor Tower",
		AssetType: "office",
		Extra:     map[string]string{"zoning": "B-2", "anchor": "retail", "floors": "12"},
	}
	section := &domain.TemplateSection{Title: "Property Overview", Kind: domain.KindText}

	prompt := buildSectionPrompt(section, metadata, "")
	anchor := strings.Index(prompt, "- anchor: retail")
	floors := strings.Index(prompt, "- floors: 12")
	zoning := strings.Index(prompt, "- zoning: B-2")
	if anchor < 0 || floors < 0 || zoning < 0 {
		t.Fatalf("extra metadata missing from prompt:\n%s", prompt)
	}
	if !(anchor < floors && floors < zoning) {
		t.Fatalf("extra metadata not sorted by key:\n%s", prompt)
	}
	if prompt != buildSectionPrompt(section, metadata, "") {
		t.Fatalf("identical input produced different prompts")
	}
}
