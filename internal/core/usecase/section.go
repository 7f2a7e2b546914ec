package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ivankhr/memogen/internal/core/domain"
	"github.com/ivankhr/memogen/internal/core/ports"
)

const (
	// minCandidateDocs is the floor of source documents offered to the model
	// per section, padded from the full pool when relevance ranking comes up
	// short.
	minCandidateDocs = 3

	// contextExcerptChars bounds the per-document text embedded in prompts.
	contextExcerptChars = 1200

	// provenanceExcerptChars bounds the excerpt stored on a SourceReference.
	provenanceExcerptChars = 200
)

// GenerationSettings carries the completion-call parameters shared by all
// generation passes.
type GenerationSettings struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// SectionGenerator produces one generated section from a template section,
// matched sources, and subject metadata.
type SectionGenerator struct {
	completions ports.CompletionService
	settings    GenerationSettings
}

func NewSectionGenerator(completions ports.CompletionService, settings GenerationSettings) *SectionGenerator {
	return &SectionGenerator{completions: completions, settings: settings}
}

const systemPrompt = "You are a professional investment analyst drafting sections of an " +
	"investment memorandum. Ground every statement in the supplied source excerpts and " +
	"never invent figures."

// Generate resolves the section, selects candidate documents, composes the
// generation prompt, and invokes the completion service. Provider failures
// are propagated, not swallowed.
func (g *SectionGenerator) Generate(
	ctx context.Context,
	template *domain.Template,
	docs []domain.SourceDocument,
	sectionID string,
	metadata domain.ContentMetadata,
	matches map[string][]string,
) (domain.GeneratedSection, error) {
	section := template.Structure.FindSection(sectionID)
	if section == nil {
		return domain.GeneratedSection{}, domain.WrapError(domain.ErrNotFound, "resolve section",
			fmt.Errorf("section %s not in template %s", sectionID, template.ID))
	}

	candidates := selectCandidates(matches[sectionID], docs)

	var excerpts strings.Builder
	references := make([]domain.SourceReference, 0, len(candidates))
	for _, doc := range candidates {
		fmt.Fprintf(&excerpts, "--- Source: %s ---\n%s\n\n", doc.Name, truncate(doc.Content, contextExcerptChars))
		references = append(references, domain.SourceReference{
			DocumentID: doc.ID,
			Excerpt:    truncate(doc.Content, provenanceExcerptChars),
		})
	}

	userPrompt := buildSectionPrompt(section, metadata, excerpts.String())

	text, err := g.completions.Complete(ctx, ports.CompletionRequest{
		System:      systemPrompt,
		User:        userPrompt,
		Model:       g.settings.Model,
		Temperature: g.settings.Temperature,
		MaxTokens:   g.settings.MaxTokens,
	})
	if err != nil {
		return domain.GeneratedSection{}, domain.WrapError(domain.ErrProvider,
			fmt.Sprintf("generate section %q", section.Title), err)
	}

	return domain.GeneratedSection{
		ID:                uuid.NewString(),
		TemplateSectionID: section.ID,
		Title:             section.Title,
		Content:           strings.TrimSpace(text),
		Kind:              section.Kind,
		ReviewStatus:      domain.ReviewPending,
		Sources:           references,
	}, nil
}

// selectCandidates starts from the relevance-ranked ids and pads with the
// remaining documents, in original order, until the floor is met or the pool
// is exhausted.
func selectCandidates(rankedIDs []string, docs []domain.SourceDocument) []domain.SourceDocument {
	byID := make(map[string]domain.SourceDocument, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc
	}

	selected := make([]domain.SourceDocument, 0, minCandidateDocs)
	taken := make(map[string]struct{})
	for _, id := range rankedIDs {
		if doc, ok := byID[id]; ok {
			selected = append(selected, doc)
			taken[id] = struct{}{}
		}
	}

	if len(selected) < minCandidateDocs {
		for _, doc := range docs {
			if len(selected) >= minCandidateDocs {
				break
			}
			if _, already := taken[doc.ID]; already {
				continue
			}
			selected = append(selected, doc)
			taken[doc.ID] = struct{}{}
		}
	}
	return selected
}

func buildSectionPrompt(section *domain.TemplateSection, metadata domain.ContentMetadata, excerpts string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write the %q section of an investment memorandum.\n\n", section.Title)
	if strings.TrimSpace(section.Content) != "" {
		fmt.Fprintf(&b, "Section template:\n%s\n\n", section.Content)
	}

	b.WriteString("Subject:\n")
	fmt.Fprintf(&b, "- Asset: %s (%s)\n", metadata.AssetName, metadata.AssetType)
	if metadata.Location != "" {
		fmt.Fprintf(&b, "- Location: %s\n", metadata.Location)
	}
	if metadata.Client != "" {
		fmt.Fprintf(&b, "- Client: %s\n", metadata.Client)
	}
	if metadata.Date != "" {
		fmt.Fprintf(&b, "- Date: %s\n", metadata.Date)
	}
	extraKeys := make([]string, 0, len(metadata.Extra))
	for key := range metadata.Extra {
		extraKeys = append(extraKeys, key)
	}
	sort.Strings(extraKeys)
	for _, key := range extraKeys {
		fmt.Fprintf(&b, "- %s: %s\n", key, metadata.Extra[key])
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Guidance:\n%s\n\n", authoringGuidance(classifySection(section.Title)))

	if excerpts != "" {
		fmt.Fprintf(&b, "Source material:\n%s", excerpts)
	} else {
		b.WriteString("No source material matched this section; state clearly which information is missing.\n")
	}

	return b.String()
}

// truncate cuts text at limit bytes, backing up so a multi-byte rune is
// never split.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}
