package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ivankhr/memogen/internal/core/domain"
	"github.com/ivankhr/memogen/internal/core/ports"
)

// PipelineStage identifies which pass of the pipeline a progress report
// belongs to, so the job manager can rescale it into its own bands.
type PipelineStage string

const (
	StageGeneration  PipelineStage = "generation"
	StageEnhancement PipelineStage = "enhancement"
	StageValidation  PipelineStage = "validation"
)

// ProgressFunc receives the stage and the percentage completed within that
// stage (0-100). Implementations must be cheap and non-blocking.
type ProgressFunc func(stage PipelineStage, percent int)

const validationBodyChars = 500

// ContentPipeline sequences the full memorandum generation: relevance
// matching, sequential per-section generation, a concurrent enhancement
// pass, an advisory coherence check, and final assembly.
type ContentPipeline struct {
	sections    *SectionGenerator
	completions ports.CompletionService
	settings    GenerationSettings
	concurrency int
	logger      *slog.Logger
}

func NewContentPipeline(
	sections *SectionGenerator,
	completions ports.CompletionService,
	settings GenerationSettings,
	enhancementConcurrency int,
	logger *slog.Logger,
) *ContentPipeline {
	if enhancementConcurrency <= 0 {
		enhancementConcurrency = 3
	}
	return &ContentPipeline{
		sections:    sections,
		completions: completions,
		settings:    settings,
		concurrency: enhancementConcurrency,
		logger:      logger,
	}
}

// Run produces the complete GeneratedContent for a template. Sections are
// generated one at a time, top-level sections before their children, so
// framing sections exist before the subsections that may lean on them.
func (p *ContentPipeline) Run(
	ctx context.Context,
	template *domain.Template,
	docs []domain.SourceDocument,
	metadata domain.ContentMetadata,
	report ProgressFunc,
) (*domain.GeneratedContent, error) {
	if report == nil {
		report = func(PipelineStage, int) {}
	}

	matches := MatchSources(template.Structure, docs)

	ordered := orderForGeneration(template.Structure)
	generated := make([]domain.GeneratedSection, 0, len(ordered))
	for i, node := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		section, err := p.sections.Generate(ctx, template, docs, node.ID, metadata, matches)
		if err != nil {
			return nil, err
		}
		generated = append(generated, section)
		report(StageGeneration, (i+1)*100/len(ordered))
	}

	if err := p.enhance(ctx, generated, report); err != nil {
		return nil, err
	}

	issues := p.validateCoherence(ctx, generated)
	report(StageValidation, 100)

	now := time.Now().UTC()
	return &domain.GeneratedContent{
		ID:               uuid.NewString(),
		TemplateID:       template.ID,
		Sections:         generated,
		Status:           domain.ContentDraft,
		Metadata:         metadata,
		ValidationIssues: issues,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// orderForGeneration flattens the section forest by heading level ascending,
// keeping document order within a level.
func orderForGeneration(structure domain.TemplateStructure) []*domain.TemplateSection {
	all := structure.AllSections()
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Level < all[j].Level
	})
	return all
}

// enhance runs the editorial pass over every section that is neither a bare
// heading nor already approved. Sections are independent, so the calls run
// with bounded concurrency; the result slice is not touched until every call
// has finished.
func (p *ContentPipeline) enhance(ctx context.Context, sections []domain.GeneratedSection, report ProgressFunc) error {
	type outcome struct {
		index   int
		content string
		err     error
	}

	var targets []int
	for i, section := range sections {
		if section.Kind == domain.KindHeading || section.ReviewStatus == domain.ReviewApproved {
			continue
		}
		targets = append(targets, i)
	}
	if len(targets) == 0 {
		report(StageEnhancement, 100)
		return nil
	}

	sem := make(chan struct{}, p.concurrency)
	results := make(chan outcome, len(targets))
	var wg sync.WaitGroup

	for _, idx := range targets {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			content, err := p.enhanceSection(ctx, sections[idx])
			results <- outcome{index: idx, content: content, err: err}
		}(idx)
	}
	wg.Wait()
	close(results)

	done := 0
	var firstErr error
	for res := range results {
		done++
		report(StageEnhancement, done*100/len(targets))
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		sections[res.index].Content = res.content
		sections[res.index].ReviewStatus = domain.ReviewReviewed
	}
	return firstErr
}

func (p *ContentPipeline) enhanceSection(ctx context.Context, section domain.GeneratedSection) (string, error) {
	prompt := fmt.Sprintf(
		"Improve the following %q section of an investment memorandum.\n\nGuidance:\n%s\n\n"+
			"Return only the revised section text.\n\n%s",
		section.Title,
		editorialGuidance(classifySection(section.Title)),
		section.Content,
	)

	text, err := p.completions.Complete(ctx, ports.CompletionRequest{
		System:      systemPrompt,
		User:        prompt,
		Model:       p.settings.Model,
		Temperature: p.settings.Temperature,
		MaxTokens:   p.settings.MaxTokens,
	})
	if err != nil {
		return "", domain.WrapError(domain.ErrProvider,
			fmt.Sprintf("enhance section %q", section.Title), err)
	}
	return strings.TrimSpace(text), nil
}

// validateCoherence sends all section titles and truncated bodies in one
// batched request and parses the response as a title -> issues map. Both
// provider and parse failures are advisory only: the job still completes,
// with no annotations.
func (p *ContentPipeline) validateCoherence(ctx context.Context, sections []domain.GeneratedSection) map[string][]string {
	var b strings.Builder
	b.WriteString("Review the following investment memorandum sections for cross-section " +
		"inconsistencies (contradicting figures, dates, or claims). Respond with a JSON " +
		"object mapping each section title to a list of issue descriptions; use an empty " +
		"list for clean sections.\n\n")
	for _, section := range sections {
		fmt.Fprintf(&b, "## %s\n%s\n\n", section.Title, truncate(section.Content, validationBodyChars))
	}

	raw, err := p.completions.Complete(ctx, ports.CompletionRequest{
		System:      systemPrompt,
		User:        b.String(),
		Model:       p.settings.Model,
		Temperature: 0,
		MaxTokens:   p.settings.MaxTokens,
	})
	if err != nil {
		p.logger.Warn("coherence validation skipped", "error", err)
		return map[string][]string{}
	}

	var issues map[string][]string
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &issues); err != nil {
		p.logger.Warn("coherence validation response unparseable", "error", err)
		return map[string][]string{}
	}
	return issues
}

// extractJSONObject slices the outermost JSON object out of a model response
// that may wrap it in prose or code fences.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
