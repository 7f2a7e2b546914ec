// Package markdown parses raw memorandum template text into the ordered
// section forest consumed by the generation pipeline.
package markdown

import (
	"fmt"
	"strings"

	"github.com/ivankhr/memogen/internal/core/domain"
)

type Parser struct{}

func New() *Parser {
	return &Parser{}
}

// Parse builds the section forest from markdown-style heading lines. Every
// heading opens a section of kind heading; body lines appended under it flip
// it to text (one-way), while table, chart, and image markers refine the
// kind further.
func (p *Parser) Parse(raw string) (domain.TemplateStructure, error) {
	var structure domain.TemplateStructure
	// stack of open sections, index = nesting depth
	var stack []*domain.TemplateSection
	counter := 0

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimRight(line, " \t")

		if level, title, ok := parseHeading(trimmed); ok {
			counter++
			section := &domain.TemplateSection{
				ID:    fmt.Sprintf("sec-%d", counter),
				Title: title,
				Kind:  domain.KindHeading,
				Level: level,
			}

			for len(stack) > 0 && stack[len(stack)-1].Level >= level {
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				structure.Sections = append(structure.Sections, section)
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, section)
			}
			stack = append(stack, section)
			continue
		}

		if len(stack) == 0 {
			// preamble text before the first heading is not a section
			continue
		}

		current := stack[len(stack)-1]
		current.AppendBody(trimmed)
		if kind, ok := classifyBodyLine(trimmed); ok {
			current.Kind = kind
		}
	}

	return structure, nil
}

func parseHeading(line string) (level int, title string, ok bool) {
	if !strings.HasPrefix(line, "#") {
		return 0, "", false
	}
	level = 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level > 6 || level >= len(line) || line[level] != ' ' {
		return 0, "", false
	}
	title = strings.TrimSpace(line[level:])
	if title == "" {
		return 0, "", false
	}
	return level, title, true
}

// classifyBodyLine detects content markers that refine a section's kind
// beyond plain text.
func classifyBodyLine(line string) (domain.SectionKind, bool) {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, "|"):
		return domain.KindTable, true
	case strings.HasPrefix(trimmed, "!["):
		return domain.KindImage, true
	case strings.HasPrefix(strings.ToLower(trimmed), "[chart"):
		return domain.KindChart, true
	default:
		return "", false
	}
}
