package domain

import (
	"strings"
	"time"
)

type SectionKind string

const (
	KindHeading SectionKind = "heading"
	KindText    SectionKind = "text"
	KindTable   SectionKind = "table"
	KindChart   SectionKind = "chart"
	KindImage   SectionKind = "image"
)

// TemplateSection is one node of the parsed template outline.
type TemplateSection struct {
	ID       string             `json:"id"`
	Title    string             `json:"title"`
	Content  string             `json:"content"`
	Kind     SectionKind        `json:"kind"`
	Level    int                `json:"level"`
	Children []*TemplateSection `json:"children,omitempty"`
}

// AppendBody adds a line of body text under the section. A heading section
// becomes a text section as soon as any non-blank content lands under it;
// the transition never reverses, even if later appended lines are blank.
func (s *TemplateSection) AppendBody(line string) {
	if s.Content == "" {
		s.Content = line
	} else {
		s.Content += "\n" + line
	}
	if s.Kind == KindHeading && strings.TrimSpace(line) != "" {
		s.Kind = KindText
	}
}

// TemplateStructure is the ordered forest of template sections.
type TemplateStructure struct {
	Sections []*TemplateSection `json:"sections"`
}

// FindSection resolves a section id across top-level sections and one level
// of children.
func (t TemplateStructure) FindSection(id string) *TemplateSection {
	for _, section := range t.Sections {
		if section.ID == id {
			return section
		}
		for _, child := range section.Children {
			if child.ID == id {
				return child
			}
		}
	}
	return nil
}

// AllSections returns every node depth-first, parents before children.
func (t TemplateStructure) AllSections() []*TemplateSection {
	var out []*TemplateSection
	var walk func(nodes []*TemplateSection)
	walk = func(nodes []*TemplateSection) {
		for _, node := range nodes {
			out = append(out, node)
			walk(node.Children)
		}
	}
	walk(t.Sections)
	return out
}

type Template struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	RawText   string            `json:"raw_text"`
	Structure TemplateStructure `json:"structure"`
	CreatedAt time.Time         `json:"created_at"`
}
