// Package excel renders a generated memorandum into an XLSX workbook for
// download: an overview sheet with metadata, and one row per section with
// its review state, provenance count, and validation findings.
package excel

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ivankhr/memogen/internal/core/domain"
)

type Exporter struct{}

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(content *domain.GeneratedContent) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const overview = "Overview"
	const sections = "Sections"

	if err := f.SetSheetName("Sheet1", overview); err != nil {
		return nil, fmt.Errorf("rename overview sheet: %w", err)
	}
	if _, err := f.NewSheet(sections); err != nil {
		return nil, fmt.Errorf("create sections sheet: %w", err)
	}

	overviewRows := [][]any{
		{"Memorandum ID", content.ID},
		{"Template ID", content.TemplateID},
		{"Status", string(content.Status)},
		{"Asset", content.Metadata.AssetName},
		{"Asset Type", content.Metadata.AssetType},
		{"Location", content.Metadata.Location},
		{"Client", content.Metadata.Client},
		{"Date", content.Metadata.Date},
		{"Sections", len(content.Sections)},
		{"Created", content.CreatedAt.Format("2006-01-02 15:04:05")},
		{"Updated", content.UpdatedAt.Format("2006-01-02 15:04:05")},
	}
	for i, row := range overviewRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(overview, cell, &row); err != nil {
			return nil, fmt.Errorf("write overview row: %w", err)
		}
	}

	headers := []any{"Title", "Kind", "Review Status", "Sources", "Validation Findings", "Content"}
	if err := f.SetSheetRow(sections, "A1", &headers); err != nil {
		return nil, fmt.Errorf("write section headers: %w", err)
	}
	for i, section := range content.Sections {
		findings := ""
		if issues, ok := content.ValidationIssues[section.Title]; ok && len(issues) > 0 {
			for j, issue := range issues {
				if j > 0 {
					findings += "; "
				}
				findings += issue
			}
		}
		row := []any{
			section.Title,
			string(section.Kind),
			string(section.ReviewStatus),
			len(section.Sources),
			findings,
			section.Content,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sections, cell, &row); err != nil {
			return nil, fmt.Errorf("write section row: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
