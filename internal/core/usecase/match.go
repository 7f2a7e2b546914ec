package usecase

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ivankhr/memogen/internal/core/domain"
)

const (
	titleMatchScore   = 5
	keywordMatchScore = 1
	minKeywordLength  = 4
)

var nonWordPattern = regexp.MustCompile(`[^\w\s]`)

// stopWords are tokens too generic to signal relevance, including filler
// terms that appear in virtually every memorandum template.
var stopWords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {}, "have": {}, "been": {},
	"will": {}, "would": {}, "should": {}, "could": {}, "which": {}, "their": {},
	"there": {}, "these": {}, "those": {}, "than": {}, "then": {}, "them": {},
	"when": {}, "where": {}, "what": {}, "about": {}, "into": {}, "over": {},
	"under": {}, "each": {}, "other": {}, "such": {}, "also": {}, "more": {},
	"most": {}, "some": {}, "here": {}, "please": {}, "include": {},
	"section": {}, "describe": {}, "provide": {}, "insert": {}, "enter": {},
}

// MatchSources scores every source document against every template section
// and returns, per section id, the document ids ordered most relevant first.
// A document containing the section title scores higher than one sharing
// only body keywords; zero-score documents are excluded. Ties keep input
// order. Pure function.
func MatchSources(structure domain.TemplateStructure, docs []domain.SourceDocument) map[string][]string {
	matches := make(map[string][]string)
	for _, section := range structure.AllSections() {
		matches[section.ID] = rankDocuments(section, docs)
	}
	return matches
}

func rankDocuments(section *domain.TemplateSection, docs []domain.SourceDocument) []string {
	title := strings.ToLower(strings.TrimSpace(section.Title))
	keywords := extractKeywords(section.Content)

	type scoredDoc struct {
		id    string
		score int
	}
	var ranked []scoredDoc
	for _, doc := range docs {
		text := strings.ToLower(doc.Content)

		score := 0
		if title != "" && strings.Contains(text, title) {
			score += titleMatchScore
		}
		for _, keyword := range keywords {
			if strings.Contains(text, keyword) {
				score += keywordMatchScore
			}
		}
		if score > 0 {
			ranked = append(ranked, scoredDoc{id: doc.ID, score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	ids := make([]string, 0, len(ranked))
	for _, d := range ranked {
		ids = append(ids, d.id)
	}
	return ids
}

// extractKeywords lowercases the section body, strips punctuation, and keeps
// deduplicated tokens longer than three characters that are not stop words.
func extractKeywords(body string) []string {
	cleaned := nonWordPattern.ReplaceAllString(strings.ToLower(body), "")

	seen := make(map[string]struct{})
	var keywords []string
	for _, token := range strings.Fields(cleaned) {
		if len(token) < minKeywordLength {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
	}
	return keywords
}
