package usecase

import "strings"

// sectionCategory groups template sections by the kind of prose they need.
type sectionCategory int

const (
	categoryGeneral sectionCategory = iota
	categoryExecutiveSummary
	categoryProperty
	categoryMarket
	categoryFinancial
	categoryRisk
	categoryStrategy
)

// categoryKeywords maps title keywords to a category. First match wins, in
// declaration order.
var categoryKeywords = []struct {
	category sectionCategory
	keywords []string
}{
	{categoryExecutiveSummary, []string{"executive summary", "overview"}},
	{categoryProperty, []string{"property", "asset", "building", "real estate"}},
	{categoryMarket, []string{"market", "location", "competition"}},
	{categoryFinancial, []string{"financial", "returns", "cash flow", "valuation"}},
	{categoryRisk, []string{"risk", "sensitivity"}},
	{categoryStrategy, []string{"strategy", "exit", "business plan"}},
}

func classifySection(title string) sectionCategory {
	lowered := strings.ToLower(title)
	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lowered, keyword) {
				return entry.category
			}
		}
	}
	return categoryGeneral
}

// authoringGuidance returns category-specific style instructions embedded in
// the first-pass generation prompt.
func authoringGuidance(category sectionCategory) string {
	switch category {
	case categoryExecutiveSummary:
		return "Write a concise executive summary that captures the investment highlights, " +
			"the asset profile, and the key financial figures. Lead with the strongest selling " +
			"points and keep every statement verifiable against the source material."
	case categoryProperty:
		return "Describe the property factually: location, construction year, areas, tenancy " +
			"structure, and technical condition. Prefer concrete figures from the sources over " +
			"qualitative claims."
	case categoryMarket:
		return "Summarise the relevant market environment: supply and demand, rent levels, " +
			"vacancy, and comparable transactions. Attribute every market figure to its source " +
			"period where the material allows."
	case categoryFinancial:
		return "Present the financial picture with precise numbers: purchase price, rental " +
			"income, cost structure, and projected returns. Never invent figures; state when a " +
			"value is missing from the sources."
	case categoryRisk:
		return "Identify the material risks and their mitigants. Be balanced and specific; " +
			"avoid generic risk boilerplate that could apply to any asset."
	case categoryStrategy:
		return "Explain the investment strategy and intended value creation: hold period, " +
			"capex plan, repositioning, and exit scenarios, as supported by the sources."
	default:
		return "Write clear, professional investment-memorandum prose grounded strictly in " +
			"the provided source material."
	}
}

// editorialGuidance returns category-specific instructions for the second,
// quality-enhancement pass.
func editorialGuidance(category sectionCategory) string {
	switch category {
	case categoryExecutiveSummary:
		return "Tighten the summary so it reads in under a minute: remove repetition, sharpen " +
			"the investment highlights, and make sure the headline figures appear early."
	case categoryProperty:
		return "Check the property description for internal consistency of areas, dates, and " +
			"figures, and reorder details from general to specific."
	case categoryMarket:
		return "Improve the market narrative so trends and figures connect logically; remove " +
			"claims that lack a supporting figure."
	case categoryFinancial:
		return "Verify that every number is stated once with consistent units and currency " +
			"formatting, and that the return metrics are clearly defined."
	case categoryRisk:
		return "Balance the risk section: each named risk should have a concrete mitigant or " +
			"an explicit statement that none exists."
	case categoryStrategy:
		return "Make the strategy actionable: each step should name a timeframe or trigger " +
			"where the draft allows."
	default:
		return "Polish grammar, tighten wording, and keep the professional memorandum tone " +
			"without changing factual content."
	}
}
