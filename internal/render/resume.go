package render

import (
	"strings"

	"careertools/internal/types"
)

var severities = []struct {
	id    string
	title string
}{
	{"high", "High severity"},
	{"medium", "Medium severity"},
	{"low", "Low severity"},
}

func resumeLayout(payload types.ToolResult) (*View, error) {
	r, ok := payload.(*types.ResumeGapResult)
	if !ok || r == nil {
		return nil, mismatch(types.ToolResumeGapFinder, payload)
	}

	bySeverity := make(map[string][]Card, len(severities))
	for i, g := range r.Gaps {
		sev := strings.ToLower(strings.TrimSpace(g.Severity))
		if sev != "high" && sev != "medium" {
			sev = "low"
		}
		card := Card{
			ID:       cardID("gap", i, g.Section),
			Title:    g.Section,
			Subtitle: g.Issue,
		}
		if g.Suggestion != "" {
			card.Details = []string{"Suggestion: " + g.Suggestion}
		}
		bySeverity[sev] = append(bySeverity[sev], card)
	}
	gapSections := make([]Section, 0, len(severities))
	for _, s := range severities {
		gapSections = append(gapSections, Section{
			ID: s.id, Title: s.title, Kind: KindCards, Cards: bySeverity[s.id],
			Placeholder: "No issues at this level.",
		})
	}

	recs := make([]Card, 0, len(r.Recommendations))
	for i, rec := range r.Recommendations {
		card := Card{ID: cardID("recommendation", i, rec.Title), Rank: i + 1, Title: rec.Title}
		if rec.Impact != "" {
			card.Subtitle = rec.Impact + " impact"
		}
		if rec.Detail != "" {
			card.Details = []string{rec.Detail}
		}
		recs = append(recs, card)
	}

	return &View{
		Tool:       types.ToolResumeGapFinder,
		Title:      "Resume Gap Report",
		Summary:    r.Summary,
		DefaultTab: "overview",
		Tabs: []Tab{
			{ID: "overview", Title: "Overview", Sections: []Section{
				{ID: "score", Title: "Overall score", Kind: KindGauge, Gauge: &Gauge{
					Label: "Resume strength", Value: r.OverallScore, Max: 100,
				}},
				textSection("summary", "Summary", r.Summary),
				listSection("strengths", "Strengths", r.Strengths, "No strengths listed."),
			}},
			{ID: "gaps", Title: "Gaps", Sections: gapSections},
			{ID: "keywords", Title: "Keywords and actions", Sections: []Section{
				listSection("missing", "Missing keywords", r.MissingKeywords, "No missing keywords."),
				{ID: "recommendations", Title: "Recommendations", Kind: KindCards, Cards: recs,
					Placeholder: "No recommendations."},
			}},
		},
	}, nil
}
