package render

import (
	"fmt"

	"careertools/internal/types"
)

func retirementLayout(payload types.ToolResult) (*View, error) {
	r, ok := payload.(*types.RetirementResult)
	if !ok || r == nil {
		return nil, mismatch(types.ToolRetirementCalculator, payload)
	}

	milestones := make([]Phase, 0, len(r.Milestones))
	for i, m := range r.Milestones {
		p := Phase{
			ID:       cardID("age", i, fmt.Sprint(m.Age)),
			Title:    fmt.Sprintf("Age %d", m.Age),
			Subtitle: money(m.Balance, ""),
		}
		if m.Label != "" {
			p.Items = []string{m.Label}
		}
		milestones = append(milestones, p)
	}

	scenarios := make([]Card, 0, len(r.Scenarios))
	for i, s := range r.Scenarios {
		scenarios = append(scenarios, Card{
			ID:       cardID("scenario", i, s.Name),
			Title:    s.Name,
			Subtitle: fmt.Sprintf("%.1f%% annual return", s.ReturnRate),
			Stats:    []Stat{{Label: "Projected savings", Value: money(s.ProjectedSavings, "")}},
		})
	}

	return &View{
		Tool:       types.ToolRetirementCalculator,
		Title:      "Retirement Projection",
		Summary:    r.Summary,
		DefaultTab: "overview",
		Tabs: []Tab{
			{ID: "overview", Title: "Overview", Sections: []Section{
				{ID: "readiness", Title: "Readiness", Kind: KindGauge, Gauge: &Gauge{
					Label: "Retirement readiness", Value: r.ReadinessScore, Max: 100,
					Caption: onTrackCaption(r.OnTrack),
				}},
				{ID: "projection", Title: "Projection", Kind: KindStats, Stats: []Stat{
					{Label: "Projected savings", Value: money(r.ProjectedSavings, "")},
					{Label: "Monthly income", Value: money(r.MonthlyIncome, "")},
					{Label: "On track", Value: yesNo(r.OnTrack)},
				}},
				textSection("summary", "Summary", r.Summary),
				listSection("recommendations", "Recommendations", r.Recommendations, "No recommendations."),
			}},
			{ID: "timeline", Title: "Timeline", Sections: []Section{
				{ID: "milestones", Title: "Milestones", Kind: KindTimeline, Phases: milestones,
					Placeholder: "No milestones projected."},
			}},
			{ID: "scenarios", Title: "Scenarios", Sections: []Section{
				{ID: "alternatives", Title: "Alternative returns", Kind: KindCards, Cards: scenarios,
					Placeholder: "No alternative scenarios."},
			}},
		},
	}, nil
}

func onTrackCaption(onTrack bool) string {
	if onTrack {
		return "On track"
	}
	return "Behind target"
}
