package render

import (
	"fmt"

	"careertools/internal/types"
)

func skillGapLayout(payload types.ToolResult) (*View, error) {
	r, ok := payload.(*types.SkillGapResult)
	if !ok || r == nil {
		return nil, mismatch(types.ToolSkillGapAnalyzer, payload)
	}

	phases := make([]Phase, 0, len(r.Phases))
	for i, p := range r.Phases {
		items := make([]string, 0, len(p.Focus)+len(p.Milestones))
		for _, f := range p.Focus {
			items = append(items, "Focus: "+f)
		}
		for _, m := range p.Milestones {
			items = append(items, "Milestone: "+m)
		}
		phases = append(phases, Phase{
			ID:       cardID("phase", i, p.Title),
			Title:    fmt.Sprintf("Phase %d: %s", i+1, p.Title),
			Subtitle: p.Duration,
			Items:    items,
		})
	}

	return &View{
		Tool:       types.ToolSkillGapAnalyzer,
		Title:      "Skill Gap Roadmap",
		Summary:    r.Summary,
		DefaultTab: "overview",
		Tabs: []Tab{
			{ID: "overview", Title: "Overview", Sections: []Section{
				{ID: "readiness", Title: "Readiness", Kind: KindGauge, Gauge: &Gauge{
					Label:   "Readiness for your target role",
					Value:   r.ReadinessScore,
					Max:     100,
					Caption: readinessCaption(r.ReadinessScore),
				}},
				textSection("summary", "Summary", r.Summary),
				listSection("strengths", "Strengths you can build on", r.Strengths, "No strengths listed."),
			}},
			{ID: "gaps", Title: "Skill gaps", Sections: []Section{
				gapTier("critical", "Critical gaps", r.CriticalGaps),
				gapTier("important", "Important gaps", r.ImportantGaps),
				gapTier("nice-to-have", "Nice to have", r.NiceToHave),
			}},
			{ID: "plan", Title: "Learning plan", Sections: []Section{
				{ID: "phases", Title: "Roadmap", Kind: KindTimeline, Phases: phases,
					Placeholder: "No learning phases were suggested."},
			}},
		},
	}, nil
}

func gapTier(id, title string, gaps []types.SkillGap) Section {
	cards := make([]Card, 0, len(gaps))
	for i, g := range gaps {
		card := Card{
			ID:       cardID(id, i, g.Skill),
			Title:    g.Skill,
			Subtitle: fmt.Sprintf("%s to %s", orDash(g.CurrentLevel), orDash(g.RequiredLevel)),
			Stats: []Stat{
				{Label: "Current level", Value: orDash(g.CurrentLevel)},
				{Label: "Required level", Value: orDash(g.RequiredLevel)},
			},
			Tags: g.Resources,
		}
		if g.Reason != "" {
			card.Details = append(card.Details, g.Reason)
		}
		for _, res := range g.Resources {
			card.Details = append(card.Details, "Resource: "+res)
		}
		cards = append(cards, card)
	}
	return Section{ID: id, Title: title, Kind: KindCards, Cards: cards, Placeholder: "Nothing in this tier."}
}

func readinessCaption(v float64) string {
	switch {
	case v >= 80:
		return "Ready to apply"
	case v >= 50:
		return "Getting close"
	}
	return "Significant preparation needed"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
