package render

import (
	"strings"

	"careertools/internal/types"
)

func heatmapLayout(payload types.ToolResult) (*View, error) {
	r, ok := payload.(*types.HeatmapResult)
	if !ok || r == nil {
		return nil, mismatch(types.ToolOpportunityHeatmap, payload)
	}

	markers := make([]Marker, 0, len(r.TopCountries))
	countries := make([]Card, 0, len(r.TopCountries))
	for i, c := range r.TopCountries {
		id := cardID("country", i, c.CountryCode)
		markers = append(markers, Marker{
			ID:        id,
			Label:     c.Country,
			Lat:       c.Latitude,
			Lng:       c.Longitude,
			Intensity: clamp(c.OpportunityScore/100, 0, 1),
		})

		stats := []Stat{
			{Label: "Opportunity score", Value: score(c.OpportunityScore, 100)},
			{Label: "Demand", Value: c.DemandLevel},
			{Label: "Salary range", Value: moneyRange(c.SalaryRange.Min, c.SalaryRange.Max, c.SalaryRange.Currency)},
			{Label: "Remote friendly", Value: yesNo(c.RemoteFriendly)},
		}
		if c.VisaDifficulty != "" {
			stats = append(stats, Stat{Label: "Visa difficulty", Value: c.VisaDifficulty})
		}
		var details []string
		if len(c.TopCities) > 0 {
			details = append(details, "Top cities: "+strings.Join(c.TopCities, ", "))
		}
		countries = append(countries, Card{
			ID:       id,
			Rank:     i + 1,
			Title:    c.Country,
			Subtitle: c.CountryCode,
			Stats:    stats,
			Tags:     c.TopCities,
			Details:  details,
		})
	}

	skills := make([]Card, 0, len(r.SkillDemand))
	for i, s := range r.SkillDemand {
		card := Card{
			ID:       cardID("skill", i, s.Skill),
			Rank:     i + 1,
			Title:    s.Skill,
			Subtitle: s.Trend,
			Stats:    []Stat{{Label: "Demand score", Value: score(s.DemandScore, 100)}},
			Tags:     s.TopCountries,
		}
		if len(s.TopCountries) > 0 {
			card.Details = []string{"Strongest in " + strings.Join(s.TopCountries, ", ")}
		}
		skills = append(skills, card)
	}

	return &View{
		Tool:       types.ToolOpportunityHeatmap,
		Title:      "Global Opportunity Heatmap",
		Summary:    r.Summary,
		DefaultTab: "map",
		Tabs: []Tab{
			{ID: "map", Title: "Map", Sections: []Section{
				{ID: "markers", Title: "Opportunities by country", Kind: KindMap, Markers: markers,
					Placeholder: "No countries matched your profile."},
			}},
			{ID: "countries", Title: "Top countries", Sections: []Section{
				{ID: "ranking", Title: "Ranked countries", Kind: KindCards, Cards: countries,
					Placeholder: "No countries matched your profile."},
			}},
			{ID: "skills", Title: "Skill demand", Sections: []Section{
				{ID: "demand", Title: "Demand for your skills", Kind: KindCards, Cards: skills,
					Placeholder: "No skill demand data."},
			}},
			{ID: "insights", Title: "Insights", Sections: []Section{
				textSection("summary", "Summary", r.Summary),
				listSection("insights", "Key insights", r.Insights, "No additional insights."),
			}},
		},
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
