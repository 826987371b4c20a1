package render

import (
	"fmt"

	"careertools/internal/types"
)

func salaryLayout(payload types.ToolResult) (*View, error) {
	r, ok := payload.(*types.SalaryResult)
	if !ok || r == nil {
		return nil, mismatch(types.ToolSalaryComparator, payload)
	}

	locations := make([]Card, 0, len(r.Locations))
	for i, l := range r.Locations {
		locations = append(locations, Card{
			ID:       cardID("location", i, l.Location),
			Rank:     i + 1,
			Title:    l.Location,
			Subtitle: "Median " + money(l.Median, r.Currency),
			Stats: []Stat{
				{Label: "Range", Value: moneyRange(l.Min, l.Max, r.Currency)},
				{Label: "Cost of living index", Value: fmt.Sprintf("%.0f", l.CostOfLivingIndex)},
				{Label: "Adjusted median", Value: money(l.AdjustedMedian, r.Currency)},
			},
		})
	}

	return &View{
		Tool:       types.ToolSalaryComparator,
		Title:      "Salary Comparison",
		Summary:    r.Summary,
		DefaultTab: "overview",
		Tabs: []Tab{
			{ID: "overview", Title: "Overview", Sections: []Section{
				{ID: "percentile", Title: "Where you stand", Kind: KindGauge, Gauge: &Gauge{
					Label:   "Market percentile",
					Value:   r.Percentile,
					Max:     100,
					Caption: percentileCaption(r.Percentile),
				}},
				{ID: "market", Title: "Market", Kind: KindStats, Stats: []Stat{
					{Label: "Market median", Value: money(r.MarketMedian, r.Currency)},
				}},
				textSection("summary", "Summary", r.Summary),
				listSection("factors", "What drives your pay", r.Factors, "No factors listed."),
			}},
			{ID: "locations", Title: "Locations", Sections: []Section{
				{ID: "comparison", Title: "Compared locations", Kind: KindCards, Cards: locations,
					Placeholder: "No locations to compare."},
			}},
			{ID: "tips", Title: "Negotiation", Sections: []Section{
				listSection("negotiation", "Negotiation tips", r.NegotiationTips, "No tips available."),
			}},
		},
	}, nil
}

func percentileCaption(p float64) string {
	switch {
	case p >= 75:
		return "Above market"
	case p >= 40:
		return "Around market"
	}
	return "Below market"
}
