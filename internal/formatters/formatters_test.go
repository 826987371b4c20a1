package formatters

import (
	"encoding/json"
	"testing"

	"careertools/internal/registry"
	"careertools/internal/render"
	"careertools/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heatmapView(t *testing.T) *render.View {
	t.Helper()
	view, err := render.Render(&types.HeatmapResult{
		Summary: "Strong demand across Europe",
		TopCountries: []types.CountryOpportunity{
			{Country: "Germany", CountryCode: "DE", Latitude: 51.1, Longitude: 10.4, OpportunityScore: 88,
				DemandLevel: "high", SalaryRange: types.SalaryRange{Min: 60000, Max: 90000, Currency: "EUR"},
				TopCities: []string{"Berlin", "Munich"}},
			{Country: "Canada", CountryCode: "CA", Latitude: 56.1, Longitude: -106.3, OpportunityScore: 81,
				DemandLevel: "high", TopCities: []string{"Toronto"}},
		},
		SkillDemand: []types.SkillDemand{{Skill: "Go", DemandScore: 90, Trend: "rising"}},
	}, types.ToolOpportunityHeatmap)
	require.NoError(t, err)
	return view
}

func TestFormatView(t *testing.T) {
	view := heatmapView(t)

	text, err := GlobalRegistry.Format(view, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "=== GLOBAL OPPORTUNITY HEATMAP ===")
	assert.Contains(t, text, "--- Top countries ---")
	assert.Contains(t, text, "1. Germany - DE")
	assert.Contains(t, text, "EUR 60,000 - 90,000")
	assert.Contains(t, text, "Top cities: Berlin, Munich")
	assert.Contains(t, text, "No additional insights.")

	md, err := GlobalRegistry.Format(view, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "# Global Opportunity Heatmap")
	assert.Contains(t, md, "### Ranked countries")
}

func TestFormatScreenShowsActiveTabOnly(t *testing.T) {
	view := heatmapView(t)
	state := render.NewState(view)
	require.True(t, state.SelectTab(view, "countries"))

	text, err := GlobalRegistry.Format(Screen{View: view, State: state}, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "[Top countries]")
	assert.NotContains(t, text, "Demand for your skills")
	assert.NotContains(t, text, "Top cities: Berlin", "details stay collapsed")
	assert.Contains(t, text, "[+] 1. Germany")

	germany := view.Tabs[1].Sections[0].Cards[0].ID
	require.True(t, state.Toggle(view, germany))
	text, err = GlobalRegistry.Format(Screen{View: view, State: state}, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "[-] 1. Germany")
	assert.Contains(t, text, "Top cities: Berlin, Munich")
	assert.NotContains(t, text, "Top cities: Toronto")
}

func TestFormatScreenMarksSelectedMarker(t *testing.T) {
	view := heatmapView(t)
	state := render.NewState(view)
	_, ok := state.ClickAt(view, 50, 9)
	require.True(t, ok)

	md, err := GlobalRegistry.Format(Screen{View: view, State: state}, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "## Map (active)")
	assert.Contains(t, md, "- * Germany")
}

func TestFormatCatalog(t *testing.T) {
	catalog := Catalog(registry.All())

	text, err := GlobalRegistry.Format(catalog, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "(opportunity-heatmap)")
	assert.Contains(t, text, "timeout 1m0s")

	md, err := GlobalRegistry.Format(catalog, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "| `salary-comparator` |")

	raw, err := GlobalRegistry.Format(catalog, "json")
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &entries))
	assert.Len(t, entries, len(types.ToolKinds()))
}

func TestFormatFallsBackToJSON(t *testing.T) {
	out, err := GlobalRegistry.Format(map[string]int{"a": 1}, "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, out)

	_, err = GlobalRegistry.Format(map[string]int{"a": 1}, "text")
	assert.Error(t, err)

	assert.Equal(t, []string{"json", "markdown", "text"}, GlobalRegistry.GetSupportedFormats())
}
