package render

import (
	"errors"
	"testing"

	"careertools/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHeatmap() *types.HeatmapResult {
	return &types.HeatmapResult{
		Summary: "Strong demand across Europe",
		TopCountries: []types.CountryOpportunity{
			{Country: "Germany", CountryCode: "DE", Latitude: 51.1, Longitude: 10.4, OpportunityScore: 88,
				DemandLevel: "high", SalaryRange: types.SalaryRange{Min: 60000, Max: 90000, Currency: "EUR"},
				TopCities: []string{"Berlin", "Munich"}},
			{Country: "Canada", CountryCode: "CA", Latitude: 56.1, Longitude: -106.3, OpportunityScore: 81,
				DemandLevel: "high", SalaryRange: types.SalaryRange{Min: 70000, Max: 110000, Currency: "CAD"}},
			{Country: "Singapore", CountryCode: "SG", Latitude: 1.35, Longitude: 103.8, OpportunityScore: 75,
				DemandLevel: "medium"},
		},
		SkillDemand: []types.SkillDemand{{Skill: "Go", DemandScore: 90, Trend: "rising"}},
	}
}

func TestHeatmapCardPerCountry(t *testing.T) {
	view, err := Render(sampleHeatmap(), types.ToolOpportunityHeatmap)
	require.NoError(t, err)

	assert.Equal(t, "map", view.DefaultTab)
	tab, ok := view.Tab("countries")
	require.True(t, ok)
	ranking, ok := tab.Section("ranking")
	require.True(t, ok)
	require.Len(t, ranking.Cards, 3)
	assert.Equal(t, 1, ranking.Cards[0].Rank)
	assert.Equal(t, "Germany", ranking.Cards[0].Title)
	assert.Contains(t, ranking.Cards[0].Stats[2].Value, "EUR 60,000 - 90,000")

	assert.Len(t, view.Markers(), 3)
}

func TestFractionalScoresRoundForDisplay(t *testing.T) {
	payload := sampleHeatmap()
	payload.TopCountries[0].OpportunityScore = 87.5
	view, err := Render(payload, types.ToolOpportunityHeatmap)
	require.NoError(t, err)

	tab, _ := view.Tab("countries")
	ranking, _ := tab.Section("ranking")
	assert.Equal(t, "88/100", ranking.Cards[0].Stats[0].Value)
	assert.InDelta(t, 0.875, view.Markers()[0].Intensity, 1e-9)

	skills, err := Render(&types.SkillGapResult{ReadinessScore: 79.6}, types.ToolSkillGapAnalyzer)
	require.NoError(t, err)
	overview, _ := skills.Tab("overview")
	readiness, _ := overview.Section("readiness")
	assert.Equal(t, 79.6, readiness.Gauge.Value)
	assert.Equal(t, "Getting close", readiness.Gauge.Caption)
}

func TestOptionalArraysRenderAsEmptySections(t *testing.T) {
	view, err := Render(sampleHeatmap(), types.ToolOpportunityHeatmap)
	require.NoError(t, err)

	tab, _ := view.Tab("insights")
	insights, ok := tab.Section("insights")
	require.True(t, ok)
	assert.True(t, insights.IsEmpty())
	assert.NotEmpty(t, insights.Placeholder)
}

func TestEveryToolRendersEmptyResult(t *testing.T) {
	results := []types.ToolResult{
		&types.HeatmapResult{},
		&types.SkillGapResult{},
		&types.SalaryResult{},
		&types.ResumeGapResult{},
		&types.RetirementResult{},
	}
	for _, r := range results {
		t.Run(string(r.Kind()), func(t *testing.T) {
			view, err := Render(r, r.Kind())
			require.NoError(t, err)
			assert.NotEmpty(t, view.Tabs)
			_, ok := view.Tab(view.DefaultTab)
			assert.True(t, ok)
		})
	}
}

func TestRenderKindMismatch(t *testing.T) {
	_, err := Render(&types.SalaryResult{}, types.ToolOpportunityHeatmap)
	assert.True(t, errors.Is(err, ErrKindMismatch))

	_, err = Render(nil, types.ToolOpportunityHeatmap)
	assert.Error(t, err)

	_, err = Render(&types.SalaryResult{}, types.ToolKind("unknown"))
	assert.Error(t, err)
}

func TestSkillGapTiers(t *testing.T) {
	view, err := Render(&types.SkillGapResult{
		ReadinessScore: 55,
		CriticalGaps:   []types.SkillGap{{Skill: "Kubernetes", CurrentLevel: "none", RequiredLevel: "intermediate"}},
		ImportantGaps:  []types.SkillGap{{Skill: "Terraform"}, {Skill: "gRPC"}},
		Phases:         []types.LearningPhase{{Title: "Foundations", Duration: "4 weeks", Focus: []string{"Containers"}}},
	}, types.ToolSkillGapAnalyzer)
	require.NoError(t, err)

	gaps, _ := view.Tab("gaps")
	critical, _ := gaps.Section("critical")
	important, _ := gaps.Section("important")
	nice, _ := gaps.Section("nice-to-have")
	assert.Len(t, critical.Cards, 1)
	assert.Len(t, important.Cards, 2)
	assert.True(t, nice.IsEmpty())

	overview, _ := view.Tab("overview")
	readiness, _ := overview.Section("readiness")
	require.NotNil(t, readiness.Gauge)
	assert.Equal(t, 55.0, readiness.Gauge.Value)
	assert.Equal(t, "Getting close", readiness.Gauge.Caption)
}

func TestResumeGapsGroupedBySeverity(t *testing.T) {
	view, err := Render(&types.ResumeGapResult{
		Gaps: []types.ResumeGap{
			{Section: "Experience", Severity: "High", Issue: "No metrics"},
			{Section: "Skills", Severity: "medium", Issue: "Outdated"},
			{Section: "Format", Severity: "cosmetic", Issue: "Long"},
		},
	}, types.ToolResumeGapFinder)
	require.NoError(t, err)

	gaps, _ := view.Tab("gaps")
	for id, want := range map[string]int{"high": 1, "medium": 1, "low": 1} {
		s, ok := gaps.Section(id)
		require.True(t, ok)
		assert.Len(t, s.Cards, want, id)
	}
}

func TestStateResetAndToggle(t *testing.T) {
	view, err := Render(sampleHeatmap(), types.ToolOpportunityHeatmap)
	require.NoError(t, err)

	s := NewState(view)
	assert.Equal(t, "map", s.ActiveTab)

	assert.True(t, s.SelectTab(view, "countries"))
	assert.False(t, s.SelectTab(view, "nope"))
	assert.Equal(t, "countries", s.ActiveTab)

	first := view.Tabs[1].Sections[0].Cards[0].ID
	second := view.Tabs[1].Sections[0].Cards[1].ID
	assert.True(t, s.Toggle(view, first))
	assert.True(t, s.Toggle(view, second))
	assert.False(t, s.IsExpanded(first), "only one entry expands at a time")
	assert.True(t, s.IsExpanded(second))
	assert.True(t, s.Toggle(view, second))
	assert.Empty(t, s.Expanded)
	assert.False(t, s.Toggle(view, "missing"))

	s.Toggle(view, first)
	s.Reset(view)
	assert.Equal(t, State{ActiveTab: "map"}, s)
}

func TestClickAtSelectsNearestMarker(t *testing.T) {
	view, err := Render(sampleHeatmap(), types.ToolOpportunityHeatmap)
	require.NoError(t, err)
	s := NewState(view)

	m, ok := s.ClickAt(view, 48.8, 2.3) // Paris
	require.True(t, ok)
	assert.Equal(t, "Germany", m.Label)
	assert.Equal(t, m.ID, s.SelectedMarker)
	assert.True(t, s.IsExpanded(m.ID))

	m, _ = s.ClickAt(view, -33.9, 151.2) // Sydney
	assert.Equal(t, "Singapore", m.Label)

	empty, err := Render(&types.HeatmapResult{}, types.ToolOpportunityHeatmap)
	require.NoError(t, err)
	_, ok = s.ClickAt(empty, 0, 0)
	assert.False(t, ok)
}

func BenchmarkRenderHeatmap(b *testing.B) {
	payload := sampleHeatmap()
	for b.Loop() {
		_, _ = Render(payload, types.ToolOpportunityHeatmap)
	}
}
