package cli

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"careertools/internal/errors"
	"careertools/internal/orchestrator"
	"careertools/internal/registry"
	"careertools/internal/session"
	"careertools/internal/types"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedAsker answers prompts from a fixed list and interrupts when it runs out
type scriptedAsker struct {
	answers []string
	labels  []string
}

func (a *scriptedAsker) next(label string) (string, error) {
	a.labels = append(a.labels, label)
	if len(a.answers) == 0 {
		return "", promptui.ErrInterrupt
	}
	answer := a.answers[0]
	a.answers = a.answers[1:]
	return answer, nil
}

func (a *scriptedAsker) Choose(label string, items []string) (string, error) {
	answer, err := a.next(label)
	if err != nil {
		return "", err
	}
	if !slices.Contains(items, answer) {
		return "", fmt.Errorf("%q not offered for %q: %v", answer, label, items)
	}
	return answer, nil
}

func (a *scriptedAsker) Input(label, _ string, validate func(string) error) (string, error) {
	answer, err := a.next(label)
	if err != nil {
		return "", err
	}
	if validate != nil {
		if err := validate(answer); err != nil {
			return "", err
		}
	}
	return answer, nil
}

type fixedSubmitter struct {
	outcome orchestrator.Outcome
	calls   int
}

func (f *fixedSubmitter) Submit(context.Context, types.ProfileDraft) orchestrator.Outcome {
	f.calls++
	return f.outcome
}

func (f *fixedSubmitter) IsLatest(uint64) bool { return true }

func heatmapResult() orchestrator.Outcome {
	return orchestrator.Success{Payload: &types.HeatmapResult{
		TopCountries: []types.CountryOpportunity{
			{Country: "Germany", CountryCode: "DE", Latitude: 51, Longitude: 10, OpportunityScore: 88},
			{Country: "Japan", CountryCode: "JP", Latitude: 36, Longitude: 138, OpportunityScore: 71},
		},
		SkillDemand: []types.SkillDemand{},
	}}
}

func newTestRunner(answers []string, sub session.Submitter) (*runner, *scriptedAsker, *bytes.Buffer) {
	ask := &scriptedAsker{answers: answers}
	out := &bytes.Buffer{}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &runner{
		ask:          ask,
		out:          out,
		logger:       errors.Discard(),
		newSubmitter: func(*registry.Tool) session.Submitter { return sub },
		now:          func() time.Time { return now },
	}, ask, out
}

// heatmapAnswers fills every heatmap step and submits
func heatmapAnswers() []string {
	return []string{
		"Backend Engineer", "4", MenuNext,
		"Go, SQL, Go", MenuNext,
		"Europe", answerYes, MenuSubmit,
	}
}

func TestRunWizardSubmitsAndBrowsesResult(t *testing.T) {
	sub := &fixedSubmitter{outcome: heatmapResult()}
	answers := append(heatmapAnswers(),
		MenuSwitchTab, "Top countries",
		MenuExpand, "Germany",
		MenuSelectPoint, "50,8",
		MenuQuit,
	)
	r, ask, out := newTestRunner(answers, sub)

	require.NoError(t, r.run(context.Background(), "opportunity-heatmap"))
	assert.Empty(t, ask.answers)
	assert.Equal(t, 1, sub.calls)

	draft := r.session.Draft()
	assert.Equal(t, []string{"Go", "SQL"}, draft["skills"])
	assert.Equal(t, true, draft["remoteOnly"])
	assert.Equal(t, []string{"Europe"}, draft["preferredRegions"])

	view, state := r.session.View()
	require.NotNil(t, view)
	assert.Equal(t, "countries", state.ActiveTab)
	assert.NotEmpty(t, state.Expanded)
	assert.Equal(t, state.Expanded, state.SelectedMarker)
	assert.Contains(t, out.String(), "Step 3 of 3: Preferences")
	assert.Contains(t, out.String(), "Nearest: Germany")
}

func TestRunRateLimitedShowsCooldown(t *testing.T) {
	wait := 30
	sub := &fixedSubmitter{outcome: orchestrator.RateLimited{
		Message:           "Too many requests. Please wait before trying again.",
		RetryAfterSeconds: &wait,
	}}
	answers := append(heatmapAnswers(),
		MenuDismiss,
		"Europe", answerNo, MenuSubmit,
		"", answerSkip, MenuQuit,
	)
	r, ask, out := newTestRunner(answers, sub)

	require.NoError(t, r.run(context.Background(), "opportunity-heatmap"))
	assert.Empty(t, ask.answers)
	assert.Equal(t, 1, sub.calls, "the cooldown blocks the second submit")
	assert.Contains(t, out.String(), "✗ Too many requests")
	assert.Contains(t, out.String(), "Try again in 30 seconds")
	assert.Contains(t, out.String(), "Rate limited: try again in 30 seconds.")
	assert.Nil(t, r.session.Outcome(), "dismiss clears the banner")
	assert.True(t, r.session.Cooldown().Active(r.now()))
}

func TestRunServerErrorOffersRetry(t *testing.T) {
	sub := &fixedSubmitter{outcome: orchestrator.ServerError{
		Trace:   orchestrator.Trace{CorrelationID: "abc-123"},
		Message: "Something went wrong on our side. Please try again later.",
	}}
	answers := append(heatmapAnswers(), MenuRetry, MenuQuit)
	r, ask, out := newTestRunner(answers, sub)

	require.NoError(t, r.run(context.Background(), "opportunity-heatmap"))
	assert.Empty(t, ask.answers)
	assert.Equal(t, 2, sub.calls)
	assert.Contains(t, out.String(), "Reference: abc-123")
}

func TestRunPicksToolFromMenu(t *testing.T) {
	tool := registry.MustLookup(types.ToolSkillGapAnalyzer)
	r, ask, _ := newTestRunner([]string{fmt.Sprintf("%s (%s)", tool.Title, tool.Kind)}, &fixedSubmitter{})

	require.NoError(t, r.run(context.Background(), ""), "an interrupt exits cleanly")
	require.Len(t, ask.labels, 2)
	assert.Equal(t, "Choose a tool", ask.labels[0])
	assert.Equal(t, "Current role", ask.labels[1])
	assert.Equal(t, tool.Kind, r.session.Tool().Kind)
}

func TestRunUnknownTool(t *testing.T) {
	r, _, _ := newTestRunner(nil, &fixedSubmitter{})
	assert.Error(t, r.run(context.Background(), "crystal-ball"))
}

func TestRunStartOverClearsDraft(t *testing.T) {
	answers := []string{
		"Backend Engineer", "4", MenuNext,
		"Go", MenuStartOver,
	}
	r, ask, _ := newTestRunner(answers, &fixedSubmitter{})

	require.NoError(t, r.run(context.Background(), "opportunity-heatmap"))
	assert.Empty(t, ask.answers)
	assert.Equal(t, "Job title", ask.labels[len(ask.labels)-1], "step 1 is asked again")
	_, current, _ := r.session.Step()
	assert.Equal(t, 1, current)
	assert.Empty(t, r.session.Draft())
}

func TestRunSavesResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heatmap.md")
	answers := append(heatmapAnswers(), MenuSave, path, MenuQuit)
	r, ask, out := newTestRunner(answers, &fixedSubmitter{outcome: heatmapResult()})

	require.NoError(t, r.run(context.Background(), "opportunity-heatmap"))
	assert.Empty(t, ask.answers)
	assert.Contains(t, out.String(), "Saved to "+path)
	assert.FileExists(t, path)
}

func TestAskFieldRejectsInvalidInput(t *testing.T) {
	field, ok := registry.MustLookup(types.ToolOpportunityHeatmap).Field("yearsOfExperience")
	require.True(t, ok)

	_, err := askField(&scriptedAsker{answers: []string{"four"}}, field, nil)
	assert.ErrorContains(t, err, "must be a whole number")

	_, err = askField(&scriptedAsker{answers: []string{"90"}}, field, nil)
	assert.ErrorContains(t, err, "at most 50")

	value, err := askField(&scriptedAsker{answers: []string{"12"}}, field, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(12), value)
}

func TestParseFieldInput(t *testing.T) {
	tests := []struct {
		name    string
		kind    registry.FieldKind
		raw     string
		want    any
		wantErr bool
	}{
		{name: "empty clears", kind: registry.KindText, raw: "  ", want: nil},
		{name: "text trimmed", kind: registry.KindText, raw: " Go dev ", want: "Go dev"},
		{name: "integer", kind: registry.KindInteger, raw: "42", want: float64(42)},
		{name: "integer rejects fraction", kind: registry.KindInteger, raw: "4.5", wantErr: true},
		{name: "number with separators", kind: registry.KindNumber, raw: "85,000.50", want: 85000.5},
		{name: "number rejects text", kind: registry.KindNumber, raw: "lots", wantErr: true},
		{name: "boolean yes", kind: registry.KindBoolean, raw: "Yes", want: true},
		{name: "boolean n", kind: registry.KindBoolean, raw: "n", want: false},
		{name: "boolean rejects maybe", kind: registry.KindBoolean, raw: "maybe", wantErr: true},
		{name: "set dedupes", kind: registry.KindStringSet, raw: "Go, SQL,,Go ", want: []string{"Go", "SQL"}},
		{name: "set of blanks", kind: registry.KindMultiChoice, raw: " , ,", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFieldInput(registry.Field{Label: "Value", Kind: tt.kind}, tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatFieldValue(t *testing.T) {
	assert.Equal(t, "", formatFieldValue(nil))
	assert.Equal(t, "Go, SQL", formatFieldValue([]string{"Go", "SQL"}))
	assert.Equal(t, "4", formatFieldValue(float64(4)))
	assert.Equal(t, "2.5", formatFieldValue(2.5))
	assert.Equal(t, "yes", formatFieldValue(true))
}

func TestParseCoordinates(t *testing.T) {
	lat, lng, err := parseCoordinates(" 52.5, 13.4 ")
	require.NoError(t, err)
	assert.Equal(t, 52.5, lat)
	assert.Equal(t, 13.4, lng)

	for _, bad := range []string{"", "52.5", "95,10", "10,200", "a,b"} {
		_, _, err := parseCoordinates(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatForFile(t *testing.T) {
	assert.Equal(t, "markdown", formatForFile("out.MD"))
	assert.Equal(t, "json", formatForFile("out.json"))
	assert.Equal(t, "text", formatForFile("out.txt"))
	assert.Equal(t, "text", formatForFile("out"))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Try again in 30 seconds", capitalize("try again in 30 seconds"))
	assert.Equal(t, "Über limit", capitalize("über limit"))
	assert.Equal(t, "", capitalize(""))
}
