package render

import (
	"errors"
	"fmt"

	"careertools/internal/types"
)

// ErrKindMismatch means a payload was handed to the layout of another tool
var ErrKindMismatch = errors.New("payload does not match tool kind")

// Layout builds the view for one tool's result
type Layout func(types.ToolResult) (*View, error)

var layouts = map[types.ToolKind]Layout{
	types.ToolOpportunityHeatmap:   heatmapLayout,
	types.ToolSkillGapAnalyzer:     skillGapLayout,
	types.ToolSalaryComparator:     salaryLayout,
	types.ToolResumeGapFinder:      resumeLayout,
	types.ToolRetirementCalculator: retirementLayout,
}

// Render picks the layout registered for kind and applies it to payload
func Render(payload types.ToolResult, kind types.ToolKind) (*View, error) {
	layout, ok := layouts[kind]
	if !ok {
		return nil, fmt.Errorf("no layout for tool %q", kind)
	}
	if payload == nil {
		return nil, fmt.Errorf("render %s: nil payload", kind)
	}
	if payload.Kind() != kind {
		return nil, fmt.Errorf("render %s: got %s: %w", kind, payload.Kind(), ErrKindMismatch)
	}
	view, err := layout(payload)
	if err != nil {
		return nil, err
	}
	if _, ok := view.Tab(view.DefaultTab); !ok {
		return nil, fmt.Errorf("render %s: default tab %q missing", kind, view.DefaultTab)
	}
	return view, nil
}

func mismatch(want types.ToolKind, got types.ToolResult) error {
	return fmt.Errorf("render %s: got %T: %w", want, got, ErrKindMismatch)
}
