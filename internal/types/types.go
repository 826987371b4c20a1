package types

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

// ToolKind identifies one career tool
type ToolKind string

const (
	ToolOpportunityHeatmap   ToolKind = "opportunity-heatmap"
	ToolSkillGapAnalyzer     ToolKind = "skill-gap-analyzer"
	ToolSalaryComparator     ToolKind = "salary-comparator"
	ToolResumeGapFinder      ToolKind = "resume-gap-finder"
	ToolRetirementCalculator ToolKind = "retirement-calculator"
)

// ToolKinds returns every known tool kind in catalog order
func ToolKinds() []ToolKind {
	return []ToolKind{
		ToolOpportunityHeatmap,
		ToolSkillGapAnalyzer,
		ToolSalaryComparator,
		ToolResumeGapFinder,
		ToolRetirementCalculator,
	}
}

// ParseToolKind converts a user supplied name into a ToolKind
func ParseToolKind(name string) (ToolKind, error) {
	kind := ToolKind(name)
	if slices.Contains(ToolKinds(), kind) {
		return kind, nil
	}
	return "", fmt.Errorf("unknown tool %q", name)
}

// ToolResult is the payload a tool endpoint returns under its wrapper key
type ToolResult interface {
	Kind() ToolKind
}

// ProfileDraft maps field names to the user's current answers.
// Values are string, float64, bool or []string (an ordered set).
type ProfileDraft map[string]any

// NewProfileDraft returns an empty draft
func NewProfileDraft() ProfileDraft {
	return make(ProfileDraft)
}

// Clone returns a deep copy so later edits never leak into a submitted request
func (p ProfileDraft) Clone() ProfileDraft {
	out := make(ProfileDraft, len(p))
	for k, v := range p {
		if set, ok := v.([]string); ok {
			out[k] = slices.Clone(set)
			continue
		}
		out[k] = v
	}
	return out
}

// Has reports whether the field holds a non-empty value
func (p ProfileDraft) Has(name string) bool {
	v, ok := p[name]
	if !ok || v == nil {
		return false
	}
	switch val := v.(type) {
	case string:
		return val != ""
	case []string:
		return len(val) > 0
	}
	return true
}

// String returns a string field or "" when absent or of another type
func (p ProfileDraft) String(name string) string {
	s, _ := p[name].(string)
	return s
}

// Number returns a numeric field as float64
func (p ProfileDraft) Number(name string) (float64, bool) {
	return ToNumber(p[name])
}

// Bool returns a boolean field
func (p ProfileDraft) Bool(name string) bool {
	b, _ := p[name].(bool)
	return b
}

// Strings returns a set field
func (p ProfileDraft) Strings(name string) []string {
	set, _ := p[name].([]string)
	return set
}

// Names returns the field names in sorted order
func (p ProfileDraft) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Equal compares two drafts value by value
func (p ProfileDraft) Equal(other ProfileDraft) bool {
	if len(p) != len(other) {
		return false
	}
	for k, v := range p {
		ov, ok := other[k]
		if !ok {
			return false
		}
		a, aSet := v.([]string)
		b, bSet := ov.([]string)
		if aSet || bSet {
			if !aSet || !bSet || !slices.Equal(a, b) {
				return false
			}
			continue
		}
		if v != ov {
			return false
		}
	}
	return true
}

// NormalizeValue coerces a raw value into one of the draft's value types.
// Integers become float64 and string sets are de-duplicated keeping first occurrence.
func NormalizeValue(v any) any {
	switch val := v.(type) {
	case []string:
		return uniqueStrings(val)
	case []any:
		set := make([]string, 0, len(val))
		for _, item := range val {
			set = append(set, fmt.Sprint(item))
		}
		return uniqueStrings(set)
	case string, bool, nil:
		return val
	}
	if n, ok := ToNumber(v); ok {
		return n
	}
	return v
}

// ToNumber converts the numeric kinds a draft may receive into float64
func ToNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func uniqueStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
