package registry

import (
	"careertools/internal/types"
)

// StepDescriptor describes one wizard step. It is immutable once the registry is built.
type StepDescriptor struct {
	Index          int
	Title          string
	Fields         []string
	RequiredFields []string

	// Validate reports whether the draft satisfies this step
	Validate func(types.ProfileDraft) bool
	// Explain lists what blocks the step, empty when Validate is true
	Explain func(types.ProfileDraft) []FieldError
}

// CrossCheck is a step-level rule spanning several fields
type CrossCheck struct {
	Field   string
	Label   string
	Message string
	Holds   func(types.ProfileDraft) bool
}

func newStep(index int, title string, fields []Field, checks ...CrossCheck) StepDescriptor {
	names := make([]string, 0, len(fields))
	required := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
		if f.Required {
			required = append(required, f.Name)
		}
	}

	explain := func(draft types.ProfileDraft) []FieldError {
		var problems []FieldError
		for _, f := range fields {
			if fe := f.Check(draft[f.Name]); fe != nil {
				problems = append(problems, *fe)
			}
		}
		// cross checks only make sense once every field is individually valid
		if len(problems) > 0 {
			return problems
		}
		for _, c := range checks {
			if !c.Holds(draft) {
				problems = append(problems, FieldError{Field: c.Field, Label: c.Label, Message: c.Message})
			}
		}
		return problems
	}

	return StepDescriptor{
		Index:          index,
		Title:          title,
		Fields:         names,
		RequiredFields: required,
		Validate: func(draft types.ProfileDraft) bool {
			return len(explain(draft)) == 0
		},
		Explain: explain,
	}
}
