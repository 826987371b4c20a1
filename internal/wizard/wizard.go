// Package wizard drives a multi-step form over a ProfileDraft.
//
// A Wizard is not safe for concurrent use; the session that owns it serializes access.
package wizard

import (
	"careertools/internal/registry"
	"careertools/internal/types"
)

// Wizard holds the in-progress profile and the current step (1-based)
type Wizard struct {
	steps        []registry.StepDescriptor
	draft        types.ProfileDraft
	current      int
	onTransition func(step int)
}

// Option configures a Wizard
type Option func(*Wizard)

// WithTransitionHook registers a callback run after every transition,
// used by front ends to reset their scroll position.
func WithTransitionHook(fn func(step int)) Option {
	return func(w *Wizard) {
		w.onTransition = fn
	}
}

// New creates a wizard positioned on step 1 with an empty draft
func New(steps []registry.StepDescriptor, opts ...Option) *Wizard {
	if len(steps) == 0 {
		panic("wizard: no steps")
	}
	w := &Wizard{
		steps:   steps,
		draft:   types.NewProfileDraft(),
		current: 1,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Current returns the 1-based step index
func (w *Wizard) Current() int { return w.current }

// Total returns the number of steps
func (w *Wizard) Total() int { return len(w.steps) }

// Step returns the descriptor of the current step
func (w *Wizard) Step() registry.StepDescriptor { return w.steps[w.current-1] }

// IsLast reports whether the wizard is on its final step
func (w *Wizard) IsLast() bool { return w.current == len(w.steps) }

// Draft returns a copy of the current profile
func (w *Wizard) Draft() types.ProfileDraft { return w.draft.Clone() }

// CanAdvance reports whether the current step validates
func (w *Wizard) CanAdvance() bool {
	return w.Step().Validate(w.draft)
}

// Blockers explains why the current step does not validate
func (w *Wizard) Blockers() []registry.FieldError {
	return w.Step().Explain(w.draft)
}

// Complete reports whether every step validates, which gates submission
func (w *Wizard) Complete() bool {
	for _, step := range w.steps {
		if !step.Validate(w.draft) {
			return false
		}
	}
	return true
}

// Next advances one step when the current step validates.
// It is a silent no-op on the last step or on an invalid step.
func (w *Wizard) Next() bool {
	if w.IsLast() || !w.CanAdvance() {
		return false
	}
	w.current++
	w.transitioned()
	return true
}

// Previous goes back one step; no-op on step 1
func (w *Wizard) Previous() bool {
	if w.current == 1 {
		return false
	}
	w.current--
	w.transitioned()
	return true
}

// Update replaces a field value without validating it.
// A nil value removes the field.
func (w *Wizard) Update(field string, value any) {
	value = types.NormalizeValue(value)
	if value == nil {
		delete(w.draft, field)
		return
	}
	w.draft[field] = value
}

// Reset restores the empty draft and step 1
func (w *Wizard) Reset() {
	w.draft = types.NewProfileDraft()
	w.current = 1
	w.transitioned()
}

func (w *Wizard) transitioned() {
	if w.onTransition != nil {
		w.onTransition(w.current)
	}
}
