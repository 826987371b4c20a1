// Package session binds one wizard to its orchestrator, cooldown and result view.
//
// A Session enforces the submit rules a front end relies on: at most one request
// in flight, a frozen draft while it runs, and no submission during a cooldown.
package session

import (
	"context"
	"sync"
	"time"

	"careertools/internal/cooldown"
	"careertools/internal/errors"
	"careertools/internal/orchestrator"
	"careertools/internal/registry"
	"careertools/internal/render"
	"careertools/internal/types"
	"careertools/internal/wizard"
)

// Submitter sends a profile and classifies the response
type Submitter interface {
	Submit(ctx context.Context, profile types.ProfileDraft) orchestrator.Outcome
	IsLatest(id uint64) bool
}

var (
	ErrSubmitInFlight   = errors.NewStateError(errors.ErrCodeSubmitInFlight, "a submission is already in progress", nil)
	ErrAwaitingResult   = errors.NewStateError(errors.ErrCodeAwaitingResult, "the form is locked until the current request finishes", nil)
	ErrCooldownActive   = errors.NewStateError(errors.ErrCodeCooldownActive, "submission is paused by rate limiting", nil)
	ErrWizardIncomplete = errors.NewStateError(errors.ErrCodeWizardIncomplete, "complete every step before submitting", nil)
)

// Session is safe for concurrent use
type Session struct {
	mu        sync.Mutex
	tool      *registry.Tool
	wizard    *wizard.Wizard
	submitter Submitter
	logger    *errors.Logger
	now       func() time.Time

	inFlight  bool
	cancel    context.CancelFunc
	outcome   orchestrator.Outcome
	cooldown  cooldown.State
	view      *render.View
	viewState render.State
}

// Option configures a Session
type Option func(*config)

type config struct {
	logger *errors.Logger
	now    func() time.Time
	hook   func(step int)
}

// WithLogger sets the session logger
func WithLogger(l *errors.Logger) Option { return func(c *config) { c.logger = l } }

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option { return func(c *config) { c.now = now } }

// WithTransitionHook is forwarded to the wizard
func WithTransitionHook(fn func(step int)) Option { return func(c *config) { c.hook = fn } }

// New starts a session on step 1 of tool's wizard
func New(tool *registry.Tool, submitter Submitter, opts ...Option) *Session {
	c := config{logger: errors.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(&c)
	}
	var wopts []wizard.Option
	if c.hook != nil {
		wopts = append(wopts, wizard.WithTransitionHook(c.hook))
	}
	return &Session{
		tool:      tool,
		wizard:    wizard.New(tool.Steps, wopts...),
		submitter: submitter,
		logger:    c.logger,
		now:       c.now,
	}
}

// Tool returns the tool this session drives
func (s *Session) Tool() *registry.Tool { return s.tool }

// Step returns the current step descriptor and its 1-based position
func (s *Session) Step() (registry.StepDescriptor, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wizard.Step(), s.wizard.Current(), s.wizard.Total()
}

// IsLast reports whether the wizard is on its final step
func (s *Session) IsLast() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wizard.IsLast()
}

// Draft returns a copy of the profile entered so far
func (s *Session) Draft() types.ProfileDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wizard.Draft()
}

// Blockers explains why the current step cannot advance
func (s *Session) Blockers() []registry.FieldError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wizard.Blockers()
}

// Update sets a field on the draft
func (s *Session) Update(field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrAwaitingResult
	}
	s.wizard.Update(field, value)
	return nil
}

// Next advances the wizard when the current step validates
func (s *Session) Next() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return false, ErrAwaitingResult
	}
	return s.wizard.Next(), nil
}

// Previous moves the wizard back one step
func (s *Session) Previous() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return false, ErrAwaitingResult
	}
	return s.wizard.Previous(), nil
}

// Reset starts over with an empty draft. The cooldown survives a reset.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrAwaitingResult
	}
	s.wizard.Reset()
	s.outcome = nil
	s.view = nil
	s.viewState = render.State{}
	return nil
}

// CanSubmit reports whether Submit would send a request now
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkSubmit(s.now()) == nil
}

func (s *Session) checkSubmit(now time.Time) error {
	switch {
	case s.inFlight:
		return ErrSubmitInFlight
	case !s.wizard.IsLast() || !s.wizard.Complete():
		return ErrWizardIncomplete
	case s.cooldown.Active(now):
		return errors.NewStateError(errors.ErrCodeCooldownActive,
			"rate limited, "+s.cooldown.Describe(now), nil).
			WithContext("remaining_seconds", int(s.cooldown.Remaining(now).Seconds()))
	}
	return nil
}

// Submit sends the current draft and applies the outcome.
// The returned error reports a precondition failure; request failures are Outcome variants.
func (s *Session) Submit(ctx context.Context) (orchestrator.Outcome, error) {
	s.mu.Lock()
	if err := s.checkSubmit(s.now()); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	s.inFlight = true
	s.cancel = cancel
	s.cooldown = cooldown.State{}
	profile := s.wizard.Draft()
	s.mu.Unlock()

	out := s.submitter.Submit(ctx, profile)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	s.cancel = nil

	trace := out.TraceInfo()
	if !s.submitter.IsLatest(trace.RequestID) {
		s.logger.Warn("Discarding stale outcome", "tool", s.tool.Kind,
			"request_id", trace.RequestID, "outcome", out.Tag())
		return out, nil
	}
	s.apply(out)
	return s.outcome, nil
}

func (s *Session) apply(out orchestrator.Outcome) {
	if success, ok := out.(orchestrator.Success); ok {
		view, err := render.Render(success.Payload, s.tool.Kind)
		if err != nil {
			s.logger.LogError(err, "Failed to render result", "tool", s.tool.Kind)
			out = orchestrator.ServerError{Trace: success.Trace, Message: "The analysis result could not be displayed."}
		} else {
			s.view = view
			s.viewState = render.NewState(view)
		}
	}
	if out.Tag() != orchestrator.TagSuccess {
		s.view = nil
		s.viewState = render.State{}
	}
	s.outcome = out
	s.cooldown = cooldown.Apply(out, s.now())
}

// Cancel aborts the in-flight request, if any
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inFlight || s.cancel == nil {
		return false
	}
	s.cancel()
	return true
}

// InFlight reports whether a request is outstanding
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Outcome returns the last applied outcome, or nil
func (s *Session) Outcome() orchestrator.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Dismiss clears a failure banner. Success outcomes and the cooldown are kept.
func (s *Session) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome != nil && s.outcome.Tag() != orchestrator.TagSuccess {
		s.outcome = nil
	}
}

// Cooldown returns the current back-off state
func (s *Session) Cooldown() cooldown.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cooldown
}

// View returns the rendered result and its interactive state, or nil before a success
func (s *Session) View() (*render.View, render.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view, s.viewState
}

// SelectTab switches the active result tab
func (s *Session) SelectTab(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view != nil && s.viewState.SelectTab(s.view, id)
}

// Toggle expands or collapses a card or phase
func (s *Session) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view != nil && s.viewState.Toggle(s.view, id)
}

// ClickAt selects the map marker nearest to a point
func (s *Session) ClickAt(lat, lng float64) (render.Marker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view == nil {
		return render.Marker{}, false
	}
	return s.viewState.ClickAt(s.view, lat, lng)
}
