package common

import (
	"context"
	"fmt"
	"strings"
	"time"

	"careertools/internal/errors"
	"careertools/internal/orchestrator"
	"careertools/internal/registry"
	"careertools/internal/render"
	"careertools/internal/session"
	"careertools/internal/types"
)

// OutcomeReport is the machine readable form of one submission
type OutcomeReport struct {
	Tool              types.ToolKind   `json:"tool"`
	Outcome           orchestrator.Tag `json:"outcome"`
	Message           string           `json:"message,omitempty"`
	Reason            string           `json:"reason,omitempty"`
	RetryAfterSeconds *int             `json:"retryAfterSeconds,omitempty"`
	ResetAt           *time.Time       `json:"resetAt,omitempty"`
	RequestID         uint64           `json:"requestId"`
	CorrelationID     string           `json:"correlationId,omitempty"`
	ElapsedMillis     int64            `json:"elapsedMs"`
	View              *render.View     `json:"view,omitempty"`
}

// NewOutcomeReport summarizes an outcome and, on success, its rendered view
func NewOutcomeReport(tool types.ToolKind, out orchestrator.Outcome, view *render.View) OutcomeReport {
	trace := out.TraceInfo()
	report := OutcomeReport{
		Tool:          tool,
		Outcome:       out.Tag(),
		RequestID:     trace.RequestID,
		CorrelationID: trace.CorrelationID,
		ElapsedMillis: trace.Elapsed.Milliseconds(),
		View:          view,
	}
	if out.Tag() != orchestrator.TagSuccess {
		report.Message = orchestrator.Message(out)
	}
	switch v := out.(type) {
	case orchestrator.RateLimited:
		report.RetryAfterSeconds = v.RetryAfterSeconds
		report.ResetAt = v.ResetAt
	case orchestrator.Aborted:
		report.Reason = string(v.Reason)
	}
	return report
}

// FillSession copies a profile into the session and walks the wizard to its last step
func FillSession(s *session.Session, profile types.ProfileDraft) error {
	tool := s.Tool()
	if perr := tool.ValidateProfile(profile); perr != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidProfile, perr.Error(), perr).
			WithContext("step", perr.Step)
	}
	for _, name := range profile.Names() {
		if err := s.Update(name, profile[name]); err != nil {
			return err
		}
	}
	for !s.IsLast() {
		ok, err := s.Next()
		if err != nil {
			return err
		}
		if !ok {
			return blockedStep(s)
		}
	}
	if len(s.Blockers()) > 0 {
		return blockedStep(s)
	}
	return nil
}

func blockedStep(s *session.Session) error {
	step, current, _ := s.Step()
	problems := make([]string, 0)
	for _, fe := range s.Blockers() {
		problems = append(problems, fe.Error())
	}
	return errors.NewValidationError(errors.ErrCodeWizardIncomplete,
		fmt.Sprintf("step %d (%s): %s", current, step.Title, strings.Join(problems, "; ")), nil)
}

// RunSubmission submits profile once and writes the result.
// Non-success outcomes are reported and returned as errors so the CLI exits non-zero.
func RunSubmission(
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	tool *registry.Tool,
	submitter session.Submitter,
	profile types.ProfileDraft,
) error {
	if logger == nil {
		logger = errors.Discard()
	}
	outputHandler := NewOutputHandler(logger)

	s := session.New(tool, submitter, session.WithLogger(logger))
	if err := FillSession(s, profile); err != nil {
		return err
	}

	logger.Info("Submitting profile", "tool", tool.Kind, "fields", len(profile))
	out, err := s.Submit(ctx)
	if err != nil {
		return err
	}
	// the session may have replaced an unrenderable success
	if applied := s.Outcome(); applied != nil {
		out = applied
	}

	view, _ := s.View()
	if cmdConfig.OutputFormat == "json" {
		if err := outputHandler.HandleOutput(NewOutcomeReport(tool.Kind, out, view), cmdConfig); err != nil {
			return err
		}
	} else if view != nil {
		if err := outputHandler.HandleOutput(view, cmdConfig); err != nil {
			return err
		}
	}

	return OutcomeError(out, s)
}

// OutcomeError converts a failed outcome into an AppError, nil on success
func OutcomeError(out orchestrator.Outcome, s *session.Session) error {
	if out.Tag() == orchestrator.TagSuccess {
		return nil
	}
	message := orchestrator.Message(out)
	if out.Tag() == orchestrator.TagRateLimited && s != nil {
		message += " (" + s.Cooldown().Describe(time.Now()) + ")"
	}
	return errors.NewStateError(errors.ErrCodeOutcomeFailed, message, nil).
		WithContext("outcome", string(out.Tag())).
		WithContext("request_id", out.TraceInfo().RequestID)
}
