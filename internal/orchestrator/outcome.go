package orchestrator

import (
	"time"

	"careertools/internal/types"
)

// Tag names the active Outcome variant, for logs and metrics
type Tag string

const (
	TagSuccess         Tag = "success"
	TagValidationError Tag = "validation_error"
	TagRateLimited     Tag = "rate_limited"
	TagServerError     Tag = "server_error"
	TagAborted         Tag = "aborted"
)

// AbortReason says why a request was abandoned
type AbortReason string

const (
	AbortTimeout       AbortReason = "timeout"
	AbortUserCancelled AbortReason = "user-cancelled"
)

// Trace identifies the submit call an Outcome belongs to
type Trace struct {
	RequestID     uint64        `json:"requestId"`
	CorrelationID string        `json:"correlationId"`
	StatusCode    int           `json:"statusCode,omitempty"`
	Elapsed       time.Duration `json:"elapsed"`
}

// TraceInfo is promoted into every variant through embedding
func (t Trace) TraceInfo() Trace { return t }

// Outcome is the exhaustive classification of one submit call.
// Exactly one of Success, ValidationError, RateLimited, ServerError or Aborted.
type Outcome interface {
	Tag() Tag
	TraceInfo() Trace
	isOutcome()
}

// Success carries the decoded result
type Success struct {
	Trace
	Payload types.ToolResult
}

// ValidationError means the server rejected the input
type ValidationError struct {
	Trace
	Message string
}

// RateLimited carries the back-off hints in canonical units
type RateLimited struct {
	Trace
	Message           string
	RetryAfterSeconds *int
	ResetAt           *time.Time
}

// ServerError covers 5xx, transport failures and incomplete success bodies
type ServerError struct {
	Trace
	Message string
}

// Aborted means the request was cancelled before a response was classified
type Aborted struct {
	Trace
	Reason AbortReason
}

func (Success) Tag() Tag         { return TagSuccess }
func (ValidationError) Tag() Tag { return TagValidationError }
func (RateLimited) Tag() Tag     { return TagRateLimited }
func (ServerError) Tag() Tag     { return TagServerError }
func (Aborted) Tag() Tag         { return TagAborted }

func (Success) isOutcome()         {}
func (ValidationError) isOutcome() {}
func (RateLimited) isOutcome()     {}
func (ServerError) isOutcome()     {}
func (Aborted) isOutcome()         {}

const (
	genericValidationMessage = "The request could not be processed. Please check your answers and try again."
	genericRateLimitMessage  = "Too many requests. Please wait before trying again."
	genericServerMessage     = "Something went wrong on our side. Please try again later."
	incompleteResultMessage  = "The analysis came back incomplete. Please try again later."
	timeoutMessage           = "The analysis took too long and was cancelled. Try again, possibly with fewer inputs."
	cancelledMessage         = "The request was cancelled."
)

// Message returns the human readable text for an outcome's banner
func Message(o Outcome) string {
	switch v := o.(type) {
	case Success:
		return ""
	case ValidationError:
		return v.Message
	case RateLimited:
		return v.Message
	case ServerError:
		return v.Message
	case Aborted:
		if v.Reason == AbortTimeout {
			return timeoutMessage
		}
		return cancelledMessage
	}
	return genericServerMessage
}

// withTrace stamps the final trace onto a variant
func withTrace(o Outcome, t Trace) Outcome {
	switch v := o.(type) {
	case Success:
		v.Trace = t
		return v
	case ValidationError:
		v.Trace = t
		return v
	case RateLimited:
		v.Trace = t
		return v
	case ServerError:
		v.Trace = t
		return v
	case Aborted:
		v.Trace = t
		return v
	}
	return o
}
