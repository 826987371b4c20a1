// Package orchestrator turns a completed ProfileDraft into exactly one Outcome
// by calling the tool's analysis endpoint once.
package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"careertools/internal/errors"
	"careertools/internal/registry"
	"careertools/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// DefaultMaxResponseBytes bounds how much of a response body is read
const DefaultMaxResponseBytes int64 = 10 << 20

// RequestIDHeader carries the per-call correlation id
const RequestIDHeader = "X-Request-ID"

var errCeiling = stderrors.New("request ceiling reached")

// Doer is the subset of *http.Client the orchestrator uses
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Recorder receives one observation per classified submit
type Recorder interface {
	RecordOutcome(ctx context.Context, tool, outcome string, elapsed time.Duration)
}

// Options configures an Orchestrator
type Options struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	// Timeout overrides the tool's own ceiling when positive
	Timeout          time.Duration
	MaxResponseBytes int64
	Client           Doer
	Logger           *errors.Logger
	Recorder         Recorder
	Tracer           oteltrace.Tracer
	Now              func() time.Time
}

// Orchestrator submits profiles for one tool
type Orchestrator struct {
	tool     *registry.Tool
	url      string
	apiKey   string
	agent    string
	timeout  time.Duration
	maxBody  int64
	client   Doer
	logger   *errors.Logger
	recorder Recorder
	tracer   oteltrace.Tracer
	now      func() time.Time

	seq    atomic.Uint64
	latest atomic.Uint64
}

// New builds an orchestrator for tool
func New(tool *registry.Tool, opts Options) *Orchestrator {
	o := &Orchestrator{
		tool:     tool,
		url:      strings.TrimRight(opts.BaseURL, "/") + tool.Endpoint,
		apiKey:   opts.APIKey,
		agent:    opts.UserAgent,
		timeout:  tool.Timeout,
		maxBody:  opts.MaxResponseBytes,
		client:   opts.Client,
		logger:   opts.Logger,
		recorder: opts.Recorder,
		tracer:   opts.Tracer,
		now:      opts.Now,
	}
	if opts.Timeout > 0 {
		o.timeout = opts.Timeout
	}
	if o.maxBody <= 0 {
		o.maxBody = DefaultMaxResponseBytes
	}
	if o.client == nil {
		o.client = http.DefaultClient
	}
	if o.logger == nil {
		o.logger = errors.Discard()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer("careertools.orchestrator")
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Tool returns the tool this orchestrator submits to
func (o *Orchestrator) Tool() *registry.Tool { return o.tool }

// URL returns the resolved endpoint
func (o *Orchestrator) URL() string { return o.url }

// IsLatest reports whether id belongs to the most recent submit call.
// Outcomes of earlier calls are stale and should be dropped by the caller.
func (o *Orchestrator) IsLatest(id uint64) bool {
	return id != 0 && o.latest.Load() == id
}

// Submit sends the profile once and classifies the response.
// It never returns an error: every failure mode is an Outcome variant.
func (o *Orchestrator) Submit(ctx context.Context, profile types.ProfileDraft) (out Outcome) {
	trace := Trace{
		RequestID:     o.seq.Add(1),
		CorrelationID: uuid.NewString(),
	}
	o.latest.Store(trace.RequestID)
	start := o.now()

	ctx, span := o.tracer.Start(ctx, "submit "+string(o.tool.Kind),
		oteltrace.WithAttributes(
			attribute.String("tool", string(o.tool.Kind)),
			attribute.Int64("request.id", int64(trace.RequestID)),
			attribute.String("request.correlation_id", trace.CorrelationID),
		))

	defer func() {
		if r := recover(); r != nil {
			o.logger.LogError(fmt.Errorf("panic: %v", r), "Submit panicked",
				"tool", o.tool.Kind, "request_id", trace.RequestID)
			out = ServerError{Message: genericServerMessage}
		}
		final := out.TraceInfo()
		trace.StatusCode = final.StatusCode
		trace.Elapsed = o.now().Sub(start)
		out = withTrace(out, trace)
		o.observe(ctx, span, out)
		span.End()
	}()

	env, err := NewEnvelope(profile, start)
	if err != nil {
		o.logger.LogError(err, "Failed to encode profile", "tool", o.tool.Kind)
		return ValidationError{Message: "The form contains values that cannot be sent."}
	}

	ctx, cancel := o.withCeiling(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(env.Body))
	if err != nil {
		o.logger.LogError(err, "Failed to build request", "url", o.url)
		return ServerError{Message: genericServerMessage}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, trace.CorrelationID)
	if o.apiKey != "" {
		req.Header.Set("X-API-Key", o.apiKey)
	}
	if o.agent != "" {
		req.Header.Set("User-Agent", o.agent)
	}

	o.logger.Debug("Submitting profile", "tool", o.tool.Kind, "request_id", trace.RequestID,
		"correlation_id", trace.CorrelationID, "bytes", len(env.Body))

	resp, err := o.client.Do(req)
	if err != nil {
		return o.transportFailure(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, o.maxBody+1))
	if err != nil {
		return o.transportFailure(ctx, err)
	}
	receivedAt := o.now()

	if int64(len(body)) > o.maxBody {
		o.logger.Warn("Response body too large", "tool", o.tool.Kind, "limit", o.maxBody)
		return ServerError{Trace: Trace{StatusCode: resp.StatusCode}, Message: genericServerMessage}
	}

	out = o.classify(resp.StatusCode, resp.Header, body, receivedAt)
	return withTrace(out, Trace{StatusCode: resp.StatusCode})
}

func (o *Orchestrator) withCeiling(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeoutCause(ctx, o.timeout, errCeiling)
}

// transportFailure classifies an error raised before a full response was read
func (o *Orchestrator) transportFailure(ctx context.Context, err error) Outcome {
	switch {
	case stderrors.Is(context.Cause(ctx), errCeiling):
		o.logger.Warn("Request timed out", "tool", o.tool.Kind, "timeout", o.timeout)
		return Aborted{Reason: AbortTimeout}
	case stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return Aborted{Reason: AbortTimeout}
	case stderrors.Is(ctx.Err(), context.Canceled):
		o.logger.Info("Request cancelled", "tool", o.tool.Kind)
		return Aborted{Reason: AbortUserCancelled}
	}
	o.logger.LogError(errors.NewNetworkError(errors.ErrCodeRequestFailed, "request failed", err),
		"Transport failure", "tool", o.tool.Kind, "url", o.url)
	return ServerError{Message: "Could not reach the analysis service. Check your connection and try again."}
}

// success decodes the wrapper key and checks the result contract
func (o *Orchestrator) success(body []byte) Outcome {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		o.logger.LogError(err, "Success body is not a JSON object", "tool", o.tool.Kind)
		return ServerError{Message: incompleteResultMessage}
	}

	raw, ok := wrapper[o.tool.WrapperKey]
	if !ok || isNull(raw) {
		o.logger.Warn("Success body is missing its wrapper key", "tool", o.tool.Kind, "key", o.tool.WrapperKey)
		return ServerError{Message: incompleteResultMessage}
	}

	if violations := o.tool.CheckPayload(raw); len(violations) > 0 {
		o.logger.Warn("Result failed contract check", "tool", o.tool.Kind, "violations", violations)
		return ServerError{Message: incompleteResultMessage}
	}

	result := o.tool.NewResult()
	if err := json.Unmarshal(raw, result); err != nil {
		o.logger.LogError(err, "Failed to decode result", "tool", o.tool.Kind)
		return ServerError{Message: incompleteResultMessage}
	}
	return Success{Payload: result}
}

func (o *Orchestrator) observe(ctx context.Context, span oteltrace.Span, out Outcome) {
	t := out.TraceInfo()
	span.SetAttributes(
		attribute.String("outcome", string(out.Tag())),
		attribute.Int("http.status_code", t.StatusCode),
	)
	if out.Tag() != TagSuccess {
		span.SetStatus(codes.Error, string(out.Tag()))
	}

	o.logger.Info("Request classified",
		"tool", o.tool.Kind,
		"request_id", t.RequestID,
		"correlation_id", t.CorrelationID,
		"outcome", out.Tag(),
		"status", t.StatusCode,
		"elapsed_ms", t.Elapsed.Milliseconds(),
	)

	if o.recorder != nil {
		o.recorder.RecordOutcome(ctx, string(o.tool.Kind), string(out.Tag()), t.Elapsed)
	}
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}
