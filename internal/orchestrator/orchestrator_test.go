package orchestrator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"careertools/internal/registry"
	"careertools/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const heatmapBody = `{"analysis":{
	"summary":"Strong demand across Europe",
	"topCountries":[
		{"country":"Germany","countryCode":"DE","latitude":51.1,"longitude":10.4,"opportunityScore":88,"demandLevel":"high","salaryRange":{"min":60000,"max":90000,"currency":"EUR"},"remoteFriendly":true},
		{"country":"Canada","countryCode":"CA","latitude":56.1,"longitude":-106.3,"opportunityScore":81,"demandLevel":"high","salaryRange":{"min":70000,"max":110000,"currency":"CAD"},"remoteFriendly":true}
	],
	"skillDemand":[{"skill":"Go","demandScore":90,"trend":"rising"}]
}}`

type countingRecorder struct {
	mu   sync.Mutex
	tags []string
}

func (r *countingRecorder) RecordOutcome(_ context.Context, _ string, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags = append(r.tags, outcome)
}

func (r *countingRecorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.tags...)
}

func heatmapProfile() types.ProfileDraft {
	return types.ProfileDraft{
		"jobTitle":          "Backend Engineer",
		"yearsOfExperience": 4.0,
		"skills":            []string{"Go", "SQL"},
	}
}

func newTestOrchestrator(t *testing.T, handler http.HandlerFunc, opts Options) *Orchestrator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL
	return New(registry.MustLookup(types.ToolOpportunityHeatmap), opts)
}

func respond(status int, body string, headers map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for k, v := range headers {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestSubmitSuccess(t *testing.T) {
	var gotBody map[string]any
	var gotHeader http.Header
	o := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/opportunity-heatmap", r.URL.Path)
		gotHeader = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		respond(http.StatusOK, heatmapBody, nil)(w, r)
	}, Options{APIKey: "secret"})

	out := o.Submit(context.Background(), heatmapProfile())

	success, ok := out.(Success)
	require.True(t, ok, "got %T", out)
	result, ok := success.Payload.(*types.HeatmapResult)
	require.True(t, ok)
	assert.Len(t, result.TopCountries, 2)
	assert.Equal(t, "Germany", result.TopCountries[0].Country)
	assert.Empty(t, result.Insights)

	assert.Equal(t, "Backend Engineer", gotBody["jobTitle"])
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, "secret", gotHeader.Get("X-API-Key"))
	assert.Equal(t, success.CorrelationID, gotHeader.Get(RequestIDHeader))
	assert.Equal(t, uint64(1), success.RequestID)
	assert.Equal(t, http.StatusOK, success.StatusCode)
}

func TestSubmitSuccessWithIncompleteBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing wrapper", `{"result":{"topCountries":[],"skillDemand":[]}}`},
		{"null wrapper", `{"analysis":null}`},
		{"missing required array", `{"analysis":{"topCountries":[]}}`},
		{"required array null", `{"analysis":{"topCountries":null,"skillDemand":[]}}`},
		{"not json", `<html>ok</html>`},
		{"wrong item type", `{"analysis":{"topCountries":[{"country":"DE","countryCode":"DE","opportunityScore":"high"}],"skillDemand":[]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrchestrator(t, respond(http.StatusOK, tt.body, nil), Options{})
			out := o.Submit(context.Background(), heatmapProfile())
			se, ok := out.(ServerError)
			require.True(t, ok, "got %T", out)
			assert.Equal(t, incompleteResultMessage, se.Message)
		})
	}
}

func TestSubmitAcceptsFractionalScores(t *testing.T) {
	body := `{"analysis":{
		"topCountries":[{"country":"Germany","countryCode":"DE","latitude":51.1,"longitude":10.4,"opportunityScore":87.5,"demandLevel":"high","salaryRange":{"min":60000,"max":90000,"currency":"EUR"},"remoteFriendly":true}],
		"skillDemand":[{"skill":"Go","demandScore":72.25,"trend":"rising"}]
	}}`
	o := newTestOrchestrator(t, respond(http.StatusOK, body, nil), Options{})

	out := o.Submit(context.Background(), heatmapProfile())

	success, ok := out.(Success)
	require.True(t, ok, "got %T", out)
	result := success.Payload.(*types.HeatmapResult)
	assert.Equal(t, 87.5, result.TopCountries[0].OpportunityScore)
	assert.Equal(t, 72.25, result.SkillDemand[0].DemandScore)
}

func TestSubmitValidationError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"message field", 400, `{"error":"validation_failed","message":"Skills is required"}`, "Skills is required"},
		{"code only", 422, `{"error":"invalid_profile"}`, "Invalid profile"},
		{"nested error", 400, `{"error":{"code":"bad","message":"Job title too long"}}`, "Job title too long"},
		{"empty body", 404, ``, genericValidationMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrchestrator(t, respond(tt.status, tt.body, nil), Options{})
			out := o.Submit(context.Background(), heatmapProfile())
			ve, ok := out.(ValidationError)
			require.True(t, ok, "got %T", out)
			assert.Equal(t, tt.message, ve.Message)
			assert.Equal(t, tt.status, ve.StatusCode)
		})
	}
}

func TestSubmitRateLimited(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reset := now.Add(90 * time.Second)

	tests := []struct {
		name       string
		status     int
		body       string
		headers    map[string]string
		retryAfter *int
		resetAt    *time.Time
	}{
		{
			name:       "body hint wins",
			status:     429,
			body:       `{"error":"rate_limit_exceeded","message":"Slow down","retryAfter":60}`,
			headers:    map[string]string{"Retry-After": "10"},
			retryAfter: intPtr(60),
		},
		{
			name:       "retry-after header",
			status:     429,
			body:       ``,
			headers:    map[string]string{"Retry-After": "30"},
			retryAfter: intPtr(30),
		},
		{
			name:       "reset header only",
			status:     429,
			body:       `{}`,
			headers:    map[string]string{"X-RateLimit-Reset": strconv.FormatInt(reset.Unix(), 10)},
			retryAfter: intPtr(90),
			resetAt:    &reset,
		},
		{
			name:       "code on non-429 status",
			status:     403,
			body:       `{"error":"RATE_LIMITED","retry_after":"12.2"}`,
			retryAfter: intPtr(13),
		},
		{
			name:   "no hints",
			status: 429,
			body:   `{"error":"too_many_requests"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrchestrator(t, respond(tt.status, tt.body, tt.headers), Options{
				Now: func() time.Time { return now },
			})
			out := o.Submit(context.Background(), heatmapProfile())
			rl, ok := out.(RateLimited)
			require.True(t, ok, "got %T", out)
			assert.Equal(t, tt.retryAfter, rl.RetryAfterSeconds)
			if tt.resetAt == nil {
				assert.Nil(t, rl.ResetAt)
			} else {
				require.NotNil(t, rl.ResetAt)
				assert.True(t, tt.resetAt.Equal(*rl.ResetAt))
			}
			assert.NotEmpty(t, rl.Message)
		})
	}
}

func TestSubmitServerError(t *testing.T) {
	for _, status := range []int{500, 502, 503} {
		t.Run(strconv.Itoa(status), func(t *testing.T) {
			o := newTestOrchestrator(t, respond(status, `{"error":"boom"}`, nil), Options{})
			out := o.Submit(context.Background(), heatmapProfile())
			se, ok := out.(ServerError)
			require.True(t, ok, "got %T", out)
			assert.Equal(t, genericServerMessage, se.Message)
			assert.Equal(t, status, se.StatusCode)
		})
	}
}

func TestSubmitNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	o := New(registry.MustLookup(types.ToolSalaryComparator), Options{BaseURL: url})
	out := o.Submit(context.Background(), types.ProfileDraft{})
	_, ok := out.(ServerError)
	assert.True(t, ok, "got %T", out)
}

func TestSubmitTimeoutYieldsSingleAbort(t *testing.T) {
	release := make(chan struct{})
	done := make(chan struct{})
	rec := &countingRecorder{}

	o := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		defer close(done)
		<-release
		respond(http.StatusOK, heatmapBody, nil)(w, r)
	}, Options{Timeout: 50 * time.Millisecond, Recorder: rec})

	out := o.Submit(context.Background(), heatmapProfile())
	aborted, ok := out.(Aborted)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, AbortTimeout, aborted.Reason)
	assert.Equal(t, timeoutMessage, Message(out))

	// the late response must not produce a second outcome
	close(release)
	<-done
	assert.Equal(t, []string{string(TagAborted)}, rec.seen())
}

func TestSubmitUserCancel(t *testing.T) {
	started := make(chan struct{})
	o := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	out := o.Submit(ctx, heatmapProfile())
	aborted, ok := out.(Aborted)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, AbortUserCancelled, aborted.Reason)
}

func TestSubmitOversizedBody(t *testing.T) {
	o := newTestOrchestrator(t, respond(http.StatusOK, heatmapBody, nil), Options{MaxResponseBytes: 16})
	out := o.Submit(context.Background(), heatmapProfile())
	_, ok := out.(ServerError)
	assert.True(t, ok, "got %T", out)
}

func TestRequestIDsAreMonotonicAndLastWins(t *testing.T) {
	o := newTestOrchestrator(t, respond(http.StatusOK, heatmapBody, nil), Options{})

	first := o.Submit(context.Background(), heatmapProfile())
	second := o.Submit(context.Background(), heatmapProfile())

	assert.Less(t, first.TraceInfo().RequestID, second.TraceInfo().RequestID)
	assert.NotEqual(t, first.TraceInfo().CorrelationID, second.TraceInfo().CorrelationID)
	assert.False(t, o.IsLatest(first.TraceInfo().RequestID))
	assert.True(t, o.IsLatest(second.TraceInfo().RequestID))
}

func TestEnvelopeIsFrozen(t *testing.T) {
	draft := heatmapProfile()
	env, err := NewEnvelope(draft, time.Now())
	require.NoError(t, err)

	draft.Strings("skills")[0] = "Rust"
	draft["jobTitle"] = "Changed"

	assert.Equal(t, []string{"Go", "SQL"}, env.Profile.Strings("skills"))
	assert.Contains(t, string(env.Body), `"Backend Engineer"`)
}

func TestIsRateLimitCode(t *testing.T) {
	for _, code := range []string{"rate_limit_exceeded", "RATE_LIMITED", "Rate limit exceeded", "too-many-requests"} {
		assert.True(t, isRateLimitCode(code), code)
	}
	for _, code := range []string{"", "validation_failed", "limit_reached"} {
		assert.False(t, isRateLimitCode(code), code)
	}
}

func TestRetryAfterHintsAreCapped(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, intPtr(MaxRetryAfterSeconds), parseSeconds(json.RawMessage(`1e20`)))
	assert.Equal(t, intPtr(MaxRetryAfterSeconds), parseSeconds(json.RawMessage(`"9999999999"`)))
	assert.Equal(t, intPtr(3), parseSeconds(json.RawMessage(`2.1`)))
	assert.Nil(t, parseSeconds(json.RawMessage(`-1`)))

	assert.Equal(t, intPtr(MaxRetryAfterSeconds), parseRetryAfterHeader("99999999999999999999999", now))
	assert.Equal(t, intPtr(120), parseRetryAfterHeader("120", now))
	assert.Nil(t, parseRetryAfterHeader("-5", now))

	far := strconv.FormatInt(now.Add(400*24*time.Hour).Unix(), 10)
	retryAfter, resetAt := rateLimitHints(errorBody{}, http.Header{"X-Ratelimit-Reset": {far}}, now)
	require.NotNil(t, resetAt)
	assert.Equal(t, intPtr(MaxRetryAfterSeconds), retryAfter)
}

func TestHumanizeKeepsMultibyteFirstLetter(t *testing.T) {
	assert.Equal(t, "Invalid profile", humanize("invalid_profile"))
	assert.Equal(t, "Écart trop grand", humanize("écart_trop-grand"))
	assert.Equal(t, "", humanize(""))
}

func intPtr(v int) *int { return &v }
