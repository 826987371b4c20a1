package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"careertools/internal/config"
	"careertools/internal/errors"
	"careertools/internal/registry"
	"careertools/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func breakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}
}

func TestUpstreamUnwrapsPayload(t *testing.T) {
	var gotKey, gotPath string
	var gotProfile map[string]any
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotPath = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotProfile))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"analysis":` + overrideHeatmap + `}`))
	}))
	defer upstream.Close()

	ub := NewUpstreamBackend(config.UpstreamConfig{URL: upstream.URL + "/", APIKey: "up-key"}, nil, nil, nil)
	payload, err := ub.Analyze(context.Background(), registry.MustLookup(types.ToolOpportunityHeatmap),
		types.ProfileDraft{"jobTitle": "Backend Engineer"})
	require.NoError(t, err)

	assert.JSONEq(t, overrideHeatmap, string(payload))
	assert.Equal(t, "up-key", gotKey)
	assert.Equal(t, "/api/opportunity-heatmap", gotPath)
	assert.Equal(t, "Backend Engineer", gotProfile["jobTitle"])
	assert.Equal(t, map[string]any{"enabled": false}, ub.Health()["circuit_breaker"])
}

func TestUpstreamMissingWrapperKeyFails(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{}}`))
	}))
	defer upstream.Close()

	ub := NewUpstreamBackend(config.UpstreamConfig{URL: upstream.URL}, nil, nil, nil)
	_, err := ub.Analyze(context.Background(), registry.MustLookup(types.ToolOpportunityHeatmap), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"analysis"`)
}

func TestUpstreamBreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"bad_gateway"}`))
	}))
	defer upstream.Close()

	var mu sync.Mutex
	var states []int64
	observe := func(_ context.Context, _ string, state int64) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, state)
	}

	ub := NewUpstreamBackend(config.UpstreamConfig{URL: upstream.URL, CircuitBreaker: breakerConfig()}, nil, observe, nil)
	tool := registry.MustLookup(types.ToolOpportunityHeatmap)

	for range 2 {
		_, err := ub.Analyze(context.Background(), tool, nil)
		var relayed *RelayedError
		require.True(t, stderrors.As(err, &relayed))
		assert.Equal(t, http.StatusBadGateway, relayed.StatusCode)
	}

	_, err := ub.Analyze(context.Background(), tool, nil)
	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrCodeUpstreamUnavailable, appErr.Code)
	assert.Equal(t, int32(2), calls.Load(), "open breaker must not call upstream")

	mu.Lock()
	assert.Equal(t, []int64{2}, states)
	mu.Unlock()
	assert.Equal(t, false, ub.Health()["healthy"])
}

func TestUpstreamClientErrorsKeepBreakerClosed(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded","retryAfter":30}`))
	}))
	defer upstream.Close()

	ub := NewUpstreamBackend(config.UpstreamConfig{URL: upstream.URL, CircuitBreaker: breakerConfig()}, nil, nil, nil)
	tool := registry.MustLookup(types.ToolOpportunityHeatmap)
	for range 4 {
		_, err := ub.Analyze(context.Background(), tool, nil)
		var relayed *RelayedError
		require.True(t, stderrors.As(err, &relayed))
	}
	assert.Equal(t, true, ub.Health()["healthy"])
}

func TestServerRelaysUpstreamRateLimit(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded","retryAfter":30}`))
	}))
	defer upstream.Close()

	cfg := testConfig()
	cfg.Server.Upstream = config.UpstreamConfig{URL: upstream.URL, CircuitBreaker: breakerConfig()}
	s, ts := newTestServer(t, cfg)
	assert.Nil(t, s.Fixtures)

	resp, body := post(t, ts.URL+"/api/opportunity-heatmap", heatmapProfile, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "30", resp.Header.Get("Retry-After"))
	assert.JSONEq(t, `30`, string(body["retryAfter"]))
}

func TestServerReportsOpenBreaker(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	cfg := testConfig()
	cfg.Server.Upstream = config.UpstreamConfig{URL: upstream.URL, CircuitBreaker: breakerConfig()}
	_, ts := newTestServer(t, cfg)

	for range 2 {
		resp, _ := post(t, ts.URL+"/api/opportunity-heatmap", heatmapProfile, nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	}

	resp, body := post(t, ts.URL+"/api/opportunity-heatmap", heatmapProfile, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.JSONEq(t, `"upstream_unavailable"`, string(body["error"]))

	health, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	_ = health.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, health.StatusCode)
}
