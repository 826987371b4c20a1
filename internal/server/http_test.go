package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"careertools/internal/config"
	"careertools/internal/orchestrator"
	"careertools/internal/registry"
	"careertools/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            "0",
			ShutdownTimeout: 5 * time.Second,
			MaxRequestSize:  1 << 20,
		},
		Observability: config.ObservabilityConfig{
			Prometheus: config.PrometheusConfig{Endpoint: "/metrics"},
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	s, err := NewServer(cfg, "test", nil, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.cleanupRateLimiter()
	})
	return s, ts
}

const heatmapProfile = `{"jobTitle":"Backend Engineer","yearsOfExperience":4,"skills":["Go","SQL"],"remoteOnly":true}`

func post(t *testing.T, url, body string, headers map[string]string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var decoded map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestToolEndpointWrapsFixture(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	for _, tool := range registry.All() {
		t.Run(string(tool.Kind), func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, ts.URL+tool.Endpoint, bytes.NewBufferString(`{}`))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			_ = resp.Body.Close()
			// an empty profile never passes the first step
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	resp, body := post(t, ts.URL+"/api/opportunity-heatmap", heatmapProfile, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "analysis")

	var result types.HeatmapResult
	require.NoError(t, json.Unmarshal(body["analysis"], &result))
	assert.NotEmpty(t, result.TopCountries)
	assert.Equal(t, "DE", result.TopCountries[0].CountryCode)
}

func TestToolEndpointValidatesProfile(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp, body := post(t, ts.URL+"/api/opportunity-heatmap",
		`{"jobTitle":"Backend Engineer","yearsOfExperience":4}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `"validation_failed"`, string(body["error"]))
	assert.Contains(t, string(body["message"]), "step 2")

	resp, body = post(t, ts.URL+"/api/opportunity-heatmap",
		`{"jobTitle":"Backend Engineer","yearsOfExperience":4,"skills":["Go"],"salary":1}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body["message"]), "salary")

	resp, body = post(t, ts.URL+"/api/opportunity-heatmap", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `"invalid_request"`, string(body["error"]))
}

func TestToolEndpointRejectsOversizedBody(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxRequestSize = 32
	_, ts := newTestServer(t, cfg)

	resp, body := post(t, ts.URL+"/api/opportunity-heatmap", heatmapProfile, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body["message"]), "too large")
}

func TestToolEndpointRequiresAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.Server.APIKeys = []string{"dev-key-123456"}
	_, ts := newTestServer(t, cfg)

	resp, body := post(t, ts.URL+"/api/opportunity-heatmap", heatmapProfile, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `"missing_api_key"`, string(body["error"]))

	resp, _ = post(t, ts.URL+"/api/opportunity-heatmap", heatmapProfile, map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = post(t, ts.URL+"/api/opportunity-heatmap", heatmapProfile,
		map[string]string{"Authorization": "Bearer dev-key-123456"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func rateLimitedConfig() *config.Config {
	cfg := testConfig()
	cfg.Server.RateLimit = config.RateLimitConfig{
		Enabled:        true,
		RequestsPerMin: 1,
		BurstCapacity:  1,
		ByIP:           true,
	}
	return cfg
}

func TestToolEndpointRateLimits(t *testing.T) {
	_, ts := newTestServer(t, rateLimitedConfig())

	resp, _ := post(t, ts.URL+"/api/opportunity-heatmap", heatmapProfile, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

	resp, body := post(t, ts.URL+"/api/opportunity-heatmap", heatmapProfile, nil)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Reset"))
	assert.JSONEq(t, `"rate_limit_exceeded"`, string(body["error"]))
	assert.JSONEq(t, `60`, string(body["retryAfter"]))
}

func TestOrchestratorAgainstServer(t *testing.T) {
	_, ts := newTestServer(t, rateLimitedConfig())
	tool := registry.MustLookup(types.ToolOpportunityHeatmap)
	orch := orchestrator.New(tool, orchestrator.Options{BaseURL: ts.URL, UserAgent: "careertools-test"})

	profile := types.ProfileDraft{
		"jobTitle":          "Backend Engineer",
		"yearsOfExperience": 4.0,
		"skills":            []string{"Go", "SQL"},
	}

	first := orch.Submit(context.Background(), profile)
	success, ok := first.(orchestrator.Success)
	require.True(t, ok, "got %#v", first)
	heatmap, ok := success.Payload.(*types.HeatmapResult)
	require.True(t, ok)
	assert.NotEmpty(t, heatmap.TopCountries)

	second := orch.Submit(context.Background(), profile)
	limited, ok := second.(orchestrator.RateLimited)
	require.True(t, ok, "got %#v", second)
	require.NotNil(t, limited.RetryAfterSeconds)
	assert.Equal(t, 60, *limited.RetryAfterSeconds)
	assert.NotNil(t, limited.ResetAt)
}

func TestOrchestratorSeesServerValidation(t *testing.T) {
	_, ts := newTestServer(t, testConfig())
	tool := registry.MustLookup(types.ToolOpportunityHeatmap)
	orch := orchestrator.New(tool, orchestrator.Options{BaseURL: ts.URL})

	out := orch.Submit(context.Background(), types.ProfileDraft{"jobTitle": "Backend Engineer"})
	verr, ok := out.(orchestrator.ValidationError)
	require.True(t, ok, "got %#v", out)
	assert.Contains(t, verr.Message, "step 1")
}

func TestHealthAndStats(t *testing.T) {
	_, ts := newTestServer(t, rateLimitedConfig())

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", health["status"])

	resp, err = http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	var stats map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	_ = resp.Body.Close()
	assert.Equal(t, "fixtures", stats["backend"])
	assert.Len(t, stats["tools"], len(registry.All()))
	assert.Equal(t, true, stats["rate_limit_config"].(map[string]any)["enabled"])
}

func TestServeStopsWithContext(t *testing.T) {
	s, err := NewServer(testConfig(), "test", nil, nil)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, listener) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestRoutesRestrictMethods(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp, err := http.Get(ts.URL + "/api/salary-comparator")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/health", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestDisplayServerInfo(t *testing.T) {
	cfg := rateLimitedConfig()
	cfg.Server.APIKeys = []string{"dev-key-123456"}
	s, _ := newTestServer(t, cfg)

	var out bytes.Buffer
	s.displayServerInfo(&out)
	assert.Contains(t, out.String(), "/api/opportunity-heatmap")
	assert.Contains(t, out.String(), "(API key)")
	assert.Contains(t, out.String(), "Rate limiting: ENABLED")

	s.RateLimit.ByIP, s.RateLimit.ByAPIKey = false, false
	out.Reset()
	s.displayServerInfo(&out)
	assert.Contains(t, out.String(), "Rate limiting: DISABLED")
}
