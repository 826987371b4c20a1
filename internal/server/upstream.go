package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"careertools/internal/config"
	"careertools/internal/errors"
	"careertools/internal/registry"
	"careertools/internal/types"

	"github.com/sony/gobreaker/v2"
)

const maxUpstreamBody = 10 * 1024 * 1024

// BreakerObserver is told about every breaker state change
type BreakerObserver func(ctx context.Context, name string, state int64)

// UpstreamBackend forwards tool requests to another analysis service behind a circuit breaker
type UpstreamBackend struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[json.RawMessage]
	logger  *errors.Logger
}

// NewUpstreamBackend creates the gateway. A nil client uses http.DefaultClient.
func NewUpstreamBackend(cfg config.UpstreamConfig, client *http.Client, observe BreakerObserver, logger *errors.Logger) *UpstreamBackend {
	if logger == nil {
		logger = errors.Discard()
	}
	if client == nil {
		client = http.DefaultClient
	}
	ub := &UpstreamBackend{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		client:  client,
		logger:  logger,
	}
	ub.breaker = newUpstreamBreaker(cfg.CircuitBreaker, observe, logger)
	return ub
}

// newUpstreamBreaker returns nil when the breaker is disabled
func newUpstreamBreaker(cfg config.CircuitBreakerConfig, observe BreakerObserver, logger *errors.Logger) *gobreaker.CircuitBreaker[json.RawMessage] {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        "upstream",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		// client mistakes must not open the breaker
		IsSuccessful: func(err error) bool {
			var relayed *RelayedError
			if stderrors.As(err, &relayed) {
				return relayed.StatusCode < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
			if observe != nil {
				observe(context.Background(), name, int64(to))
			}
		},
	}
	return gobreaker.NewCircuitBreaker[json.RawMessage](settings)
}

// Analyze posts the profile upstream and returns the payload under the tool's wrapper key
func (ub *UpstreamBackend) Analyze(ctx context.Context, tool *registry.Tool, profile types.ProfileDraft) (json.RawMessage, error) {
	body, err := json.Marshal(profile)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "Cannot encode profile", err)
	}

	if ub.breaker == nil {
		return ub.call(ctx, tool, body)
	}

	payload, err := ub.breaker.Execute(func() (json.RawMessage, error) {
		return ub.call(ctx, tool, body)
	})
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.NewNetworkError(errors.ErrCodeUpstreamUnavailable,
			"The analysis service is temporarily unavailable", err).
			WithContext("breaker_state", ub.breaker.State().String())
	}
	return payload, err
}

func (ub *UpstreamBackend) call(ctx context.Context, tool *registry.Tool, body []byte) (json.RawMessage, error) {
	if ub.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ub.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ub.baseURL+tool.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "Cannot build upstream request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if ub.apiKey != "" {
		req.Header.Set("X-API-Key", ub.apiKey)
	}

	resp, err := ub.client.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeRequestFailed, "Upstream request failed", err).
			WithContext("tool", string(tool.Kind))
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			ub.logger.Warn("Failed to close upstream response body", "error", err)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeRequestFailed, "Cannot read upstream response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ub.logger.Warn("Upstream returned an error", "tool", tool.Kind, "status", resp.StatusCode)
		return nil, &RelayedError{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), Body: raw}
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeRequestFailed, "Upstream response is not a JSON object", err)
	}
	payload, ok := envelope[tool.WrapperKey]
	if !ok {
		return nil, errors.NewNetworkError(errors.ErrCodeRequestFailed,
			fmt.Sprintf("Upstream response has no %q field", tool.WrapperKey), nil)
	}
	return payload, nil
}

func (ub *UpstreamBackend) Name() string { return "upstream" }

func (ub *UpstreamBackend) Health() map[string]any {
	status := map[string]any{
		"url":     ub.baseURL,
		"healthy": true,
	}
	if ub.breaker == nil {
		status["circuit_breaker"] = map[string]any{"enabled": false}
		return status
	}
	status["healthy"] = ub.breaker.State() != gobreaker.StateOpen
	status["circuit_breaker"] = map[string]any{
		"enabled": true,
		"name":    ub.breaker.Name(),
		"state":   ub.breaker.State().String(),
		"counts":  ub.breaker.Counts(),
	}
	return status
}
