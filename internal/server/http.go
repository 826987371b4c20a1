// Package server is the development backend for the career tools. It speaks
// the same wire contract as the production API, answering from fixtures or
// relaying to an upstream service.
package server

import (
	"fmt"
	"net/http"
	"time"

	"careertools/internal/config"
	"careertools/internal/errors"
	"careertools/internal/observability"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error      string   `json:"error"`
	Message    string   `json:"message,omitempty"`
	RetryAfter *int     `json:"retryAfter,omitempty"`
	Details    []string `json:"details,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   config.RateLimitConfig
	RateLimiter *LimiterManager

	// Where tool payloads come from
	Backend  Backend
	Fixtures *FixtureBackend

	Observability *observability.ObservabilityManager
	Logger        *errors.Logger
}

// NewServer creates a Server from the server section of appCfg. A nil om disables telemetry.
func NewServer(appCfg *config.Config, version string, om *observability.ObservabilityManager, logger *errors.Logger) (*Server, error) {
	if logger == nil {
		logger = errors.Discard()
	}
	if om == nil {
		disabled, err := observability.NewObservabilityManager(observability.ObservabilityConfig{}, appCfg)
		if err != nil {
			return nil, err
		}
		om = disabled
	}
	cfg := appCfg.Server

	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *LimiterManager
	if cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	s := &Server{
		Host:            cfg.Host,
		Port:            cfg.Port,
		Version:         version,
		AppConfig:       appCfg,
		APIKeys:         apiKeyMap,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
		MaxRequestSize:  cfg.MaxRequestSize,
		RateLimit:       cfg.RateLimit,
		RateLimiter:     rateLimiter,
		Observability:   om,
		Logger:          logger,
	}

	if cfg.Upstream.URL != "" {
		client := &http.Client{Transport: om.HTTPTransport(http.DefaultTransport)}
		s.Backend = NewUpstreamBackend(cfg.Upstream, client, om.RecordBreakerState, logger)
		return s, nil
	}

	fixtures, err := NewFixtureBackend(cfg.Fixtures, logger)
	if err != nil {
		if rateLimiter != nil {
			rateLimiter.Close()
		}
		return nil, fmt.Errorf("failed to load fixtures: %w", err)
	}
	s.Backend = fixtures
	s.Fixtures = fixtures
	return s, nil
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.Observability.HTTPMiddleware()(s.setupRoutes())
}
