package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"careertools/internal/config"
	"careertools/internal/errors"
	"careertools/internal/observability"
	"careertools/internal/orchestrator"
	"careertools/internal/registry"
)

// startObservability builds the telemetry pipeline for one command run
func startObservability(cfg *config.Config) (*observability.ObservabilityManager, error) {
	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	return om, nil
}

func stopObservability(om *observability.ObservabilityManager, logger *errors.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		logger.LogError(err, "Failed to shutdown observability")
	}
}

// newOrchestrator wires the client configuration and telemetry into an orchestrator for tool
func newOrchestrator(cfg *config.Config, tool *registry.Tool, om *observability.ObservabilityManager, logger *errors.Logger) *orchestrator.Orchestrator {
	agent := cfg.Client.UserAgent
	if agent != "" {
		agent += "/" + Version
	}
	return orchestrator.New(tool, orchestrator.Options{
		BaseURL:          cfg.Client.BaseURL,
		APIKey:           cfg.Client.APIKey,
		UserAgent:        agent,
		Timeout:          cfg.Client.TimeoutFor(tool.Kind),
		MaxResponseBytes: cfg.Client.MaxResponseBytes,
		Client:           &http.Client{Transport: om.HTTPTransport(http.DefaultTransport)},
		Logger:           logger,
		Recorder:         om,
		Tracer:           om.Tracer("careertools.orchestrator"),
	})
}
