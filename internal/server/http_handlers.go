package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"time"

	"careertools/internal/errors"
	"careertools/internal/registry"
	"careertools/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// relayedHeaders are copied from an upstream error so clients keep the back-off hints
var relayedHeaders = []string{
	"Content-Type", "Retry-After",
	"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset",
}

// createToolHandler validates the profile and wraps the backend payload under the tool's wrapper key
func (s *Server) createToolHandler(tool *registry.Tool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tracer := s.Observability.Tracer("careertools.server")
		ctx, span := tracer.Start(r.Context(), "api."+string(tool.Kind))
		defer span.End()
		start := time.Now()

		var raw map[string]any
		if err := parseJSONRequest(r, &raw); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "request"))
			writeErrorResponse(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}

		profile, unknown := profileFromRequest(tool, raw)
		if len(unknown) > 0 {
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "validation_failed",
				Message: fmt.Sprintf("Unknown field %q", unknown[0]),
				Details: unknown,
			})
			return
		}
		if perr := tool.ValidateProfile(profile); perr != nil {
			details := make([]string, 0, len(perr.Errors))
			for _, fe := range perr.Errors {
				details = append(details, fe.Error())
			}
			span.SetAttributes(
				attribute.String("error.type", "validation"),
				attribute.Int("validation.step", perr.Step),
			)
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "validation_failed",
				Message: perr.Error(),
				Details: details,
			})
			return
		}

		span.SetAttributes(
			attribute.String("tool", string(tool.Kind)),
			attribute.String("backend", s.Backend.Name()),
			attribute.Int("request.fields", len(profile)),
		)

		payload, err := s.Backend.Analyze(ctx, tool, profile)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.writeBackendError(ctx, w, tool, err)
			return
		}

		span.SetAttributes(attribute.Bool("success", true))
		s.Logger.Debug("Tool request served",
			"tool", tool.Kind,
			"backend", s.Backend.Name(),
			"request_id", r.Header.Get("X-Request-ID"),
			"duration", time.Since(start))

		writeJSON(w, http.StatusOK, map[string]json.RawMessage{tool.WrapperKey: payload})
	}
}

// profileFromRequest normalizes the decoded body and reports field names the tool does not know
func profileFromRequest(tool *registry.Tool, raw map[string]any) (types.ProfileDraft, []string) {
	profile := types.NewProfileDraft()
	var unknown []string
	for name, value := range raw {
		if _, ok := tool.Field(name); !ok {
			unknown = append(unknown, name)
			continue
		}
		if v := types.NormalizeValue(value); v != nil {
			profile[name] = v
		}
	}
	return profile, unknown
}

func (s *Server) writeBackendError(ctx context.Context, w http.ResponseWriter, tool *registry.Tool, err error) {
	var relayed *RelayedError
	if stderrors.As(err, &relayed) {
		for _, name := range relayedHeaders {
			if v := relayed.Header.Get(name); v != "" {
				w.Header().Set(name, v)
			}
		}
		w.WriteHeader(relayed.StatusCode)
		if _, werr := w.Write(relayed.Body); werr != nil {
			s.Logger.LogError(werr, "Failed to relay upstream error body")
		}
		return
	}

	if stderrors.Is(err, context.Canceled) && ctx.Err() != nil {
		s.Logger.Info("Client went away before the result was ready", "tool", tool.Kind)
		return
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && appErr.Code == errors.ErrCodeUpstreamUnavailable {
		s.Logger.Warn("Upstream unavailable", "tool", tool.Kind, "error", err)
		writeErrorResponse(w, "upstream_unavailable", appErr.Message, http.StatusServiceUnavailable)
		return
	}

	s.Logger.LogError(err, "Tool request failed", "tool", tool.Kind)
	writeErrorResponse(w, "analysis_failed", "The analysis could not be completed. Please try again.", http.StatusInternalServerError)
}

// healthHandler reports the backend status
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	backendStatus := s.Backend.Health()
	response := map[string]any{
		"status":  "healthy",
		"service": "careertools",
		"version": s.Version,
		"backend": map[string]any{
			"name":   s.Backend.Name(),
			"status": backendStatus,
		},
	}

	status := http.StatusOK
	if healthy, ok := backendStatus["healthy"].(bool); ok && !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, _ *http.Request) {
	tools := make([]map[string]any, 0, len(registry.All()))
	for _, tool := range registry.All() {
		tools = append(tools, map[string]any{
			"kind":        tool.Kind,
			"endpoint":    tool.Endpoint,
			"wrapper_key": tool.WrapperKey,
		})
	}

	response := map[string]any{
		"service": "careertools",
		"version": s.Version,
		"backend": s.Backend.Name(),
		"tools":   tools,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	response["rate_limit_config"] = map[string]any{
		"enabled":          s.RateLimit.Enabled,
		"requests_per_min": s.RateLimit.RequestsPerMin,
		"burst_capacity":   s.RateLimit.BurstCapacity,
		"by_ip":            s.RateLimit.ByIP,
		"by_api_key":       s.RateLimit.ByAPIKey,
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided value
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, code, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
