package server

import (
	"context"
	"encoding/json"
	"net/http"

	"careertools/internal/registry"
	"careertools/internal/types"
)

// Backend produces the payload the server wraps under a tool's wrapper key
type Backend interface {
	Analyze(ctx context.Context, tool *registry.Tool, profile types.ProfileDraft) (json.RawMessage, error)
	Name() string
	Health() map[string]any
}

// RelayedError is a non-2xx answer from an upstream service, passed through unchanged
type RelayedError struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (e *RelayedError) Error() string {
	return http.StatusText(e.StatusCode)
}
