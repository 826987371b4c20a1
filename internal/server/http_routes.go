package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"careertools/internal/registry"
)

// middleware wraps a handler; chain applies them outermost first
type middleware func(http.HandlerFunc) http.HandlerFunc

func chain(h http.HandlerFunc, mws ...middleware) http.HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// setupRoutes mounts one POST endpoint per tool plus the operational endpoints.
// The mux answers other methods with 405.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	prom := s.AppConfig.Observability.Prometheus
	if h := s.Observability.MetricsHandler(); h != nil && prom.Port == "" && prom.Endpoint != "" {
		mux.Handle("GET "+prom.Endpoint, h)
	}

	for _, tool := range registry.All() {
		mux.HandleFunc("POST "+tool.Endpoint, chain(s.createToolHandler(tool),
			s.rateLimitMiddleware(string(tool.Kind)),
			s.authMiddleware,
			s.requestSizeLimitMiddleware,
		))
	}

	return mux
}

// requestAPIKey reads X-API-Key, falling back to an Authorization Bearer token
func requestAPIKey(r *http.Request) string {
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return apiKey
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// knownAPIKey compares against every configured key in constant time
func (s *Server) knownAPIKey(apiKey string) bool {
	found := 0
	for key := range s.APIKeys {
		found |= subtle.ConstantTimeCompare([]byte(key), []byte(apiKey))
	}
	return found == 1
}

// authMiddleware is a no-op until API keys are configured
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		switch {
		case apiKey == "":
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, "missing_api_key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
		case !s.knownAPIKey(apiKey):
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "invalid_api_key", "Unauthorized access", http.StatusUnauthorized)
		default:
			next(w, r)
		}
	}
}

// requestSizeLimitMiddleware caps the body at MaxRequestSize; parseJSONRequest reports the overflow
func (s *Server) requestSizeLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.MaxRequestSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
		}
		next(w, r)
	}
}

// maskAPIKey keeps the first 8 characters for logs
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
