package server

import (
	"fmt"
	"io"
	"text/tabwriter"

	"careertools/internal/registry"
)

// displayServerInfo prints the routes and the protections in force
func (s *Server) displayServerInfo(out io.Writer) {
	auth := ""
	if len(s.APIKeys) > 0 {
		auth = " (API key)"
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Available endpoints:")
	fmt.Fprintln(tw, "  GET\t/health\tHealth check")
	fmt.Fprintln(tw, "  GET\t/stats\tServer statistics")
	for _, tool := range registry.All() {
		fmt.Fprintf(tw, "  POST\t%s\t%s%s\n", tool.Endpoint, tool.Title, auth)
	}
	prom := s.AppConfig.Observability.Prometheus
	if s.Observability.MetricsHandler() != nil && prom.Port == "" && prom.Endpoint != "" {
		fmt.Fprintf(tw, "  GET\t%s\tPrometheus metrics\n", prom.Endpoint)
	}
	_ = tw.Flush()

	fmt.Fprintln(out, "Backend:", s.backendSummary())

	if len(s.APIKeys) > 0 {
		fmt.Fprintf(out, "API authentication: ENABLED (%d keys), send X-API-Key or Authorization: Bearer\n", len(s.APIKeys))
	} else {
		fmt.Fprintln(out, "API authentication: DISABLED, tool endpoints are public")
	}

	if s.MaxRequestSize > 0 {
		fmt.Fprintf(out, "Request size limit: %d bytes\n", s.MaxRequestSize)
	} else {
		fmt.Fprintln(out, "Request size limit: DISABLED")
	}

	rl := s.RateLimit
	var scope string
	switch {
	case rl.ByAPIKey && rl.ByIP:
		scope = "per API key, else per IP"
	case rl.ByAPIKey:
		scope = "per API key, anonymous requests unlimited"
	case rl.ByIP:
		scope = "per IP"
	}
	if !rl.Enabled || scope == "" {
		fmt.Fprintln(out, "Rate limiting: DISABLED")
		return
	}
	fmt.Fprintf(out, "Rate limiting: ENABLED (%d requests/min, burst %d, %s)\n",
		rl.RequestsPerMin, rl.BurstCapacity, scope)
}

func (s *Server) backendSummary() string {
	if s.Fixtures == nil {
		return "upstream " + s.AppConfig.Server.Upstream.URL
	}
	cfg := s.AppConfig.Server.Fixtures
	summary := "embedded fixtures"
	if cfg.Dir != "" {
		summary = fmt.Sprintf("fixtures from %s (hot reload: %t)", cfg.Dir, cfg.Watch)
	}
	if cfg.Latency > 0 {
		summary += fmt.Sprintf(", latency %s", cfg.Latency)
	}
	return summary
}
