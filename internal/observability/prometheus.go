package observability

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"careertools/internal/config"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusConfig holds Prometheus-specific configuration
type PrometheusConfig struct {
	Enabled  bool
	Endpoint string
	Port     string
}

func (c PrometheusConfig) endpoint() string {
	if c.Endpoint == "" {
		return "/metrics"
	}
	return c.Endpoint
}

// SetupPrometheusExporter registers an exporter on a private registry so tests
// and repeated managers never collide on the global one.
func SetupPrometheusExporter(pc PrometheusConfig) (metric.Reader, *http.ServeMux, error) {
	if !pc.Enabled {
		return nil, nil, nil
	}

	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(pc.endpoint(), promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	return exporter, mux, nil
}

// StartPrometheusServer binds port before returning, so a taken port fails startup
func StartPrometheusServer(handler http.Handler, port string) (*http.Server, error) {
	if handler == nil {
		return nil, fmt.Errorf("no Prometheus handler to serve")
	}

	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on metrics port %s: %w", port, err)
	}

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Prometheus metrics server stopped", "addr", ln.Addr().String(), "error", err)
		}
	}()
	return server, nil
}

// GetPrometheusConfig reads the Prometheus section, enabled on /metrics when cfg is nil
func GetPrometheusConfig(cfg *config.Config) PrometheusConfig {
	if cfg == nil {
		return PrometheusConfig{Enabled: true, Endpoint: "/metrics"}
	}
	p := cfg.Observability.Prometheus
	return PrometheusConfig{Enabled: p.Enabled, Endpoint: p.Endpoint, Port: p.Port}
}
