package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"careertools/internal/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ObservabilityConfig holds configuration for observability
type ObservabilityConfig struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool
	ConsoleOutput  bool
	PrettyPrint    bool
	SampleRate     float64
	Prometheus     PrometheusConfig
}

// Metrics holds all custom metrics for careertools
type Metrics struct {
	// Submission metrics, recorded once per submit
	OutcomeCount    metric.Int64Counter
	RequestDuration metric.Float64Histogram

	// Server infrastructure metrics
	RateLimitHits  metric.Int64Counter
	FixtureReloads metric.Int64Counter
	BreakerState   metric.Int64Gauge
}

// ObservabilityManager manages OpenTelemetry setup
type ObservabilityManager struct {
	config         ObservabilityConfig
	fullConfig     *config.Config // Store full config for access to nested settings
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metrics        *Metrics
	shutdownFuncs  []func(context.Context) error
	metricsHandler http.Handler
}

// NewObservabilityManager creates a new observability manager
func NewObservabilityManager(obsConfig ObservabilityConfig, fullConfig *config.Config) (*ObservabilityManager, error) {
	if !obsConfig.Enabled {
		return &ObservabilityManager{config: obsConfig, fullConfig: fullConfig}, nil
	}

	om := &ObservabilityManager{
		config:        obsConfig,
		fullConfig:    fullConfig,
		shutdownFuncs: make([]func(context.Context) error, 0),
	}

	res, err := om.createResource()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize resource: %w", err)
	}

	if err := om.initTracing(res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := om.initMetrics(res); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return om, nil
}

// createResource creates the OpenTelemetry resource shared by traces and metrics
func (om *ObservabilityManager) createResource() (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(om.config.ServiceName),
			semconv.ServiceVersion(om.config.ServiceVersion),
			attribute.String("service.instance.id", om.getServiceInstanceID()),
		),
	)
}

// initTracing sets up OpenTelemetry tracing
func (om *ObservabilityManager) initTracing(res *resource.Resource) error {
	var exporter trace.SpanExporter
	var err error

	if om.config.ConsoleOutput {
		// Console exporter for development
		opts := []stdouttrace.Option{}
		if om.config.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
	} else if om.otlpEnabled() {
		exporter, err = om.createOTLPTraceExporter()
	} else {
		exporter = noOpSpanExporter{}
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.TraceIDRatioBased(om.config.SampleRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	om.tracerProvider = tp
	om.shutdownFuncs = append(om.shutdownFuncs, tp.Shutdown)

	return nil
}

// initMetrics sets up OpenTelemetry metrics
func (om *ObservabilityManager) initMetrics(res *resource.Resource) error {
	readers, err := om.setupMetricReaders()
	if err != nil {
		return err
	}

	meterProviderOptions := []sdkmetric.Option{
		sdkmetric.WithResource(res),
	}
	for _, reader := range readers {
		meterProviderOptions = append(meterProviderOptions, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(meterProviderOptions...)

	otel.SetMeterProvider(mp)
	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	return om.initCustomMetrics()
}

// setupMetricReaders collects the console, OTLP and Prometheus readers that are switched on.
// A manual reader keeps the provider valid when none is.
func (om *ObservabilityManager) setupMetricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader
	interval := om.getMetricsCollectionInterval()

	if om.config.ConsoleOutput {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
	}

	if om.otlpEnabled() {
		exporter, err := om.createOTLPMetricExporter()
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics reader: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
	}

	if err := om.setupPrometheusReader(&readers); err != nil {
		return nil, err
	}

	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}
	return readers, nil
}

// setupPrometheusReader sets up the Prometheus reader. A dedicated listener is
// started only when a port is configured; otherwise the API server mounts MetricsHandler.
func (om *ObservabilityManager) setupPrometheusReader(readers *[]sdkmetric.Reader) error {
	if !om.config.Prometheus.Enabled {
		return nil
	}

	prometheusReader, prometheusMux, err := SetupPrometheusExporter(om.config.Prometheus)
	if err != nil {
		return fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}
	if prometheusReader == nil {
		return nil
	}
	*readers = append(*readers, prometheusReader)
	om.metricsHandler = prometheusMux

	if om.config.Prometheus.Port != "" {
		srv, err := StartPrometheusServer(prometheusMux, om.config.Prometheus.Port)
		if err != nil {
			return fmt.Errorf("failed to start Prometheus server: %w", err)
		}
		om.shutdownFuncs = append(om.shutdownFuncs, srv.Shutdown)
	}
	return nil
}

// initCustomMetrics creates all custom metrics for careertools
func (om *ObservabilityManager) initCustomMetrics() error {
	meter := om.meterProvider.Meter(om.config.ServiceName)
	om.metrics = &Metrics{}

	if err := om.createOutcomeMetrics(meter); err != nil {
		return err
	}

	if err := om.createInfrastructureMetrics(meter); err != nil {
		return err
	}

	return nil
}

// createOutcomeMetrics creates submission outcome metrics
func (om *ObservabilityManager) createOutcomeMetrics(meter metric.Meter) error {
	var err error

	om.metrics.OutcomeCount, err = meter.Int64Counter(
		"careertools_outcomes_total",
		metric.WithDescription("Total number of classified submissions by tool and outcome"),
	)
	if err != nil {
		return fmt.Errorf("failed to create outcome count metric: %w", err)
	}

	om.metrics.RequestDuration, err = meter.Float64Histogram(
		"careertools_request_duration_seconds",
		metric.WithDescription("Time from submit to classified outcome"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create request duration metric: %w", err)
	}

	return nil
}

// createInfrastructureMetrics creates server-side metrics
func (om *ObservabilityManager) createInfrastructureMetrics(meter metric.Meter) error {
	var err error

	om.metrics.RateLimitHits, err = meter.Int64Counter(
		"careertools_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	om.metrics.FixtureReloads, err = meter.Int64Counter(
		"careertools_fixture_reloads_total",
		metric.WithDescription("Total number of fixture reloads"),
	)
	if err != nil {
		return fmt.Errorf("failed to create fixture reload metric: %w", err)
	}

	om.metrics.BreakerState, err = meter.Int64Gauge(
		"careertools_upstream_breaker_state",
		metric.WithDescription("Upstream circuit breaker state (0 closed, 1 half-open, 2 open)"),
	)
	if err != nil {
		return fmt.Errorf("failed to create breaker state metric: %w", err)
	}

	return nil
}

// GetMetrics returns the metrics instance
func (om *ObservabilityManager) GetMetrics() *Metrics {
	if om.metrics == nil {
		return &Metrics{}
	}
	return om.metrics
}

// MetricsHandler serves the Prometheus scrape endpoint, or nil when Prometheus is off
func (om *ObservabilityManager) MetricsHandler() http.Handler {
	return om.metricsHandler
}

// HTTPMiddleware returns HTTP middleware with OpenTelemetry instrumentation
func (om *ObservabilityManager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !om.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}

	return otelhttp.NewMiddleware(
		om.config.ServiceName,
		otelhttp.WithTracerProvider(om.tracerProvider),
		otelhttp.WithMeterProvider(om.meterProvider),
	)
}

// HTTPTransport wraps a client transport so outgoing requests carry trace context
func (om *ObservabilityManager) HTTPTransport(base http.RoundTripper) http.RoundTripper {
	if !om.config.Enabled {
		return base
	}
	return otelhttp.NewTransport(base,
		otelhttp.WithTracerProvider(om.tracerProvider),
		otelhttp.WithMeterProvider(om.meterProvider),
	)
}

// Tracer returns a tracer for the service
func (om *ObservabilityManager) Tracer(name string) oteltrace.Tracer {
	if !om.config.Enabled {
		return noop.NewTracerProvider().Tracer(name)
	}
	return om.tracerProvider.Tracer(name)
}

// Shutdown gracefully shuts down all observability components
func (om *ObservabilityManager) Shutdown(ctx context.Context) error {
	for _, shutdown := range om.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RecordOutcome counts one classified submission
func (om *ObservabilityManager) RecordOutcome(ctx context.Context, tool, outcome string, elapsed time.Duration) {
	m := om.GetMetrics()
	if m.OutcomeCount == nil || !om.outcomeMetricsEnabled() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("outcome", outcome),
	)
	m.OutcomeCount.Add(ctx, 1, attrs)
	if om.fullConfig == nil || om.fullConfig.Observability.CustomMetrics.Outcomes.TrackDuration {
		m.RequestDuration.Record(ctx, elapsed.Seconds(), attrs)
	}
}

// RecordRateLimitHit counts one request rejected by the limiter
func (om *ObservabilityManager) RecordRateLimitHit(ctx context.Context, tool, limiterKey string) {
	m := om.GetMetrics()
	if m.RateLimitHits == nil {
		return
	}
	if om.fullConfig != nil && !om.fullConfig.Observability.CustomMetrics.Infrastructure.TrackRateLimits {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("limiter", limiterKey),
	))
}

// RecordFixtureReload counts one fixture reload attempt
func (om *ObservabilityManager) RecordFixtureReload(ctx context.Context, success bool) {
	m := om.GetMetrics()
	if m.FixtureReloads == nil {
		return
	}
	if om.fullConfig != nil && !om.fullConfig.Observability.CustomMetrics.Infrastructure.TrackFixtureReloads {
		return
	}
	m.FixtureReloads.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// RecordBreakerState publishes the upstream breaker state
func (om *ObservabilityManager) RecordBreakerState(ctx context.Context, name string, state int64) {
	m := om.GetMetrics()
	if m.BreakerState == nil {
		return
	}
	if om.fullConfig != nil && !om.fullConfig.Observability.CustomMetrics.Infrastructure.TrackCircuitBreakers {
		return
	}
	m.BreakerState.Record(ctx, state, metric.WithAttributes(attribute.String("breaker", name)))
}

func (om *ObservabilityManager) outcomeMetricsEnabled() bool {
	if om.fullConfig == nil {
		return true
	}
	return om.fullConfig.Observability.CustomMetrics.Outcomes.Enabled
}

// noOpSpanExporter drops spans when neither console nor OTLP export is configured
type noOpSpanExporter struct{}

func (noOpSpanExporter) ExportSpans(context.Context, []trace.ReadOnlySpan) error { return nil }
func (noOpSpanExporter) Shutdown(context.Context) error { return nil }

func (om *ObservabilityManager) otlpEnabled() bool {
	return om.fullConfig != nil && om.fullConfig.Observability.OTLP.Enabled
}

// createOTLPTraceExporter ships spans to the configured OTLP/HTTP collector
func (om *ObservabilityManager) createOTLPTraceExporter() (trace.SpanExporter, error) {
	otlp := om.fullConfig.Observability.OTLP
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(otlp.Endpoint)}
	if otlp.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(otlp.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlp.Headers))
	}
	return otlptracehttp.New(context.Background(), opts...)
}

// createOTLPMetricExporter is the metric counterpart of createOTLPTraceExporter
func (om *ObservabilityManager) createOTLPMetricExporter() (sdkmetric.Exporter, error) {
	otlp := om.fullConfig.Observability.OTLP
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(otlp.Endpoint)}
	if otlp.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(otlp.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(otlp.Headers))
	}
	return otlpmetrichttp.New(context.Background(), opts...)
}

// getServiceInstanceID returns the service instance ID from config or a default
func (om *ObservabilityManager) getServiceInstanceID() string {
	if om.fullConfig != nil && om.fullConfig.Observability.ServiceInstance != "" {
		return om.fullConfig.Observability.ServiceInstance
	}
	return om.config.ServiceName + "-1"
}

// getMetricsCollectionInterval returns the configured metrics collection interval
func (om *ObservabilityManager) getMetricsCollectionInterval() time.Duration {
	if om.fullConfig != nil && om.fullConfig.Observability.Metrics.CollectionInterval > 0 {
		return om.fullConfig.Observability.Metrics.CollectionInterval
	}
	return 15 * time.Second
}
