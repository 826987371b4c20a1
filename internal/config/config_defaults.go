package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "text")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB

	// Client Configuration
	v.SetDefault("client.baseURL", "http://localhost:8080")
	v.SetDefault("client.apiKey", "")
	v.SetDefault("client.userAgent", "careertools-cli")
	v.SetDefault("client.timeouts", map[string]time.Duration{})
	v.SetDefault("client.maxResponseBytes", 10*1024*1024)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 90*time.Second) // outlives the 60s heatmap ceiling
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.shutdownTimeout", 30*time.Second)
	v.SetDefault("server.maxRequestSize", 1024*1024)
	v.SetDefault("server.apiKeys", []string{})

	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", true)
	v.SetDefault("server.rateLimit.requestsPerMin", 10)
	v.SetDefault("server.rateLimit.burstCapacity", 3)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// Fixture backend defaults
	v.SetDefault("server.fixtures.dir", "")
	v.SetDefault("server.fixtures.watch", true)
	v.SetDefault("server.fixtures.latency", 0)

	// Upstream backend defaults
	v.SetDefault("server.upstream.url", "")
	v.SetDefault("server.upstream.apiKey", "")
	v.SetDefault("server.upstream.timeout", 75*time.Second)
	v.SetDefault("server.upstream.circuitBreaker.enabled", true)
	v.SetDefault("server.upstream.circuitBreaker.maxRequests", 3)
	v.SetDefault("server.upstream.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("server.upstream.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("server.upstream.circuitBreaker.minRequests", 3)
	v.SetDefault("server.upstream.circuitBreaker.failureThreshold", 0.6)

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.serverAPIKeys", "")
	v.SetDefault("vault.secrets.clientAPIKey", "")
	v.SetDefault("vault.secrets.upstreamAPIKey", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.serviceName", "careertools")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	// Metrics Configuration
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	// Custom Metrics Configuration
	v.SetDefault("observability.customMetrics.outcomes.enabled", true)
	v.SetDefault("observability.customMetrics.outcomes.trackDuration", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackFixtureReloads", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackCircuitBreakers", true)

	// Console Configuration
	v.SetDefault("observability.console.prettyPrint", true)

	// Prometheus Configuration
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "") // empty serves metrics on the API server

	// OTLP Configuration
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
