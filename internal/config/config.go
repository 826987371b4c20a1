package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"careertools/internal/errors"
	"careertools/internal/types"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
// API keys resolve in this order, highest first: Vault (when enabled),
// CAREERTOOLS_* environment variables, the config file, defaults.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Client        ClientConfig        `mapstructure:"client"`
	Server        ServerConfig        `mapstructure:"server"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ClientConfig controls how the CLI talks to the analysis API
type ClientConfig struct {
	BaseURL   string `mapstructure:"baseURL"`
	APIKey    string `mapstructure:"apiKey"`
	UserAgent string `mapstructure:"userAgent"`
	// Timeouts overrides the request ceiling per tool kind
	Timeouts         map[string]time.Duration `mapstructure:"timeouts"`
	MaxResponseBytes int64                    `mapstructure:"maxResponseBytes"`
}

// TimeoutFor returns the configured ceiling for a tool, or zero to keep the tool's own
func (c ClientConfig) TimeoutFor(kind types.ToolKind) time.Duration {
	return c.Timeouts[string(kind)]
}

// ServerConfig holds the development API server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout     time.Duration `mapstructure:"idleTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
	MaxRequestSize  int64         `mapstructure:"maxRequestSize"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"` // Valid API keys for authentication

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
	Fixtures  FixturesConfig  `mapstructure:"fixtures"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int           `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int           `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool          `mapstructure:"byIP"`           // Enable per-IP rate limiting
	ByAPIKey       bool          `mapstructure:"byAPIKey"`       // Enable per-API-key rate limiting
	Window         time.Duration `mapstructure:"window"`         // Rate limiting window duration
}

// FixturesConfig points the server at canned tool results
type FixturesConfig struct {
	Dir     string        `mapstructure:"dir"`     // Overrides the embedded fixtures when set
	Watch   bool          `mapstructure:"watch"`   // Reload fixtures when files change
	Latency time.Duration `mapstructure:"latency"` // Artificial delay before answering
}

// UpstreamConfig proxies tool requests to a real analysis service instead of fixtures
type UpstreamConfig struct {
	URL            string               `mapstructure:"url"`
	APIKey         string               `mapstructure:"apiKey"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig holds fine-grained custom metrics configuration
type CustomMetricsConfig struct {
	Outcomes       OutcomeMetricsConfig        `mapstructure:"outcomes"`
	Infrastructure InfrastructureMetricsConfig `mapstructure:"infrastructure"`
}

// OutcomeMetricsConfig controls per-submit outcome metrics
type OutcomeMetricsConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	TrackDuration bool `mapstructure:"trackDuration"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	TrackRateLimits      bool `mapstructure:"trackRateLimits"`
	TrackFixtureReloads  bool `mapstructure:"trackFixtureReloads"`
	TrackCircuitBreakers bool `mapstructure:"trackCircuitBreakers"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from environment variables and a config file
// found in the standard search paths
func LoadConfig() (*Config, error) {
	return load("")
}

// LoadConfigFile is LoadConfig with an explicit config file
func LoadConfigFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	trace := loadTracer()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CAREERTOOLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/careertools/")
		v.AddConfigPath("$HOME/.careertools")
		v.AddConfigPath(".")
	}

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		trace.Debug("No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.applyFallbacks()
	config.logConfigurationSources(trace, configFileUsed)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// loadTracer reports config resolution on stderr when CAREERTOOLS_APP_LOGLEVEL is debug.
// The application logger does not exist yet at this point.
func loadTracer() *errors.Logger {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("CAREERTOOLS_APP_LOGLEVEL")), "debug") {
		return errors.NewLogger(slog.LevelDebug)
	}
	return errors.Discard()
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validateHTTPURL("client.baseURL", c.Client.BaseURL); err != nil {
		return err
	}

	for name, d := range c.Client.Timeouts {
		if _, err := types.ParseToolKind(name); err != nil {
			return fmt.Errorf("client.timeouts: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("client.timeouts.%s must not be negative", name)
		}
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if rl := c.Server.RateLimit; rl.Enabled {
		if rl.RequestsPerMin <= 0 {
			return fmt.Errorf("server.rateLimit.requestsPerMin must be positive")
		}
		if rl.BurstCapacity <= 0 {
			return fmt.Errorf("server.rateLimit.burstCapacity must be positive")
		}
	}

	if c.Server.Upstream.URL != "" {
		if err := validateHTTPURL("server.upstream.url", c.Server.Upstream.URL); err != nil {
			return err
		}
		cb := c.Server.Upstream.CircuitBreaker
		if cb.Enabled && (cb.FailureThreshold <= 0 || cb.FailureThreshold > 1) {
			return fmt.Errorf("server.upstream.circuitBreaker.failureThreshold must be in (0, 1]")
		}
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	return nil
}

func validateHTTPURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}
