package observability

import (
	"careertools/internal/config"
)

// GetObservabilityConfig derives the telemetry settings for one process.
// version fills in the service version when the config leaves it empty.
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	oc := ObservabilityConfig{
		ServiceName:    "careertools",
		ServiceVersion: version,
		SampleRate:     1.0,
		Prometheus:     GetPrometheusConfig(cfg),
	}
	if cfg == nil {
		return oc
	}

	o := cfg.Observability
	oc.Enabled = o.Enabled
	oc.ConsoleOutput = o.ConsoleOutput
	oc.PrettyPrint = o.Console.PrettyPrint
	if o.SampleRate > 0 {
		oc.SampleRate = o.SampleRate
	}
	if o.ServiceName != "" {
		oc.ServiceName = o.ServiceName
	}
	if o.ServiceVersion != "" {
		oc.ServiceVersion = o.ServiceVersion
	}
	return oc
}
