package config

import (
	"fmt"
	"os"
	"strings"

	"careertools/internal/errors"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyServerAPIKeyFallbacks()
	c.applyClientDefaults()
	c.applyObservabilityDefaults()
}

// applyServerAPIKeyFallbacks applies API key fallbacks from environment variables
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv("CAREERTOOLS_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = splitKeys(apiKeysEnv)
		}
	}
}

// applyClientDefaults fills client settings that depend on other sections
func (c *Config) applyClientDefaults() {
	c.Client.BaseURL = strings.TrimRight(c.Client.BaseURL, "/")
	// a client pointed at a keyed local server reuses the first key
	if c.Client.APIKey == "" && len(c.Server.APIKeys) > 0 {
		c.Client.APIKey = c.Server.APIKeys[0]
	}
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
	if c.App.LogLevel == "debug" && c.Observability.Enabled && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

func splitKeys(raw string) []string {
	var keys []string
	for _, key := range strings.Split(raw, ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// configEnvVars are reported by logConfigurationSources when set
var configEnvVars = []string{
	"CAREERTOOLS_CLIENT_BASEURL",
	"CAREERTOOLS_CLIENT_APIKEY",
	"CAREERTOOLS_SERVER_PORT",
	"CAREERTOOLS_SERVER_HOST",
	"CAREERTOOLS_SERVER_APIKEYS",
	"CAREERTOOLS_APP_LOGLEVEL",
	"CAREERTOOLS_VAULT_ENABLED",
}

// logConfigurationSources logs where the effective settings came from, masking keys
func (c *Config) logConfigurationSources(logger *errors.Logger, configFileUsed string) {
	if configFileUsed == "" {
		configFileUsed = "none"
	}

	var env []string
	for _, name := range configEnvVars {
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			continue
		}
		if strings.Contains(strings.ToLower(name), "key") {
			value = "***"
		}
		env = append(env, name+"="+value)
	}

	backend := "fixtures"
	if c.Server.Upstream.URL != "" {
		backend = "upstream " + c.Server.Upstream.URL
	}

	logger.Debug("Configuration loaded",
		"config_file", configFileUsed,
		"env", env,
		"client_base_url", c.Client.BaseURL,
		"client_api_key_set", c.Client.APIKey != "",
		"timeout_overrides", len(c.Client.Timeouts),
		"server_addr", c.Server.Host+":"+c.Server.Port,
		"rate_limit", c.Server.RateLimit.Enabled,
		"backend", backend,
		"log_level", c.App.LogLevel,
		"vault", c.Vault.Enabled,
		"observability", c.Observability.Enabled)
}
