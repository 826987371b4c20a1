package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"careertools/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	// Secret paths
	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets names the KV v2 paths the API keys are read from.
// ServerAPIKeys holds a comma separated list under "keys"; the others hold one key under "api_key".
type VaultSecrets struct {
	ServerAPIKeys  string `mapstructure:"serverAPIKeys"`
	ClientAPIKey   string `mapstructure:"clientAPIKey"`
	UpstreamAPIKey string `mapstructure:"upstreamAPIKey"`
}

// VaultClient reads API keys from a KV v2 engine
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *errors.Logger
}

// NewVaultClient connects to Vault and checks its health. It returns nil when Vault is disabled.
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if logger == nil {
		logger = errors.Discard()
	}
	if !config.Enabled {
		return nil, nil
	}

	apiConfig := api.DefaultConfig()
	if config.Address != "" {
		apiConfig.Address = config.Address
	}
	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config, logger)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		logger.LogError(err, "Vault is unreachable", "address", apiConfig.Address)
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	logger.Debug("Connected to Vault",
		"address", apiConfig.Address,
		"namespace", config.Namespace,
		"version", health.Version,
		"sealed", health.Sealed)

	return &VaultClient{client: client, config: config, logger: logger}, nil
}

// resolveVaultToken prefers the inline token and falls back to the token file
func resolveVaultToken(config VaultConfig, logger *errors.Logger) (string, error) {
	token := config.Token
	if token == "" && config.TokenFile != "" {
		raw, err := os.ReadFile(config.TokenFile)
		if err != nil {
			logger.LogError(err, "Cannot read Vault token file", "file", config.TokenFile)
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// VaultSecret is one KV v2 secret version
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// GetSecretV2 reads the latest version of a KV v2 secret
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	data, err := vc.extractSecretData(secret, path)
	if err != nil {
		return nil, err
	}
	version, err := vc.extractSecretVersion(secret, path)
	if err != nil {
		return nil, err
	}
	vc.logger.Debug("Read secret from Vault", "path", path, "version", version)
	return &VaultSecret{Data: data, Version: version}, nil
}

func (vc *VaultClient) extractSecretData(secret *api.Secret, path string) (map[string]any, error) {
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	return data, nil
}

func (vc *VaultClient) extractSecretVersion(secret *api.Secret, path string) (int64, error) {
	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	raw, ok := metadata["version"]
	if !ok {
		return 0, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	return parseVersionValue(raw, path)
}

// parseVersionValue accepts the version encodings the Vault client decodes into
func parseVersionValue(raw any, path string) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case json.Number:
		return parseVersionValue(v.String(), path)
	case string:
		version, err := parseInt64(v)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	}
	return 0, fmt.Errorf("unexpected type for version at %s: %T", path, raw)
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// GetStringSecret returns one string entry of a secret
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	return s, nil
}

// GetStringSliceSecret splits a comma separated entry, dropping blanks
func (vc *VaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	value, err := vc.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	return splitKeys(value), nil
}

// ApplyVaultSecrets overwrites the configured API keys with the ones stored in Vault
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if logger == nil {
		logger = errors.Discard()
	}
	if !config.Vault.Enabled {
		logger.Debug("Vault integration disabled, skipping secret loading")
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	return loadAllSecretsFromVault(client, config, logger)
}

// secretSource is the subset of VaultClient the loaders need
type secretSource interface {
	GetStringSecret(path, key string) (string, error)
	GetStringSliceSecret(path, key string) ([]string, error)
}

func loadAllSecretsFromVault(client secretSource, config *Config, logger *errors.Logger) error {
	secrets := config.Vault.Secrets

	if err := loadServerAPIKeys(client, config, secrets.ServerAPIKeys, logger); err != nil {
		return err
	}
	if err := loadSingleKey(client, &config.Client.APIKey, secrets.ClientAPIKey, "client API key", logger); err != nil {
		return err
	}
	return loadSingleKey(client, &config.Server.Upstream.APIKey, secrets.UpstreamAPIKey, "upstream API key", logger)
}

// loadServerAPIKeys replaces the accepted keys when the secret holds at least one
func loadServerAPIKeys(client secretSource, config *Config, path string, logger *errors.Logger) error {
	if path == "" {
		return nil
	}

	apiKeys, err := client.GetStringSliceSecret(path, "keys")
	if err != nil {
		return fmt.Errorf("failed to load server API keys from vault: %w", err)
	}

	keys := apiKeys[:0]
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		logger.Warn("No server API keys found in Vault", "path", path)
		return nil
	}
	config.Server.APIKeys = keys
	logger.Info("Server API keys loaded from Vault", "count", len(keys))
	return nil
}

// loadSingleKey reads an "api_key" entry into target. An empty entry keeps the current value.
func loadSingleKey(client secretSource, target *string, path, description string, logger *errors.Logger) error {
	if path == "" {
		return nil
	}

	value, err := client.GetStringSecret(path, "api_key")
	if err != nil {
		return fmt.Errorf("failed to load %s from vault: %w", description, err)
	}
	if value == "" {
		logger.Warn("Empty "+description+" found in Vault", "path", path)
		return nil
	}
	*target = value
	logger.Debug(description+" loaded from Vault", "path", path)
	return nil
}
