package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"resumescore/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	// PollInterval re-reads the API keys secret while serving; zero disables
	PollInterval time.Duration `mapstructure:"pollInterval"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets holds KVv2 paths. Empty paths are skipped.
type VaultSecrets struct {
	// APIKeys is read from the "keys" field as a comma separated list
	APIKeys   string `mapstructure:"apiKeys"`
	AIKey     string `mapstructure:"aiKey"`     // "api_key" field
	UnidocKey string `mapstructure:"unidocKey"` // "license_key" field
}

// VaultClient reads KVv2 secrets
type VaultClient struct {
	client *api.Client
	logger *errors.Logger
}

// VaultSecret is the data and version of a KVv2 secret
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// NewVaultClient connects to Vault. It returns nil, nil when Vault is disabled.
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
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
		return nil, fmt.Errorf("failed to connect to vault at %s: %w", apiConfig.Address, err)
	}
	if logger != nil {
		logger.Info("Connected to Vault",
			"address", apiConfig.Address,
			"namespace", config.Namespace,
			"version", health.Version,
			"sealed", health.Sealed)
	}

	return &VaultClient{client: client, logger: logger}, nil
}

// resolveVaultToken prefers the configured token over the token file
func resolveVaultToken(config VaultConfig, logger *errors.Logger) (string, error) {
	token := config.Token
	if token == "" && config.TokenFile != "" {
		data, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(data))
		if logger != nil {
			logger.Debug("Vault token read from file", "file", config.TokenFile)
		}
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// GetSecretV2 reads a KVv2 secret and its version
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

	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	versionRaw, ok := metadata["version"]
	if !ok {
		return nil, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	version, err := parseVersionValue(versionRaw, path)
	if err != nil {
		return nil, err
	}

	if vc.logger != nil {
		vc.logger.Debug("Secret read from Vault", "path", path, "version", version)
	}
	return &VaultSecret{Data: data, Version: version}, nil
}

func (vc *VaultClient) extractSecretData(secret *api.Secret, path string) (map[string]any, error) {
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	return data, nil
}

// parseVersionValue accepts the numeric shapes the Vault client decodes to
func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case json.Number:
		version, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}

// GetStringSecret returns one string field of a secret
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

// GetStringSliceSecret splits a comma separated string field, dropping blanks
func (vc *VaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	value, err := vc.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	return splitList(value), nil
}

// vaultBinding copies one secret field into the configuration
type vaultBinding struct {
	path        string
	key         string
	description string
	apply       func(value string)
}

func vaultBindings(config *Config) []vaultBinding {
	return []vaultBinding{
		{config.Vault.Secrets.APIKeys, "keys", "server API keys", func(v string) {
			if keys := splitList(v); len(keys) > 0 {
				config.Server.APIKeys = keys
			}
		}},
		{config.Vault.Secrets.AIKey, "api_key", "AI API key", func(v string) { config.AI.APIKey = v }},
		{config.Vault.Secrets.UnidocKey, "license_key", "unidoc license key", func(v string) {
			config.Extract.UnidocLicenseKey = v
		}},
	}
}

// ApplyVaultSecrets overrides configured secrets with the values stored in
// Vault. An empty value in Vault leaves the configured one in place.
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		if logger != nil {
			logger.Debug("Vault integration disabled, skipping secret loading")
		}
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "Failed to initialize Vault client", err)
	}

	loaded := 0
	for _, b := range vaultBindings(config) {
		if b.path == "" {
			continue
		}
		value, err := client.GetStringSecret(b.path, b.key)
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("Failed to load %s from Vault", b.description), err).
				WithContext("path", b.path)
		}
		if value == "" {
			if logger != nil {
				logger.Warn("Empty secret in Vault", "secret", b.description, "path", b.path)
			}
			continue
		}
		b.apply(value)
		loaded++
	}

	if logger != nil {
		logger.Info("Secrets applied from Vault", "count", loaded)
	}
	return nil
}
